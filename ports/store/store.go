// Package store defines the remote key-value contract the registry
// flushes into: a namespace-scoped hash map with atomic increments and
// pipelined batches. The canonical implementation is adapters/redis; Mem
// provides an in-process stand-in for tests and examples.
package store

import "context"

// Store is the remote aggregation target shared by all processes
// contributing to a namespace.
type Store interface {
	// Batch starts a new batch of mutations. Nothing is sent until Exec.
	Batch() Batch
	// GetAll returns every field/value pair stored in the namespace.
	// Values come back in their stored textual form.
	GetAll(ctx context.Context, namespace string) (map[string]string, error)
}

// Batch is a sequence of mutations executed as one round trip. A
// transport failure applies none of the queued mutations. A mutation
// that fails at the store (for example an increment against a field of
// the wrong kind) does not stop the rest of the batch from applying;
// Exec reports it after the round trip.
type Batch interface {
	// Set overwrites fields absolutely. Values may be int64, float64 or
	// string.
	Set(namespace string, fields map[string]any)
	// IncrBy atomically adds delta to an integer field, creating it at 0.
	IncrBy(namespace, field string, delta int64)
	// IncrByFloat atomically adds delta to a float field, creating it at 0.
	IncrByFloat(namespace, field string, delta float64)
	// Exec sends the batch in one pipelined round trip.
	Exec(ctx context.Context) error
}
