// Package metric implements the local metric state machines: Counter,
// Gauge and Histogram.
//
// A metric accumulates label-qualified values in process memory and emits
// update intents to the registry it is bound to. Intents either increment
// the remote value or overwrite it absolutely; the registry coalesces them
// and applies the result to the remote store in one flush. Counter and
// Histogram values are "accumulated since the last flush": the registry
// resets them after every successful flush, so the single coalesced
// increment per key equals the net local change no matter how many calls
// contributed.
//
// Metrics carry no internal locking. Guard them with your own mutex when
// updating from multiple goroutines; see the registry package doc.
package metric
