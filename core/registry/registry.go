// Package registry implements the collector registry: it indexes metrics,
// coalesces their update intents into a buffer, and flushes the buffer to
// the remote store in one pipelined round trip.
//
// Coalescing is last-write-wins per key. That is correct because every
// non-set local value is "accumulated since the last flush" and metrics
// are reset after each successful flush, so the most recent intent for a key
// carries the whole net change. Flushing is all-or-nothing: on a failed
// round trip the buffer and all local metric state stay untouched and the
// same flush can be retried verbatim.
//
// The registry has no internal locking, matching the rest of the core.
// Serialize access yourself when metrics are updated or flushed from
// multiple goroutines; across processes, correctness comes from the remote
// store's atomic increment and set primitives.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/u9n/instrumentor/core/metric"
	"github.com/u9n/instrumentor/ports/store"
)

var (
	ErrDuplicateMetric = errors.New("metric name already registered")
	ErrMetricNotFound  = errors.New("metric is not registered")
)

// Metric is what the registry needs from a metric: identity, sink binding
// and the post-flush reset. All types in core/metric satisfy it.
type Metric interface {
	Name() string
	Bind(metric.Sink)
	Unbind()
	Reset()
}

type Options struct {
	// Store is the remote aggregation target. Required.
	Store store.Store
	// Namespace scopes all keys of this registry in the store. Required.
	Namespace string
	// Eager flushes after every received update instead of waiting for an
	// explicit Flush call.
	Eager bool
	// Context is used for eager flushes. Defaults to context.Background().
	Context context.Context
	// Log defaults to slog.Default().
	Log *slog.Logger
}

// Registry owns the pending-update buffer and the metric index for one
// namespace.
type Registry struct {
	store     store.Store
	namespace string
	eager     bool
	ctx       context.Context
	log       *slog.Logger
	metrics   map[string]Metric
	buffer    map[string]metric.Intent
}

func New(opts Options) (*Registry, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Namespace == "" {
		return nil, errors.New("namespace is required")
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Registry{
		store:     opts.Store,
		namespace: opts.Namespace,
		eager:     opts.Eager,
		ctx:       opts.Context,
		log:       opts.Log,
		metrics:   make(map[string]Metric),
		buffer:    make(map[string]metric.Intent),
	}, nil
}

// Register indexes the metric by name and binds this registry as its sink.
// Registering a second metric under an already-taken name fails rather
// than silently replacing the first.
func (r *Registry) Register(m Metric) error {
	if _, ok := r.metrics[m.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMetric, m.Name())
	}
	r.metrics[m.Name()] = m
	m.Bind(r)
	return nil
}

// Unregister removes the metric from the index and detaches it.
func (r *Registry) Unregister(m Metric) error {
	if _, ok := r.metrics[m.Name()]; !ok {
		return fmt.Errorf("%w: %s", ErrMetricNotFound, m.Name())
	}
	delete(r.metrics, m.Name())
	m.Unbind()
	return nil
}

// ReceiveIntents coalesces intents into the buffer, last write wins per
// key. In eager mode the buffer is flushed immediately.
func (r *Registry) ReceiveIntents(intents []metric.Intent) error {
	for _, in := range intents {
		r.buffer[in.Key] = in
	}
	if r.eager {
		return r.Flush(r.ctx)
	}
	return nil
}

var _ metric.Sink = (*Registry)(nil)

// Flush applies the buffer to the remote store as one pipelined unit: all
// absolute sets as a single multi-field write, then one atomic increment
// per remaining intent. On success every contributing metric is reset and
// the buffer cleared; on failure both are left untouched for a retry.
func (r *Registry) Flush(ctx context.Context) error {
	if len(r.buffer) == 0 {
		return nil
	}

	sets := make(map[string]any)
	incs := make([]metric.Intent, 0, len(r.buffer))
	contributing := make(map[string]struct{})
	for key, in := range r.buffer {
		name, _, _ := strings.Cut(key, ":")
		contributing[name] = struct{}{}
		if in.Set {
			sets[key] = in.Value.Any()
		} else {
			incs = append(incs, in)
		}
	}
	// Stable pipeline order; the buffer map iterates randomly.
	sort.Slice(incs, func(i, j int) bool { return incs[i].Key < incs[j].Key })

	batch := r.store.Batch()
	if len(sets) > 0 {
		batch.Set(r.namespace, sets)
	}
	for _, in := range incs {
		if in.Value.IsInt() {
			batch.IncrBy(r.namespace, in.Key, in.Value.Int())
		} else {
			batch.IncrByFloat(r.namespace, in.Key, in.Value.Float())
		}
	}

	if err := batch.Exec(ctx); err != nil {
		return fmt.Errorf("flush namespace %s: %w", r.namespace, err)
	}

	for name := range contributing {
		if m, ok := r.metrics[name]; ok {
			m.Reset()
		}
	}
	r.buffer = make(map[string]metric.Intent)

	r.log.Debug("flushed metrics buffer",
		slog.String("namespace", r.namespace),
		slog.Int("sets", len(sets)),
		slog.Int("increments", len(incs)),
	)
	return nil
}
