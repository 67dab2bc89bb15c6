package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Mem is an in-memory Store. It mirrors the remote contract closely
// enough for tests: batches buffer their mutations until Exec, an
// injected transport failure drops the whole batch, and an increment
// against a field of the wrong kind errors the way the remote store
// would instead of treating the field as 0.
type Mem struct {
	mu      sync.RWMutex
	data    map[string]map[string]string
	execErr error
}

func NewMem() *Mem {
	return &Mem{data: map[string]map[string]string{}}
}

// FailNextExec makes the next Exec return err without applying anything.
func (m *Mem) FailNextExec(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execErr = err
}

func (m *Mem) Batch() Batch {
	return &memBatch{store: m}
}

func (m *Mem) GetAll(_ context.Context, namespace string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.data[namespace]))
	for k, v := range m.data[namespace] {
		out[k] = v
	}
	return out, nil
}

func (m *Mem) namespace(name string) map[string]string {
	ns, ok := m.data[name]
	if !ok {
		ns = map[string]string{}
		m.data[name] = ns
	}
	return ns
}

type memBatch struct {
	store *Mem
	ops   []func(m *Mem) error
}

func (b *memBatch) Set(namespace string, fields map[string]any) {
	b.ops = append(b.ops, func(m *Mem) error {
		ns := m.namespace(namespace)
		for k, v := range fields {
			ns[k] = formatValue(v)
		}
		return nil
	})
}

func (b *memBatch) IncrBy(namespace, field string, delta int64) {
	b.ops = append(b.ops, func(m *Mem) error {
		ns := m.namespace(namespace)
		cur := int64(0)
		if s, ok := ns[field]; ok {
			var err error
			if cur, err = strconv.ParseInt(s, 10, 64); err != nil {
				return fmt.Errorf("%s: hash value is not an integer", field)
			}
		}
		ns[field] = strconv.FormatInt(cur+delta, 10)
		return nil
	})
}

func (b *memBatch) IncrByFloat(namespace, field string, delta float64) {
	b.ops = append(b.ops, func(m *Mem) error {
		ns := m.namespace(namespace)
		cur := float64(0)
		if s, ok := ns[field]; ok {
			var err error
			if cur, err = strconv.ParseFloat(s, 64); err != nil {
				return fmt.Errorf("%s: hash value is not a float", field)
			}
		}
		ns[field] = strconv.FormatFloat(cur+delta, 'f', -1, 64)
		return nil
	})
}

// Exec applies the queued mutations. A transport failure injected via
// FailNextExec applies nothing; a per-mutation error does not stop the
// remaining mutations from applying, matching how the remote store runs
// a queued transaction. The first such error is returned.
func (b *memBatch) Exec(_ context.Context) error {
	m := b.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.execErr != nil {
		err := m.execErr
		m.execErr = nil
		return err
	}
	var first error
	for _, op := range b.ops {
		if err := op(m); err != nil && first == nil {
			first = err
		}
	}
	b.ops = nil
	return first
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

var _ Store = (*Mem)(nil)
