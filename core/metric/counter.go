package metric

import (
	"fmt"

	"github.com/u9n/instrumentor/core/keycodec"
)

// Counter is a monotonically increasing metric. Local totals accumulate
// per label combination since the last flush and are emitted as increment
// intents carrying the cumulative local total.
type Counter struct {
	metric
	counts map[string]int64
}

// NewCounter creates a counter. Labels are declared with WithLabels.
func NewCounter(name, description string, opts ...Option) (*Counter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	base, err := newMetric(name, description, TypeCodeCounter, o.labels)
	if err != nil {
		return nil, err
	}
	c := &Counter{metric: base}
	c.Reset()
	return c, nil
}

// Inc increments the counter by 1. labels may be nil.
func (c *Counter) Inc(labels map[string]string) error {
	return c.Add(1, labels)
}

// Add increments the counter by value, which must not be negative.
func (c *Counter) Add(value int64, labels map[string]string) error {
	if value < 0 {
		return fmt.Errorf("counter %s: %w: a counter cannot decrease, got %d", c.name, ErrNegativeValue, value)
	}
	if !c.bound() {
		return fmt.Errorf("counter %s: %w", c.name, ErrNotRegistered)
	}
	ls, err := c.encodeLabels(labels, nil)
	if err != nil {
		return err
	}

	next := c.counts[ls] + value
	c.counts[ls] = next

	return c.propagate([]Intent{{
		Key:   keycodec.Key(c.name, keycodec.ExtValue, ls),
		Value: IntValue(next),
	}})
}

// Reset clears all label combinations back to the zero-value no-labels
// state. Called by the registry after a successful flush.
func (c *Counter) Reset() {
	c.counts = map[string]int64{keycodec.NoLabels: 0}
}
