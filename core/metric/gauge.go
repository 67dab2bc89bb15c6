package metric

import (
	"fmt"

	"github.com/u9n/instrumentor/core/keycodec"
)

// Gauge is a metric that can go up and down, and can be set to an absolute
// value.
//
// Before the first Set for a label combination, updates ride the remote
// atomic increment and stay correct without knowing the remote value. Once
// a Set has been issued for a combination, the remote value may no longer
// equal the sum of everyone's increments, so every later update for that
// combination is emitted as an absolute set. The switch is permanent per
// combination.
type Gauge struct {
	metric
	values    map[string]float64
	setIssued map[string]struct{}
	// floatSeen pins a label combination to the float increment path once
	// any non-integral value has touched it. The remote store refuses an
	// integer increment on a field holding a float, so the kind may never
	// flip back even when the running value becomes integral again.
	floatSeen map[string]struct{}
}

// NewGauge creates a gauge. Labels are declared with WithLabels.
func NewGauge(name, description string, opts ...Option) (*Gauge, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	base, err := newMetric(name, description, TypeCodeGauge, o.labels)
	if err != nil {
		return nil, err
	}
	return &Gauge{
		metric:    base,
		values:    map[string]float64{keycodec.NoLabels: 0},
		setIssued: make(map[string]struct{}),
		floatSeen: make(map[string]struct{}),
	}, nil
}

// Inc increases the gauge by 1.
func (g *Gauge) Inc(labels map[string]string) error {
	return g.Add(1, labels)
}

// Dec decreases the gauge by 1.
func (g *Gauge) Dec(labels map[string]string) error {
	return g.Sub(1, labels)
}

// Add increases the gauge by value, which must not be negative. Use Sub to
// decrease.
func (g *Gauge) Add(value float64, labels map[string]string) error {
	if value < 0 {
		return fmt.Errorf("gauge %s: %w: Add only accepts positive values, use Sub to decrease", g.name, ErrNegativeValue)
	}
	return g.update(value, labels)
}

// Sub decreases the gauge by value, which must not be negative. Use Add to
// increase.
func (g *Gauge) Sub(value float64, labels map[string]string) error {
	if value < 0 {
		return fmt.Errorf("gauge %s: %w: Sub only accepts positive values, use Add to increase", g.name, ErrNegativeValue)
	}
	return g.update(-value, labels)
}

// Set overwrites the gauge for a label combination and switches that
// combination to set-mode permanently.
func (g *Gauge) Set(value float64, labels map[string]string) error {
	if !g.bound() {
		return fmt.Errorf("gauge %s: %w", g.name, ErrNotRegistered)
	}
	ls, err := g.encodeLabels(labels, nil)
	if err != nil {
		return err
	}
	return g.setEncoded(ls, value)
}

func (g *Gauge) update(delta float64, labels map[string]string) error {
	if !g.bound() {
		return fmt.Errorf("gauge %s: %w", g.name, ErrNotRegistered)
	}
	ls, err := g.encodeLabels(labels, nil)
	if err != nil {
		return err
	}

	next := g.values[ls] + delta
	if _, issued := g.setIssued[ls]; issued {
		return g.setEncoded(ls, next)
	}

	g.values[ls] = next
	return g.propagate([]Intent{{
		Key:   keycodec.Key(g.name, keycodec.ExtValue, ls),
		Value: g.valueFor(ls, next),
	}})
}

func (g *Gauge) setEncoded(ls string, value float64) error {
	g.values[ls] = value
	g.setIssued[ls] = struct{}{}
	return g.propagate([]Intent{{
		Key:   keycodec.Key(g.name, keycodec.ExtValue, ls),
		Value: g.valueFor(ls, value),
		Set:   true,
	}})
}

// valueFor picks the increment kind for a label combination. The kind is
// sticky: the first non-integral value switches the combination to the
// float path for good.
func (g *Gauge) valueFor(ls string, v float64) Value {
	if _, ok := g.floatSeen[ls]; ok || !integral(v) {
		g.floatSeen[ls] = struct{}{}
		return FloatValue(v)
	}
	return IntValue(int64(v))
}

// Reset is a no-op. A gauge is not a since-last-flush quantity: once
// set-mode triggers the remote store is the source of truth, and before
// that the remote increment already preserves the value across flushes.
func (g *Gauge) Reset() {}
