package metric

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/u9n/instrumentor/core/keycodec"
)

// One-letter type codes written to the remote store under the "t" extension.
const (
	TypeCodeCounter   = "c"
	TypeCodeGauge     = "g"
	TypeCodeHistogram = "h"
)

var (
	ErrNegativeValue = errors.New("negative value")
	ErrNotRegistered = errors.New("metric is not registered in a collector registry")
	ErrNoBuckets     = errors.New("histogram requires at least one bucket boundary")
)

type options struct {
	labels         []string
	buckets        []float64
	labelledTotals bool
	clock          clock.Clock
}

// Option configures a metric at construction.
type Option func(*options)

// WithLabels declares the label names callers may use with this metric.
// Declaring a reserved name is a configuration error.
func WithLabels(names ...string) Option {
	return func(o *options) { o.labels = append(o.labels, names...) }
}

// WithBuckets sets the histogram bucket boundaries, in ascending order.
// Histograms require at least one boundary.
func WithBuckets(bounds ...float64) Option {
	return func(o *options) { o.buckets = append(o.buckets, bounds...) }
}

// WithLabelledTotals qualifies the histogram total count and sum with the
// observation's labels instead of keeping one global figure per metric.
func WithLabelledTotals() Option {
	return func(o *options) { o.labelledTotals = true }
}

// WithClock injects the clock used by timers. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// metric is the state shared by all metric kinds: identity, the declared
// label set, and the bound sink.
type metric struct {
	name        string
	description string
	typeCode    string
	allowed     map[string]struct{}
	sink        Sink
	// registeredRemotely flips after the first propagation so the type code
	// and description are written to the store exactly once per binding.
	registeredRemotely bool
}

func newMetric(name, description, typeCode string, labels []string) (metric, error) {
	allowed := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if keycodec.Reserved(l) {
			return metric{}, fmt.Errorf("metric %s: %w: %q", name, keycodec.ErrReservedLabel, l)
		}
		allowed[l] = struct{}{}
	}
	return metric{
		name:        name,
		description: description,
		typeCode:    typeCode,
		allowed:     allowed,
	}, nil
}

func (m *metric) Name() string        { return m.name }
func (m *metric) Description() string { return m.description }

// Bind attaches the metric to a sink, replacing any previous binding. The
// type code and description will be re-propagated to the new sink's store.
func (m *metric) Bind(s Sink) {
	m.sink = s
	m.registeredRemotely = false
}

// Unbind detaches the metric from its sink.
func (m *metric) Unbind() { m.sink = nil }

func (m *metric) bound() bool { return m.sink != nil }

// encodeLabels canonicalizes a caller-supplied label mapping against the
// metric's declared labels. internal labels (bucket boundaries) pass
// unchecked.
func (m *metric) encodeLabels(labels map[string]string, internal map[string]struct{}) (string, error) {
	s, err := keycodec.EncodeLabels(labels, keycodec.LabelRules{Allowed: m.allowed, Internal: internal})
	if err != nil {
		return "", fmt.Errorf("metric %s: %w", m.name, err)
	}
	return s, nil
}

// propagate hands intents to the bound sink, prepending the metric's type
// and description on first propagation.
func (m *metric) propagate(intents []Intent) error {
	if !m.bound() {
		return fmt.Errorf("metric %s: %w", m.name, ErrNotRegistered)
	}
	if !m.registeredRemotely {
		intents = append(intents,
			Intent{Key: keycodec.Key(m.name, keycodec.ExtType, ""), Value: StringValue(m.typeCode), Set: true},
			Intent{Key: keycodec.Key(m.name, keycodec.ExtDescription, ""), Value: StringValue(m.description), Set: true},
		)
		m.registeredRemotely = true
	}
	return m.sink.ReceiveIntents(intents)
}
