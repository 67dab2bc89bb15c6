package metric

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/benbjohnson/clock"

	"github.com/u9n/instrumentor/core/keycodec"
)

// infLabel is the boundary of the virtual bucket every observation falls
// into; its count is the histogram's total observation count.
const infLabel = "+Inf"

var internalBucketLabel = map[string]struct{}{keycodec.BucketLabel: {}}

// Histogram samples observations into cumulative buckets: an observation
// counts toward every bucket whose boundary is at or above it, so bucket
// counts are monotonically non-decreasing in the boundary.
//
// By default the total observation count and the sum are global per metric
// rather than per label combination; only the bucket counts carry labels.
// WithLabelledTotals switches both to label-qualified figures.
type Histogram struct {
	metric
	buckets        []float64
	bucketCounts   map[string]int64
	sums           map[string]float64
	labelledTotals bool
	clk            clock.Clock
}

// NewHistogram creates a histogram. Bucket boundaries are required and
// must be finite and strictly increasing.
func NewHistogram(name, description string, opts ...Option) (*Histogram, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	base, err := newMetric(name, description, TypeCodeHistogram, o.labels)
	if err != nil {
		return nil, err
	}
	if len(o.buckets) == 0 {
		return nil, fmt.Errorf("histogram %s: %w", name, ErrNoBuckets)
	}
	if !sort.Float64sAreSorted(o.buckets) {
		return nil, fmt.Errorf("histogram %s: bucket boundaries must be in ascending order", name)
	}
	for i, b := range o.buckets {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, fmt.Errorf("histogram %s: bucket boundary must be finite, got %v", name, b)
		}
		if i > 0 && o.buckets[i-1] == b {
			return nil, fmt.Errorf("histogram %s: duplicate bucket boundary %v", name, b)
		}
	}
	clk := o.clock
	if clk == nil {
		clk = clock.New()
	}
	h := &Histogram{
		metric:         base,
		buckets:        o.buckets,
		labelledTotals: o.labelledTotals,
		clk:            clk,
	}
	h.Reset()
	return h, nil
}

// Observe records a single observation: every bucket with boundary >= value
// is incremented, along with the total count and the sum.
func (h *Histogram) Observe(value float64, labels map[string]string) error {
	if !h.bound() {
		return fmt.Errorf("histogram %s: %w", h.name, ErrNotRegistered)
	}

	totalLabels := keycodec.NoLabels
	if h.labelledTotals {
		ls, err := h.encodeLabels(labels, nil)
		if err != nil {
			return err
		}
		totalLabels = ls
	} else if _, err := h.encodeLabels(labels, nil); err != nil {
		// Validate before any bucket mutates.
		return err
	}

	intents := make([]Intent, 0, len(h.buckets)+2)
	for _, bound := range h.buckets {
		if value > bound {
			continue
		}
		bls, err := h.encodeLabels(withBoundary(labels, formatBoundary(bound)), internalBucketLabel)
		if err != nil {
			return err
		}
		h.bucketCounts[bls]++
		intents = append(intents, Intent{
			Key:   keycodec.Key(h.name, keycodec.ExtBucket, bls),
			Value: IntValue(h.bucketCounts[bls]),
		})
	}

	// The +Inf bucket doubles as the total observation count.
	infKey := keycodec.BucketLabel + "=" + strconv.Quote(infLabel)
	if h.labelledTotals {
		bls, err := h.encodeLabels(withBoundary(labels, infLabel), internalBucketLabel)
		if err != nil {
			return err
		}
		infKey = bls
	}
	h.bucketCounts[infKey]++
	h.sums[totalLabels] += value

	intents = append(intents,
		Intent{
			Key:   keycodec.Key(h.name, keycodec.ExtCount, totalLabels),
			Value: IntValue(h.bucketCounts[infKey]),
		},
		// The sum always rides the float path: observations are floats, and
		// flipping a series to integer increments when the since-reset sum
		// happens to be integral would fail against a stored float.
		Intent{
			Key:   keycodec.Key(h.name, keycodec.ExtSum, totalLabels),
			Value: FloatValue(h.sums[totalLabels]),
		},
	)

	return h.propagate(intents)
}

// Reset clears all bucket counts and sums. Called by the registry after a
// successful flush.
func (h *Histogram) Reset() {
	h.bucketCounts = make(map[string]int64)
	h.sums = make(map[string]float64)
}

func formatBoundary(b float64) string {
	return strconv.FormatFloat(b, 'g', -1, 64)
}

func withBoundary(labels map[string]string, boundary string) map[string]string {
	merged := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		merged[k] = v
	}
	merged[keycodec.BucketLabel] = boundary
	return merged
}
