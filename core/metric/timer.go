package metric

import "time"

// Timer measures the duration of an operation and records it into a
// histogram. Typical use:
//
//	t := requestSeconds.StartTimer(map[string]string{"path": "/api"})
//	defer t.ObserveDuration()
//
// The deferred observation runs on every exit path, including errors.
type Timer struct {
	h      *Histogram
	labels map[string]string
	start  time.Time
}

// StartTimer starts timing an operation against this histogram.
func (h *Histogram) StartTimer(labels map[string]string) *Timer {
	return &Timer{h: h, labels: labels, start: h.clk.Now()}
}

// ObserveDuration records the elapsed time in seconds.
func (t *Timer) ObserveDuration() error {
	return t.h.Observe(t.h.clk.Since(t.start).Seconds(), t.labels)
}

// ObserveDurationMillis records the elapsed time in milliseconds, for
// histograms whose buckets are declared in milliseconds.
func (t *Timer) ObserveDurationMillis() error {
	return t.h.Observe(t.h.clk.Since(t.start).Seconds()*1000, t.labels)
}
