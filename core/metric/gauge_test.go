package metric

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/u9n/instrumentor/core/keycodec"
)

func newTestGauge(t *testing.T) (*Gauge, *sinkRecorder) {
	t.Helper()
	g, err := NewGauge(
		"temperature_celsius", "Temperature",
		WithLabels("location", "sensor_id"),
	)
	require.NoError(t, err)
	sink := &sinkRecorder{}
	g.Bind(sink)
	return g, sink
}

func Test_Gauge_AddAndSub(t *testing.T) {
	g, _ := newTestGauge(t)

	require.NoError(t, g.Add(3, nil))
	require.NoError(t, g.Sub(1, nil))
	require.Equal(t, 2.0, g.values[keycodec.NoLabels])

	require.NoError(t, g.Inc(nil))
	require.NoError(t, g.Dec(nil))
	require.Equal(t, 2.0, g.values[keycodec.NoLabels])
}

func Test_Gauge_NegativeInputsRejected(t *testing.T) {
	g, _ := newTestGauge(t)

	require.ErrorIs(t, g.Add(-3, nil), ErrNegativeValue)
	require.ErrorIs(t, g.Sub(-3, nil), ErrNegativeValue)
	require.Equal(t, 0.0, g.values[keycodec.NoLabels])
}

func Test_Gauge_CanGoNegative(t *testing.T) {
	g, _ := newTestGauge(t)

	require.NoError(t, g.Sub(3, nil))
	require.Equal(t, -3.0, g.values[keycodec.NoLabels])
}

func Test_Gauge_LabelOrderHitsSameSeries(t *testing.T) {
	g, _ := newTestGauge(t)

	require.NoError(t, g.Add(3, map[string]string{"location": "office", "sensor_id": "3"}))
	require.NoError(t, g.Add(3, map[string]string{"sensor_id": "3", "location": "office"}))
	require.Equal(t, 6.0, g.values[`location="office",sensor_id="3"`])
}

func Test_Gauge_UpdateBeforeSetIsIncrement(t *testing.T) {
	g, sink := newTestGauge(t)

	require.NoError(t, g.Inc(nil))
	require.False(t, sink.intents[0].Set)

	require.NoError(t, g.Dec(nil))
	require.False(t, sink.last().Set)
}

func Test_Gauge_SetSwitchesToAbsoluteWrites(t *testing.T) {
	g, sink := newTestGauge(t)

	require.NoError(t, g.Set(100, nil))
	in, ok := sink.byKey("temperature_celsius::")
	require.True(t, ok)
	require.True(t, in.Set)
	require.Equal(t, 100.0, g.values[keycodec.NoLabels])

	// Every later update for this combination is an absolute set.
	require.NoError(t, g.Inc(nil))
	require.True(t, sink.last().Set)
	require.Equal(t, int64(101), sink.last().Value.Int())

	require.NoError(t, g.Dec(nil))
	require.True(t, sink.last().Set)
	require.Equal(t, int64(100), sink.last().Value.Int())
}

func Test_Gauge_SetModeIsPerLabelCombination(t *testing.T) {
	g, sink := newTestGauge(t)
	office := map[string]string{"location": "office"}
	lab := map[string]string{"location": "lab"}

	require.NoError(t, g.Set(20.5, office))
	require.NoError(t, g.Inc(office))
	require.True(t, sink.last().Set)

	// A never-set combination still rides the increment path.
	require.NoError(t, g.Inc(lab))
	require.False(t, sink.last().Set)
}

func Test_Gauge_IntegralValuesRideIntegerPath(t *testing.T) {
	g, sink := newTestGauge(t)

	require.NoError(t, g.Add(3, nil))
	in, ok := sink.byKey("temperature_celsius::")
	require.True(t, ok)
	require.True(t, in.Value.IsInt())

	require.NoError(t, g.Add(0.5, nil))
	require.False(t, sink.last().Value.IsInt())
	require.Equal(t, 3.5, sink.last().Value.Float())
}

func Test_Gauge_IncrementKindIsStickyPerSeries(t *testing.T) {
	g, sink := newTestGauge(t)

	// 0.5 + 0.5 lands on an integral total, but the series already holds a
	// float remotely; an integer increment against it would fail the flush.
	require.NoError(t, g.Add(0.5, nil))
	require.NoError(t, g.Add(0.5, nil))
	require.False(t, sink.last().Value.IsInt())
	require.Equal(t, 1.0, sink.last().Value.Float())

	// The pin applies per label combination: an untouched series still
	// rides the integer path.
	require.NoError(t, g.Add(2, map[string]string{"location": "lab"}))
	require.True(t, sink.last().Value.IsInt())
}

func Test_Gauge_SetKeepsFloatKind(t *testing.T) {
	g, sink := newTestGauge(t)

	require.NoError(t, g.Set(21.5, nil))
	require.NoError(t, g.Set(22, nil))
	require.False(t, sink.last().Value.IsInt())
	require.Equal(t, 22.0, sink.last().Value.Float())
}

func Test_Gauge_ResetKeepsValues(t *testing.T) {
	g, _ := newTestGauge(t)

	require.NoError(t, g.Set(42, nil))
	g.Reset()
	require.Equal(t, 42.0, g.values[keycodec.NoLabels])
}
