package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Mem_SetAndGetAll(t *testing.T) {
	m := NewMem()

	b := m.Batch()
	b.Set("metrics", map[string]any{
		"up:t:": "g",
		"up::":  int64(1),
	})
	require.NoError(t, b.Exec(t.Context()))

	dump, err := m.GetAll(t.Context(), "metrics")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"up:t:": "g", "up::": "1"}, dump)
}

func Test_Mem_GetAll_EmptyNamespace(t *testing.T) {
	m := NewMem()

	dump, err := m.GetAll(t.Context(), "nothing-here")
	require.NoError(t, err)
	require.Empty(t, dump)
}

func Test_Mem_IncrBy(t *testing.T) {
	m := NewMem()

	b := m.Batch()
	b.IncrBy("metrics", "requests::", 3)
	b.IncrBy("metrics", "requests::", 4)
	require.NoError(t, b.Exec(t.Context()))

	dump, err := m.GetAll(t.Context(), "metrics")
	require.NoError(t, err)
	require.Equal(t, "7", dump["requests::"])
}

func Test_Mem_IncrByFloat(t *testing.T) {
	m := NewMem()

	b := m.Batch()
	b.IncrByFloat("metrics", "seconds:s:", 0.25)
	b.IncrByFloat("metrics", "seconds:s:", 0.5)
	require.NoError(t, b.Exec(t.Context()))

	dump, err := m.GetAll(t.Context(), "metrics")
	require.NoError(t, err)
	require.Equal(t, "0.75", dump["seconds:s:"])
}

func Test_Mem_NamespacesAreIsolated(t *testing.T) {
	m := NewMem()

	b := m.Batch()
	b.IncrBy("a", "k::", 1)
	require.NoError(t, b.Exec(t.Context()))

	dump, err := m.GetAll(t.Context(), "b")
	require.NoError(t, err)
	require.Empty(t, dump)
}

func Test_Mem_IncrBy_RejectsFloatField(t *testing.T) {
	m := NewMem()

	b := m.Batch()
	b.IncrByFloat("metrics", "seconds:s:", 0.5)
	require.NoError(t, b.Exec(t.Context()))

	b = m.Batch()
	b.IncrBy("metrics", "seconds:s:", 1)
	err := b.Exec(t.Context())
	require.ErrorContains(t, err, "not an integer")

	dump, err := m.GetAll(t.Context(), "metrics")
	require.NoError(t, err)
	require.Equal(t, "0.5", dump["seconds:s:"], "the failing increment must not touch the field")
}

func Test_Mem_IncrByFloat_RejectsNonNumericField(t *testing.T) {
	m := NewMem()

	b := m.Batch()
	b.Set("metrics", map[string]any{"up:t:": "g"})
	require.NoError(t, b.Exec(t.Context()))

	b = m.Batch()
	b.IncrByFloat("metrics", "up:t:", 0.5)
	require.ErrorContains(t, b.Exec(t.Context()), "not a float")
}

func Test_Mem_CommandErrorAppliesRemainingOps(t *testing.T) {
	m := NewMem()

	b := m.Batch()
	b.Set("metrics", map[string]any{"seconds:s:": "0.5"})
	require.NoError(t, b.Exec(t.Context()))

	b = m.Batch()
	b.IncrBy("metrics", "seconds:s:", 1)
	b.IncrBy("metrics", "requests::", 3)
	require.Error(t, b.Exec(t.Context()))

	// Like MULTI/EXEC, a command failure does not roll back the rest.
	dump, err := m.GetAll(t.Context(), "metrics")
	require.NoError(t, err)
	require.Equal(t, "3", dump["requests::"])
}

func Test_Mem_FailedExecAppliesNothing(t *testing.T) {
	m := NewMem()
	boom := errors.New("connection reset")

	b := m.Batch()
	b.Set("metrics", map[string]any{"up:t:": "g"})
	b.IncrBy("metrics", "requests::", 3)

	m.FailNextExec(boom)
	require.ErrorIs(t, b.Exec(t.Context()), boom)

	dump, err := m.GetAll(t.Context(), "metrics")
	require.NoError(t, err)
	require.Empty(t, dump, "a failed batch must not apply partially")

	// The failure is one-shot; a retry of the same batch succeeds.
	require.NoError(t, b.Exec(t.Context()))
	dump, err = m.GetAll(t.Context(), "metrics")
	require.NoError(t, err)
	require.Equal(t, "3", dump["requests::"])
}
