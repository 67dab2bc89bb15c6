package metric

import (
	"math"
	"strconv"
)

// Intent is a single buffered update: apply Value to the stored Key.
// Set false means "increment the remote value by Value", true means
// "overwrite the remote value with Value". String values only occur with
// Set=true (type codes and descriptions).
type Intent struct {
	Key   string
	Value Value
	Set   bool
}

// Sink receives update intents from metrics. It is the only edge a metric
// has towards the registry; *registry.Registry implements it.
type Sink interface {
	ReceiveIntents(intents []Intent) error
}

type valueKind uint8

const (
	kindInt valueKind = iota
	kindFloat
	kindString
)

// Value is the scalar carried by an Intent: an integer, a float or a
// string. The kind decides which remote primitive applies it (integer
// increment-by, float increment-by, or plain set).
type Value struct {
	kind valueKind
	i    int64
	f    float64
	s    string
}

func IntValue(v int64) Value     { return Value{kind: kindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: kindFloat, f: v} }
func StringValue(v string) Value { return Value{kind: kindString, s: v} }

// integral reports whether v can ride the integer increment path without
// loss. The increment kind must stay the same for a series' whole
// lifetime — the remote store rejects an integer increment on a field
// holding a float — so callers decide the kind per series, not per value.
func integral(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1<<53
}

// IsInt reports whether the value rides the integer increment path.
func (v Value) IsInt() bool { return v.kind == kindInt }

func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }

// Any returns the underlying scalar for handing to the store.
func (v Value) Any() any {
	switch v.kind {
	case kindInt:
		return v.i
	case kindFloat:
		return v.f
	default:
		return v.s
	}
}

func (v Value) String() string {
	switch v.kind {
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.s
	}
}
