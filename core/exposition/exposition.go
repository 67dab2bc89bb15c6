// Package exposition reconstructs structured metric views from a flat
// namespace dump and renders them in the standard text format for
// scraping.
package exposition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/u9n/instrumentor/core/keycodec"
)

// Canonical type names emitted on # TYPE lines.
const (
	TypeCounter   = "counter"
	TypeGauge     = "gauge"
	TypeHistogram = "histogram"
	TypeSummary   = "summary"
	TypeUntyped   = "untyped"
)

// Tags distinguishing the value records of a distribution metric.
const (
	TagBucket = "bucket"
	TagCount  = "count"
	TagSum    = "sum"
)

// Value is one stored sample of a metric. Tag is empty for a direct
// metric value; distribution metrics carry bucket/count/sum records.
// The textual Value is kept exactly as stored.
type Value struct {
	Tag    string
	Labels string
	Value  string
}

// MetricSet is the structured view of one metric reassembled from the
// dump: identity plus every value record found under its name.
type MetricSet struct {
	Name        string
	Description string
	Type        string
	Values      []Value
}

// Decode groups a flat namespace dump by metric name and rebuilds one
// MetricSet per group. Malformed keys are skipped and returned so the
// caller can report them; a corrupt entry never aborts the rest of the
// dump. Groups without a stored type code come back as TypeUntyped.
func Decode(dump map[string]string) (sets []MetricSet, skipped []string) {
	keys := make([]string, 0, len(dump))
	for k := range dump {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byName := make(map[string]*MetricSet)
	for _, key := range keys {
		parts, err := keycodec.Split(key)
		if err != nil {
			skipped = append(skipped, key)
			continue
		}

		ms, ok := byName[parts.Name]
		if !ok {
			ms = &MetricSet{Name: parts.Name, Type: TypeUntyped}
			byName[parts.Name] = ms
		}

		value := dump[key]
		switch parts.Extension {
		case keycodec.ExtDescription:
			ms.Description = value
		case keycodec.ExtType:
			ms.Type = typeName(value)
		case keycodec.ExtBucket:
			ms.Values = append(ms.Values, Value{Tag: TagBucket, Labels: parts.Labels, Value: value})
		case keycodec.ExtCount:
			ms.Values = append(ms.Values, Value{Tag: TagCount, Labels: parts.Labels, Value: value})
		case keycodec.ExtSum:
			ms.Values = append(ms.Values, Value{Tag: TagSum, Labels: parts.Labels, Value: value})
		case keycodec.ExtValue:
			ms.Values = append(ms.Values, Value{Labels: parts.Labels, Value: value})
		default:
			skipped = append(skipped, key)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	sets = make([]MetricSet, 0, len(names))
	for _, name := range names {
		ms := byName[name]
		sort.Slice(ms.Values, func(i, j int) bool {
			if ms.Values[i].Tag != ms.Values[j].Tag {
				return ms.Values[i].Tag < ms.Values[j].Tag
			}
			return ms.Values[i].Labels < ms.Values[j].Labels
		})
		sets = append(sets, *ms)
	}
	return sets, skipped
}

// Render emits the text exposition format: per metric a # HELP line, a
// # TYPE line and one line per value record, with a blank line between
// metrics. Label-less lines omit the brace segment entirely.
func Render(sets []MetricSet) string {
	var b strings.Builder
	for _, ms := range sets {
		fmt.Fprintf(&b, "# HELP %s %s\n", ms.Name, ms.Description)
		fmt.Fprintf(&b, "# TYPE %s %s\n", ms.Name, ms.Type)
		for _, v := range ms.Values {
			name := ms.Name
			if v.Tag != "" {
				name += "_" + v.Tag
			}
			if v.Labels != "" {
				fmt.Fprintf(&b, "%s{%s} %s\n", name, v.Labels, v.Value)
			} else {
				fmt.Fprintf(&b, "%s %s\n", name, v.Value)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func typeName(code string) string {
	switch code {
	case "c":
		return TypeCounter
	case "g":
		return TypeGauge
	case "h":
		return TypeHistogram
	case "s":
		return TypeSummary
	default:
		return TypeUntyped
	}
}
