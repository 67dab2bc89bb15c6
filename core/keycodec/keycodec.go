// Package keycodec implements the canonical key format that addresses
// metric samples in the remote store.
//
// A key has the textual form "{name}:{extension}:{labels}". The extension
// is a single letter (or empty) describing what the key holds, and the
// label segment is a comma-joined list of `name="value"` pairs sorted by
// label name. Sorting makes the encoding order-independent: the same label
// set always canonicalizes to the same key no matter how the caller ordered
// it. Encoding and splitting round-trip for every valid key.
package keycodec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NoLabels marks a sample recorded without labels. It is distinct from an
// empty label string so local metric state can tell "no labels given" apart
// from a key whose labels encoded to nothing. It never appears in a stored
// key; Key maps it to an empty label segment.
const NoLabels = "__"

// Label names the library claims for itself. Metrics must not declare them.
const (
	// BucketLabel qualifies histogram bucket keys with their upper boundary.
	BucketLabel = "le"
	// QuantileLabel is reserved for summary metrics.
	QuantileLabel = "quantile"
)

// Extension codes distinguishing what a stored key holds.
const (
	ExtValue       = ""  // direct metric value
	ExtType        = "t" // one-letter metric type code
	ExtDescription = "d" // help text
	ExtBucket      = "b" // histogram bucket count
	ExtCount       = "c" // histogram total observation count
	ExtSum         = "s" // histogram observation sum
)

var (
	ErrMalformedKey    = errors.New("malformed key")
	ErrReservedLabel   = errors.New("label name is reserved")
	ErrLabelNotAllowed = errors.New("label name is not allowed")
)

// Reserved reports whether name is claimed by the library and therefore
// unavailable as a user-declared label.
func Reserved(name string) bool {
	switch name {
	case NoLabels, BucketLabel, QuantileLabel:
		return true
	}
	return false
}

// LabelRules controls which label names EncodeLabels accepts.
type LabelRules struct {
	// Allowed is the set of label names the metric declared.
	Allowed map[string]struct{}
	// Internal lists labels injected by the library itself, such as the
	// histogram bucket boundary. They bypass the Allowed and reserved-name
	// checks.
	Internal map[string]struct{}
}

// EncodeLabels canonicalizes a label mapping into the sorted label-string
// form. An empty or nil mapping encodes to the NoLabels sentinel. Every
// label name must be allowed by rules; violations return ErrReservedLabel
// or ErrLabelNotAllowed.
func EncodeLabels(labels map[string]string, rules LabelRules) (string, error) {
	if len(labels) == 0 {
		return NoLabels, nil
	}

	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if _, internal := rules.Internal[name]; !internal {
			if Reserved(name) {
				return "", fmt.Errorf("%w: %q", ErrReservedLabel, name)
			}
			if _, ok := rules.Allowed[name]; !ok {
				return "", fmt.Errorf("%w: %q", ErrLabelNotAllowed, name)
			}
		}
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", name, labels[name])
	}
	return b.String(), nil
}

// Key formats the canonical key for a metric name, extension code and
// encoded label string. The NoLabels sentinel maps to an empty segment.
func Key(name, extension, labels string) string {
	if labels == NoLabels {
		labels = ""
	}
	return name + ":" + extension + ":" + labels
}

// Parts is the decoded form of a canonical key.
type Parts struct {
	Name      string
	Extension string
	Labels    string
}

// Split parses a canonical key back into its parts. The name and extension
// segments never contain a colon, so only the first two separators are
// structural; anything after them belongs to the label segment, where a
// colon may appear inside a label value.
func Split(key string) (Parts, error) {
	name, rest, ok := strings.Cut(key, ":")
	if !ok || name == "" {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	ext, labels, ok := strings.Cut(rest, ":")
	if !ok || len(ext) > 1 {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	if labels == NoLabels {
		labels = ""
	}
	return Parts{Name: name, Extension: ext, Labels: labels}, nil
}
