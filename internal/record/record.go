// Package record models the extraction record the critique pipeline consumes.
// A record is an arbitrary nested JSON object produced by the upstream
// extractors. Leaves that follow the {value, sourceText} shape are
// "verifiable" and can be evidence-checked; everything else is tolerated
// and simply skips the corresponding checks.
package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is a parsed extraction record.
type Record map[string]interface{}

// Field is a verifiable leaf: an extracted value plus the literal quote
// it was derived from.
type Field struct {
	Value      interface{} `json:"value"`
	SourceText string      `json:"sourceText"`
}

// Parse decodes a JSON document into a Record.
func Parse(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	return r, nil
}

// Get walks a dot-path ("outcomes.mortality") into the record.
// The second return is false when any path segment is absent.
func (r Record) Get(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(r)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetField resolves a dot-path to a verifiable field. If the leaf is a
// plain value (not {value, sourceText} wrapped), ok is false.
func (r Record) GetField(path string) (Field, bool) {
	v, ok := r.Get(path)
	if !ok {
		return Field{}, false
	}
	return AsField(v)
}

// GetValue resolves a dot-path to its effective value, unwrapping a
// verifiable field if the leaf is one.
func (r Record) GetValue(path string) (interface{}, bool) {
	v, ok := r.Get(path)
	if !ok {
		return nil, false
	}
	if f, isField := AsField(v); isField {
		return f.Value, true
	}
	return v, true
}

// AsField interprets a raw leaf as a verifiable field.
// A map with a "value" key qualifies; sourceText may be empty.
func AsField(v interface{}) (Field, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Field{}, false
	}
	val, hasValue := m["value"]
	if !hasValue {
		return Field{}, false
	}
	src, _ := m["sourceText"].(string)
	return Field{Value: val, SourceText: src}, true
}

// Walk visits every leaf of the record in sorted path order. Verifiable
// fields are visited as a single leaf (the wrapper, not its members).
func (r Record) Walk(fn func(path string, value interface{})) {
	walk("", map[string]interface{}(r), fn)
}

func walk(prefix string, node map[string]interface{}, fn func(string, interface{})) {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		v := node[k]
		if _, isField := AsField(v); isField {
			fn(path, v)
			continue
		}
		if m, ok := v.(map[string]interface{}); ok {
			walk(path, m, fn)
			continue
		}
		fn(path, v)
	}
}

// VerifiableFields returns every {value, sourceText} leaf keyed by dot-path.
func (r Record) VerifiableFields() map[string]Field {
	out := make(map[string]Field)
	r.Walk(func(path string, v interface{}) {
		if f, ok := AsField(v); ok {
			out[path] = f
		}
	})
	return out
}

// Has reports whether the path resolves to a non-empty value.
func (r Record) Has(path string) bool {
	v, ok := r.GetValue(path)
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// HasAny reports whether any of the alias paths resolves to a non-empty value.
func (r Record) HasAny(paths ...string) bool {
	for _, p := range paths {
		if r.Has(p) {
			return true
		}
	}
	return false
}

// AsFloat coerces a leaf value to float64. Strings are parsed after
// stripping a trailing percent sign.
func AsFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString renders a leaf value the way it would appear in a report.
func AsString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// ContextFlags describes what the record makes available, used by triage
// and the data-quality heuristic.
type ContextFlags struct {
	HasFullText   bool
	HasComparator bool
	HasOutcomes   bool
	HasQuality    bool
}

// Flags derives the context flags for a record. fullText is the complete
// source document text when the caller has it; empty means unavailable.
func (r Record) Flags(fullText string) ContextFlags {
	return ContextFlags{
		HasFullText:   strings.TrimSpace(fullText) != "",
		HasComparator: r.HasAny("comparator.present", "comparator.groupSize", "comparator.description"),
		HasOutcomes:   r.HasAny("outcomes.mortality", "outcomes.mRS", "outcomes.GOS", "outcomes.favorableOutcome"),
		HasQuality:    r.HasAny("quality.total", "quality.newcastleOttawa", "quality.selection"),
	}
}
