// Package record defines the flat tabular record model the chart
// pipeline operates on, plus scalar coercion helpers shared by the
// range resolver, filter, and series builder.
package record

import (
	"encoding/json"
	"strconv"
	"time"
)

// Record is a flat string-keyed mapping from field name to scalar value
// (string, number, boolean, or nil). No nested structure is assumed.
type Record map[string]any

// Set is an ordered sequence of records attached to a datasource.
// Sets are never mutated in place; filtering produces a new Set.
type Set []Record

// Clone returns a shallow copy of the set. Records themselves are
// shared; the pipeline treats them as read-only.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	copy(out, s)

	return out
}

// Number converts a scalar to float64. Strings are parsed, booleans and
// nil are rejected. The second return reports convertibility.
func Number(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int32:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case json.Number:
		f, err := tv.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(tv, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// timeLayouts are tried in order when parsing string timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Time converts a scalar to a time.Time. Numeric values are treated as
// Unix epoch milliseconds; strings are parsed against common layouts.
func Time(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case string:
		for _, layout := range timeLayouts {
			t, err := time.Parse(layout, tv)
			if err == nil {
				return t, true
			}
		}

		return time.Time{}, false
	default:
		ms, ok := Number(v)
		if !ok {
			return time.Time{}, false
		}

		return time.UnixMilli(int64(ms)), true
	}
}

// String renders a scalar the way it is shown as a category key or
// axis label. nil renders as the empty string.
func String(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case int:
		return strconv.Itoa(tv)
	case json.Number:
		return tv.String()
	default:
		return ""
	}
}
