// Package filter narrows a record set to the current slider ranges.
// Filters compose by intersection: the x range is applied first, then
// the y range on the already-narrowed set. Only line charts support
// range sliders; other chart kinds pass through untouched.
package filter

import (
	"time"

	"github.com/Sumatoshi-tech/geochart/internal/axis"
	"github.com/Sumatoshi-tech/geochart/internal/chartconfig"
	"github.com/Sumatoshi-tech/geochart/internal/record"
)

// Apply returns the subset of records within the given slider ranges.
// The input set is never mutated; the result is always a new sequence.
// A nil or non-ranged value leaves the corresponding axis unfiltered.
func Apply(kind chartconfig.Kind, axes chartconfig.Axes, records record.Set, xValue, yValue *axis.Value) record.Set {
	if kind != chartconfig.KindLine {
		return records.Clone()
	}

	out := records.Clone()

	if xValue != nil && xValue.Ranged {
		if axes.X.Type.Temporal() {
			out = filterTemporal(out, axes.X.Property, xValue.From, xValue.To)
		} else {
			out = filterNumeric(out, axes.X.Property, xValue.From, xValue.To)
		}
	}

	if yValue != nil && yValue.Ranged {
		out = filterNumeric(out, axes.Y.Property, yValue.From, yValue.To)
	}

	return out
}

func filterNumeric(records record.Set, field string, from, to float64) record.Set {
	out := make(record.Set, 0, len(records))

	for _, rec := range records {
		v, ok := record.Number(rec[field])
		if !ok {
			continue
		}

		if v >= from && v <= to {
			out = append(out, rec)
		}
	}

	return out
}

func filterTemporal(records record.Set, field string, from, to float64) record.Set {
	fromTime := time.UnixMilli(int64(from))
	toTime := time.UnixMilli(int64(to))

	out := make(record.Set, 0, len(records))

	for _, rec := range records {
		v, ok := record.Time(rec[field])
		if !ok {
			continue
		}

		if !v.Before(fromTime) && !v.After(toTime) {
			out = append(out, rec)
		}
	}

	return out
}
