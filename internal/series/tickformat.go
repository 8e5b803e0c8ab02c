package series

import (
	"time"

	"github.com/Sumatoshi-tech/geochart/internal/locale"
)

// TickFormatter renders temporal tick labels as locale-short dates and
// suppresses consecutive duplicates. Generated labels are kept in a
// side channel keyed by tick index, so a tick only emits a label when
// it differs from the immediately preceding tick's generated label or
// is explicitly marked major.
type TickFormatter struct {
	loc  *locale.Formatter
	prev map[int]string
}

// NewTickFormatter builds a formatter for one render pass.
func NewTickFormatter(loc *locale.Formatter) *TickFormatter {
	return &TickFormatter{loc: loc, prev: map[int]string{}}
}

// Format returns the label for the tick at index, or the empty string
// when it duplicates the previous tick's label and is not major.
func (f *TickFormatter) Format(index int, t time.Time, major bool) string {
	label := f.loc.ShortDate(t)
	f.prev[index] = label

	if major {
		return label
	}

	previous, ok := f.prev[index-1]
	if ok && previous == label {
		return ""
	}

	return label
}
