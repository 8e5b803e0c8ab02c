// Package registry tracks the stable visual identity of chart
// categories and labels: key -> {visible, checked, backgroundColor,
// borderColor}. Updates return a new snapshot instead of mutating in
// place, so recomputation paths never alias each other's state.
//
// Invariant: once a key is assigned a palette color, that color is
// stable for the registry's lifetime. Palette indices only advance
// forward and are never reassigned, even when a key disappears from
// view and later returns.
package registry

import (
	"github.com/Sumatoshi-tech/geochart/internal/record"
)

// DefaultColor is assigned to every key when no palette is supplied.
const DefaultColor = "#36a2eb"

// Entry is the visual state of one category or label key.
type Entry struct {
	Visible         bool
	Checked         bool
	BackgroundColor string
	BorderColor     string
}

// Registry is an immutable snapshot of key -> Entry. The zero value is
// not usable; call New.
type Registry struct {
	entries     map[string]Entry
	keys        []string
	bgIndex     int
	borderIndex int
}

// New returns an empty registry snapshot.
func New() *Registry {
	return &Registry{entries: map[string]Entry{}}
}

// clone copies the snapshot so the update functions can build a new
// one without touching the receiver.
func (r *Registry) clone() *Registry {
	out := &Registry{
		entries:     make(map[string]Entry, len(r.entries)),
		keys:        make([]string, len(r.keys)),
		bgIndex:     r.bgIndex,
		borderIndex: r.borderIndex,
	}

	for k, e := range r.entries {
		out.entries[k] = e
	}

	copy(out.keys, r.keys)

	return out
}

// Get returns the entry for key.
func (r *Registry) Get(key string) (Entry, bool) {
	e, ok := r.entries[key]

	return e, ok
}

// Keys returns all keys in first-seen order. The returned slice is
// shared; callers must not modify it.
func (r *Registry) Keys() []string {
	return r.keys
}

// Len returns the number of keys ever seen.
func (r *Registry) Len() int {
	return len(r.keys)
}

// Checked reports whether key exists and is checked.
func (r *Registry) Checked(key string) bool {
	e, ok := r.entries[key]

	return ok && e.Checked
}

// paletteColor indexes into palette modulo its length, or falls back to
// the default color when no palette is supplied.
func paletteColor(palette []string, index int) string {
	if len(palette) == 0 {
		return DefaultColor
	}

	return palette[index%len(palette)]
}

// Update reconciles the snapshot with the distinct values of field
// across records. New values are inserted visible and checked with the
// next palette colors; values no longer present are marked invisible
// without losing their color or checked state; returning values become
// visible again. It returns the new snapshot and whether anything
// changed, so callers can skip redundant downstream recomputation.
func (r *Registry) Update(records record.Set, field string, background, border []string) (*Registry, bool) {
	present := make(map[string]bool, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}

		key := record.String(v)
		if !present[key] {
			present[key] = true

			order = append(order, key)
		}
	}

	next := r.clone()
	changed := false

	for _, key := range order {
		entry, exists := next.entries[key]
		if !exists {
			next.entries[key] = Entry{
				Visible:         true,
				Checked:         true,
				BackgroundColor: paletteColor(background, next.bgIndex),
				BorderColor:     paletteColor(border, next.borderIndex),
			}
			next.keys = append(next.keys, key)
			next.bgIndex++
			next.borderIndex++
			changed = true

			continue
		}

		if !entry.Visible {
			entry.Visible = true
			next.entries[key] = entry
			changed = true
		}
	}

	for _, key := range next.keys {
		if present[key] {
			continue
		}

		entry := next.entries[key]
		if entry.Visible {
			entry.Visible = false
			next.entries[key] = entry
			changed = true
		}
	}

	if !changed {
		return r, false
	}

	return next, true
}

// SetChecked returns a snapshot with key's checked flag set. Unknown
// keys are ignored.
func (r *Registry) SetChecked(key string, checked bool) (*Registry, bool) {
	entry, ok := r.entries[key]
	if !ok || entry.Checked == checked {
		return r, false
	}

	next := r.clone()
	entry.Checked = checked
	next.entries[key] = entry

	return next, true
}
