package registry_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geochart/internal/record"
	"github.com/Sumatoshi-tech/geochart/internal/registry"
)

const categoryField = "cat"

func recordsFor(categories ...string) record.Set {
	out := make(record.Set, len(categories))

	for i, c := range categories {
		out[i] = record.Record{categoryField: c}
	}

	return out
}

var (
	background = []string{"#111111", "#222222", "#333333"}
	border     = []string{"#aaaaaa", "#bbbbbb", "#cccccc"}
)

func TestUpdate_AssignsPaletteInOrder(t *testing.T) {
	t.Parallel()

	reg, changed := registry.New().Update(recordsFor("A", "B"), categoryField, background, border)
	require.True(t, changed)

	a, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, "#111111", a.BackgroundColor)
	assert.Equal(t, "#aaaaaa", a.BorderColor)
	assert.True(t, a.Visible)
	assert.True(t, a.Checked)

	b, ok := reg.Get("B")
	require.True(t, ok)
	assert.Equal(t, "#222222", b.BackgroundColor)
}

func TestUpdate_PaletteStability(t *testing.T) {
	t.Parallel()

	// A disappears and reappears across calls; its colors must not
	// move, and no other category's color may change.
	reg, _ := registry.New().Update(recordsFor("A", "B"), categoryField, background, border)

	before, ok := reg.Get("A")
	require.True(t, ok)

	reg, changed := reg.Update(recordsFor("B"), categoryField, background, border)
	require.True(t, changed)

	hidden, ok := reg.Get("A")
	require.True(t, ok)
	assert.False(t, hidden.Visible)
	assert.True(t, hidden.Checked)
	assert.Equal(t, before.BackgroundColor, hidden.BackgroundColor)

	reg, changed = reg.Update(recordsFor("A", "B", "C"), categoryField, background, border)
	require.True(t, changed)

	after, ok := reg.Get("A")
	require.True(t, ok)
	assert.True(t, after.Visible)
	assert.Equal(t, before.BackgroundColor, after.BackgroundColor)
	assert.Equal(t, before.BorderColor, after.BorderColor)

	// C was the third insertion overall; the palette index advanced
	// past A and B and was never reused.
	c, ok := reg.Get("C")
	require.True(t, ok)
	assert.Equal(t, "#333333", c.BackgroundColor)

	b, ok := reg.Get("B")
	require.True(t, ok)
	assert.Equal(t, "#222222", b.BackgroundColor)
}

func TestUpdate_PaletteWrapAround(t *testing.T) {
	t.Parallel()

	// With a palette of length N, the (N+i)-th category receives the
	// same color as the i-th.
	n := len(background)
	categories := make([]string, 0, n+2)

	for i := 0; i < n+2; i++ {
		categories = append(categories, fmt.Sprintf("cat-%d", i))
	}

	reg, _ := registry.New().Update(recordsFor(categories...), categoryField, background, border)

	for i := 0; i < 2; i++ {
		first, ok := reg.Get(fmt.Sprintf("cat-%d", i))
		require.True(t, ok)

		wrapped, ok := reg.Get(fmt.Sprintf("cat-%d", n+i))
		require.True(t, ok)

		assert.Equal(t, first.BackgroundColor, wrapped.BackgroundColor)
	}
}

func TestUpdate_NoPaletteUsesDefaultColor(t *testing.T) {
	t.Parallel()

	reg, _ := registry.New().Update(recordsFor("A", "B"), categoryField, nil, nil)

	a, _ := reg.Get("A")
	b, _ := reg.Get("B")
	assert.Equal(t, registry.DefaultColor, a.BackgroundColor)
	assert.Equal(t, registry.DefaultColor, b.BackgroundColor)
}

func TestUpdate_UnchangedReportsFalse(t *testing.T) {
	t.Parallel()

	reg, _ := registry.New().Update(recordsFor("A"), categoryField, background, border)

	next, changed := reg.Update(recordsFor("A"), categoryField, background, border)
	assert.False(t, changed)
	assert.Same(t, reg, next)
}

func TestUpdate_SnapshotDoesNotAliasPrevious(t *testing.T) {
	t.Parallel()

	first, _ := registry.New().Update(recordsFor("A"), categoryField, background, border)

	second, changed := first.Update(recordsFor("B"), categoryField, background, border)
	require.True(t, changed)

	// A went invisible in the second snapshot but stays visible in the
	// first.
	original, _ := first.Get("A")
	assert.True(t, original.Visible)

	updated, _ := second.Get("A")
	assert.False(t, updated.Visible)
}

func TestSetChecked(t *testing.T) {
	t.Parallel()

	reg, _ := registry.New().Update(recordsFor("A"), categoryField, background, border)

	unchecked, changed := reg.SetChecked("A", false)
	require.True(t, changed)
	assert.False(t, unchecked.Checked("A"))
	assert.True(t, reg.Checked("A"))

	// Re-appearing records must not reset checked.
	next, _ := unchecked.Update(recordsFor("A"), categoryField, background, border)
	assert.False(t, next.Checked("A"))

	same, changed := unchecked.SetChecked("A", false)
	assert.False(t, changed)
	assert.Same(t, unchecked, same)

	_, changed = reg.SetChecked("missing", false)
	assert.False(t, changed)
}
