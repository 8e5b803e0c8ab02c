package cache_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geochart/internal/cache"
	"github.com/Sumatoshi-tech/geochart/internal/record"
)

func setOf(n int) record.Set {
	out := make(record.Set, n)
	for i := range out {
		out[i] = record.Record{"i": float64(i)}
	}

	return out
}

func TestGetPut(t *testing.T) {
	t.Parallel()

	c := cache.New(100)

	_, ok := c.Get("https://example.test/a")
	assert.False(t, ok)

	c.Put("https://example.test/a", setOf(3))

	got, ok := c.Get("https://example.test/a")
	require.True(t, ok)
	assert.Len(t, got, 3)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)
}

func TestGetReturnsIndependentSlice(t *testing.T) {
	t.Parallel()

	c := cache.New(100)
	c.Put("url", setOf(2))

	first, ok := c.Get("url")
	require.True(t, ok)

	// Reordering the returned slice must not reorder the cached set.
	first[0], first[1] = first[1], first[0]

	second, ok := c.Get("url")
	require.True(t, ok)
	assert.Equal(t, float64(0), second[0]["i"])
}

func TestPutClonesInputSlice(t *testing.T) {
	t.Parallel()

	c := cache.New(100)

	original := setOf(2)
	c.Put("url", original)

	original[0], original[1] = original[1], original[0]

	got, ok := c.Get("url")
	require.True(t, ok)
	assert.Equal(t, float64(0), got[0]["i"])
}

func TestEviction(t *testing.T) {
	t.Parallel()

	c := cache.New(10)

	for i := range 5 {
		c.Put(fmt.Sprintf("url-%d", i), setOf(3))
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentSize, 10)
	assert.Less(t, stats.Entries, 5)
}

func TestEvictionPrefersRarelyAccessed(t *testing.T) {
	t.Parallel()

	c := cache.New(10)

	c.Put("hot", setOf(4))
	c.Put("cold", setOf(4))

	// Repeated hits raise hot's eviction cost above cold's.
	for range 10 {
		_, ok := c.Get("hot")
		require.True(t, ok)
	}

	c.Put("new", setOf(4))

	_, ok := c.Get("hot")
	assert.True(t, ok)

	_, ok = c.Get("cold")
	assert.False(t, ok)
}

func TestOversizedSetIsNotCached(t *testing.T) {
	t.Parallel()

	c := cache.New(5)
	c.Put("big", setOf(6))

	_, ok := c.Get("big")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := cache.New(100)
	c.Put("url", setOf(3))
	c.Clear()

	_, ok := c.Get("url")
	assert.False(t, ok)
	assert.Zero(t, c.Stats().CurrentSize)
}
