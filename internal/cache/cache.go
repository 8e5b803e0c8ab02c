// Package cache provides an LRU cache for fetched record sets with
// size-aware eviction, keyed by the resolved request URL.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/geochart/internal/record"
)

// DefaultMaxRecords is the default capacity in records across all
// cached sets.
const DefaultMaxRecords = 100_000

// RecordCache is a cross-fetch LRU cache for record sets. It tracks the
// total record count and evicts least recently used entries when the
// limit is exceeded. Safe for concurrent use.
type RecordCache struct {
	mu          sync.Mutex
	entries     map[string]*lruEntry
	head        *lruEntry // Most recently used.
	tail        *lruEntry // Least recently used.
	maxRecords  int
	currentSize int

	// Metrics (atomic for lock-free reads).
	hits   atomic.Int64
	misses atomic.Int64
}

// lruEntry is a doubly-linked list node for LRU tracking.
type lruEntry struct {
	url         string
	records     record.Set
	size        int
	accessCount int64
	prev        *lruEntry
	next        *lruEntry
}

// evictionCost calculates the cost of evicting this entry. Higher cost
// means less desirable to evict: large, rarely-accessed sets go first.
func (e *lruEntry) evictionCost() float64 {
	if e.size == 0 {
		return float64(e.accessCount)
	}

	return float64(e.accessCount) / float64(e.size)
}

// New creates a record cache holding up to maxRecords records total.
// Non-positive values fall back to DefaultMaxRecords.
func New(maxRecords int) *RecordCache {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}

	return &RecordCache{
		entries:    make(map[string]*lruEntry),
		maxRecords: maxRecords,
	}
}

// Get retrieves the record set cached for url. The returned set is a
// fresh slice over the shared read-only records, so callers may
// filter or reorder it without affecting the cache.
func (c *RecordCache) Get(url string) (record.Set, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)

	entry.accessCount++
	c.moveToFront(entry)

	return entry.records.Clone(), true
}

// Put caches the record set fetched from url. Sets larger than the
// whole cache are not stored. The slice is cloned on insertion so
// later caller reordering cannot leak in.
func (c *RecordCache) Put(url string, records record.Set) {
	size := len(records)
	if size == 0 || size > c.maxRecords {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[url]; ok {
		entry.accessCount++
		c.moveToFront(entry)

		return
	}

	for c.currentSize+size > c.maxRecords && c.tail != nil {
		c.evictLowestCost()
	}

	if c.currentSize+size > c.maxRecords {
		return
	}

	entry := &lruEntry{
		url:         url,
		records:     records.Clone(),
		size:        size,
		accessCount: 1,
	}

	c.entries[url] = entry
	c.currentSize += size
	c.addToFront(entry)
}

// Clear removes all cached sets.
func (c *RecordCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*lruEntry)
	c.head = nil
	c.tail = nil
	c.currentSize = 0
}

// Stats returns cache performance metrics.
func (c *RecordCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.currentSize,
		MaxRecords:  c.maxRecords,
	}
}

// Stats holds cache performance metrics.
type Stats struct {
	Hits        int64
	Misses      int64
	Entries     int
	CurrentSize int
	MaxRecords  int
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// moveToFront moves an entry to the front of the LRU list.
func (c *RecordCache) moveToFront(entry *lruEntry) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

// addToFront adds an entry to the front of the LRU list.
func (c *RecordCache) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

// removeFromList removes an entry from the LRU list.
func (c *RecordCache) removeFromList(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}

// evictionSampleSize is the number of LRU candidates sampled for
// size-aware eviction, bounding the scan to O(k).
const evictionSampleSize = 5

// evictLowestCost removes the entry with the lowest eviction cost from
// the LRU tail region: large, infrequently accessed sets go first.
func (c *RecordCache) evictLowestCost() {
	if c.tail == nil {
		return
	}

	var candidates [evictionSampleSize]*lruEntry

	count := 0
	entry := c.tail

	for entry != nil && count < evictionSampleSize {
		candidates[count] = entry
		count++
		entry = entry.prev
	}

	if count == 0 {
		return
	}

	victim := candidates[0]
	lowestCost := victim.evictionCost()

	for i := 1; i < count; i++ {
		cost := candidates[i].evictionCost()
		if cost < lowestCost {
			lowestCost = cost
			victim = candidates[i]
		}
	}

	c.removeFromList(victim)
	delete(c.entries, victim.url)
	c.currentSize -= victim.size
}
