// Package cache provides an in-memory LRU over recent captures.

package cache

import (
	"container/list"
	"sync"

	"catchall-api/internal/recorder/modelcapture"
)

// LRU implements a least-recently-used cache of capture records keyed by
// capture identifier.
type LRU struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*list.Element
	lruList  *list.List

	hits      int64
	misses    int64
	evictions int64
}

// NewLRU creates a new LRU cache with the given capacity.
func NewLRU(capacity int) *LRU {
	return &LRU{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

// Get retrieves a capture from the cache.
func (c *LRU) Get(captureID string) (*modelcapture.CaptureRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[captureID]
	if !exists {
		c.misses++
		return nil, false
	}

	c.lruList.MoveToFront(elem)
	c.hits++
	return elem.Value.(*modelcapture.CaptureRecord), true
}

// Put adds a capture to the cache, evicting the least recently used entry
// when the capacity is exceeded.
func (c *LRU) Put(rec *modelcapture.CaptureRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[rec.CaptureID]; exists {
		c.lruList.MoveToFront(elem)
		elem.Value = rec
		return
	}

	elem := c.lruList.PushFront(rec)
	c.items[rec.CaptureID] = elem

	if c.lruList.Len() > c.capacity {
		c.evictOldest()
	}
}

// Delete removes a capture from the cache.
func (c *LRU) Delete(captureID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[captureID]; exists {
		c.lruList.Remove(elem)
		delete(c.items, captureID)
	}
}

// Len reports the number of cached captures.
func (c *LRU) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lruList.Len()
}

// Stats reports accumulated hit, miss and eviction counters.
func (c *LRU) Stats() (hits, misses, evictions int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, c.evictions
}

// evictOldest removes the least recently used entry. Callers must hold the
// lock.
func (c *LRU) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	rec := elem.Value.(*modelcapture.CaptureRecord)
	c.lruList.Remove(elem)
	delete(c.items, rec.CaptureID)
	c.evictions++
}
