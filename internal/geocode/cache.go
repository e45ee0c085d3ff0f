// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/metrics"
)

const (
	// DefaultCapacity is the default number of addresses kept in the cache.
	DefaultCapacity = 200

	// DefaultPrecision is the default number of decimal places used for quantization. Four
	// decimal places are roughly 11 meters at the equator.
	DefaultPrecision = 4

	maxPrecision = 8
)

// CacheKey is a quantized coordinate. Positions that quantize to the same key share one
// cache entry.
type CacheKey struct {
	LatQ      int64
	LonQ      int64
	Precision int
}

// String returns the key as "lat,lon" with Precision decimal places.
func (k CacheKey) String() string {
	scale := math.Pow10(k.Precision)
	return strconv.FormatFloat(float64(k.LatQ)/scale, 'f', k.Precision, 64) + "," +
		strconv.FormatFloat(float64(k.LonQ)/scale, 'f', k.Precision, 64)
}

// cacheEntry is a node of the doubly linked list that keeps the LRU order.
type cacheEntry struct {
	key          CacheKey
	value        Address
	lastAccessed time.Time
	prev         *cacheEntry
	next         *cacheEntry
}

// Cache is a thread-safe, capacity bounded LRU cache of resolved addresses keyed by
// quantized coordinates.
type Cache struct {
	mu        sync.Mutex
	capacity  int
	precision int
	scale     float64
	now       func() time.Time
	metrics   *metrics.Collector
	onEvict   func(CacheKey, Address)

	items map[CacheKey]*cacheEntry
	// head.next is the most recently used entry, tail.prev the least recently used one
	head *cacheEntry
	tail *cacheEntry

	hits      int64
	misses    int64
	evictions int64
}

// CacheOption configures optional Cache settings.
type CacheOption func(*Cache)

// WithCacheMetrics records lookups, evictions and the cache size on the given collector.
func WithCacheMetrics(collector *metrics.Collector) CacheOption {
	return func(c *Cache) {
		c.metrics = collector
	}
}

// WithCacheClock overrides the clock used for access times.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache returns an empty Cache. Non-positive values fall back to DefaultCapacity and
// DefaultPrecision.
func NewCache(capacity, precision int, opts ...CacheOption) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	precision = min(precision, maxPrecision)

	c := &Cache{
		capacity:  capacity,
		precision: precision,
		scale:     math.Pow10(precision),
		now:       time.Now,
		items:     make(map[CacheKey]*cacheEntry, capacity),
		head:      &cacheEntry{},
		tail:      &cacheEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key quantizes the coordinates into a CacheKey.
func (c *Cache) Key(lat, lon float64) CacheKey {
	return CacheKey{
		LatQ:      int64(math.Round(lat * c.scale)),
		LonQ:      int64(math.Round(lon * c.scale)),
		Precision: c.precision,
	}
}

// Get returns the cached address for the position. A hit marks the entry as most recently
// used and returns the address with CacheHit set.
func (c *Cache) Get(pos geobus.Position) (Address, bool) {
	key := c.Key(pos.Lat, pos.Lon)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	c.metrics.CacheLookup(ok)
	if !ok {
		c.misses++
		return Address{}, false
	}
	c.hits++
	entry.lastAccessed = c.now()
	c.moveToFront(entry)

	addr := entry.value
	addr.CacheHit = true
	return addr, true
}

// Put stores the address for the position. An existing entry for the same key is
// overwritten. If the cache grows beyond its capacity, the least recently used entry is
// evicted; the entry just written is never evicted.
func (c *Cache) Put(pos geobus.Position, addr Address) {
	key := c.Key(pos.Lat, pos.Lon)
	addr.CacheHit = false

	c.mu.Lock()
	if entry, ok := c.items[key]; ok {
		entry.value = addr
		entry.lastAccessed = c.now()
		c.moveToFront(entry)
		c.mu.Unlock()
		return
	}

	entry := &cacheEntry{key: key, value: addr, lastAccessed: c.now()}
	c.addToFront(entry)
	c.items[key] = entry

	var evicted []*cacheEntry
	for len(c.items) > c.capacity {
		oldest := c.tail.prev
		c.removeEntry(oldest)
		c.evictions++
		c.metrics.CacheEvicted()
		evicted = append(evicted, oldest)
	}
	c.metrics.CacheSize(len(c.items))
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil {
		for _, e := range evicted {
			onEvict(e.key, e.value)
		}
	}
}

// Contains reports whether the key is cached without changing the LRU order.
func (c *Cache) Contains(key CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Len returns the current number of entries in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the hit, miss and eviction counters.
func (c *Cache) Stats() (hits, misses, evictions int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.evictions
}

// Clear removes all entries. The counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[CacheKey]*cacheEntry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.metrics.CacheSize(0)
}

// OnEvict registers a callback that is called for every entry evicted by the LRU policy.
// The callback runs outside the cache lock.
func (c *Cache) OnEvict(fn func(CacheKey, Address)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// keys returns the cached keys from most to least recently used.
func (c *Cache) keys() []CacheKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]CacheKey, 0, len(c.items))
	for e := c.head.next; e != c.tail; e = e.next {
		keys = append(keys, e.key)
	}
	return keys
}

// The following methods must be called with the lock held.

func (c *Cache) addToFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Cache) removeEntry(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	entry.prev = nil
	entry.next = nil
	delete(c.items, entry.key)
}

func (c *Cache) moveToFront(entry *cacheEntry) {
	if c.head.next == entry {
		return
	}
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}
