package pricing

import (
	"sync"
	"time"
)

// Cache stores quotes between cycles. Implementations must replace
// entries atomically as a whole: a concurrent reader may see the old
// quote or the new one, never a mixture.
type Cache interface {
	// Get returns the live (unexpired) quote for key, if any.
	Get(key Key) (Quote, bool)

	// Put stores the quote for key, restarting its TTL.
	Put(key Key, q Quote)

	// PurgeExpired drops expired entries and reports how many.
	PurgeExpired() int

	// Len returns the number of entries, expired or not.
	Len() int
}

// DefaultTTL is how long a cached quote stays fresh.
const DefaultTTL = 24 * time.Hour

// MemoryCache is the in-process Cache used by the sorter. Reads take a
// shared lock so diagnostic tooling can inspect the cache while the
// worker writes.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]cacheEntry
}

// Entries are immutable once stored; replacement swaps the whole value
// under the write lock, which is what makes torn reads impossible.
type cacheEntry struct {
	quote     Quote
	expiresAt time.Time
}

// NewMemoryCache builds a cache with the given TTL. A zero ttl selects
// DefaultTTL; a nil clock selects time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[Key]cacheEntry),
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(key Key) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return Quote{}, false
	}
	return e.quote, true
}

// Put implements Cache.
func (c *MemoryCache) Put(key Key, q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{quote: q, expiresAt: c.now().Add(c.ttl)}
}

// PurgeExpired implements Cache.
func (c *MemoryCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len implements Cache.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
