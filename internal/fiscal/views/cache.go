package views

import (
	"sync"
	"time"
)

// Cache holds computed view tables for a short while. Correctness never
// depends on it: every write path invalidates explicitly, the TTL only
// bounds staleness if an invalidation is missed.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value      any
	computedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.computedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, computedAt: c.now()}
}

// Invalidate drops every cached view. Called after any mutating
// operation (ingestion, corrections, reset).
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
