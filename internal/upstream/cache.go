package upstream

import (
	"sync"
	"time"
)

type entry[V any] struct {
	val V
	at  time.Time
}

// Cache keeps the last good value per key. Entries past ttl are stale but
// remain available as a fallback when a refresh fails.
type Cache[V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]entry[V]
	max   int
	now   func() time.Time
}

func NewCache[V any](ttl time.Duration, max int) *Cache[V] {
	return &Cache[V]{ttl: ttl, items: make(map[string]entry[V]), max: max, now: time.Now}
}

// Get returns the value and whether it is still fresh.
func (c *Cache[V]) Get(key string) (val V, fresh, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok {
		return val, false, false
	}
	return e.val, c.now().Sub(e.at) < c.ttl, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && c.max > 0 && len(c.items) >= c.max {
		c.evictOldest()
	}
	c.items[key] = entry[V]{val: val, at: c.now()}
}

func (c *Cache[V]) evictOldest() {
	var oldest string
	var at time.Time
	for k, e := range c.items {
		if oldest == "" || e.at.Before(at) {
			oldest, at = k, e.at
		}
	}
	delete(c.items, oldest)
}
