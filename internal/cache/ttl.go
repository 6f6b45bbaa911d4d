// Package cache holds a small TTL cache with a bounded capacity and an
// injectable clock.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is safe for concurrent use. Expired entries are removed lazily on access.
// When full, the entry closest to expiry is evicted.
type TTL[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]entry[V]
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New creates a cache. A nil clock uses time.Now.
func New[K comparable, V any](capacity int, ttl time.Duration, clock func() time.Time) *TTL[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	if clock == nil {
		clock = time.Now
	}
	return &TTL[K, V]{
		entries:  make(map[K]entry[V], capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      clock,
	}
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked(now)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Concurrent misses may each call load; errors are not cached.
func (c *TTL[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[K, V]) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.capacity {
		return
	}
	var (
		oldest K
		found  bool
		at     time.Time
	)
	for k, e := range c.entries {
		if !found || e.expiresAt.Before(at) {
			oldest, at, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.entries, oldest)
	}
}
