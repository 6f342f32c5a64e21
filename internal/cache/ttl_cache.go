// Package cache provides a small thread-safe read-through cache with
// per-entry expiration.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTLCache stores values that expire individually ttl after they were set.
// When full, Set evicts expired entries first and then the entry closest
// to expiry.
type TTLCache[K comparable, V any] struct {
	mu         sync.RWMutex
	data       map[K]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	group      singleflight.Group

	hits, misses uint64
}

// New creates a cache holding at most maxEntries values for ttl each.
// A maxEntries of zero or less means unbounded.
func New[K comparable, V any](ttl time.Duration, maxEntries int) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data:       make(map[K]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns a live value for key.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok || !c.now().Before(e.expires) {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value for key, resetting its expiry.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.data[key] = entry[V]{value: value, expires: now.Add(c.ttl)}
}

// evictLocked drops every expired entry, or the soonest to expire when
// none has. MUST be called with the write lock held.
func (c *TTLCache[K, V]) evictLocked(now time.Time) {
	var (
		oldest    K
		oldestAt  time.Time
		haveOld   bool
		reclaimed bool
	)
	for k, e := range c.data {
		if !now.Before(e.expires) {
			delete(c.data, k)
			reclaimed = true
			continue
		}
		if !haveOld || e.expires.Before(oldestAt) {
			oldest, oldestAt, haveOld = k, e.expires, true
		}
	}
	if !reclaimed && haveOld {
		delete(c.data, oldest)
	}
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Concurrent misses for the same key share one load. Errors are not cached.
func (c *TTLCache[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	res, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	v, _ := res.(V)
	return v, err
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Invalidate clears every entry.
func (c *TTLCache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]entry[V])
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Stats reports lookups since the cache was created.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

func (c *TTLCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.data), Hits: c.hits, Misses: c.misses}
}
