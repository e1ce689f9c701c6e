// Package ttlcache provides a small mutex-guarded map with wall-clock
// expiry. Entries are advisory: callers must tolerate any entry vanishing
// between operations. Expiry is lazy - stale entries are dropped when
// touched or when Sweep runs - so no timer goroutine is needed.
package ttlcache

import (
	"sync"
	"time"
)

// Cache maps composite value-typed keys to entries that expire ttl after
// insertion. The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[K]entry[V]
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithClock overrides the time source. Tests use this to control expiry
// without sleeping.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache whose entries expire ttl after insertion.
func New[K comparable, V any](ttl time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[K]entry[V]),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the live value for key. A stale entry is deleted and reported
// as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e, c.now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its insertion instant.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
}

// SetIfAbsent stores value under key only when no live entry exists,
// reporting whether it stored. This is the at-most-once primitive the
// dedup caches rely on.
func (c *Cache[K, V]) SetIfAbsent(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && !c.expired(e, c.now()) {
		return false
	}
	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
	return true
}

// Update atomically mutates the live value for key via fn and reports
// whether an entry was present. The insertion instant is preserved, so
// updates do not extend an entry's life.
func (c *Cache[K, V]) Update(key K, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e, c.now()) {
		delete(c.entries, key)
		return false
	}
	e.value = fn(e.value)
	c.entries[key] = e
	return true
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Range calls fn for each live entry until fn returns false. Mutating the
// cache from fn is not allowed.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			continue
		}
		if !fn(k, e.value) {
			return
		}
	}
}

// Sweep drops every stale entry and returns how many were removed. Handlers
// call this opportunistically; there is no background task.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len counts live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if !c.expired(e, now) {
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.insertedAt) > c.ttl
}
