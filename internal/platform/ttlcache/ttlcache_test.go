package ttlcache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reactionKey struct {
	MessageID string
	UserID    string
	Direction string
}

// fakeClock is a hand-cranked time source for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(ttl time.Duration) (*Cache[reactionKey, int], *fakeClock) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(ttl, WithClock[reactionKey, int](clk.Now)), clk
}

func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache(5 * time.Second)
	key := reactionKey{MessageID: "m1", UserID: "u1", Direction: "add"}

	_, ok := c.Get(key)
	assert.False(t, ok, "empty cache should miss")

	c.Set(key, 1)
	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCache_ExpiryIsLazy(t *testing.T) {
	c, clk := newTestCache(5 * time.Second)
	key := reactionKey{MessageID: "m1", UserID: "u1", Direction: "add"}
	c.Set(key, 1)

	clk.Advance(5 * time.Second)
	_, ok := c.Get(key)
	assert.True(t, ok, "entry at exactly ttl is still live")

	clk.Advance(time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok, "entry past ttl is gone")
	assert.Equal(t, 0, c.Len())
}

func TestCache_SetResetsInsertionInstant(t *testing.T) {
	c, clk := newTestCache(5 * time.Second)
	key := reactionKey{MessageID: "m1", UserID: "u1", Direction: "add"}

	c.Set(key, 1)
	clk.Advance(4 * time.Second)
	c.Set(key, 2)
	clk.Advance(4 * time.Second)

	v, ok := c.Get(key)
	require.True(t, ok, "re-set entry should survive past original ttl")
	assert.Equal(t, 2, v)
}

func TestCache_UpdatePreservesInsertionInstant(t *testing.T) {
	c, clk := newTestCache(5 * time.Second)
	key := reactionKey{MessageID: "m1", UserID: "u1", Direction: "add"}

	c.Set(key, 1)
	clk.Advance(4 * time.Second)
	ok := c.Update(key, func(v int) int { return v + 1 })
	require.True(t, ok)

	clk.Advance(2 * time.Second)
	_, live := c.Get(key)
	assert.False(t, live, "update must not extend entry life")
}

func TestCache_SetIfAbsent(t *testing.T) {
	c, clk := newTestCache(5 * time.Second)
	key := reactionKey{MessageID: "m1", UserID: "u1", Direction: "add"}

	assert.True(t, c.SetIfAbsent(key, 1))
	assert.False(t, c.SetIfAbsent(key, 2), "live entry must win")

	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(6 * time.Second)
	assert.True(t, c.SetIfAbsent(key, 3), "stale entry does not block")
}

func TestCache_UpdateMissing(t *testing.T) {
	c, _ := newTestCache(5 * time.Second)
	ok := c.Update(reactionKey{MessageID: "nope"}, func(v int) int { return v })
	assert.False(t, ok)
}

func TestCache_Sweep(t *testing.T) {
	c, clk := newTestCache(5 * time.Second)
	c.Set(reactionKey{MessageID: "old"}, 1)
	clk.Advance(6 * time.Second)
	c.Set(reactionKey{MessageID: "fresh"}, 2)

	removed := c.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get(reactionKey{MessageID: "fresh"})
	assert.True(t, ok)
}

func TestCache_RangeSkipsStale(t *testing.T) {
	c, clk := newTestCache(5 * time.Second)
	c.Set(reactionKey{MessageID: "old"}, 1)
	clk.Advance(6 * time.Second)
	c.Set(reactionKey{MessageID: "a"}, 2)
	c.Set(reactionKey{MessageID: "b"}, 3)

	seen := map[string]int{}
	c.Range(func(k reactionKey, v int) bool {
		seen[k.MessageID] = v
		return true
	})
	assert.Equal(t, map[string]int{"a": 2, "b": 3}, seen)
}

func TestCache_RangeEarlyStop(t *testing.T) {
	c, _ := newTestCache(5 * time.Second)
	c.Set(reactionKey{MessageID: "a"}, 1)
	c.Set(reactionKey{MessageID: "b"}, 2)

	calls := 0
	c.Range(func(reactionKey, int) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := reactionKey{MessageID: "m", UserID: string(rune('a' + n)), Direction: "add"}
				c.Set(key, j)
				c.Get(key)
				c.Update(key, func(v int) int { return v + 1 })
				c.Sweep()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, c.Len())
}
