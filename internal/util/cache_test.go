package util

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

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

func newTestCache(maxAge time.Duration, size int) (*TTLCache[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewTTLCache[string](maxAge, size)
	cache.now = clock.Now
	return cache, clock
}

func TestTTLCache_GetSet(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(10*time.Minute, 4)
	cache.Set("naruto", "page")

	value, ok := cache.Get("naruto")
	assert.True(t, ok)
	assert.Equal(t, "page", value)

	_, ok = cache.Get("bleach")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	t.Parallel()

	cache, clock := newTestCache(10*time.Minute, 4)
	cache.Set("naruto", "page")

	clock.Advance(9 * time.Minute)
	_, ok := cache.Get("naruto")
	assert.True(t, ok, "entry still fresh")

	clock.Advance(2 * time.Minute)
	_, ok = cache.Get("naruto")
	assert.False(t, ok, "entry expired after TTL")
	assert.Equal(t, 1, cache.Len(), "expired entry stays until swept")

	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 0, cache.Len())
}

func TestTTLCache_EvictsOldest(t *testing.T) {
	t.Parallel()

	cache, clock := newTestCache(time.Hour, 2)
	cache.Set("a", "1")
	clock.Advance(time.Second)
	cache.Set("b", "2")
	clock.Advance(time.Second)
	cache.Set("c", "3")

	_, ok := cache.Get("a")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = cache.Get("b")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)

	// overwriting an existing key does not evict
	cache.Set("b", "updated")
	assert.Equal(t, 2, cache.Len())
	value, _ := cache.Get("b")
	assert.Equal(t, "updated", value)
}

func TestTTLCache_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	cache := NewTTLCache[int](10*time.Millisecond, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
