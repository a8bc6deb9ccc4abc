package util

import (
	"context"
	"sync"
	"time"
)

// TTLCache is an in-memory cache with a fixed max age and a size bound.
// When full, the oldest entry is evicted.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	maxAge  time.Duration
	maxSize int
	now     func() time.Time
}

type cacheEntry[V any] struct {
	value     V
	timestamp time.Time
}

// NewTTLCache creates a cache with the specified max age and size
func NewTTLCache[V any](maxAge time.Duration, maxSize int) *TTLCache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &TTLCache[V]{
		entries: make(map[string]cacheEntry[V], maxSize),
		maxAge:  maxAge,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves a cached value if it exists and is not expired
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	entry, exists := c.entries[key]
	if !exists {
		return zero, false
	}
	if c.now().Sub(entry.timestamp) > c.maxAge {
		return zero, false
	}
	return entry.value, true
}

// Set stores a value in the cache
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		first := true
		for k, v := range c.entries {
			if first || v.timestamp.Before(oldestTime) {
				oldestKey = k
				oldestTime = v.timestamp
				first = false
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[key] = cacheEntry[V]{
		value:     value,
		timestamp: c.now(),
	}
}

// Delete removes a key
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired ones included
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were dropped
func (c *TTLCache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) > c.maxAge {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every half max age until ctx is done
func (c *TTLCache[V]) Run(ctx context.Context) {
	interval := c.maxAge / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
