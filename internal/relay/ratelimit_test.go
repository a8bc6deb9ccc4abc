package relay

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(limit, window)
	limiter.now = clock.Now
	return limiter, clock
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	t.Parallel()

	limiter, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := limiter.Allow("1.2.3.4")
		require.True(t, ok, "request %d", i)
	}

	clock.Advance(20 * time.Second)
	ok, retryAfter := limiter.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retryAfter)

	// other clients have their own bucket
	ok, _ = limiter.Allow("5.6.7.8")
	assert.True(t, ok)

	clock.Advance(40 * time.Second)
	ok, _ = limiter.Allow("1.2.3.4")
	assert.True(t, ok, "window reset")
}

func TestRateLimiter_Disabled(t *testing.T) {
	t.Parallel()

	limiter, _ := newTestLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		ok, _ := limiter.Allow("1.2.3.4")
		require.True(t, ok)
	}
	assert.Zero(t, limiter.Len())
}

func TestRateLimiter_Sweep(t *testing.T) {
	t.Parallel()

	limiter, clock := newTestLimiter(5, time.Minute)
	limiter.Allow("old")
	clock.Advance(90 * time.Second)
	limiter.Allow("recent")

	// "old" window ended 30s ago: still inside the grace period
	assert.Zero(t, limiter.Sweep())
	assert.Equal(t, 2, limiter.Len())

	clock.Advance(31 * time.Second)
	assert.Equal(t, 1, limiter.Sweep())
	assert.Equal(t, 1, limiter.Len())

	ok, _ := limiter.Allow("recent")
	assert.True(t, ok)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/api/sources", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "")
	r.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", ClientIP(r))
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, "41", retryAfterSeconds(40*time.Second+time.Millisecond))
}
