package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*redisRateLimiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	l := NewWithClient(client, limit, window).(*redisRateLimiter)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	t.Cleanup(func() { _ = l.Close() })
	return l, mr, &now
}

func TestNoOpRateLimiter(t *testing.T) {
	var limiter NoOpRateLimiter
	for _, key := range []string{"10.0.0.1", "", "::1"} {
		for i := 0; i < 10; i++ {
			allowed, err := limiter.Allow(context.Background(), key)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	}
	assert.NoError(t, limiter.Close())
}

func TestNewRedisRateLimiter_InvalidURL(t *testing.T) {
	_, err := NewRedisRateLimiter(context.Background(), "not-a-valid-url", 10, time.Minute)
	assert.ErrorContains(t, err, "invalid redis URL")
}

func TestNewRedisRateLimiter_ConnectionFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisRateLimiter(context.Background(), "redis://"+addr, 10, time.Minute)
	assert.ErrorContains(t, err, "redis connection failed")
}

func TestNewRedisRateLimiter_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	limiter, err := NewRedisRateLimiter(context.Background(), "redis://"+mr.Addr(), 1, time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_LimitWithinWindow(t *testing.T) {
	l, mr, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.True(t, mr.Exists(KeyPrefix+"10.0.0.1"))
	assert.Equal(t, time.Minute, mr.TTL(KeyPrefix+"10.0.0.1"))
}

func TestRedisRateLimiter_SameTimestampCountsSeparately(t *testing.T) {
	l, mr, _ := newTestLimiter(t, 5, time.Minute)

	for i := 0; i < 4; i++ {
		_, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
	}

	members, err := mr.ZMembers(KeyPrefix + "k")
	require.NoError(t, err)
	assert.Len(t, members, 4)
}

func TestRedisRateLimiter_SlidingWindow(t *testing.T) {
	l, _, now := newTestLimiter(t, 2, 10*time.Second)
	ctx := context.Background()

	allow := func() bool {
		ok, err := l.Allow(ctx, "client")
		require.NoError(t, err)
		return ok
	}

	assert.True(t, allow())
	*now = now.Add(6 * time.Second)
	assert.True(t, allow())
	assert.False(t, allow())

	// first entry leaves the window, second is still inside
	*now = now.Add(5 * time.Second)
	assert.True(t, allow())
	assert.False(t, allow())

	*now = now.Add(11 * time.Second)
	assert.True(t, allow())
}

func TestRedisRateLimiter_DifferentKeys(t *testing.T) {
	l, _, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := l.Allow(ctx, fmt.Sprintf("10.0.0.%d", i))
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := l.Allow(ctx, "10.0.0.0")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_Concurrent(t *testing.T) {
	l, _, _ := newTestLimiter(t, 10, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Allow(context.Background(), "burst")
			if err == nil && ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, granted)
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	l, mr, _ := newTestLimiter(t, 10, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	assert.ErrorContains(t, err, "rate limit check failed")
}
