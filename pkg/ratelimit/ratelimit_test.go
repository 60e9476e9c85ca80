package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"middleman/pkg/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*MemoryLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(func() { _ = l.Close() })
	return l, clock
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.Requests)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, StrategySlidingWindow, cfg.Strategy)
	assert.Equal(t, "memory", cfg.Backend)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(&config.RateLimitConfig{
		Enabled:   true,
		Requests:  5,
		Window:    10 * time.Second,
		Strategy:  StrategyTokenBucket,
		Backend:   "redis",
		BurstSize: 2,
		RedisAddr: "localhost:6379",
	})

	assert.Equal(t, 5, cfg.Requests)
	assert.Equal(t, 10*time.Second, cfg.Window)
	assert.Equal(t, StrategyTokenBucket, cfg.Strategy)
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, 2, cfg.BurstSize)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.NotEmpty(t, cfg.KeyPrefix)
}

func TestNew_MemoryByDefault(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)
	defer l.Close()

	_, ok := l.(*MemoryLimiter)
	assert.True(t, ok)
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{
		Requests: 3,
		Window:   time.Second,
		Strategy: StrategySlidingWindow,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, allowed)

	// другой ключ не затронут
	allowed, _ = l.Allow(ctx, "other")
	assert.True(t, allowed)

	clock.Advance(time.Second + time.Millisecond)
	allowed, _ = l.Allow(ctx, "client")
	assert.True(t, allowed)
}

func TestMemoryLimiter_SlidingWindowPartialExpiry(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Requests: 2, Window: time.Second})
	ctx := context.Background()

	allowed, _ := l.Allow(ctx, "k")
	require.True(t, allowed)
	clock.Advance(600 * time.Millisecond)
	allowed, _ = l.Allow(ctx, "k")
	require.True(t, allowed)

	allowed, _ = l.Allow(ctx, "k")
	assert.False(t, allowed)

	// первая отметка вышла из окна
	clock.Advance(500 * time.Millisecond)
	allowed, _ = l.Allow(ctx, "k")
	assert.True(t, allowed)
}

func TestMemoryLimiter_AllowN(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Requests: 5, Window: time.Minute})
	ctx := context.Background()

	allowed, err := l.AllowN(ctx, "k", 4)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _ = l.AllowN(ctx, "k", 2)
	assert.False(t, allowed)

	allowed, _ = l.AllowN(ctx, "k", 1)
	assert.True(t, allowed)
}

func TestMemoryLimiter_TokenBucket(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{
		Requests:  2,
		Window:    time.Second,
		Strategy:  StrategyTokenBucket,
		BurstSize: 1,
	})
	ctx := context.Background()

	// корзина вмещает Requests+BurstSize
	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}
	allowed, _ := l.Allow(ctx, "k")
	assert.False(t, allowed)

	info, err := l.GetInfo(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Limit)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))

	// 2 токена в секунду
	clock.Advance(500 * time.Millisecond)
	allowed, _ = l.Allow(ctx, "k")
	assert.True(t, allowed)
	allowed, _ = l.Allow(ctx, "k")
	assert.False(t, allowed)
}

func TestMemoryLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Requests: 1, Window: time.Minute})
	ctx := context.Background()

	allowed, _ := l.Allow(ctx, "k")
	require.True(t, allowed)
	allowed, _ = l.Allow(ctx, "k")
	require.False(t, allowed)

	require.NoError(t, l.Reset(ctx, "k"))

	allowed, _ = l.Allow(ctx, "k")
	assert.True(t, allowed)
}

func TestMemoryLimiter_GetInfo(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Requests: 3, Window: time.Minute})
	ctx := context.Background()

	info, err := l.GetInfo(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Limit)
	assert.Equal(t, 3, info.Remaining)

	start := clock.Now()
	for i := 0; i < 3; i++ {
		_, _ = l.Allow(ctx, "k")
	}

	info, err = l.GetInfo(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, start.Add(time.Minute), info.ResetAt)
	assert.Equal(t, time.Minute, info.RetryAfter)
}

func TestMemoryLimiter_Close(t *testing.T) {
	l := NewMemoryLimiter(&Config{Requests: 1, Window: time.Minute})

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err := l.Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ErrLimiterClosed)

	_, err = l.GetInfo(context.Background(), "k")
	assert.ErrorIs(t, err, ErrLimiterClosed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Requests: 5, Window: time.Second})
	ctx := context.Background()

	_, _ = l.Allow(ctx, "old")
	clock.Advance(3 * time.Second)
	_, _ = l.Allow(ctx, "new")

	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "old")
	assert.Contains(t, l.buckets, "new")
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Requests: 50, Window: time.Minute})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Allow(ctx, "shared")
			if err == nil && ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestClientKeyExtractor(t *testing.T) {
	tests := []struct {
		name   string
		peer   string
		header http.Header
		want   string
	}{
		{"forwarded first hop", "10.0.0.1:5000", http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.2"}}, "203.0.113.7"},
		{"real ip", "10.0.0.1:5000", http.Header{"X-Real-Ip": {"198.51.100.4"}}, "198.51.100.4"},
		{"peer host", "192.0.2.10:41234", http.Header{}, "192.0.2.10"},
		{"peer without port", "pipe", http.Header{}, "pipe"},
		{"nothing", "", http.Header{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientKeyExtractor("/p", tt.peer, tt.header))
		})
	}
}

func TestCompositeKeyExtractor(t *testing.T) {
	ext := CompositeKeyExtractor(ProcedureKeyExtractor, ClientKeyExtractor)
	key := ext("/middleman.v1.MiddlemanService/Solve", "192.0.2.1:80", http.Header{})
	assert.Equal(t, "/middleman.v1.MiddlemanService/Solve:192.0.2.1", key)
}

func TestProcedureLimits(t *testing.T) {
	fallback, _ := newTestLimiter(t, &Config{Requests: 1, Window: time.Minute})
	strict, _ := newTestLimiter(t, &Config{Requests: 2, Window: time.Minute})

	limits := NewProcedureLimits(fallback, nil)
	limits.Set("/svc/Solve", strict)
	limits.Exempt("/svc/Validate")

	ctx := context.Background()
	h := http.Header{}

	// отдельный лимит
	require.NoError(t, limits.Check(ctx, "/svc/Solve", "192.0.2.1:1", h))
	require.NoError(t, limits.Check(ctx, "/svc/Solve", "192.0.2.1:1", h))
	assert.ErrorIs(t, limits.Check(ctx, "/svc/Solve", "192.0.2.1:1", h), ErrRateLimitExceeded)

	// лимит по умолчанию
	require.NoError(t, limits.Check(ctx, "/svc/Balance", "192.0.2.1:1", h))
	assert.ErrorIs(t, limits.Check(ctx, "/svc/Balance", "192.0.2.1:1", h), ErrRateLimitExceeded)

	// исключение
	for i := 0; i < 5; i++ {
		assert.NoError(t, limits.Check(ctx, "/svc/Validate", "192.0.2.1:1", h))
	}
}

type failingLimiter struct{ Limiter }

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("backend down")
}

func TestProcedureLimits_BackendError(t *testing.T) {
	limits := NewProcedureLimits(failingLimiter{}, nil)
	err := limits.Check(context.Background(), "/svc/Solve", "", http.Header{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimitExceeded)
}

func TestProcedureLimits_NoLimiter(t *testing.T) {
	limits := NewProcedureLimits(nil, nil)
	assert.NoError(t, limits.Check(context.Background(), "/svc/Solve", "", http.Header{}))
	assert.NoError(t, limits.Close())
}
