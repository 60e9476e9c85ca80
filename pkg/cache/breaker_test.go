package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"middleman/pkg/config"
)

// flakyCache отказывает, пока fail выставлен
type flakyCache struct {
	*MemoryCache
	mu    sync.Mutex
	fail  bool
	calls int
}

var errBackendDown = errors.New("backend down")

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, errBackendDown
	}
	return f.MemoryCache.Get(ctx, key)
}

func newFlaky(t *testing.T) *flakyCache {
	mem := NewMemoryCache(nil)
	t.Cleanup(func() { _ = mem.Close() })
	return &flakyCache{MemoryCache: mem}
}

func breakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 3,
	}
}

func TestNewBreakerCache_Disabled(t *testing.T) {
	flaky := newFlaky(t)
	c := NewBreakerCache(flaky, "cache", config.BreakerConfig{Enabled: false}, nil)
	assert.Same(t, flaky, c)
}

func TestBreakerCache_OpensAfterConsecutiveFailures(t *testing.T) {
	flaky := newFlaky(t)
	flaky.fail = true

	var (
		mu     sync.Mutex
		states []gobreaker.State
	)
	c := NewBreakerCache(flaky, "redis", breakerConfig(), func(name string, s gobreaker.State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}).(*BreakerCache)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, "k")
		assert.ErrorIs(t, err, errBackendDown)
	}

	assert.Equal(t, gobreaker.StateOpen, c.State())

	// разомкнутый breaker не ходит в backend
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 3, flaky.calls)

	mu.Lock()
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, states)
	mu.Unlock()
}

func TestBreakerCache_RecoversAfterTimeout(t *testing.T) {
	flaky := newFlaky(t)
	flaky.fail = true

	c := NewBreakerCache(flaky, "redis", breakerConfig(), nil).(*BreakerCache)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = c.Get(ctx, "k")
	}
	require.Equal(t, gobreaker.StateOpen, c.State())

	flaky.mu.Lock()
	flaky.fail = false
	flaky.mu.Unlock()

	require.Eventually(t, func() bool {
		return c.State() == gobreaker.StateHalfOpen
	}, time.Second, 10*time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestBreakerCache_MissIsNotFailure(t *testing.T) {
	flaky := newFlaky(t)
	c := NewBreakerCache(flaky, "redis", breakerConfig(), nil).(*BreakerCache)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := c.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestBreakerCache_PassThrough(t *testing.T) {
	flaky := newFlaky(t)
	c := NewBreakerCache(flaky, "redis", breakerConfig(), nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "solve:full:x", []byte("v"), 0))

	ok, err := c.Exists(ctx, "solve:full:x")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := c.Get(ctx, "solve:full:x")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	n, err := c.DeletePrefix(ctx, "solve:")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalKeys)

	require.NoError(t, c.Delete(ctx, "nothing"))
	require.NoError(t, c.Clear(ctx))
}
