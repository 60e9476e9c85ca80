package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter in-memory реализация rate limiter.
// token_bucket построен на golang.org/x/time/rate, sliding_window хранит отметки запросов.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	stopCh  chan struct{}
	closed  bool
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	requests []time.Time
	lastSeen time.Time
}

// NewMemoryLimiter создаёт in-memory rate limiter
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, 1)
}

func (l *MemoryLimiter) AllowN(_ context.Context, key string, n int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrLimiterClosed
	}

	now := l.now()
	b := l.bucketFor(key, now)
	b.lastSeen = now

	if l.config.Strategy == StrategyTokenBucket {
		return b.limiter.AllowN(now, n), nil
	}
	return l.allowSlidingWindow(b, now, n), nil
}

// bucketFor вызывается под l.mu
func (l *MemoryLimiter) bucketFor(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if ok {
		return b
	}
	b = &bucket{lastSeen: now}
	if l.config.Strategy == StrategyTokenBucket {
		perSecond := float64(l.config.Requests) / l.config.Window.Seconds()
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), l.config.Requests+l.config.BurstSize)
		// полная корзина на момент now
		b.limiter.AllowN(now, 0)
	}
	l.buckets[key] = b
	return b
}

func (l *MemoryLimiter) allowSlidingWindow(b *bucket, now time.Time, n int) bool {
	b.requests = pruneBefore(b.requests, now.Add(-l.config.Window))

	if len(b.requests)+n > l.config.Requests {
		return false
	}
	for i := 0; i < n; i++ {
		b.requests = append(b.requests, now)
	}
	return true
}

// pruneBefore удаляет отметки не позже границы; отметки отсортированы
func pruneBefore(requests []time.Time, boundary time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(boundary) {
		i++
	}
	return requests[i:]
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

func (l *MemoryLimiter) GetInfo(_ context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLimiterClosed
	}

	now := l.now()
	info := &LimitInfo{
		Limit:     l.config.Requests,
		Remaining: l.config.Requests,
		ResetAt:   now.Add(l.config.Window),
	}

	b, ok := l.buckets[key]
	if !ok {
		return info, nil
	}

	if l.config.Strategy == StrategyTokenBucket {
		info.Limit = l.config.Requests + l.config.BurstSize
		info.Remaining = int(b.limiter.TokensAt(now))
		if info.Remaining < 1 {
			perSecond := float64(b.limiter.Limit())
			if perSecond > 0 {
				info.RetryAfter = time.Duration((1 - b.limiter.TokensAt(now)) / perSecond * float64(time.Second))
			}
		}
	} else {
		b.requests = pruneBefore(b.requests, now.Add(-l.config.Window))
		info.Remaining = l.config.Requests - len(b.requests)
		if len(b.requests) > 0 {
			info.ResetAt = b.requests[0].Add(l.config.Window)
			if info.Remaining <= 0 {
				info.RetryAfter = info.ResetAt.Sub(now)
			}
		}
	}

	if info.Remaining < 0 {
		info.Remaining = 0
	}
	return info, nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.stopCh)
	l.buckets = nil

	return nil
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup удаляет ключи, не использовавшиеся дольше двух окон
func (l *MemoryLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	stale := now.Add(-2 * l.config.Window)
	for key, b := range l.buckets {
		if b.lastSeen.Before(stale) {
			delete(l.buckets, key)
			continue
		}
		b.requests = pruneBefore(b.requests, now.Add(-l.config.Window))
	}
}
