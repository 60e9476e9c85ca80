package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"middleman/pkg/config"
	"middleman/pkg/logger"
)

// ErrBreakerOpen возвращается, пока breaker разомкнут и запросы к backend не идут
var ErrBreakerOpen = errors.New("cache unavailable: circuit breaker is open")

// StateListener получает новое состояние breaker (0 closed, 1 half-open, 2 open)
type StateListener func(name string, state gobreaker.State)

// BreakerCache защищает удалённый кэш circuit breaker'ом.
// ErrKeyNotFound и отмена контекста не считаются отказами backend.
type BreakerCache struct {
	next Cache
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerCache оборачивает next. При выключенном breaker возвращает next как есть.
func NewBreakerCache(next Cache, name string, cfg config.BreakerConfig, listener StateListener) Cache {
	if !cfg.Enabled {
		return next
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrKeyNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("cache circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			if listener != nil {
				listener(name, to)
			}
		},
	}

	return &BreakerCache{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// State возвращает текущее состояние breaker
func (b *BreakerCache) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *BreakerCache, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrBreakerOpen
		}
		return zero, err
	}
	return res.(T), nil
}

func (b *BreakerCache) Get(ctx context.Context, key string) ([]byte, error) {
	return execute(b, func() ([]byte, error) { return b.next.Get(ctx, key) })
}

func (b *BreakerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.next.Set(ctx, key, value, ttl)
	})
	return err
}

func (b *BreakerCache) Delete(ctx context.Context, key string) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.next.Delete(ctx, key)
	})
	return err
}

func (b *BreakerCache) Exists(ctx context.Context, key string) (bool, error) {
	return execute(b, func() (bool, error) { return b.next.Exists(ctx, key) })
}

func (b *BreakerCache) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	return execute(b, func() (int64, error) { return b.next.DeletePrefix(ctx, prefix) })
}

func (b *BreakerCache) Stats(ctx context.Context) (*Stats, error) {
	return execute(b, func() (*Stats, error) { return b.next.Stats(ctx) })
}

func (b *BreakerCache) Clear(ctx context.Context) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.next.Clear(ctx)
	})
	return err
}

func (b *BreakerCache) Close() error {
	return b.next.Close()
}
