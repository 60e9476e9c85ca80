package ratelimit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"middleman/pkg/config"
)

// Стандартные ошибки
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Стратегии
const (
	StrategySlidingWindow = "sliding_window"
	StrategyTokenBucket   = "token_bucket"
)

// Limiter интерфейс ограничителя запросов
type Limiter interface {
	// Allow проверяет, разрешён ли запрос
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN проверяет, разрешены ли n запросов
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Reset сбрасывает лимит для ключа
	Reset(ctx context.Context, key string) error

	// GetInfo возвращает информацию о текущем состоянии
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close закрывает лимитер
	Close() error
}

// LimitInfo информация о состоянии лимита
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config конфигурация rate limiter
type Config struct {
	Requests        int
	Window          time.Duration
	Strategy        string // sliding_window, token_bucket
	Backend         string // memory, redis
	BurstSize       int    // дополнительный запас для token bucket
	CleanupInterval time.Duration
	KeyPrefix       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        StrategySlidingWindow,
		Backend:         "memory",
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
		KeyPrefix:       "middleman:ratelimit:",
	}
}

// FromConfig создаёт конфигурацию лимитера из секции rate_limit
func FromConfig(cfg *config.RateLimitConfig) *Config {
	c := DefaultConfig()
	c.Requests = cfg.Requests
	c.Window = cfg.Window
	c.Strategy = cfg.Strategy
	c.Backend = cfg.Backend
	c.BurstSize = cfg.BurstSize
	c.CleanupInterval = cfg.CleanupInterval
	c.RedisAddr = cfg.RedisAddr
	return c
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// KeyExtractor извлекает ключ лимита из процедуры, адреса клиента и заголовков
type KeyExtractor func(procedure, peerAddr string, header http.Header) string

// ClientKeyExtractor ключ по IP клиента (X-Forwarded-For, X-Real-IP, адрес соединения)
func ClientKeyExtractor(_ string, peerAddr string, header http.Header) string {
	if fwd := header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(peerAddr); err == nil {
		return host
	}
	if peerAddr != "" {
		return peerAddr
	}
	return "unknown"
}

// ProcedureKeyExtractor ключ по процедуре
func ProcedureKeyExtractor(procedure, _ string, _ http.Header) string {
	return procedure
}

// CompositeKeyExtractor комбинирует несколько ключей через ':'
func CompositeKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(procedure, peerAddr string, header http.Header) string {
		parts := make([]string, 0, len(extractors))
		for _, ext := range extractors {
			parts = append(parts, ext(procedure, peerAddr, header))
		}
		return strings.Join(parts, ":")
	}
}

// ProcedureLimits лимитеры по процедурам с лимитером по умолчанию
type ProcedureLimits struct {
	mu         sync.RWMutex
	limiters   map[string]Limiter
	fallback   Limiter
	keyFunc    KeyExtractor
	exemptions map[string]bool
}

// NewProcedureLimits создаёт набор лимитов
func NewProcedureLimits(fallback Limiter, keyFunc KeyExtractor) *ProcedureLimits {
	if keyFunc == nil {
		keyFunc = ClientKeyExtractor
	}
	return &ProcedureLimits{
		limiters:   make(map[string]Limiter),
		fallback:   fallback,
		keyFunc:    keyFunc,
		exemptions: make(map[string]bool),
	}
}

// Set устанавливает отдельный лимитер для процедуры
func (p *ProcedureLimits) Set(procedure string, l Limiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiters[procedure] = l
}

// Exempt исключает процедуру из ограничения
func (p *ProcedureLimits) Exempt(procedure string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exemptions[procedure] = true
}

// Check проверяет запрос. Возвращает ErrRateLimitExceeded при превышении.
func (p *ProcedureLimits) Check(ctx context.Context, procedure, peerAddr string, header http.Header) error {
	p.mu.RLock()
	exempt := p.exemptions[procedure]
	l, ok := p.limiters[procedure]
	p.mu.RUnlock()

	if exempt {
		return nil
	}
	if !ok {
		l = p.fallback
	}
	if l == nil {
		return nil
	}

	allowed, err := l.Allow(ctx, p.keyFunc(procedure, peerAddr, header))
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRateLimitExceeded
	}
	return nil
}

// Close закрывает все лимитеры
func (p *ProcedureLimits) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.fallback != nil {
		errs = append(errs, p.fallback.Close())
	}
	for _, l := range p.limiters {
		errs = append(errs, l.Close())
	}
	return errors.Join(errs...)
}
