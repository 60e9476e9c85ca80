package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript атомарно чистит окно, считает запросы и добавляет новые.
// Возвращает {allowed, remaining}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local count = tonumber(ARGV[4])
local nonce = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local current = redis.call('ZCARD', key)

if current + count <= limit then
	for i = 1, count do
		redis.call('ZADD', key, now, nonce .. ':' .. i)
	end
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - count}
end

return {0, limit - current}
`)

// RedisLimiter распределённый sliding window лимитер поверх sorted set
type RedisLimiter struct {
	client     *redis.Client
	config     *Config
	ownsClient bool
	now        func() time.Time
}

// NewRedisLimiter подключается к Redis и проверяет соединение
func NewRedisLimiter(cfg *Config) (*RedisLimiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	l := NewRedisLimiterFromClient(client, cfg)
	l.ownsClient = true
	return l, nil
}

// NewRedisLimiterFromClient использует готовый клиент; Close его не закрывает
func NewRedisLimiterFromClient(client *redis.Client, cfg *Config) *RedisLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &RedisLimiter{
		client: client,
		config: cfg,
		now:    time.Now,
	}
}

func (l *RedisLimiter) key(k string) string {
	return l.config.KeyPrefix + k
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, 1)
}

func (l *RedisLimiter) AllowN(ctx context.Context, key string, n int) (bool, error) {
	res, err := slidingWindowScript.Run(ctx, l.client, []string{l.key(key)},
		l.config.Requests,
		l.config.Window.Milliseconds(),
		l.now().UnixMilli(),
		n,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis script error: %w", err)
	}
	if len(res) != 2 {
		return false, errors.New("unexpected result from redis script")
	}

	return res[0] == 1, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

func (l *RedisLimiter) GetInfo(ctx context.Context, key string) (*LimitInfo, error) {
	now := l.now()
	windowStart := now.Add(-l.config.Window).UnixMilli()

	count, err := l.client.ZCount(ctx, l.key(key), "("+strconv.FormatInt(windowStart, 10), "+inf").Result()
	if err != nil {
		return nil, err
	}

	remaining := l.config.Requests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &LimitInfo{
		Limit:     l.config.Requests,
		Remaining: remaining,
		ResetAt:   now.Add(l.config.Window),
	}, nil
}

func (l *RedisLimiter) Close() error {
	if !l.ownsClient {
		return nil
	}
	return l.client.Close()
}
