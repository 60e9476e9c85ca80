package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"middleman/pkg/domain"
	"middleman/pkg/logger"
)

// Режимы решения, различающиеся в ключе кэша
const (
	ModeFull       = "full"
	ModeGreedyOnly = "greedy"
)

// SolutionCache специализированный кэш для решённых задач
type SolutionCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedSolution кэшированный результат решения
type CachedSolution struct {
	Solution      *domain.Solution `json:"solution"`
	Dummy         domain.DummyKind `json:"dummy"`
	InitialProfit float64          `json:"initialProfit"`
	Iterations    int              `json:"iterations"`
	Termination   string           `json:"termination"`
	ComputedAt    time.Time        `json:"computedAt"`
}

// NewSolutionCache создаёт кэш для результатов решателя
func NewSolutionCache(cache Cache, defaultTTL time.Duration) *SolutionCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolutionCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get возвращает (результат, найден, ошибка backend)
func (sc *SolutionCache) Get(ctx context.Context, p *domain.Problem, mode string) (*CachedSolution, bool, error) {
	key := BuildSolveKey(ProblemHash(p), mode)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSolution
	if err := json.Unmarshal(data, &result); err != nil || result.Solution == nil {
		// повреждённая запись
		logger.Log.Warn("dropping corrupted cache entry", "key", key)
		_ = sc.cache.Delete(ctx, key)
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат. ttl <= 0 означает TTL по умолчанию.
func (sc *SolutionCache) Set(ctx context.Context, p *domain.Problem, mode string, result *CachedSolution, ttl time.Duration) error {
	if result == nil || result.Solution == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	entry := *result
	entry.ComputedAt = time.Now().UTC()

	data, err := json.Marshal(&entry)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, BuildSolveKey(ProblemHash(p), mode), data, ttl)
}

// Invalidate удаляет все закэшированные решения задачи
func (sc *SolutionCache) Invalidate(ctx context.Context, p *domain.Problem) error {
	hash := ProblemHash(p)
	for _, mode := range []string{ModeFull, ModeGreedyOnly} {
		if err := sc.cache.Delete(ctx, BuildSolveKey(hash, mode)); err != nil {
			return err
		}
	}
	return nil
}

// Stats статистика нижележащего кэша
func (sc *SolutionCache) Stats(ctx context.Context) (*Stats, error) {
	return sc.cache.Stats(ctx)
}

// Close закрывает нижележащий кэш
func (sc *SolutionCache) Close() error {
	return sc.cache.Close()
}
