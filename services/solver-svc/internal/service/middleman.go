package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"middleman/pkg/apperror"
	"middleman/pkg/cache"
	"middleman/pkg/config"
	"middleman/pkg/domain"
	"middleman/pkg/logger"
	"middleman/pkg/metrics"
	"middleman/pkg/report"
	"middleman/pkg/telemetry"
	"middleman/services/solver-svc/internal/algorithms"
	"middleman/services/solver-svc/internal/validation"
)

// Config параметры сервиса
type Config struct {
	Version      string
	Solver       config.SolverConfig
	Report       config.ReportConfig
	CacheBackend string // метка backend кэша в метриках
	CacheTTL     time.Duration
}

// ConfigFrom собирает параметры сервиса из общей конфигурации
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Version:      cfg.App.Version,
		Solver:       cfg.Solver,
		Report:       cfg.Report,
		CacheBackend: cfg.Cache.Driver,
		CacheTTL:     cfg.Cache.DefaultTTL,
	}
}

// MiddlemanService решает задачи посредника, балансирует их,
// считает прибыль маршрутов и формирует отчёты
type MiddlemanService struct {
	version       string
	validator     *validation.Validator
	solutions     *cache.SolutionCache
	cacheBackend  string
	cacheTTL      time.Duration
	timeout       time.Duration
	recordTrace   bool
	reportOptions *report.Options
	defaultFormat report.Format
	metrics       *metrics.Metrics
}

// NewMiddlemanService создаёт сервис. solutions может быть nil, тогда кэш не используется.
func NewMiddlemanService(cfg Config, solutions *cache.SolutionCache) *MiddlemanService {
	format, err := report.ParseFormat(cfg.Report.DefaultFormat)
	if err != nil {
		format = report.FormatMarkdown
	}
	backend := cfg.CacheBackend
	if backend == "" {
		backend = "memory"
	}

	return &MiddlemanService{
		version:       cfg.Version,
		validator:     validation.New(validation.OptionsFromConfig(&cfg.Solver)),
		solutions:     solutions,
		cacheBackend:  backend,
		cacheTTL:      cfg.CacheTTL,
		timeout:       cfg.Solver.Timeout,
		recordTrace:   cfg.Solver.RecordTrace,
		reportOptions: report.OptionsFromConfig(&cfg.Report),
		defaultFormat: format,
		metrics:       metrics.Get(),
	}
}

// Solve решает задачу с учётом кэша
func (s *MiddlemanService) Solve(ctx context.Context, req *SolveRequest) (*SolveResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "MiddlemanService.Solve")
	defer span.End()

	resp, err := s.solve(ctx, req.Problem, req.Options)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	return resp, nil
}

func (s *MiddlemanService) solve(ctx context.Context, p *domain.Problem, opts SolveOptions) (*SolveResponse, error) {
	warnings, err := s.check(ctx, p)
	if err != nil {
		return nil, err
	}

	mode := cache.ModeFull
	if opts.GreedyOnly {
		mode = cache.ModeGreedyOnly
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Bool(telemetry.AttrGreedyOnly, opts.GreedyOnly))

	useCache := s.solutions != nil && !opts.SkipCache
	record := opts.Trace || s.recordTrace

	// с трассировкой шаги нужны заново, кэш не читаем
	if useCache && !record {
		if resp := s.fromCache(ctx, p, mode); resp != nil {
			resp.Warnings = warnings
			return resp, nil
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	solverOpts := algorithms.DefaultSolverOptions().
		WithSkipOptimization(opts.GreedyOnly).
		WithTrace(record)

	result, err := s.compute(ctx, p, solverOpts)
	if err == nil {
		err = checkFinite(result)
	}
	if s.metrics != nil {
		var elapsed time.Duration
		profit := 0.0
		if result != nil {
			elapsed = result.Duration
		}
		if err == nil {
			profit = result.Solution.TotalProfit
		}
		s.metrics.RecordSolveOperation(mode, err == nil, elapsed, profit)
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOptimizer(string(result.Termination), result.Iterations)
		s.metrics.RecordProblemSize(p.Suppliers, p.Recipients)
		s.metrics.RecordDummy(result.Balanced.Dummy.String())
	}
	span.SetAttributes(telemetry.SolverAttributes(result.Iterations, string(result.Termination),
		result.Solution.TotalProfit, result.Balanced.Dummy.String())...)

	if useCache {
		entry := &cache.CachedSolution{
			Solution:      result.Solution,
			Dummy:         result.Balanced.Dummy,
			InitialProfit: result.InitialProfit,
			Iterations:    result.Iterations,
			Termination:   string(result.Termination),
		}
		if err := s.solutions.Set(ctx, p, mode, entry, s.cacheTTL); err != nil {
			logger.WithContext(ctx).Warn("failed to cache solution", "error", err)
		}
	}

	return &SolveResponse{
		ID:                uuid.NewString(),
		ProblemHash:       cache.ProblemHash(p),
		Solution:          result.Solution,
		Balanced:          result.Balanced,
		InitialAllocation: result.InitialAllocation,
		InitialProfit:     result.InitialProfit,
		Iterations:        result.Iterations,
		Termination:       string(result.Termination),
		Analysis:          algorithms.Analyze(result.Balanced, result.Solution),
		Steps:             result.Steps,
		Warnings:          warnings,
		DurationMs:        float64(result.Duration.Microseconds()) / 1000,
	}, nil
}

// check валидирует задачу и возвращает тексты предупреждений
func (s *MiddlemanService) check(ctx context.Context, p *domain.Problem) ([]string, error) {
	issues := s.validator.Validate(p)
	telemetry.SetAttributes(ctx, telemetry.ValidationAttributes(len(issues.Errors), len(issues.Warnings))...)
	if err := issues.Err(); err != nil {
		return nil, err
	}
	if p.Size() > 0 {
		telemetry.SetAttributes(ctx, telemetry.ProblemAttributes(p.Suppliers, p.Recipients, p.TotalSupply(), p.TotalDemand())...)
	}
	return issues.WarningMessages(), nil
}

// fromCache возвращает ответ из кэша или nil. Ошибки backend только логируются.
func (s *MiddlemanService) fromCache(ctx context.Context, p *domain.Problem, mode string) *SolveResponse {
	cached, found, err := s.solutions.Get(ctx, p, mode)
	switch {
	case err != nil:
		s.recordCache("error")
		logger.WithContext(ctx).Warn("solution cache unavailable", "error", err)
		return nil
	case !found:
		s.recordCache("miss")
		return nil
	}

	balanced := algorithms.Balance(p)
	if balanced.Dummy != cached.Dummy || !sameShape(balanced, cached.Solution) {
		s.recordCache("miss")
		logger.WithContext(ctx).Warn("cached solution does not match the problem, recomputing")
		if err := s.solutions.Invalidate(ctx, p); err != nil {
			logger.WithContext(ctx).Warn("failed to invalidate cached solution", "error", err)
		}
		return nil
	}

	s.recordCache("hit")
	telemetry.AddEvent(ctx, "cache_hit", attribute.Float64(telemetry.AttrTotalProfit, cached.Solution.TotalProfit))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))

	return &SolveResponse{
		ID:            uuid.NewString(),
		ProblemHash:   cache.ProblemHash(p),
		Solution:      cached.Solution,
		Balanced:      balanced,
		InitialProfit: cached.InitialProfit,
		Iterations:    cached.Iterations,
		Termination:   cached.Termination,
		Analysis:      algorithms.Analyze(balanced, cached.Solution),
		Cached:        true,
	}
}

func sameShape(b *domain.BalancedProblem, s *domain.Solution) bool {
	return s.Allocation.Rows() == b.Suppliers && s.Allocation.Cols() == b.Recipients &&
		s.Profits.Rows() == b.Suppliers && s.Profits.Cols() == b.Recipients
}

func (s *MiddlemanService) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.RecordCache(s.cacheBackend, result)
	}
}

type computeResult struct {
	result *algorithms.SolverResult
	err    error
}

// compute запускает решатель с ограничением solver.timeout.
// Решатель не прерывается, по таймауту результат отбрасывается.
func (s *MiddlemanService) compute(ctx context.Context, p *domain.Problem, opts *algorithms.SolverOptions) (*algorithms.SolverResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if ctx.Err() != nil {
		return nil, s.contextError(ctx)
	}

	done := make(chan computeResult, 1)
	go func() {
		res, err := algorithms.SolveWithOptions(p, opts)
		done <- computeResult{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, s.contextError(ctx)
	case out := <-done:
		if out.err != nil {
			return nil, apperror.Wrap(out.err, apperror.CodeDimensionMismatch, out.err.Error())
		}
		return out.result, nil
	}
}

// checkFinite отклоняет решение с NaN или Inf: такое значение нельзя
// закодировать в JSON ни для ответа, ни для кэша
func checkFinite(r *algorithms.SolverResult) error {
	sol := r.Solution
	if !domain.IsFinite(sol.TotalProfit) {
		return apperror.NewWithField(apperror.CodeNonFiniteValue,
			"total profit overflows float64", "totalProfit")
	}
	if !domain.IsFinite(r.InitialProfit) {
		return apperror.NewWithField(apperror.CodeNonFiniteValue,
			"initial profit overflows float64", "initialProfit")
	}
	for _, m := range []struct {
		name   string
		values domain.Matrix
	}{{"profits", sol.Profits}, {"allocation", sol.Allocation}} {
		for i, row := range m.values {
			for j, x := range row {
				if !domain.IsFinite(x) {
					return apperror.NewWithField(apperror.CodeNonFiniteValue,
						m.name+" value is not finite", fmt.Sprintf("%s[%d][%d]", m.name, i, j))
				}
			}
		}
	}
	return nil
}

func (s *MiddlemanService) contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperror.Wrap(ctx.Err(), apperror.CodeTimeout,
			fmt.Sprintf("solver did not finish within %s", s.timeout))
	}
	return apperror.Wrap(ctx.Err(), apperror.CodeCancelled, "solve cancelled")
}

// Balance возвращает сбалансированную задачу
func (s *MiddlemanService) Balance(ctx context.Context, req *BalanceRequest) (*BalanceResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "MiddlemanService.Balance")
	defer span.End()

	warnings, err := s.check(ctx, req.Problem)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	balanced := algorithms.Balance(req.Problem)
	span.SetAttributes(attribute.String(telemetry.AttrDummy, balanced.Dummy.String()))

	resp := &BalanceResponse{
		Balanced:   balanced,
		Suppliers:  supplierNames(balanced),
		Recipients: recipientNames(balanced),
		Warnings:   warnings,
	}
	switch balanced.Dummy {
	case domain.DummySupplier:
		resp.DummyQuantity = balanced.Supply[balanced.Suppliers-1]
	case domain.DummyRecipient:
		resp.DummyQuantity = balanced.Demand[balanced.Recipients-1]
	}
	return resp, nil
}

// Profits возвращает матрицу единичной прибыли сбалансированной задачи
func (s *MiddlemanService) Profits(ctx context.Context, req *ProfitsRequest) (*ProfitsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "MiddlemanService.Profits")
	defer span.End()

	if _, err := s.check(ctx, req.Problem); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	balanced := algorithms.Balance(req.Problem)
	return &ProfitsResponse{
		Profits:    algorithms.Profits(&balanced.Problem),
		Breakdown:  algorithms.BreakdownProfits(balanced),
		Suppliers:  supplierNames(balanced),
		Recipients: recipientNames(balanced),
		Dummy:      balanced.Dummy,
	}, nil
}

// Export решает задачу и формирует отчёт
func (s *MiddlemanService) Export(ctx context.Context, req *ExportRequest) (*ExportResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "MiddlemanService.Export")
	defer span.End()

	format := s.defaultFormat
	if req.Format != "" {
		f, err := report.ParseFormat(req.Format)
		if err != nil {
			telemetry.SetError(ctx, err)
			return nil, err
		}
		format = f
	}

	solved, err := s.solve(ctx, req.Problem, req.Options)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	content, err := report.Generate(ctx, format, ReportData(solved), s.reportOptions)
	if s.metrics != nil {
		s.metrics.RecordReport(string(format), len(content), err)
	}
	if err != nil {
		telemetry.SetError(ctx, err)
		if errors.Is(err, context.Canceled) {
			return nil, apperror.Wrap(err, apperror.CodeCancelled, "export cancelled")
		}
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to generate report")
	}
	span.SetAttributes(telemetry.ReportAttributes(string(format), len(content))...)

	return &ExportResponse{
		Format:      string(format),
		ContentType: format.ContentType(),
		Filename:    Filename(solved.ProblemHash, format),
		Content:     content,
		ProblemHash: solved.ProblemHash,
		TotalProfit: solved.Solution.TotalProfit,
	}, nil
}

// Validate проверяет задачу и возвращает ошибки и предупреждения
func (s *MiddlemanService) Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "MiddlemanService.Validate")
	defer span.End()

	issues := s.validator.Validate(req.Problem)
	span.SetAttributes(telemetry.ValidationAttributes(len(issues.Errors), len(issues.Warnings))...)
	span.SetAttributes(attribute.Bool(telemetry.AttrValidationPassed, issues.IsValid()))

	return &ValidateResponse{
		Valid:    issues.IsValid(),
		Errors:   toIssues(issues.Errors),
		Warnings: toIssues(issues.Warnings),
	}, nil
}

// ReportData переводит решение в данные отчёта
func ReportData(r *SolveResponse) *report.Data {
	data := &report.Data{
		Problem:       r.Balanced,
		Solution:      r.Solution,
		InitialProfit: r.InitialProfit,
		Iterations:    r.Iterations,
		Termination:   r.Termination,
		ProblemHash:   r.ProblemHash,
	}
	if a := r.Analysis; a != nil {
		data.Revenue = a.Revenue
		data.PurchaseCost = a.PurchaseCost
		data.TransportCost = a.TransportCost
		data.NetProfit = a.NetProfit()
		data.Routes = make([]report.Route, len(a.Routes))
		for i, route := range a.Routes {
			data.Routes[i] = report.Route(route)
		}
	}
	return data
}

// Filename имя файла отчёта: middleman-<первые 8 символов хеша>.<расширение>
func Filename(problemHash string, format report.Format) string {
	short := problemHash
	if len(short) > 8 {
		short = short[:8]
	}
	if short == "" {
		short = "report"
	}
	return "middleman-" + short + "." + format.Extension()
}

func supplierNames(b *domain.BalancedProblem) []string {
	names := make([]string, b.Suppliers)
	for i := range names {
		names[i] = b.SupplierName(i)
	}
	return names
}

func recipientNames(b *domain.BalancedProblem) []string {
	names := make([]string, b.Recipients)
	for j := range names {
		names[j] = b.RecipientName(j)
	}
	return names
}
