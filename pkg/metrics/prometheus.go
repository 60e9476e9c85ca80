package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// RPC метрики (connect, gRPC, gRPC-Web)
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	RateLimitedTotal *prometheus.CounterVec

	// Бизнес-метрики решателя
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	TotalProfit          *prometheus.GaugeVec
	OptimizerIterations  *prometheus.HistogramVec
	TerminationsTotal    *prometheus.CounterVec
	ProblemSize          *prometheus.HistogramVec
	DummiesAdded         *prometheus.CounterVec

	// Кэш решений
	CacheRequestsTotal *prometheus.CounterVec
	BreakerState       *prometheus.GaugeVec

	// Отчёты
	ReportsGenerated *prometheus.CounterVec
	ReportSizeBytes  *prometheus.HistogramVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var (
	defaultMetrics *Metrics
	mu             sync.Mutex
)

// InitMetrics инициализирует метрики и регистрирует их в prometheus.DefaultRegisterer
func InitMetrics(namespace, subsystem string) *Metrics {
	mu.Lock()
	defer mu.Unlock()
	defaultMetrics = newMetrics(namespace, subsystem)
	return defaultMetrics
}

// Get возвращает глобальные метрики. Первый вызов без InitMetrics
// регистрирует их с namespace middleman.
func Get() *Metrics {
	mu.Lock()
	defer mu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = newMetrics("middleman", "")
	}
	return defaultMetrics
}

// newMetrics вызывается под mu: promauto паникует при повторной регистрации
func newMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_requests_total",
				Help:      "Total number of RPC requests",
			},
			[]string{"procedure", "code"},
		),

		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_request_duration_seconds",
				Help:      "Duration of RPC requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"procedure"},
		),

		RequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_requests_in_flight",
				Help:      "Current number of RPC requests being processed",
			},
		),

		RateLimitedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"procedure"},
		),

		SolveOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_operations_total",
				Help:      "Total number of solve operations",
			},
			[]string{"mode", "status"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve operations",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"mode"},
		),

		TotalProfit: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "last_total_profit",
				Help:      "Total profit of the last solved problem",
			},
			[]string{"mode"},
		),

		OptimizerIterations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimizer_iterations",
				Help:      "Number of optimizer iterations per solve",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"termination"},
		),

		TerminationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimizer_terminations_total",
				Help:      "Optimizer terminations by reason",
			},
			[]string{"reason"},
		),

		ProblemSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "problem_size",
				Help:      "Number of suppliers and recipients in processed problems",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250, 500},
			},
			[]string{"side"},
		),

		DummiesAdded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "balancing_dummies_total",
				Help:      "Problems balanced with a dummy participant",
			},
			[]string{"kind"},
		),

		CacheRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_requests_total",
				Help:      "Solution cache lookups by result",
			},
			[]string{"backend", "result"},
		),

		BreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		ReportsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reports_generated_total",
				Help:      "Reports rendered by format",
			},
			[]string{"format", "status"},
		),

		ReportSizeBytes: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_size_bytes",
				Help:      "Size of rendered reports",
				Buckets:   prometheus.ExponentialBuckets(512, 4, 8),
			},
			[]string{"format"},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}
}

// RecordRequest записывает метрики RPC запроса
func (m *Metrics) RecordRequest(procedure string, code string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(procedure, code).Inc()
	m.RequestDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordRateLimited отмечает отклонённый лимитером запрос
func (m *Metrics) RecordRateLimited(procedure string) {
	m.RateLimitedTotal.WithLabelValues(procedure).Inc()
}

// RecordSolveOperation записывает метрики операции решения
func (m *Metrics) RecordSolveOperation(mode string, success bool, duration time.Duration, totalProfit float64) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SolveOperationsTotal.WithLabelValues(mode, status).Inc()
	m.SolveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if success {
		m.TotalProfit.WithLabelValues(mode).Set(totalProfit)
	}
}

// RecordOptimizer записывает число итераций и причину остановки
func (m *Metrics) RecordOptimizer(termination string, iterations int) {
	m.TerminationsTotal.WithLabelValues(termination).Inc()
	m.OptimizerIterations.WithLabelValues(termination).Observe(float64(iterations))
}

// RecordProblemSize записывает размер задачи
func (m *Metrics) RecordProblemSize(suppliers, recipients int) {
	m.ProblemSize.WithLabelValues("suppliers").Observe(float64(suppliers))
	m.ProblemSize.WithLabelValues("recipients").Observe(float64(recipients))
}

// RecordDummy отмечает добавление фиктивного участника
func (m *Metrics) RecordDummy(kind string) {
	m.DummiesAdded.WithLabelValues(kind).Inc()
}

// RecordCache записывает результат обращения к кэшу: hit, miss или error
func (m *Metrics) RecordCache(backend, result string) {
	m.CacheRequestsTotal.WithLabelValues(backend, result).Inc()
}

// SetBreakerState устанавливает состояние circuit breaker
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordReport записывает метрики генерации отчёта
func (m *Metrics) RecordReport(format string, size int, err error) {
	if err != nil {
		m.ReportsGenerated.WithLabelValues(format, "error").Inc()
		return
	}
	m.ReportsGenerated.WithLabelValues(format, "success").Inc()
	m.ReportSizeBytes.WithLabelValues(format).Observe(float64(size))
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
