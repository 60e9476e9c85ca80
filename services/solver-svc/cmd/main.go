// Package main is the entry point for solver-svc, the middleman planning service.
//
// solver-svc answers one question: given suppliers with stock and purchase
// prices, recipients with demand and selling prices, and a transport cost for
// every route, how much should the intermediary ship on each route to earn the
// largest profit.
//
// # Service Overview
//
// The service exposes MiddlemanService over Connect, gRPC and gRPC-Web on a
// single HTTP port (HTTP/1.1 and h2c):
//   - Solve: balance, greedy start, potential-method improvement, route analysis
//   - Balance: add a dummy supplier or recipient when totals differ
//   - Profits: unit profit matrix with its breakdown
//   - Export: solve and render CSV, Markdown, JSON, XLSX or PDF
//   - Validate: errors and warnings without solving
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    Connect Transport Layer                  │
//	│  (internal/handlers) recovery, request id, rate limit,      │
//	│  tracing, metrics, logging, validation, error mapping       │
//	├─────────────────────────────────────────────────────────────┤
//	│                       Service Layer                         │
//	│  (internal/service - MiddlemanService)                      │
//	│  validation, solution cache, timeouts, reports              │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Algorithm Layer                        │
//	│  (internal/algorithms) profits, balance, greedy allocation, │
//	│  potentials, improvement loop, analysis                     │
//	└─────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: MIDDLEMAN_)
//  2. Config files (config.yaml, config/config.yaml, /etc/middleman/config.yaml)
//  3. Default values
//
// Frequently used variables:
//
//	MIDDLEMAN_HTTP_PORT              - HTTP port (default: 8080)
//	MIDDLEMAN_LOG_LEVEL              - debug, info, warn, error
//	MIDDLEMAN_CACHE_ENABLED          - cache solutions (default: true)
//	MIDDLEMAN_CACHE_DRIVER           - memory, redis
//	MIDDLEMAN_SOLVER_MAX_DIMENSION   - largest supplier or recipient count
//	MIDDLEMAN_SOLVER_TIMEOUT         - solve deadline
//	MIDDLEMAN_REPORT_DEFAULT_FORMAT  - csv, markdown, json, xlsx, pdf
//	MIDDLEMAN_TRACING_ENABLED        - export spans over OTLP
//	MIDDLEMAN_RATE_LIMIT_ENABLED     - per-client rate limiting
//
// # Endpoints
//
//	POST /middleman.v1.MiddlemanService/{Solve,Balance,Profits,Export,Validate}
//	GET  /health    liveness
//	GET  /ready     readiness with dependency checks
//	GET  /metrics   Prometheus
//	GET  /swagger/  OpenAPI document and UI
//
// Example:
//
//	curl -s localhost:8080/middleman.v1.MiddlemanService/Solve \
//	  -H 'Content-Type: application/json' \
//	  -d '{"problem":{"suppliers":1,"recipients":1,"costs":[[2]],
//	       "supply":[10],"demand":[10],"purchasePrices":[3],"sellingPrices":[8]}}'
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM stop the listener, drain in-flight requests and then
// close the rate limiter, the cache and the trace exporter in reverse order.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"middleman/pkg/cache"
	"middleman/pkg/config"
	"middleman/pkg/interceptors"
	"middleman/pkg/logger"
	"middleman/pkg/metrics"
	"middleman/pkg/ratelimit"
	"middleman/pkg/rpc"
	"middleman/pkg/server"
	"middleman/pkg/telemetry"
	"middleman/services/solver-svc/internal/handlers"
	"middleman/services/solver-svc/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	defer func() { _ = logger.Close() }()
	logger.Log = logger.WithService(cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server failed", "error", err)
		stop()
		_ = logger.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	srv := server.New(cfg)

	// =========================================================================
	// Telemetry
	// =========================================================================
	tracingEnabled := false
	if cfg.Tracing.Enabled {
		serviceName := cfg.Tracing.ServiceName
		if serviceName == "" {
			serviceName = cfg.App.Name
		}
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     true,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: serviceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			tracingEnabled = true
			srv.OnShutdown("telemetry", tp.Shutdown)
			logger.Log.Info("Telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	// =========================================================================
	// Metrics
	// =========================================================================
	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	if err := prometheus.Register(metrics.NewRuntimeCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)); err != nil {
		logger.Log.Warn("Failed to register runtime collector", "error", err)
	}

	// =========================================================================
	// Solution cache
	// =========================================================================
	//
	// Cache failures never fail a request: the service logs them and solves
	// the problem again. Remote backends sit behind a circuit breaker.
	var solutions *cache.SolutionCache
	if cfg.Cache.Enabled {
		base, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			if pinger, ok := base.(interface{ Ping(context.Context) error }); ok {
				srv.AddReadinessCheck("cache", pinger.Ping)
			}

			guarded := base
			if cfg.Cache.Driver == cache.BackendRedis {
				guarded = cache.NewBreakerCache(base, "solution-cache", cfg.Breaker,
					func(name string, state gobreaker.State) {
						m.SetBreakerState(name, int(state))
					})
			}

			solutions = cache.NewSolutionCache(guarded, cfg.Cache.DefaultTTL)
			srv.OnShutdown("cache", func(context.Context) error { return solutions.Close() })
			logger.Log.Info("Solution cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	// =========================================================================
	// Rate limiting
	// =========================================================================
	var limits *ratelimit.ProcedureLimits
	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.New(ratelimit.FromConfig(&cfg.RateLimit))
		if err != nil {
			logger.Log.Warn("Failed to create rate limiter, continuing without limits", "error", err)
		} else {
			limits = ratelimit.NewProcedureLimits(limiter, ratelimit.ClientKeyExtractor)
			limits.Exempt(rpc.ValidateProcedure)
			srv.OnShutdown("rate_limit", func(context.Context) error { return limits.Close() })
		}
	}

	// =========================================================================
	// Service registration
	// =========================================================================
	svc := service.NewMiddlemanService(service.ConfigFrom(cfg), solutions)
	path, handler := handlers.NewHandler(svc, interceptors.HandlerOptions(&interceptors.ServerConfig{
		ServiceName:   cfg.App.Name,
		EnableTracing: tracingEnabled,
		RateLimits:    limits,
	}))
	srv.Handle(path, handler)

	logger.Info("Starting middleman service",
		"addr", cfg.HTTP.Address(),
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"cache_enabled", solutions != nil,
		"rate_limit_enabled", limits != nil,
		"tracing_enabled", tracingEnabled,
	)

	return srv.Run(ctx)
}
