package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"middleman/gen/openapi"
	"middleman/pkg/config"
	"middleman/pkg/logger"
	"middleman/pkg/metrics"
	"middleman/pkg/swagger"
)

// ShutdownFunc освобождает ресурс при остановке сервера
type ShutdownFunc func(ctx context.Context) error

// ReadinessCheck проверяет готовность зависимости
type ReadinessCheck func(ctx context.Context) error

// Server HTTP сервер для connect-обработчиков (HTTP/1.1 + h2c)
type Server struct {
	config *config.Config
	mux    *http.ServeMux
	http   *http.Server

	ready atomic.Bool

	mu        sync.Mutex
	checks    map[string]ReadinessCheck
	shutdowns []namedShutdown
}

type namedShutdown struct {
	name string
	fn   ShutdownFunc
}

// New создаёт сервер и регистрирует служебные маршруты
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		checks: make(map[string]ReadinessCheck),
	}

	s.mux.HandleFunc("/health", handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)

	if cfg.Metrics.Enabled {
		s.mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	if cfg.Swagger.Enabled {
		spec, err := openapi.GetSpec()
		if err != nil {
			logger.Log.Error("Failed to load OpenAPI spec", "error", err)
		} else {
			swagger.RegisterRoutes(s.mux, &swagger.Config{
				Title:    cfg.Swagger.Title,
				BasePath: cfg.Swagger.BasePath,
			}, spec)
		}
	}

	s.http = &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           s.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return s
}

// Handle регистрирует обработчик (обычно путь и handler из connect.NewUnaryHandler)
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Handler возвращает корневой обработчик: CORS, ограничение тела и h2c
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.config.HTTP.MaxBodyBytes > 0 {
		h = maxBytes(s.config.HTTP.MaxBodyBytes)(h)
	}
	if s.config.HTTP.CORS.Enabled {
		h = CORS(s.config.HTTP.CORS)(h)
	}
	return h2c.NewHandler(h, &http2.Server{})
}

// AddReadinessCheck добавляет проверку для /ready
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// OnShutdown регистрирует освобождение ресурса; вызываются в обратном порядке
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdowns = append(s.shutdowns, namedShutdown{name: name, fn: fn})
}

// SetReady переключает ответ /ready
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Run слушает адрес из конфигурации до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve обслуживает lis до отмены ctx, затем выполняет graceful shutdown
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("Starting HTTP server",
			"service", s.config.App.Name,
			"addr", lis.Addr().String(),
			"protocol", "HTTP/1.1 + h2c (connect, gRPC, gRPC-Web)",
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		s.SetReady(true)
		if err := s.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	logger.Log.Info("Shutting down HTTP server")
	s.SetReady(false)

	timeout := s.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		logger.Log.Warn("Forcing server stop", "error", err)
		errs = append(errs, err, s.http.Close())
	}

	s.mu.Lock()
	shutdowns := append([]namedShutdown(nil), s.shutdowns...)
	s.mu.Unlock()

	for i := len(shutdowns) - 1; i >= 0; i-- {
		sd := shutdowns[i]
		if err := sd.fn(ctx); err != nil {
			logger.Log.Warn("Failed to release resource", "resource", sd.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sd.name, err))
		}
	}

	logger.Log.Info("Server stopped")
	return errors.Join(errs...)
}

func maxBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
