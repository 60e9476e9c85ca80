package interceptors

import (
	"connectrpc.com/connect"

	"middleman/pkg/ratelimit"
	"middleman/pkg/telemetry"
)

// ServerConfig конфигурация серверных интерсепторов
type ServerConfig struct {
	ServiceName   string
	EnableTracing bool
	RateLimits    *ratelimit.ProcedureLimits
}

// ServerInterceptors возвращает интерсепторы в порядке применения
func ServerInterceptors(cfg *ServerConfig) []connect.Interceptor {
	interceptors := []connect.Interceptor{
		RecoveryInterceptor(),
		RequestIDInterceptor(),
	}

	// Rate Limiting (первым после recovery и request id)
	if cfg.RateLimits != nil {
		interceptors = append(interceptors, RateLimitInterceptor(cfg.RateLimits))
	}

	// Tracing
	if cfg.EnableTracing {
		interceptors = append(interceptors, telemetry.UnaryInterceptor())
	}

	interceptors = append(interceptors,
		MetricsInterceptor(),
		LoggingInterceptor(),
		ValidationInterceptor(),
		// последним, чтобы метрики и логи видели connect-коды
		ErrorMappingInterceptor(),
	)

	return interceptors
}

// HandlerOptions собирает цепочку в опцию для connect.NewUnaryHandler
func HandlerOptions(cfg *ServerConfig) connect.HandlerOption {
	return connect.WithInterceptors(Chain(ServerInterceptors(cfg)...))
}
