package interceptors

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"middleman/pkg/logger"
)

// LoggingInterceptor логирует RPC запросы
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			duration := time.Since(start)
			log := logger.WithContext(ctx)

			if err != nil {
				log.Error("RPC request failed",
					"procedure", procedureOf(req),
					"duration_ms", duration.Milliseconds(),
					"code", codeOf(err),
					"error", err.Error(),
				)
			} else {
				log.Info("RPC request completed",
					"procedure", procedureOf(req),
					"duration_ms", duration.Milliseconds(),
					"code", codeOf(err),
				)
			}

			return resp, err
		}
	}
}
