package interceptors

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"middleman/pkg/apperror"
	"middleman/pkg/logger"
	"middleman/pkg/metrics"
	"middleman/pkg/ratelimit"
)

// RateLimitInterceptor создаёт интерсептор для rate limiting.
// При ошибке бэкенда лимитера запрос пропускается.
func RateLimitInterceptor(limits *ratelimit.ProcedureLimits) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := procedureOf(req)

			err := limits.Check(ctx, procedure, req.Peer().Addr, req.Header())
			switch {
			case err == nil:
				return next(ctx, req)
			case errors.Is(err, ratelimit.ErrRateLimitExceeded):
				logger.WithContext(ctx).Warn("Rate limit exceeded",
					"procedure", procedure,
					"peer", req.Peer().Addr,
				)
				metrics.Get().RecordRateLimited(procedure)
				return nil, apperror.ErrRateLimited.ConnectError()
			default:
				logger.WithContext(ctx).Warn("Rate limit check failed", "error", err, "procedure", procedure)
				return next(ctx, req)
			}
		}
	}
}
