package interceptors

import (
	"context"
	"errors"
	"runtime/debug"

	"connectrpc.com/connect"

	"middleman/pkg/logger"
)

// RecoveryInterceptor перехватывает панику обработчика и возвращает CodeInternal
func RecoveryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithContext(ctx).Error("panic recovered",
						"procedure", procedureOf(req),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					resp = nil
					err = connect.NewError(connect.CodeInternal, errors.New("internal error"))
				}
			}()

			return next(ctx, req)
		}
	}
}
