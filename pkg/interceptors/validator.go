package interceptors

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"middleman/pkg/apperror"
)

// Validator интерфейс для валидируемых сообщений
type Validator interface {
	Validate() error
}

// ValidationInterceptor валидирует входящие запросы
func ValidationInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if v, ok := req.Any().(Validator); ok {
				if err := v.Validate(); err != nil {
					var appErr *apperror.Error
					if errors.As(err, &appErr) {
						return nil, apperror.ToConnect(err)
					}
					return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("validation error: %w", err))
				}
			}

			return next(ctx, req)
		}
	}
}

// ErrorMappingInterceptor переводит ошибки приложения в connect-ошибки
func ErrorMappingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err != nil {
				return nil, apperror.ToConnect(err)
			}
			return resp, nil
		}
	}
}
