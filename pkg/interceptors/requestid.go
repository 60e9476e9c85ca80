package interceptors

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"middleman/pkg/logger"
)

// RequestIDHeader заголовок идентификатора запроса
const RequestIDHeader = "X-Request-Id"

// RequestIDInterceptor берёт X-Request-Id из запроса или генерирует новый
// и возвращает его в заголовке ответа (или в метаданных ошибки).
func RequestIDInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				if id := logger.RequestIDFromContext(ctx); id != "" && req.Header().Get(RequestIDHeader) == "" {
					req.Header().Set(RequestIDHeader, id)
				}
				return next(ctx, req)
			}

			id := req.Header().Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			ctx = logger.ContextWithRequestID(ctx, id)

			resp, err := next(ctx, req)
			if err != nil {
				var cerr *connect.Error
				if errors.As(err, &cerr) {
					cerr.Meta().Set(RequestIDHeader, id)
				}
				return resp, err
			}
			if resp != nil {
				resp.Header().Set(RequestIDHeader, id)
			}
			return resp, nil
		}
	}
}
