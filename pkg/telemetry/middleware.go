package telemetry

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// UnaryInterceptor создаёт connect interceptor для трейсинга.
// Контекст трассировки извлекается из заголовков запроса (traceparent).
func UnaryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				return next(ctx, req)
			}

			procedure := req.Spec().Procedure
			ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header()))
			ctx, span := StartSpan(ctx, procedure,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String(AttrRPCProcedure, procedure),
					attribute.String(AttrRPCProtocol, req.Peer().Protocol),
				),
			)
			defer span.End()

			resp, err := next(ctx, req)

			if err != nil {
				code := connect.CodeOf(err)
				msg := err.Error()
				var cerr *connect.Error
				if errors.As(err, &cerr) {
					msg = cerr.Message()
				}
				span.SetStatus(codes.Error, msg)
				span.SetAttributes(attribute.String(AttrRPCCode, code.String()))
				span.RecordError(err)
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return resp, err
		}
	}
}
