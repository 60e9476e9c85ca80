package interceptors

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"middleman/pkg/metrics"
)

// MetricsInterceptor записывает метрики запросов
func MetricsInterceptor() connect.UnaryInterceptorFunc {
	m := metrics.Get()
	tracker := metrics.NewRequestTracker(m.RequestsInFlight)

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := procedureOf(req)
			tracker.Start(procedure)
			defer tracker.End(procedure)

			start := time.Now()

			resp, err := next(ctx, req)

			m.RecordRequest(procedure, codeOf(err), time.Since(start))

			return resp, err
		}
	}
}
