// pkg/client/solver.go
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cenkalti/backoff/v5"

	"middleman/pkg/apperror"
	"middleman/pkg/rpc"
)

// SolverClientConfig конфигурация клиента
type SolverClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// GRPC переключает протокол с Connect на gRPC (нужен HTTP/2)
	GRPC       bool
	HTTPClient *http.Client
}

// DefaultSolverClientConfig возвращает конфигурацию по умолчанию
func DefaultSolverClientConfig() *SolverClientConfig {
	return &SolverClientConfig{
		BaseURL:      "http://localhost:8080",
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// SolverClient клиент MiddlemanService
type SolverClient struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	http       *http.Client
	options    []connect.ClientOption
}

// NewSolverClient создаёт клиента
func NewSolverClient(cfg *SolverClientConfig) (*SolverClient, error) {
	if cfg == nil {
		cfg = DefaultSolverClientConfig()
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid solver address %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	options := []connect.ClientOption{connect.WithCodec(rpc.Codec{})}
	if cfg.GRPC {
		options = append(options, connect.WithGRPC())
	}

	return &SolverClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    cfg.RetryBackoff,
		http:       httpClient,
		options:    options,
	}, nil
}

// retryable коды, при которых запрос повторяется
func retryable(err error) bool {
	switch connect.CodeOf(err) {
	case connect.CodeUnavailable, connect.CodeAborted:
		return true
	default:
		return false
	}
}

// Call выполняет унарный вызов процедуры с повторами.
// Ошибки сервера возвращаются как *apperror.Error с исходным кодом.
func Call[Req, Res any](ctx context.Context, c *SolverClient, procedure string, req *Req) (*Res, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	client := connect.NewClient[Req, Res](c.http, c.baseURL+procedure, c.options...)

	resp, err := backoff.Retry(ctx, func() (*connect.Response[Res], error) {
		resp, err := client.CallUnary(ctx, connect.NewRequest(req))
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.backoff)),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
	if err != nil {
		return nil, apperror.FromConnect(err)
	}
	return resp.Msg, nil
}

// Health проверяет /health сервиса
func (c *SolverClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeUnavailable, "solver service is unreachable")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return apperror.New(apperror.CodeUnavailable, fmt.Sprintf("solver service returned %s", resp.Status))
	}
	return nil
}

// IsCode сообщает, что err несёт код приложения code
func IsCode(err error, code apperror.ErrorCode) bool {
	var appErr *apperror.Error
	return errors.As(err, &appErr) && appErr.Code == code
}
