package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"middleman/pkg/client"
	"middleman/pkg/config"
	"middleman/pkg/report"
	"middleman/pkg/rpc"
	"middleman/services/solver-svc/internal/service"
)

// backend выполняет операции локально или через solver-svc
type backend interface {
	Solve(ctx context.Context, req *service.SolveRequest) (*service.SolveResponse, error)
	Balance(ctx context.Context, req *service.BalanceRequest) (*service.BalanceResponse, error)
	Profits(ctx context.Context, req *service.ProfitsRequest) (*service.ProfitsResponse, error)
	Export(ctx context.Context, req *service.ExportRequest) (*service.ExportResponse, error)
	Validate(ctx context.Context, req *service.ValidateRequest) (*service.ValidateResponse, error)
}

// remoteBackend типизированные вызовы MiddlemanService
type remoteBackend struct {
	client *client.SolverClient
}

func (r *remoteBackend) Solve(ctx context.Context, req *service.SolveRequest) (*service.SolveResponse, error) {
	return client.Call[service.SolveRequest, service.SolveResponse](ctx, r.client, rpc.SolveProcedure, req)
}

func (r *remoteBackend) Balance(ctx context.Context, req *service.BalanceRequest) (*service.BalanceResponse, error) {
	return client.Call[service.BalanceRequest, service.BalanceResponse](ctx, r.client, rpc.BalanceProcedure, req)
}

func (r *remoteBackend) Profits(ctx context.Context, req *service.ProfitsRequest) (*service.ProfitsResponse, error) {
	return client.Call[service.ProfitsRequest, service.ProfitsResponse](ctx, r.client, rpc.ProfitsProcedure, req)
}

func (r *remoteBackend) Export(ctx context.Context, req *service.ExportRequest) (*service.ExportResponse, error) {
	return client.Call[service.ExportRequest, service.ExportResponse](ctx, r.client, rpc.ExportProcedure, req)
}

func (r *remoteBackend) Validate(ctx context.Context, req *service.ValidateRequest) (*service.ValidateResponse, error) {
	return client.Call[service.ValidateRequest, service.ValidateResponse](ctx, r.client, rpc.ValidateProcedure, req)
}

// runtime окружение одной команды
type runtime struct {
	backend backend
	report  *report.Options
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "problem file (.yaml, .yml, .json or - for stdin)",
		},
		&cli.StringFlag{
			Name:    "remote",
			Usage:   "solver-svc address, e.g. http://localhost:8080; local solve when empty",
			EnvVars: []string{"MIDDLEMAN_REMOTE"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 30 * time.Second,
			Usage: "deadline for the whole command",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the raw response as JSON",
		},
	}
}

// newRuntime выбирает backend. Удалённый сервис проверяется через /health до первого вызова.
func newRuntime(ctx context.Context, c *cli.Context) (*runtime, error) {
	if remote := c.String("remote"); remote != "" {
		sc, err := client.NewSolverClient(&client.SolverClientConfig{
			BaseURL:      remote,
			Timeout:      c.Duration("timeout"),
			MaxRetries:   3,
			RetryBackoff: 200 * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		if err := sc.Health(ctx); err != nil {
			return nil, err
		}
		return &runtime{backend: &remoteBackend{client: sc}, report: report.DefaultOptions()}, nil
	}

	var opts []config.LoaderOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithConfigPaths(path))
	}
	cfg, err := config.NewLoader(opts...).Load()
	if err != nil {
		return nil, err
	}

	return &runtime{
		backend: service.NewMiddlemanService(service.ConfigFrom(cfg), nil),
		report:  report.OptionsFromConfig(&cfg.Report),
	}, nil
}
