package handlers

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"middleman/pkg/rpc"
	"middleman/services/solver-svc/internal/service"
)

// MiddlemanHandler connect-обработчики MiddlemanService
type MiddlemanHandler struct {
	svc *service.MiddlemanService
}

// NewMiddlemanHandler создаёт handler
func NewMiddlemanHandler(svc *service.MiddlemanService) *MiddlemanHandler {
	return &MiddlemanHandler{svc: svc}
}

func (h *MiddlemanHandler) Solve(
	ctx context.Context,
	req *connect.Request[service.SolveRequest],
) (*connect.Response[service.SolveResponse], error) {
	resp, err := h.svc.Solve(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

func (h *MiddlemanHandler) Balance(
	ctx context.Context,
	req *connect.Request[service.BalanceRequest],
) (*connect.Response[service.BalanceResponse], error) {
	resp, err := h.svc.Balance(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

func (h *MiddlemanHandler) Profits(
	ctx context.Context,
	req *connect.Request[service.ProfitsRequest],
) (*connect.Response[service.ProfitsResponse], error) {
	resp, err := h.svc.Profits(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

func (h *MiddlemanHandler) Export(
	ctx context.Context,
	req *connect.Request[service.ExportRequest],
) (*connect.Response[service.ExportResponse], error) {
	resp, err := h.svc.Export(ctx, req.Msg)
	if err != nil {
		return nil, err
	}

	out := connect.NewResponse(resp)
	out.Header().Set("X-Report-Filename", resp.Filename)
	return out, nil
}

func (h *MiddlemanHandler) Validate(
	ctx context.Context,
	req *connect.Request[service.ValidateRequest],
) (*connect.Response[service.ValidateResponse], error) {
	resp, err := h.svc.Validate(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// NewHandler собирает http.Handler для всех процедур сервиса.
// Возвращает префикс маршрута и обработчик для http.ServeMux.
func NewHandler(svc *service.MiddlemanService, opts ...connect.HandlerOption) (string, http.Handler) {
	h := NewMiddlemanHandler(svc)
	opts = append([]connect.HandlerOption{connect.WithCodec(rpc.Codec{})}, opts...)

	routes := map[string]http.Handler{
		rpc.SolveProcedure:    connect.NewUnaryHandler(rpc.SolveProcedure, h.Solve, opts...),
		rpc.BalanceProcedure:  connect.NewUnaryHandler(rpc.BalanceProcedure, h.Balance, opts...),
		rpc.ProfitsProcedure:  connect.NewUnaryHandler(rpc.ProfitsProcedure, h.Profits, opts...),
		rpc.ExportProcedure:   connect.NewUnaryHandler(rpc.ExportProcedure, h.Export, opts...),
		rpc.ValidateProcedure: connect.NewUnaryHandler(rpc.ValidateProcedure, h.Validate, opts...),
	}

	return rpc.ServicePath(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.URL.Path]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
