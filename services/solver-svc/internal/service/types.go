package service

import (
	"middleman/pkg/apperror"
	"middleman/pkg/domain"
	"middleman/services/solver-svc/internal/algorithms"
	"middleman/services/solver-svc/internal/validation"
)

// SolveOptions параметры решения
type SolveOptions struct {
	// GreedyOnly возвращает жадное начальное распределение без улучшения
	GreedyOnly bool `json:"greedyOnly,omitempty" yaml:"greedyOnly"`
	// Trace записывает шаги улучшения
	Trace bool `json:"trace,omitempty" yaml:"trace"`
	// SkipCache решает задачу заново и не сохраняет результат
	SkipCache bool `json:"skipCache,omitempty" yaml:"skipCache"`
}

// SolveRequest запрос на решение задачи
type SolveRequest struct {
	Problem *domain.Problem `json:"problem" validate:"required"`
	Options SolveOptions    `json:"options"`
}

// Validate проверяет форму запроса
func (r *SolveRequest) Validate() error { return validation.Struct(r) }

// SolveResponse решение с анализом маршрутов
type SolveResponse struct {
	ID          string `json:"id"`
	ProblemHash string `json:"problemHash"`

	Solution          *domain.Solution        `json:"solution"`
	Balanced          *domain.BalancedProblem `json:"balanced"`
	InitialAllocation domain.Matrix           `json:"initialAllocation,omitempty"`
	InitialProfit     float64                 `json:"initialProfit"`
	Iterations        int                     `json:"iterations"`
	Termination       string                  `json:"termination"`

	Analysis *algorithms.Analysis       `json:"analysis"`
	Steps    []algorithms.IterationStep `json:"steps,omitempty"`

	Warnings   []string `json:"warnings,omitempty"`
	Cached     bool     `json:"cached"`
	DurationMs float64  `json:"durationMs"`
}

// BalanceRequest запрос на балансировку
type BalanceRequest struct {
	Problem *domain.Problem `json:"problem" validate:"required"`
}

// Validate проверяет форму запроса
func (r *BalanceRequest) Validate() error { return validation.Struct(r) }

// BalanceResponse сбалансированная задача
type BalanceResponse struct {
	Balanced *domain.BalancedProblem `json:"balanced"`
	// DummyQuantity запас или потребность фиктивного участника
	DummyQuantity float64  `json:"dummyQuantity"`
	Suppliers     []string `json:"suppliers"`
	Recipients    []string `json:"recipients"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ProfitsRequest запрос матрицы единичной прибыли
type ProfitsRequest struct {
	Problem *domain.Problem `json:"problem" validate:"required"`
}

// Validate проверяет форму запроса
func (r *ProfitsRequest) Validate() error { return validation.Struct(r) }

// ProfitsResponse прибыль по маршрутам сбалансированной задачи
type ProfitsResponse struct {
	Profits    domain.Matrix                `json:"profits"`
	Breakdown  []algorithms.ProfitBreakdown `json:"breakdown"`
	Suppliers  []string                     `json:"suppliers"`
	Recipients []string                     `json:"recipients"`
	Dummy      domain.DummyKind             `json:"dummy"`
}

// ExportRequest запрос отчёта по решению
type ExportRequest struct {
	Problem *domain.Problem `json:"problem" validate:"required"`
	Options SolveOptions    `json:"options"`
	Format  string          `json:"format,omitempty" validate:"omitempty,oneof=csv markdown md json xlsx excel pdf"`
}

// Validate проверяет форму запроса
func (r *ExportRequest) Validate() error { return validation.Struct(r) }

// ExportResponse отчёт; Content в JSON передаётся base64
type ExportResponse struct {
	Format      string  `json:"format"`
	ContentType string  `json:"contentType"`
	Filename    string  `json:"filename"`
	Content     []byte  `json:"content"`
	ProblemHash string  `json:"problemHash"`
	TotalProfit float64 `json:"totalProfit"`
}

// ValidateRequest запрос проверки без решения
type ValidateRequest struct {
	Problem *domain.Problem `json:"problem"`
}

// Issue ошибка или предупреждение проверки
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ValidateResponse результат проверки
type ValidateResponse struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func toIssues(errs []*apperror.Error) []Issue {
	issues := make([]Issue, len(errs))
	for i, e := range errs {
		issues[i] = Issue{Code: string(e.Code), Message: e.Message, Field: e.Field}
	}
	return issues
}
