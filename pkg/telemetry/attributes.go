package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Задача
	AttrSuppliers   = "problem.suppliers"
	AttrRecipients  = "problem.recipients"
	AttrTotalSupply = "problem.total_supply"
	AttrTotalDemand = "problem.total_demand"
	AttrDummy       = "problem.dummy"

	// Решатель
	AttrIterations  = "solver.iterations"
	AttrTermination = "solver.termination"
	AttrTotalProfit = "solver.total_profit"
	AttrGreedyOnly  = "solver.greedy_only"
	AttrCacheHit    = "solver.cache_hit"

	// Валидация
	AttrValidationErrors   = "validation.errors"
	AttrValidationWarnings = "validation.warnings"
	AttrValidationPassed   = "validation.passed"

	// Отчёты
	AttrReportFormat = "report.format"
	AttrReportSize   = "report.size_bytes"

	// RPC
	AttrRPCProcedure = "rpc.method"
	AttrRPCProtocol  = "rpc.protocol"
	AttrRPCCode      = "rpc.connect.code"
)

// ProblemAttributes возвращает атрибуты задачи
func ProblemAttributes(suppliers, recipients int, totalSupply, totalDemand float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrSuppliers, suppliers),
		attribute.Int(AttrRecipients, recipients),
		attribute.Float64(AttrTotalSupply, totalSupply),
		attribute.Float64(AttrTotalDemand, totalDemand),
	}
}

// SolverAttributes возвращает атрибуты результата решения
func SolverAttributes(iterations int, termination string, totalProfit float64, dummy string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrIterations, iterations),
		attribute.String(AttrTermination, termination),
		attribute.Float64(AttrTotalProfit, totalProfit),
		attribute.String(AttrDummy, dummy),
	}
}

// ValidationAttributes возвращает атрибуты валидации
func ValidationAttributes(errorsCount, warningsCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Int(AttrValidationWarnings, warningsCount),
		attribute.Bool(AttrValidationPassed, errorsCount == 0),
	}
}

// ReportAttributes возвращает атрибуты отчёта
func ReportAttributes(format string, size int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrReportFormat, format),
		attribute.Int(AttrReportSize, size),
	}
}
