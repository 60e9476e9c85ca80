package domain

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch размеры матриц или векторов не совпадают с числом участников
var ErrDimensionMismatch = errors.New("dimension mismatch")

// DimensionError описывает конкретное нарушение размерности
type DimensionError struct {
	Field    string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s: expected %d, got %d", ErrDimensionMismatch, e.Field, e.Expected, e.Got)
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrDimensionMismatch)
func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// Problem входные данные задачи посредника
type Problem struct {
	Suppliers      int    `json:"suppliers" yaml:"suppliers" validate:"gte=0"`
	Recipients     int    `json:"recipients" yaml:"recipients" validate:"gte=0"`
	Costs          Matrix `json:"costs" yaml:"costs"`
	Supply         Vector `json:"supply" yaml:"supply"`
	Demand         Vector `json:"demand" yaml:"demand"`
	PurchasePrices Vector `json:"purchasePrices" yaml:"purchasePrices"`
	SellingPrices  Vector `json:"sellingPrices" yaml:"sellingPrices"`
}

// Clone возвращает глубокую копию задачи
func (p *Problem) Clone() *Problem {
	if p == nil {
		return nil
	}
	return &Problem{
		Suppliers:      p.Suppliers,
		Recipients:     p.Recipients,
		Costs:          p.Costs.Clone(),
		Supply:         p.Supply.Clone(),
		Demand:         p.Demand.Clone(),
		PurchasePrices: p.PurchasePrices.Clone(),
		SellingPrices:  p.SellingPrices.Clone(),
	}
}

// CheckDimensions проверяет согласованность размеров всех матриц и векторов.
// Возвращает *DimensionError для первого найденного нарушения.
func (p *Problem) CheckDimensions() error {
	if p.Suppliers < 0 {
		return &DimensionError{Field: "suppliers", Expected: 0, Got: p.Suppliers}
	}
	if p.Recipients < 0 {
		return &DimensionError{Field: "recipients", Expected: 0, Got: p.Recipients}
	}

	checks := []struct {
		field    string
		expected int
		got      int
	}{
		{"supply", p.Suppliers, len(p.Supply)},
		{"purchasePrices", p.Suppliers, len(p.PurchasePrices)},
		{"demand", p.Recipients, len(p.Demand)},
		{"sellingPrices", p.Recipients, len(p.SellingPrices)},
		{"costs", p.Suppliers, len(p.Costs)},
	}
	for _, c := range checks {
		if c.expected != c.got {
			return &DimensionError{Field: c.field, Expected: c.expected, Got: c.got}
		}
	}

	for i, row := range p.Costs {
		if len(row) != p.Recipients {
			return &DimensionError{
				Field:    fmt.Sprintf("costs[%d]", i),
				Expected: p.Recipients,
				Got:      len(row),
			}
		}
	}
	return nil
}

// TotalSupply суммарный запас поставщиков
func (p *Problem) TotalSupply() float64 {
	return p.Supply.Sum()
}

// TotalDemand суммарная потребность получателей
func (p *Problem) TotalDemand() float64 {
	return p.Demand.Sum()
}

// Size количество ячеек маршрутов
func (p *Problem) Size() int {
	return p.Suppliers * p.Recipients
}

// DummyKind какой фиктивный участник добавлен при балансировке
type DummyKind int

const (
	DummyNone DummyKind = iota
	DummySupplier
	DummyRecipient
)

// String возвращает строковое представление
func (d DummyKind) String() string {
	switch d {
	case DummySupplier:
		return "supplier"
	case DummyRecipient:
		return "recipient"
	default:
		return "none"
	}
}

// MarshalText сериализует DummyKind строкой
func (d DummyKind) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText разбирает строковое представление
func (d *DummyKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "supplier":
		*d = DummySupplier
	case "recipient":
		*d = DummyRecipient
	case "none", "":
		*d = DummyNone
	default:
		return fmt.Errorf("unknown dummy kind %q", string(text))
	}
	return nil
}

// BalancedProblem задача с равными суммарными запасом и потребностью.
// Если суммы исходной задачи различались, добавлена одна фиктивная строка или столбец.
type BalancedProblem struct {
	Problem

	Dummy              DummyKind `json:"dummy"`
	OriginalSuppliers  int       `json:"originalSuppliers"`
	OriginalRecipients int       `json:"originalRecipients"`
}

// IsDummySupplier проверяет, является ли строка i фиктивным поставщиком
func (b *BalancedProblem) IsDummySupplier(i int) bool {
	return b.Dummy == DummySupplier && i == b.Suppliers-1
}

// IsDummyRecipient проверяет, является ли столбец j фиктивным получателем
func (b *BalancedProblem) IsDummyRecipient(j int) bool {
	return b.Dummy == DummyRecipient && j == b.Recipients-1
}

// IsDummyRoute проверяет, проходит ли маршрут через фиктивного участника
func (b *BalancedProblem) IsDummyRoute(i, j int) bool {
	return b.IsDummySupplier(i) || b.IsDummyRecipient(j)
}

// SupplierName человекочитаемое имя поставщика (нумерация с 1)
func (b *BalancedProblem) SupplierName(i int) string {
	if b.IsDummySupplier(i) {
		return DummySupplierLabel
	}
	return fmt.Sprintf("%s %d", SupplierLabel, i+1)
}

// RecipientName человекочитаемое имя получателя (нумерация с 1)
func (b *BalancedProblem) RecipientName(j int) string {
	if b.IsDummyRecipient(j) {
		return DummyRecipientLabel
	}
	return fmt.Sprintf("%s %d", RecipientLabel, j+1)
}

// Solution результат решения задачи посредника
type Solution struct {
	Allocation  Matrix  `json:"allocation"`
	TotalProfit float64 `json:"totalProfit"`
	Profits     Matrix  `json:"profits"`
}

// Clone возвращает глубокую копию решения
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	return &Solution{
		Allocation:  s.Allocation.Clone(),
		TotalProfit: s.TotalProfit,
		Profits:     s.Profits.Clone(),
	}
}
