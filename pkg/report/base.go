package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"middleman/pkg/domain"
)

// baseGenerator общие утилиты генераторов
type baseGenerator struct {
	opts *Options
}

// keyValue строка сводной таблицы
type keyValue struct {
	Key   string
	Value string
}

func (b baseGenerator) title() string {
	if b.opts.Title != "" {
		return b.opts.Title
	}
	return DefaultOptions().Title
}

func (b baseGenerator) author() string {
	if b.opts.CompanyName != "" {
		return b.opts.CompanyName
	}
	return "Middleman Solver"
}

// number форматирует число с точностью отчёта. NaN и Inf выводятся как есть.
func (b baseGenerator) number(v float64) string {
	if !domain.IsFinite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(b.opts.Precision)
}

// money добавляет код валюты
func (b baseGenerator) money(v float64) string {
	s := b.number(v)
	if b.opts.Currency == "" {
		return s
	}
	return s + " " + b.opts.Currency
}

// amount округлённое значение для JSON; nil для NaN и Inf
func (b baseGenerator) amount(v float64) *decimal.Decimal {
	if !domain.IsFinite(v) {
		return nil
	}
	d := decimal.NewFromFloat(v).Round(b.opts.Precision)
	return &d
}

// routesTotal сумма прибыли маршрутов в десятичной арифметике
func routesTotal(routes []Route) decimal.Decimal {
	total := decimal.Zero
	for _, r := range routes {
		if !domain.IsFinite(r.Profit) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(r.Profit))
	}
	return total
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// balancing описание балансировки
func balancing(p *domain.BalancedProblem) string {
	switch p.Dummy {
	case domain.DummyRecipient:
		return "dummy recipient added (supply surplus)"
	case domain.DummySupplier:
		return "dummy supplier added (demand surplus)"
	default:
		return "balanced"
	}
}

// summary строки сводки, общие для всех форматов
func (b baseGenerator) summary(d *Data) []keyValue {
	p := d.Problem
	rows := []keyValue{
		{"Total Profit", b.money(d.Solution.TotalProfit)},
		{"Initial Profit", b.money(d.InitialProfit)},
		{"Revenue", b.money(d.Revenue)},
		{"Purchase Cost", b.money(d.PurchaseCost)},
		{"Transport Cost", b.money(d.TransportCost)},
		{"Net Profit", b.money(d.NetProfit)},
		{"Iterations", strconv.Itoa(d.Iterations)},
	}
	if d.Termination != "" {
		rows = append(rows, keyValue{"Termination", d.Termination})
	}
	rows = append(rows,
		keyValue{"Suppliers", strconv.Itoa(p.OriginalSuppliers)},
		keyValue{"Recipients", strconv.Itoa(p.OriginalRecipients)},
		keyValue{"Total Supply", b.number(p.TotalSupply())},
		keyValue{"Total Demand", b.number(p.TotalDemand())},
		keyValue{"Balancing", balancing(p)},
	)
	if d.ProblemHash != "" {
		rows = append(rows, keyValue{"Problem Hash", d.ProblemHash})
	}
	return rows
}

// unitProfitParts цена продажи, цена закупки и стоимость перевозки маршрута
func unitProfitParts(p *domain.BalancedProblem, i, j int) (selling, purchase, cost float64) {
	return p.SellingPrices[j], p.PurchasePrices[i], p.Costs[i][j]
}

func supplierNames(p *domain.BalancedProblem) []string {
	names := make([]string, p.Suppliers)
	for i := range names {
		names[i] = p.SupplierName(i)
	}
	return names
}

func recipientNames(p *domain.BalancedProblem) []string {
	names := make([]string, p.Recipients)
	for j := range names {
		names[j] = p.RecipientName(j)
	}
	return names
}

// checkContext прерывает генерацию отменённого запроса
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("report generation cancelled: %w", err)
	}
	return nil
}

// ColName преобразует индекс колонки в буквенное обозначение (0 -> A, 25 -> Z, 26 -> AA)
func ColName(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// CellByIndex возвращает адрес ячейки по индексу колонки (с 0) и номеру строки (с 1)
func CellByIndex(colIndex, row int) string {
	return ColName(colIndex) + strconv.Itoa(row)
}
