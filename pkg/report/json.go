package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JSONGenerator генератор JSON отчётов. Денежные значения сериализуются
// строками decimal, округлёнными до точности отчёта; NaN и Inf выводятся как null.
type JSONGenerator struct {
	baseGenerator
}

// Format возвращает формат генератора
func (g *JSONGenerator) Format() Format {
	return FormatJSON
}

type jsonReport struct {
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	ProblemHash string    `json:"problemHash,omitempty"`

	Summary    jsonSummary          `json:"summary"`
	Suppliers  []string             `json:"suppliers"`
	Recipients []string             `json:"recipients"`
	Profits    [][]*decimal.Decimal `json:"profits"`
	Allocation [][]*decimal.Decimal `json:"allocation"`
	Routes     []jsonRoute          `json:"routes"`
	Notice     string               `json:"notice,omitempty"`
}

type jsonSummary struct {
	TotalProfit   *decimal.Decimal `json:"totalProfit"`
	InitialProfit *decimal.Decimal `json:"initialProfit"`
	Revenue       *decimal.Decimal `json:"revenue"`
	PurchaseCost  *decimal.Decimal `json:"purchaseCost"`
	TransportCost *decimal.Decimal `json:"transportCost"`
	NetProfit     *decimal.Decimal `json:"netProfit"`
	Iterations    int              `json:"iterations"`
	Termination   string           `json:"termination,omitempty"`
	Balancing     string           `json:"balancing"`
	Dummy         string           `json:"dummy"`
}

type jsonRoute struct {
	Supplier   string           `json:"supplier"`
	Recipient  string           `json:"recipient"`
	Quantity   *decimal.Decimal `json:"quantity"`
	UnitProfit *decimal.Decimal `json:"unitProfit"`
	Profit     *decimal.Decimal `json:"profit"`
	Dummy      bool             `json:"dummy,omitempty"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	p := data.Problem
	rep := jsonReport{
		Title:       g.title(),
		Company:     g.opts.CompanyName,
		Currency:    g.opts.Currency,
		GeneratedAt: data.generatedAt(),
		ProblemHash: data.ProblemHash,
		Summary: jsonSummary{
			TotalProfit:   g.amount(data.Solution.TotalProfit),
			InitialProfit: g.amount(data.InitialProfit),
			Revenue:       g.amount(data.Revenue),
			PurchaseCost:  g.amount(data.PurchaseCost),
			TransportCost: g.amount(data.TransportCost),
			NetProfit:     g.amount(data.NetProfit),
			Iterations:    data.Iterations,
			Termination:   data.Termination,
			Balancing:     balancing(p),
			Dummy:         p.Dummy.String(),
		},
		Suppliers:  supplierNames(p),
		Recipients: recipientNames(p),
		Profits:    g.amounts(data.Solution.Profits),
		Allocation: g.amounts(data.Solution.Allocation),
		Routes:     make([]jsonRoute, 0, len(data.Routes)),
	}

	for _, r := range data.Routes {
		rep.Routes = append(rep.Routes, jsonRoute{
			Supplier:   r.SupplierName,
			Recipient:  r.RecipientName,
			Quantity:   g.amount(r.Quantity),
			UnitProfit: g.amount(r.UnitProfit),
			Profit:     g.amount(r.Profit),
			Dummy:      r.Dummy,
		})
	}
	if data.Empty() {
		rep.Notice = EmptyNotice
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal error: %w", err)
	}
	return out, nil
}

func (g *JSONGenerator) amounts(m [][]float64) [][]*decimal.Decimal {
	out := make([][]*decimal.Decimal, len(m))
	for i, row := range m {
		out[i] = make([]*decimal.Decimal, len(row))
		for j, v := range row {
			out[i][j] = g.amount(v)
		}
	}
	return out
}
