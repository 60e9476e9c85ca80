package algorithms

import "middleman/pkg/domain"

// Route маршрут с ненулевой поставкой
type Route struct {
	Supplier      int     `json:"supplier"`
	Recipient     int     `json:"recipient"`
	SupplierName  string  `json:"supplierName"`
	RecipientName string  `json:"recipientName"`
	Quantity      float64 `json:"quantity"`
	UnitProfit    float64 `json:"unitProfit"`
	Profit        float64 `json:"profit"`
	Dummy         bool    `json:"dummy"`
}

// ProfitBreakdown разложение единичной прибыли маршрута
type ProfitBreakdown struct {
	Supplier      int     `json:"supplier"`
	Recipient     int     `json:"recipient"`
	SellingPrice  float64 `json:"sellingPrice"`
	PurchasePrice float64 `json:"purchasePrice"`
	Cost          float64 `json:"cost"`
	UnitProfit    float64 `json:"unitProfit"`
	Dummy         bool    `json:"dummy"`
}

// Analysis сводка по решению.
//
// Балансы участников и финансовые итоги считаются только по реальным
// маршрутам. Объём на маршрутах фиктивного участника попадает в
// DummyQuantity, а недопоставка реальным получателям видна в Unmet.
type Analysis struct {
	Routes    []Route           `json:"routes"`
	Breakdown []ProfitBreakdown `json:"breakdown"`

	Shipped   []float64 `json:"shipped"`
	Remaining []float64 `json:"remaining"`
	Received  []float64 `json:"received"`
	Unmet     []float64 `json:"unmet"`

	Revenue       float64 `json:"revenue"`
	PurchaseCost  float64 `json:"purchaseCost"`
	TransportCost float64 `json:"transportCost"`
	TotalQuantity float64 `json:"totalQuantity"`
	DummyQuantity float64 `json:"dummyQuantity"`

	// Empty ни один маршрут не получил поставку
	Empty bool `json:"empty"`
}

// BreakdownProfits раскладывает единичную прибыль каждого маршрута
// на цену продажи, цену закупки и стоимость перевозки
func BreakdownProfits(p *domain.BalancedProblem) []ProfitBreakdown {
	profits := Profits(&p.Problem)
	out := make([]ProfitBreakdown, 0, p.Size())

	for i := 0; i < p.Suppliers; i++ {
		for j := 0; j < p.Recipients; j++ {
			out = append(out, ProfitBreakdown{
				Supplier:      i,
				Recipient:     j,
				SellingPrice:  p.SellingPrices[j],
				PurchasePrice: p.PurchasePrices[i],
				Cost:          p.Costs[i][j],
				UnitProfit:    profits[i][j],
				Dummy:         p.IsDummyRoute(i, j),
			})
		}
	}
	return out
}

// Analyze строит маршруты, балансы участников и финансовую сводку
func Analyze(p *domain.BalancedProblem, s *domain.Solution) *Analysis {
	a := &Analysis{
		Breakdown: BreakdownProfits(p),
		Shipped:   make([]float64, p.Suppliers),
		Remaining: make([]float64, p.Suppliers),
		Received:  make([]float64, p.Recipients),
		Unmet:     make([]float64, p.Recipients),
		Empty:     s.Allocation.AllZero(),
	}

	for i := 0; i < p.Suppliers; i++ {
		for j := 0; j < p.Recipients; j++ {
			q := s.Allocation[i][j]
			if !(q > 0) {
				continue
			}

			dummy := p.IsDummyRoute(i, j)
			a.Routes = append(a.Routes, Route{
				Supplier:      i,
				Recipient:     j,
				SupplierName:  p.SupplierName(i),
				RecipientName: p.RecipientName(j),
				Quantity:      q,
				UnitProfit:    s.Profits[i][j],
				Profit:        q * s.Profits[i][j],
				Dummy:         dummy,
			})

			a.TotalQuantity += q
			if dummy {
				continue
			}

			a.Shipped[i] += q
			a.Received[j] += q
			a.Revenue += q * p.SellingPrices[j]
			a.PurchaseCost += q * p.PurchasePrices[i]
			a.TransportCost += q * p.Costs[i][j]
		}
	}

	switch p.Dummy {
	case domain.DummySupplier:
		a.DummyQuantity = s.Allocation.RowSum(p.Suppliers - 1)
	case domain.DummyRecipient:
		a.DummyQuantity = s.Allocation.ColSum(p.Recipients - 1)
	}

	for i := range a.Remaining {
		a.Remaining[i] = p.Supply[i] - a.Shipped[i]
	}
	for j := range a.Unmet {
		a.Unmet[j] = p.Demand[j] - a.Received[j]
	}

	return a
}

// NetProfit выручка за вычетом закупки и перевозки по реальным маршрутам.
// При фиктивном участнике отличается от Solution.TotalProfit: в ту входит
// прибыль маршрутов фиктивного поставщика и минус закупка нераспроданного.
func (a *Analysis) NetProfit() float64 {
	return a.Revenue - a.PurchaseCost - a.TransportCost
}
