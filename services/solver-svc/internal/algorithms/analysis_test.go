package algorithms

import (
	"testing"

	"middleman/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_SupplySurplus(t *testing.T) {
	p := &domain.Problem{
		Suppliers:      1,
		Recipients:     1,
		Costs:          domain.Matrix{{1}},
		Supply:         domain.Vector{10},
		Demand:         domain.Vector{4},
		PurchasePrices: domain.Vector{2},
		SellingPrices:  domain.Vector{5},
	}

	result, err := SolveWithOptions(p, nil)
	require.NoError(t, err)

	a := Analyze(result.Balanced, result.Solution)

	require.Len(t, a.Routes, 1)
	route := a.Routes[0]
	assert.Equal(t, "Supplier 1", route.SupplierName)
	assert.Equal(t, "Recipient 1", route.RecipientName)
	assert.Equal(t, 4.0, route.Quantity)
	assert.Equal(t, 2.0, route.UnitProfit)
	assert.Equal(t, 8.0, route.Profit)
	assert.False(t, route.Dummy)

	assert.Equal(t, []float64{4}, a.Shipped)
	assert.Equal(t, []float64{6}, a.Remaining)
	assert.Equal(t, []float64{4, 0}, a.Received)
	assert.Equal(t, []float64{0, 6}, a.Unmet)

	assert.Equal(t, 20.0, a.Revenue)
	assert.Equal(t, 8.0, a.PurchaseCost)
	assert.Equal(t, 4.0, a.TransportCost)
	assert.InDelta(t, result.Solution.TotalProfit, a.NetProfit(), delta)
	assert.False(t, a.Empty)

	require.Len(t, a.Breakdown, 2)
	assert.Equal(t, ProfitBreakdown{
		Supplier:      0,
		Recipient:     1,
		SellingPrice:  0,
		PurchasePrice: 2,
		Cost:          0,
		UnitProfit:    -2,
		Dummy:         true,
	}, a.Breakdown[1])
}

func TestAnalyze_RoutesRowMajor(t *testing.T) {
	result, err := SolveWithOptions(clearBest(), nil)
	require.NoError(t, err)

	a := Analyze(result.Balanced, result.Solution)

	require.Len(t, a.Routes, 3)
	assert.Equal(t, [2]int{0, 1}, [2]int{a.Routes[0].Supplier, a.Routes[0].Recipient})
	assert.Equal(t, [2]int{1, 0}, [2]int{a.Routes[1].Supplier, a.Routes[1].Recipient})
	assert.Equal(t, [2]int{1, 1}, [2]int{a.Routes[2].Supplier, a.Routes[2].Recipient})
	assert.Equal(t, 50.0, a.TotalQuantity)
	assert.Equal(t, 0.0, a.DummyQuantity)
	assert.InDelta(t, 265.0, a.NetProfit(), delta)
}

func TestAnalyze_DummySupplierRoutes(t *testing.T) {
	p := &domain.Problem{
		Suppliers:      1,
		Recipients:     1,
		Costs:          domain.Matrix{{1}},
		Supply:         domain.Vector{4},
		Demand:         domain.Vector{10},
		PurchasePrices: domain.Vector{2},
		SellingPrices:  domain.Vector{5},
	}

	result, err := SolveWithOptions(p, nil)
	require.NoError(t, err)

	a := Analyze(result.Balanced, result.Solution)

	require.Equal(t, domain.Matrix{{4}, {6}}, result.Solution.Allocation)

	// фиктивный поставщик продаёт по полной цене: прибыль 5 за единицу
	require.Len(t, a.Routes, 2)
	assert.True(t, a.Routes[1].Dummy)
	assert.Equal(t, domain.DummySupplierLabel, a.Routes[1].SupplierName)
	assert.Equal(t, 6.0, a.DummyQuantity)
	assert.Equal(t, 10.0, a.TotalQuantity)

	// реальному получателю доходят только 4 единицы
	assert.Equal(t, []float64{4, 0}, a.Shipped)
	assert.Equal(t, []float64{0, 6}, a.Remaining)
	assert.Equal(t, []float64{4}, a.Received)
	assert.Equal(t, []float64{6}, a.Unmet)

	assert.Equal(t, 20.0, a.Revenue)
	assert.Equal(t, 8.0, a.PurchaseCost)
	assert.Equal(t, 4.0, a.TransportCost)
	assert.InDelta(t, 8.0, a.NetProfit(), delta)
	assert.InDelta(t, 38.0, result.Solution.TotalProfit, delta)
}

func TestAnalyze_DummyRecipientRoutes(t *testing.T) {
	b := balanced(&domain.Problem{
		Suppliers:      1,
		Recipients:     1,
		Costs:          domain.Matrix{{1}},
		Supply:         domain.Vector{10},
		Demand:         domain.Vector{4},
		PurchasePrices: domain.Vector{2},
		SellingPrices:  domain.Vector{5},
	})
	// нераспроданный остаток на фиктивном получателе
	s := Assemble(b, domain.Matrix{{4, 6}})

	a := Analyze(b, s)

	assert.Equal(t, 6.0, a.DummyQuantity)
	assert.Equal(t, []float64{4}, a.Shipped)
	assert.Equal(t, []float64{6}, a.Remaining)
	assert.Equal(t, []float64{4, 0}, a.Received)
	assert.Equal(t, 8.0, a.PurchaseCost)
	assert.InDelta(t, 8.0, a.NetProfit(), delta)
	assert.InDelta(t, -4.0, s.TotalProfit, delta)
}

func TestAnalyze_Empty(t *testing.T) {
	p := singleRoute()
	p.SellingPrices[0] = 1

	result, err := SolveWithOptions(p, nil)
	require.NoError(t, err)

	a := Analyze(result.Balanced, result.Solution)

	assert.True(t, a.Empty)
	assert.Empty(t, a.Routes)
	assert.Equal(t, []float64{10}, a.Remaining)
	assert.Equal(t, []float64{10}, a.Unmet)
}
