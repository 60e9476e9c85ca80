package algorithms

import (
	"testing"

	"middleman/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_AlreadyBalanced(t *testing.T) {
	p := clearBest()
	b := Balance(p)

	assert.Equal(t, domain.DummyNone, b.Dummy)
	assert.Equal(t, p.Suppliers, b.Suppliers)
	assert.Equal(t, p.Recipients, b.Recipients)
	assert.Equal(t, *p, b.Problem)
}

func TestBalance_SupplySurplus(t *testing.T) {
	p := &domain.Problem{
		Suppliers:      1,
		Recipients:     1,
		Costs:          domain.Matrix{{3}},
		Supply:         domain.Vector{10},
		Demand:         domain.Vector{4},
		PurchasePrices: domain.Vector{1},
		SellingPrices:  domain.Vector{9},
	}

	b := Balance(p)

	assert.Equal(t, domain.DummyRecipient, b.Dummy)
	assert.Equal(t, 1, b.Suppliers)
	assert.Equal(t, 2, b.Recipients)
	assert.Equal(t, domain.Vector{4, 6}, b.Demand)
	assert.Equal(t, domain.Vector{9, 0}, b.SellingPrices)
	assert.Equal(t, domain.Matrix{{3, 0}}, b.Costs)
	assert.Equal(t, 10.0, b.TotalDemand())
	assert.Equal(t, b.TotalSupply(), b.TotalDemand())
	assert.True(t, b.IsDummyRecipient(1))
	assert.Equal(t, 1, b.OriginalRecipients)
}

func TestBalance_DemandSurplus(t *testing.T) {
	p := &domain.Problem{
		Suppliers:      2,
		Recipients:     2,
		Costs:          domain.Matrix{{1, 2}, {3, 4}},
		Supply:         domain.Vector{5, 5},
		Demand:         domain.Vector{8, 7},
		PurchasePrices: domain.Vector{2, 3},
		SellingPrices:  domain.Vector{10, 12},
	}

	b := Balance(p)

	assert.Equal(t, domain.DummySupplier, b.Dummy)
	assert.Equal(t, 3, b.Suppliers)
	assert.Equal(t, 2, b.Recipients)
	assert.Equal(t, domain.Vector{5, 5, 5}, b.Supply)
	assert.Equal(t, domain.Vector{2, 3, 0}, b.PurchasePrices)
	assert.Equal(t, domain.Matrix{{1, 2}, {3, 4}, {0, 0}}, b.Costs)
	assert.Equal(t, b.TotalSupply(), b.TotalDemand())
	assert.True(t, b.IsDummySupplier(2))
	assert.Equal(t, domain.DummySupplierLabel, b.SupplierName(2))
}

func TestBalance_DoesNotAliasInput(t *testing.T) {
	p := &domain.Problem{
		Suppliers:      1,
		Recipients:     1,
		Costs:          domain.Matrix{{3}},
		Supply:         domain.Vector{10},
		Demand:         domain.Vector{4},
		PurchasePrices: domain.Vector{1},
		SellingPrices:  domain.Vector{9},
	}

	b := Balance(p)
	b.Costs[0][0] = 100
	b.Demand[0] = 100

	assert.Len(t, p.Costs[0], 1)
	assert.Equal(t, 3.0, p.Costs[0][0])
	assert.Equal(t, domain.Vector{4}, p.Demand)
	assert.Equal(t, 1, p.Recipients)
}

func TestBalance_NoSuppliers(t *testing.T) {
	p := &domain.Problem{
		Recipients:    2,
		Costs:         domain.Matrix{},
		Demand:        domain.Vector{3, 4},
		SellingPrices: domain.Vector{5, 6},
	}

	b := Balance(p)

	require.Equal(t, 1, b.Suppliers)
	assert.Equal(t, domain.Vector{7}, b.Supply)
	assert.Equal(t, domain.Matrix{{0, 0}}, b.Costs)
	assert.NoError(t, b.CheckDimensions())
}
