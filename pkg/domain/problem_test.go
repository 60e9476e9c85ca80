package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProblem() *Problem {
	return &Problem{
		Suppliers:      2,
		Recipients:     3,
		Costs:          Matrix{{1, 2, 3}, {4, 5, 6}},
		Supply:         Vector{10, 20},
		Demand:         Vector{5, 15, 10},
		PurchasePrices: Vector{2, 3},
		SellingPrices:  Vector{10, 11, 12},
	}
}

func TestProblem_CheckDimensions(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, newTestProblem().CheckDimensions())
	})

	t.Run("empty problem", func(t *testing.T) {
		assert.NoError(t, (&Problem{}).CheckDimensions())
	})

	tests := []struct {
		name   string
		mutate func(p *Problem)
		field  string
	}{
		{"short supply", func(p *Problem) { p.Supply = Vector{1} }, "supply"},
		{"long demand", func(p *Problem) { p.Demand = Vector{1, 2, 3, 4} }, "demand"},
		{"purchase prices", func(p *Problem) { p.PurchasePrices = nil }, "purchasePrices"},
		{"selling prices", func(p *Problem) { p.SellingPrices = Vector{1} }, "sellingPrices"},
		{"cost rows", func(p *Problem) { p.Costs = p.Costs[:1] }, "costs"},
		{"ragged cost row", func(p *Problem) { p.Costs[1] = []float64{1, 2} }, "costs[1]"},
		{"negative suppliers", func(p *Problem) { p.Suppliers = -1 }, "suppliers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProblem()
			tt.mutate(p)

			err := p.CheckDimensions()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDimensionMismatch))

			var dimErr *DimensionError
			require.True(t, errors.As(err, &dimErr))
			assert.Equal(t, tt.field, dimErr.Field)
		})
	}
}

func TestProblem_CloneIsDeep(t *testing.T) {
	p := newTestProblem()
	c := p.Clone()

	c.Costs[0][0] = 100
	c.Supply[0] = 100
	c.Demand[0] = 100
	c.PurchasePrices[0] = 100
	c.SellingPrices[0] = 100

	assert.Equal(t, 1.0, p.Costs[0][0])
	assert.Equal(t, 10.0, p.Supply[0])
	assert.Equal(t, 5.0, p.Demand[0])
	assert.Equal(t, 2.0, p.PurchasePrices[0])
	assert.Equal(t, 10.0, p.SellingPrices[0])
}

func TestProblem_Totals(t *testing.T) {
	p := newTestProblem()
	assert.Equal(t, 30.0, p.TotalSupply())
	assert.Equal(t, 30.0, p.TotalDemand())
	assert.Equal(t, 6, p.Size())
}

func TestMatrix(t *testing.T) {
	m := NewMatrix(2, 3)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.True(t, m.AllZero())

	m[0][1] = 4
	m[1][1] = 6
	m[1][2] = 1
	assert.False(t, m.AllZero())
	assert.Equal(t, 11.0, m.Sum())
	assert.Equal(t, 4.0, m.RowSum(0))
	assert.Equal(t, 10.0, m.ColSum(1))

	c := m.Clone()
	assert.Equal(t, m, c)
	c[0][0] = 1
	assert.NotEqual(t, m, c)
	assert.Equal(t, 0.0, m[0][0])

	assert.Equal(t, 0, Matrix(nil).Cols())
	assert.Nil(t, Matrix(nil).Clone())
	assert.Nil(t, Vector(nil).Clone())
}

func TestBalancedProblem_Names(t *testing.T) {
	b := &BalancedProblem{
		Problem:            Problem{Suppliers: 2, Recipients: 3},
		Dummy:              DummyRecipient,
		OriginalSuppliers:  2,
		OriginalRecipients: 2,
	}

	assert.Equal(t, "Supplier 1", b.SupplierName(0))
	assert.Equal(t, "Recipient 2", b.RecipientName(1))
	assert.Equal(t, DummyRecipientLabel, b.RecipientName(2))
	assert.True(t, b.IsDummyRoute(0, 2))
	assert.False(t, b.IsDummyRoute(1, 1))
	assert.False(t, b.IsDummySupplier(1))
}

func TestDummyKind_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Dummy DummyKind `json:"dummy"`
	}{DummySupplier})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dummy":"supplier"}`, string(data))

	var out struct {
		Dummy DummyKind `json:"dummy"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"dummy":"recipient"}`), &out))
	assert.Equal(t, DummyRecipient, out.Dummy)

	assert.Error(t, json.Unmarshal([]byte(`{"dummy":"nobody"}`), &out))
}
