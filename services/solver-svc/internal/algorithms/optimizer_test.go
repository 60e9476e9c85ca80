package algorithms

import (
	"testing"

	"middleman/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// disconnectedBasis жадный старт даёт две несвязанные базисные клетки
func disconnectedBasis() *domain.Problem {
	return &domain.Problem{
		Suppliers:      2,
		Recipients:     2,
		Costs:          domain.Matrix{{0, 0}, {1, 7}},
		Supply:         domain.Vector{10, 10},
		Demand:         domain.Vector{10, 10},
		PurchasePrices: domain.Vector{0, 0},
		SellingPrices:  domain.Vector{10, 8},
	}
}

func TestComputePotentials(t *testing.T) {
	b := balanced(pivotCase())
	u, v := ComputePotentials(b, domain.Matrix{{0, 5}, {5, 10}})

	require.Len(t, u, 2)
	require.Len(t, v, 2)

	assert.Equal(t, Potential{Value: 0, Known: true}, u[0])
	assert.Equal(t, Potential{Value: -8, Known: true}, u[1])
	assert.Equal(t, Potential{Value: 12, Known: true}, v[0])
	assert.Equal(t, Potential{Value: 9, Known: true}, v[1])
}

func TestComputePotentials_DisconnectedBasis(t *testing.T) {
	b := balanced(disconnectedBasis())
	u, v := ComputePotentials(b, domain.Matrix{{10, 0}, {0, 10}})

	assert.True(t, u[0].Known)
	assert.True(t, v[0].Known)
	assert.InDelta(t, 10.0, v[0].Value, delta)

	// строка 1 и столбец 1 не связаны со строкой 0
	assert.False(t, u[1].Known)
	assert.False(t, v[1].Known)
}

func TestComputePotentials_EmptyBasis(t *testing.T) {
	b := balanced(singleRoute())
	u, v := ComputePotentials(b, domain.Matrix{{0}})

	assert.True(t, u[0].Known)
	assert.False(t, v[0].Known)
}

func TestOptimize_DisconnectedBasisIsLeftAlone(t *testing.T) {
	b := balanced(disconnectedBasis())
	initial := InitialAllocation(b)
	require.Equal(t, domain.Matrix{{10, 0}, {0, 10}}, initial)

	result := Optimize(b, initial)

	assert.Equal(t, initial, result.Allocation)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, TerminationOptimal, result.Termination)
	assert.InDelta(t, 110.0, TotalProfit(result.Allocation, Profits(&b.Problem)), delta)
}

// cycling упрощённый шаг не сходится, цикл упирается в MaxIterations
func cycling() *domain.Problem {
	return &domain.Problem{
		Suppliers:      2,
		Recipients:     3,
		Costs:          domain.Matrix{{9, 7, 13}, {13, 0, 9}},
		Supply:         domain.Vector{7, 6},
		Demand:         domain.Vector{32, 22, 38},
		PurchasePrices: domain.Vector{5, 11},
		SellingPrices:  domain.Vector{25, 31, 22},
	}
}

func TestOptimize_IterationLimit(t *testing.T) {
	b := balanced(cycling())
	require.Equal(t, domain.DummySupplier, b.Dummy)

	result := optimize(b, InitialAllocation(b), true)

	assert.Equal(t, MaxIterations, result.Iterations)
	assert.Equal(t, TerminationIterationLimit, result.Termination)
	assert.Equal(t, domain.Matrix{{7, 0, 7}, {0, 6, 6}, {25, 16, 25}}, result.Allocation)

	require.Len(t, result.Steps, MaxIterations)
	for _, step := range result.Steps {
		assert.Greater(t, step.Shift, 0.0, "iteration %d", step.Iteration)
	}
	for i, row := range result.Allocation {
		for j, q := range row {
			assert.GreaterOrEqual(t, q, 0.0, "allocation[%d][%d]", i, j)
		}
	}
}

func TestSolve_IterationLimit(t *testing.T) {
	result, err := SolveWithOptions(cycling(), nil)
	require.NoError(t, err)

	s := result.Solution
	assert.Equal(t, MaxIterations, result.Iterations)
	assert.Equal(t, TerminationIterationLimit, result.Termination)
	assert.InDelta(t, 2072.0, result.InitialProfit, delta)
	assert.InDelta(t, 1908.0, s.TotalProfit, delta)
	assert.InDelta(t, TotalProfit(s.Allocation, s.Profits), s.TotalProfit, delta)
}

func TestOptimize_DoesNotModifyInitial(t *testing.T) {
	b := balanced(pivotCase())
	initial := domain.Matrix{{5, 5}, {0, 10}}

	result := Optimize(b, initial)

	assert.Equal(t, domain.Matrix{{5, 5}, {0, 10}}, initial)
	assert.Equal(t, domain.Matrix{{0, 5}, {5, 10}}, result.Allocation)
	assert.Nil(t, result.Steps)
}

func TestOptimize_NoSuppliers(t *testing.T) {
	b := &domain.BalancedProblem{}
	result := Optimize(b, domain.Matrix{})

	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, TerminationOptimal, result.Termination)
}

func TestPivot(t *testing.T) {
	t.Run("shift taken from first basic cell in column", func(t *testing.T) {
		allocation := domain.Matrix{
			{0, 4, 0},
			{0, 0, 0},
			{3, 6, 2},
		}

		shift, reduced := pivot(allocation, 1, 1)

		assert.InDelta(t, 4.0, shift, delta)
		assert.Equal(t, 0, reduced)
		assert.Equal(t, domain.Matrix{{0, 0, 0}, {0, 4, 0}, {3, 6, 2}}, allocation)
	})

	t.Run("row minimum is shifted but only column loses", func(t *testing.T) {
		allocation := domain.Matrix{
			{0, 8},
			{2, 0},
		}

		shift, reduced := pivot(allocation, 1, 1)

		assert.InDelta(t, 2.0, shift, delta)
		assert.Equal(t, 0, reduced)
		assert.Equal(t, domain.Matrix{{0, 6}, {2, 2}}, allocation)
	})

	t.Run("no counterpart", func(t *testing.T) {
		allocation := domain.Matrix{
			{0, 0},
			{0, 0},
		}

		shift, reduced := pivot(allocation, 0, 0)

		assert.Equal(t, 0.0, shift)
		assert.Equal(t, -1, reduced)
		assert.True(t, allocation.AllZero())
	})
}

func TestEnteringCell_FirstOccurrenceWins(t *testing.T) {
	allocation := domain.Matrix{{1, 0}, {0, 0}}
	profits := domain.Matrix{{0, 5}, {5, 0}}
	known := []Potential{{Value: 0, Known: true}, {Value: 0, Known: true}}

	i, j, best := enteringCell(allocation, profits, known, known)

	assert.Equal(t, 0, i)
	assert.Equal(t, 1, j)
	assert.InDelta(t, 5.0, best, delta)
}

func TestEnteringCell_SkipsUnknownPotentials(t *testing.T) {
	allocation := domain.Matrix{{1, 0}, {0, 0}}
	profits := domain.Matrix{{0, 5}, {50, 0}}
	u := []Potential{{Value: 0, Known: true}, {}}
	v := []Potential{{Value: 0, Known: true}, {Value: 0, Known: true}}

	i, j, _ := enteringCell(allocation, profits, u, v)

	assert.Equal(t, 0, i)
	assert.Equal(t, 1, j)
}
