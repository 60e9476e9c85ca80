package algorithms

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"middleman/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

// singleRoute один поставщик, один получатель, прибыль 3 за единицу
func singleRoute() *domain.Problem {
	return &domain.Problem{
		Suppliers:      1,
		Recipients:     1,
		Costs:          domain.Matrix{{2}},
		Supply:         domain.Vector{10},
		Demand:         domain.Vector{10},
		PurchasePrices: domain.Vector{3},
		SellingPrices:  domain.Vector{8},
	}
}

// clearBest 2x2, самый выгодный маршрут (1,0) с прибылью 7
func clearBest() *domain.Problem {
	return &domain.Problem{
		Suppliers:      2,
		Recipients:     2,
		Costs:          domain.Matrix{{4, 3}, {1, 5}},
		Supply:         domain.Vector{20, 30},
		Demand:         domain.Vector{25, 25},
		PurchasePrices: domain.Vector{2, 2},
		SellingPrices:  domain.Vector{10, 9},
	}
}

// pivotCase прибыли [[10 9] [4 1]], жадный старт улучшается одним шагом
func pivotCase() *domain.Problem {
	return &domain.Problem{
		Suppliers:      2,
		Recipients:     2,
		Costs:          domain.Matrix{{0, 0}, {6, 8}},
		Supply:         domain.Vector{10, 10},
		Demand:         domain.Vector{5, 15},
		PurchasePrices: domain.Vector{0, 0},
		SellingPrices:  domain.Vector{10, 9},
	}
}

func randomProblem(rng *rand.Rand) *domain.Problem {
	m := 1 + rng.Intn(5)
	n := 1 + rng.Intn(5)

	p := &domain.Problem{
		Suppliers:      m,
		Recipients:     n,
		Costs:          domain.NewMatrix(m, n),
		Supply:         make(domain.Vector, m),
		Demand:         make(domain.Vector, n),
		PurchasePrices: make(domain.Vector, m),
		SellingPrices:  make(domain.Vector, n),
	}
	for i := 0; i < m; i++ {
		p.Supply[i] = float64(rng.Intn(50))
		p.PurchasePrices[i] = float64(rng.Intn(20))
		for j := 0; j < n; j++ {
			p.Costs[i][j] = float64(rng.Intn(15))
		}
	}
	for j := 0; j < n; j++ {
		p.Demand[j] = float64(rng.Intn(50))
		p.SellingPrices[j] = float64(10 + rng.Intn(30))
	}
	return p
}

func TestSolve_SingleRoute(t *testing.T) {
	solution, err := Solve(singleRoute())
	require.NoError(t, err)

	assert.Equal(t, domain.Matrix{{3}}, solution.Profits)
	assert.Equal(t, domain.Matrix{{10}}, solution.Allocation)
	assert.InDelta(t, 30.0, solution.TotalProfit, delta)
}

func TestSolve_SupplySurplus(t *testing.T) {
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

	assert.Equal(t, 2, result.Balanced.Recipients)
	assert.Equal(t, domain.DummyRecipient, result.Balanced.Dummy)
	assert.Equal(t, domain.Matrix{{4, 0}}, result.Solution.Allocation)
	assert.Equal(t, domain.Matrix{{2, -2}}, result.Solution.Profits)
	assert.InDelta(t, 8.0, result.Solution.TotalProfit, delta)
	assert.Equal(t, TerminationOptimal, result.Termination)
}

func TestSolve_NoProfitableRoute(t *testing.T) {
	p := &domain.Problem{
		Suppliers:      2,
		Recipients:     2,
		Costs:          domain.Matrix{{5, 6}, {7, 8}},
		Supply:         domain.Vector{5, 5},
		Demand:         domain.Vector{5, 5},
		PurchasePrices: domain.Vector{3, 3},
		SellingPrices:  domain.Vector{8, 8},
	}

	solution, err := Solve(p)
	require.NoError(t, err)

	assert.True(t, solution.Allocation.AllZero())
	assert.Equal(t, 0.0, solution.TotalProfit)
	for _, row := range solution.Profits {
		for _, profit := range row {
			assert.LessOrEqual(t, profit, 0.0)
		}
	}
}

func TestSolve_ClearBestRoute(t *testing.T) {
	result, err := SolveWithOptions(clearBest(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.Matrix{{4, 4}, {7, 2}}, result.Solution.Profits)
	assert.Equal(t, domain.Matrix{{0, 20}, {25, 5}}, result.InitialAllocation)
	assert.Equal(t, domain.Matrix{{0, 20}, {25, 5}}, result.Solution.Allocation)
	assert.InDelta(t, 265.0, result.Solution.TotalProfit, delta)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, TerminationOptimal, result.Termination)
}

func TestSolve_SimplifiedPivot(t *testing.T) {
	result, err := SolveWithOptions(pivotCase(), DefaultSolverOptions().WithTrace(true))
	require.NoError(t, err)

	assert.Equal(t, domain.Matrix{{5, 5}, {0, 10}}, result.InitialAllocation)
	assert.InDelta(t, 105.0, result.InitialProfit, delta)

	// Одноклеточный сдвиг: строка 0 теряет 5 единиц, строка 1 получает 5
	assert.Equal(t, domain.Matrix{{0, 5}, {5, 10}}, result.Solution.Allocation)
	assert.InDelta(t, 75.0, result.Solution.TotalProfit, delta)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, TerminationOptimal, result.Termination)

	require.Len(t, result.Steps, 1)
	step := result.Steps[0]
	assert.Equal(t, 1, step.Iteration)
	assert.Equal(t, 1, step.EnteringRow)
	assert.Equal(t, 0, step.EnteringCol)
	assert.InDelta(t, 2.0, step.OpportunityCost, delta)
	assert.InDelta(t, 5.0, step.Shift, delta)
	assert.Equal(t, 0, step.ReducedRow)
	assert.Equal(t, 3, step.BasicCells)
}

func TestSolve_SkipOptimization(t *testing.T) {
	result, err := SolveWithOptions(pivotCase(), DefaultSolverOptions().WithSkipOptimization(true))
	require.NoError(t, err)

	assert.Equal(t, result.InitialAllocation, result.Solution.Allocation)
	assert.InDelta(t, 105.0, result.Solution.TotalProfit, delta)
	assert.Equal(t, 0, result.Iterations)
	require.Len(t, result.RowPotentials, 2)
	assert.True(t, result.RowPotentials[1].Known)
	assert.InDelta(t, -8.0, result.RowPotentials[1].Value, delta)
}

func TestSolve_DimensionMismatch(t *testing.T) {
	p := singleRoute()
	p.Costs = domain.Matrix{{1, 2}}

	solution, err := Solve(p)
	assert.Nil(t, solution)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	var dimErr *domain.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "costs[0]", dimErr.Field)
}

func TestSolve_NilProblem(t *testing.T) {
	_, err := Solve(nil)
	assert.ErrorIs(t, err, ErrNilProblem)
}

func TestSolve_EmptyProblem(t *testing.T) {
	result, err := SolveWithOptions(&domain.Problem{}, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Solution.Allocation)
	assert.Equal(t, 0.0, result.Solution.TotalProfit)
	assert.Equal(t, TerminationOptimal, result.Termination)
}

func TestSolve_NaNPropagates(t *testing.T) {
	p := singleRoute()
	p.SellingPrices[0] = math.NaN()

	solution, err := Solve(p)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(solution.Profits[0][0]))
	assert.Equal(t, 0.0, solution.Allocation[0][0])
	assert.True(t, math.IsNaN(solution.TotalProfit))
}

func TestSolve_DoesNotMutateInput(t *testing.T) {
	p := pivotCase()
	original := p.Clone()

	first, err := Solve(p)
	require.NoError(t, err)
	assert.Equal(t, original, p)

	first.Allocation[0][1] = 999
	second, err := Solve(p)
	require.NoError(t, err)
	assert.Equal(t, 5.0, second.Allocation[0][1])
}

func TestSolve_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 20; n++ {
		p := randomProblem(rng)

		a, err := Solve(p)
		require.NoError(t, err)
		b, err := Solve(p)
		require.NoError(t, err)

		assert.Equal(t, a, b)
	}
}

func TestSolve_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for n := 0; n < 200; n++ {
		p := randomProblem(rng)

		result, err := SolveWithOptions(p, nil)
		require.NoError(t, err)

		s := result.Solution
		b := result.Balanced

		assert.Equal(t, b.TotalSupply(), b.TotalDemand(), "balance invariant")
		assert.LessOrEqual(t, result.Iterations, MaxIterations, "termination")
		assert.InDelta(t, TotalProfit(s.Allocation, s.Profits), s.TotalProfit, delta)
		assert.Equal(t, Profits(&b.Problem), s.Profits)

		for i, row := range s.Allocation {
			for j, q := range row {
				assert.GreaterOrEqual(t, q, 0.0, "allocation[%d][%d]", i, j)
			}
		}
	}
}
