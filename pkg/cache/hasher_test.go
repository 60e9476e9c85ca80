package cache

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"middleman/pkg/domain"
)

func hashProblem() *domain.Problem {
	return &domain.Problem{
		Suppliers:      2,
		Recipients:     2,
		Costs:          domain.Matrix{{8, 14}, {12, 9}},
		Supply:         domain.Vector{20, 30},
		Demand:         domain.Vector{25, 25},
		PurchasePrices: domain.Vector{10, 12},
		SellingPrices:  domain.Vector{30, 25},
	}
}

func TestProblemHash(t *testing.T) {
	t.Run("nil problem", func(t *testing.T) {
		assert.Empty(t, ProblemHash(nil))
	})

	t.Run("deterministic", func(t *testing.T) {
		h1 := ProblemHash(hashProblem())
		h2 := ProblemHash(hashProblem())
		assert.Equal(t, h1, h2)
		assert.Len(t, h1, 32)
	})

	t.Run("sensitive to every field", func(t *testing.T) {
		base := ProblemHash(hashProblem())

		mutations := map[string]func(p *domain.Problem){
			"cost":     func(p *domain.Problem) { p.Costs[1][0] = 12.5 },
			"supply":   func(p *domain.Problem) { p.Supply[0] = 21 },
			"demand":   func(p *domain.Problem) { p.Demand[1] = 24 },
			"purchase": func(p *domain.Problem) { p.PurchasePrices[1] = 11 },
			"selling":  func(p *domain.Problem) { p.SellingPrices[0] = 31 },
			"swap": func(p *domain.Problem) {
				p.SellingPrices[0], p.SellingPrices[1] = p.SellingPrices[1], p.SellingPrices[0]
			},
		}

		for name, mutate := range mutations {
			p := hashProblem()
			mutate(p)
			assert.NotEqual(t, base, ProblemHash(p), name)
		}
	})

	t.Run("vector boundaries matter", func(t *testing.T) {
		a := &domain.Problem{Supply: domain.Vector{1, 2}, Demand: domain.Vector{3}}
		b := &domain.Problem{Supply: domain.Vector{1}, Demand: domain.Vector{2, 3}}
		assert.NotEqual(t, ProblemHash(a), ProblemHash(b))
	})

	t.Run("negative zero equals zero", func(t *testing.T) {
		a := hashProblem()
		b := hashProblem()
		a.Costs[0][0] = 0
		b.Costs[0][0] = math.Copysign(0, -1)
		assert.Equal(t, ProblemHash(a), ProblemHash(b))
	})
}

func TestBuildSolveKey(t *testing.T) {
	assert.Equal(t, "solve:full:abc", BuildSolveKey("abc", ModeFull))
	assert.Equal(t, "solve:greedy:abc", BuildSolveKey("abc", ModeGreedyOnly))
}
