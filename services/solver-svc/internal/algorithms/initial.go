package algorithms

import (
	"math"

	"middleman/pkg/domain"
)

// InitialAllocation seeds an allocation with the maximum-profit greedy rule.
//
// Each round scans open routes (remaining supply and demand both positive) in
// row-major order and picks the strictly most profitable one; the first route
// found wins ties. The route receives min(remaining supply, remaining demand).
// Seeding stops as soon as the best open route is not profitable, so supply
// and demand may be left partially unallocated.
func InitialAllocation(p *domain.BalancedProblem) domain.Matrix {
	allocation := domain.NewMatrix(p.Suppliers, p.Recipients)
	remainingSupply := p.Supply.Clone()
	remainingDemand := p.Demand.Clone()
	profits := Profits(&p.Problem)

	for anyPositive(remainingSupply) && anyPositive(remainingDemand) {
		bestProfit := math.Inf(-1)
		bestI, bestJ := -1, -1

		for i := 0; i < p.Suppliers; i++ {
			if remainingSupply[i] <= 0 {
				continue
			}
			for j := 0; j < p.Recipients; j++ {
				if remainingDemand[j] <= 0 {
					continue
				}
				if profits[i][j] > bestProfit {
					bestProfit = profits[i][j]
					bestI, bestJ = i, j
				}
			}
		}

		if bestI == -1 || bestJ == -1 || bestProfit <= 0 {
			break
		}

		quantity := math.Min(remainingSupply[bestI], remainingDemand[bestJ])
		allocation[bestI][bestJ] = quantity
		remainingSupply[bestI] -= quantity
		remainingDemand[bestJ] -= quantity
	}

	return allocation
}

func anyPositive(v domain.Vector) bool {
	for _, x := range v {
		if x > 0 {
			return true
		}
	}
	return false
}
