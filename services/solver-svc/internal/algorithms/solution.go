package algorithms

import "middleman/pkg/domain"

// Assemble recomputes the profit matrix for the balanced problem and sums
// allocation[i][j] * profit[i][j] into the total profit. The allocation is
// copied into the solution.
func Assemble(p *domain.BalancedProblem, allocation domain.Matrix) *domain.Solution {
	profits := Profits(&p.Problem)
	return &domain.Solution{
		Allocation:  allocation.Clone(),
		TotalProfit: TotalProfit(allocation, profits),
		Profits:     profits,
	}
}

// TotalProfit returns Σ allocation[i][j] * profits[i][j].
func TotalProfit(allocation, profits domain.Matrix) float64 {
	var total float64
	for i := range allocation {
		for j := range allocation[i] {
			total += allocation[i][j] * profits[i][j]
		}
	}
	return total
}
