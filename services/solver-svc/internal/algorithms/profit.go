package algorithms

import "middleman/pkg/domain"

// Profits builds the unit-profit matrix of a problem:
//
//	profit[i][j] = sellingPrices[j] - purchasePrices[i] - costs[i][j]
//
// The function is pure. Callers recompute it whenever they need it instead of
// keeping a copy alive across allocation changes.
func Profits(p *domain.Problem) domain.Matrix {
	profits := make(domain.Matrix, len(p.Costs))
	for i, row := range p.Costs {
		profits[i] = make([]float64, len(row))
		for j, cost := range row {
			profits[i][j] = p.SellingPrices[j] - p.PurchasePrices[i] - cost
		}
	}
	return profits
}
