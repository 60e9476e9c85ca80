package algorithms

import "middleman/pkg/domain"

// Balance returns an owned copy of p whose total supply equals its total demand.
//
// A supply surplus adds a dummy recipient that absorbs the surplus, a demand
// surplus adds a dummy supplier that covers the deficit. The dummy's own price
// and every transport cost on its routes are zero; the real counterpart's price
// still applies, so a dummy recipient route earns -purchase and a dummy supplier
// route earns +selling. When totals already match the copy keeps the original
// dimensions.
func Balance(p *domain.Problem) *domain.BalancedProblem {
	balanced := &domain.BalancedProblem{
		Problem:            *p.Clone(),
		Dummy:              domain.DummyNone,
		OriginalSuppliers:  p.Suppliers,
		OriginalRecipients: p.Recipients,
	}

	totalSupply := p.TotalSupply()
	totalDemand := p.TotalDemand()

	if totalSupply == totalDemand {
		return balanced
	}

	if totalSupply > totalDemand {
		balanced.Dummy = domain.DummyRecipient
		balanced.Recipients++
		balanced.Demand = append(balanced.Demand, totalSupply-totalDemand)
		balanced.SellingPrices = append(balanced.SellingPrices, 0)
		for i := range balanced.Costs {
			balanced.Costs[i] = append(balanced.Costs[i], 0)
		}
		return balanced
	}

	balanced.Dummy = domain.DummySupplier
	balanced.Suppliers++
	balanced.Supply = append(balanced.Supply, totalDemand-totalSupply)
	balanced.PurchasePrices = append(balanced.PurchasePrices, 0)
	balanced.Costs = append(balanced.Costs, make([]float64, p.Recipients))
	return balanced
}
