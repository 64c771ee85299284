package rebalance

import (
	"math/big"

	"github.com/etnz/rebalance/solver"
)

// Extract reads the plan of p out of a solution of m, m being BuildModel(p).
//
// Amounts use the configured prices, not their quantized values. The new
// portfolio total is the model's own value, read exactly then converted to
// a float.
func Extract(sol solver.Solution, m *Model, p Portfolio) (*Plan, error) {
	currency := p.currency()
	plan := &Plan{
		Currency:      currency,
		TargetBuy:     M(p.TargetBuy, currency),
		TotalPurchase: M(int64(0), currency),
		Objective:     sol.Objective(),
	}

	var total *big.Rat
	for _, f := range p.Funds {
		x, ok := m.Problem.Lookup(f.Symbol)
		if !ok {
			return nil, &EvaluationError{Symbol: f.Symbol, Quantity: "shares to buy"}
		}
		shares, ok := sol.Int(x)
		if !ok {
			return nil, &EvaluationError{Symbol: f.Symbol, Quantity: "shares to buy"}
		}
		if total == nil {
			if total, ok = sol.Eval(m.NewTotal); !ok {
				return nil, &EvaluationError{Symbol: f.Symbol, Quantity: "new portfolio total"}
			}
		}
		newTotal := ratio(total)

		amount := M(f.Price, currency).Times(shares)
		var proportion float64
		if newTotal != 0 {
			proportion = (float64(shares) + f.Shares) * f.Price / newTotal
		}
		plan.Purchases = append(plan.Purchases, Purchase{
			Symbol:           f.Symbol,
			Shares:           shares,
			Amount:           amount,
			NewProportion:    proportion,
			TargetProportion: f.TargetProportion,
		})
		plan.TotalPurchase = plan.TotalPurchase.Add(amount)
	}
	if total == nil {
		total = new(big.Rat)
	}
	plan.NewPortfolioTotal = M(ratio(total), currency)
	return plan, nil
}

// ratio returns r as numerator ÷ denominator.
func ratio(r *big.Rat) float64 {
	num, _ := new(big.Float).SetInt(r.Num()).Float64()
	den, _ := new(big.Float).SetInt(r.Denom()).Float64()
	return num / den
}
