package rebalance

import (
	"math/big"
)

// Purchase is the recommendation for one fund.
type Purchase struct {
	Symbol string
	// Shares to buy, never negative.
	Shares int64
	// Amount is Shares × price.
	Amount Money
	// NewProportion of the fund in the portfolio after the purchase, in [0,1].
	NewProportion    float64
	TargetProportion float64
}

// Plan is the outcome of a successful optimization.
type Plan struct {
	Currency  string
	TargetBuy Money
	// Purchases, in fund order.
	Purchases []Purchase
	// TotalPurchase is the sum of all purchase amounts. It is always less
	// than TargetBuy.
	TotalPurchase Money
	// NewPortfolioTotal is the value of the portfolio after the purchase.
	NewPortfolioTotal Money
	// Objective is the minimized value: the sum of deviations from targets
	// plus the unspent budget, in quantized units.
	Objective *big.Rat
}

// Leftover returns the part of the budget that is not spent.
func (p *Plan) Leftover() Money { return p.TargetBuy.Sub(p.TotalPurchase) }

// Purchase returns the purchase for symbol, if any.
func (p *Plan) Purchase(symbol string) (Purchase, bool) {
	for _, x := range p.Purchases {
		if x.Symbol == symbol {
			return x, true
		}
	}
	return Purchase{}, false
}

func (x Purchase) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", x.Symbol)
	w.Append("shares", x.Shares)
	w.Append("amount", x.Amount)
	w.Append("newProportion", x.NewProportion)
	w.Append("targetProportion", x.TargetProportion)
	return w.MarshalJSON()
}

func (p *Plan) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("currency", p.Currency)
	w.Append("targetBuy", p.TargetBuy)
	w.Append("purchases", p.Purchases)
	w.Append("totalPurchase", p.TotalPurchase)
	w.Append("newPortfolioTotal", p.NewPortfolioTotal)
	if p.Objective != nil {
		w.Append("objective", p.Objective.RatString())
	}
	return w.MarshalJSON()
}
