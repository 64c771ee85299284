package rebalance

import (
	"fmt"
	"math"
)

// ProportionTolerance is the accepted distance between the sum of target
// proportions and 1.
const ProportionTolerance = 0.01

// ValidationError reports a configuration that cannot be modeled.
type ValidationError struct {
	// Symbol of the offending fund, empty when the whole portfolio is at fault.
	Symbol string
	// Sum of the target proportions, set when they do not sum to 1.
	Sum float64
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validate checks p in order:
//   - target proportions sum to 1 within ProportionTolerance,
//   - every price is strictly positive,
//   - no fund holds a negative number of shares,
//   - the budget is finite,
//   - symbols are unique,
//   - every target proportion is in (0,1].
//
// It returns a *ValidationError describing the first failure.
func Validate(p Portfolio) error {
	sum := p.ProportionSum()
	if !(math.Abs(sum-1) <= ProportionTolerance) {
		return &ValidationError{
			Sum: sum,
			msg: fmt.Sprintf("expected target_proportions to sum to 1.00, got %.2f", sum),
		}
	}
	for _, f := range p.Funds {
		if !(f.Price > 0) || math.IsInf(f.Price, 1) {
			return &ValidationError{Symbol: f.Symbol, Sum: sum, msg: fmt.Sprintf("price for %s is not positive", f.Symbol)}
		}
	}
	for _, f := range p.Funds {
		if !(f.Shares >= 0) || math.IsInf(f.Shares, 1) {
			return &ValidationError{Symbol: f.Symbol, Sum: sum, msg: fmt.Sprintf("shares for %s are negative", f.Symbol)}
		}
	}
	if math.IsNaN(p.TargetBuy) || math.IsInf(p.TargetBuy, 0) {
		return &ValidationError{Sum: sum, msg: fmt.Sprintf("target_buy %v is not a number", p.TargetBuy)}
	}
	seen := make(map[string]bool, len(p.Funds))
	for _, f := range p.Funds {
		if seen[f.Symbol] {
			return &ValidationError{Symbol: f.Symbol, Sum: sum, msg: fmt.Sprintf("symbol %s is declared more than once", f.Symbol)}
		}
		seen[f.Symbol] = true
	}
	for _, f := range p.Funds {
		if !(f.TargetProportion > 0 && f.TargetProportion <= 1) {
			return &ValidationError{Symbol: f.Symbol, Sum: sum, msg: fmt.Sprintf("target_proportion for %s is not in (0,1]", f.Symbol)}
		}
	}
	return nil
}
