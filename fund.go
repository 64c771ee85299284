package rebalance

// Fund is one asset of the portfolio.
type Fund struct {
	Symbol string `toml:"symbol" yaml:"symbol" json:"symbol"`
	// Shares currently held.
	Shares float64 `toml:"shares" yaml:"shares" json:"shares"`
	// Price of one share. It is optional in configuration files when prices
	// are refreshed from a provider.
	Price float64 `toml:"price,omitempty" yaml:"price,omitempty" json:"price,omitempty"`
	// TargetProportion is the desired fraction of the portfolio value, in (0,1].
	TargetProportion float64 `toml:"target_proportion" yaml:"target_proportion" json:"target_proportion"`
}

// Value returns the value of the shares currently held.
func (f Fund) Value() float64 { return f.Shares * f.Price }

// DefaultCurrency is used when a portfolio does not name its currency.
const DefaultCurrency = "USD"

// Portfolio is a configuration to rebalance: a budget and an ordered list
// of funds. Fund order drives the order of the problem encoding and of the
// resulting plan.
type Portfolio struct {
	// TargetBuy is the budget. The plan always spends strictly less.
	TargetBuy float64 `toml:"target_buy" yaml:"target_buy" json:"target_buy"`
	// Currency is only used to display amounts.
	Currency string `toml:"currency,omitempty" yaml:"currency,omitempty" json:"currency,omitempty"`
	Funds    []Fund `toml:"funds" yaml:"funds" json:"funds"`
}

// ProportionSum returns the sum of all target proportions.
func (p Portfolio) ProportionSum() float64 {
	var sum float64
	for _, f := range p.Funds {
		sum += f.TargetProportion
	}
	return sum
}

// Symbols returns fund symbols in order.
func (p Portfolio) Symbols() []string {
	res := make([]string, len(p.Funds))
	for i, f := range p.Funds {
		res[i] = f.Symbol
	}
	return res
}

// Value returns the value of the current holdings.
func (p Portfolio) Value() float64 {
	var sum float64
	for _, f := range p.Funds {
		sum += f.Value()
	}
	return sum
}

// currency returns the display currency.
func (p Portfolio) currency() string {
	if p.Currency == "" {
		return DefaultCurrency
	}
	return p.Currency
}

// Fund returns the fund for symbol, if any.
func (p Portfolio) Fund(symbol string) (Fund, bool) {
	for _, f := range p.Funds {
		if f.Symbol == symbol {
			return f, true
		}
	}
	return Fund{}, false
}
