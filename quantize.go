package rebalance

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal digits kept by Quantize.
const Precision = 3

// Quantize returns v as an exact rational, keeping Precision decimal digits.
// Values are rounded half away from zero: 19.4567 becomes 19.457.
func Quantize(v float64) *big.Rat {
	return decimal.NewFromFloat(v).Round(Precision).Rat()
}
