package metrics

import (
	"math"

	"github.com/shopspring/decimal"
)

// FormatCurrency abbreviates v to thousands with one decimal ("-1.5K") once
// its magnitude reaches 1000, and otherwise prints it with no decimals.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	sign := ""
	if v < 0 {
		sign = "-"
	}
	abs := decimal.NewFromFloat(math.Abs(v))
	if abs.GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return sign + abs.Div(decimal.NewFromInt(1000)).StringFixed(1) + "K"
	}
	return sign + abs.StringFixed(0)
}

// FormatPercentage prints v with one decimal and a percent sign.
func FormatPercentage(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}
