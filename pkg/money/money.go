// Package money formats portfolio amounts in Brazilian reais.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Unavailable is the label of an amount that has no finite value.
const Unavailable = "-"

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatBRL renders v as "R$ 1.5 M", using K, M and Bi suffixes with one
// decimal place. Amounts under a thousand are printed as they are.
func FormatBRL(v float64) string {
	if !finite(v) {
		return Unavailable
	}
	d := decimal.NewFromFloat(v)
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(billion):
		return "R$ " + d.Div(billion).StringFixed(1) + " Bi"
	case abs.GreaterThanOrEqual(million):
		return "R$ " + d.Div(million).StringFixed(1) + " M"
	case abs.GreaterThanOrEqual(thousand):
		return "R$ " + d.Div(thousand).StringFixed(1) + " K"
	default:
		return "R$ " + d.String()
	}
}

// FormatPercent renders a fraction as a percentage with two decimals, e.g. 0.0215 -> "2.15%".
func FormatPercent(fraction float64) string {
	if !finite(fraction) {
		return Unavailable
	}
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(2) + "%"
}

// Scale multiplies a rate by a volume without binary rounding noise in the
// displayed amount. Non-finite inputs fall back to the float product.
func Scale(rate, volume float64) float64 {
	if !finite(rate) || !finite(volume) {
		return rate * volume
	}
	f, _ := decimal.NewFromFloat(rate).Mul(decimal.NewFromFloat(volume)).Float64()
	return f
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
