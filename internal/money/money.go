// Package money centralizes the rounding rule used by every monetary
// computation in the engine: two decimal places, half away from zero.
package money

import "github.com/shopspring/decimal"

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Percent returns round(base × pct/100, 2).
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(pct).Div(decimal.NewFromInt(100)))
}

// ImpliedPercent returns the percentage that amount represents of base,
// rounded to 2 places. Zero base yields zero.
func ImpliedPercent(amount, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return amount.Div(base).Mul(decimal.NewFromInt(100)).Round(2)
}
