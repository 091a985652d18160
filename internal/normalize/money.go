package normalize

import "github.com/shopspring/decimal"

// PerDiem spreads cost evenly over days, rounding half to even at the cent.
// days below 1 are treated as 1 so same-day stays carry the full cost.
func PerDiem(cost decimal.Decimal, days int) decimal.Decimal {
	if days < 1 {
		days = 1
	}
	return cost.Div(decimal.NewFromInt(int64(days))).RoundBank(2)
}

// Positive reports whether d is strictly greater than zero.
func Positive(d decimal.Decimal) bool {
	return d.Sign() > 0
}
