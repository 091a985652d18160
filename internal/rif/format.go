package rif

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the 8-digit date form used by every date column.
const DateLayout = "20060102"

// Date formats t as YYYYMMDD in UTC.
func Date(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Money formats an amount with exactly two decimal places, rounding half to even.
func Money(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}
