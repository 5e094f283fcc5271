package wagefile

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest pay value the wage store's NUMERIC(12,2) columns
// can hold.
var MaxAmount = decimal.RequireFromString("9999999999.99")

var amountReplacer = strings.NewReplacer(",", "", "$", "", " ", "", "\u00a0", "")

// ParseAmount reads a pay value such as "1,234.50" or "$98,000". ok is false
// when the text is not a non-negative number up to MaxAmount; the amount is
// then zero.
func ParseAmount(raw string) (amount decimal.Decimal, ok bool) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	d = d.Round(2)
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, false
	}
	return d, true
}
