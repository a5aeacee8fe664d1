package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept for every monetary amount
const MoneyScale int32 = 2

// RoundMoney rounds d half-up to MoneyScale places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseMoney parses a decimal string, rejecting values with more than two
// fractional digits.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount string: %w", err)
	}
	if !d.Equal(d.Round(MoneyScale)) {
		return decimal.Zero, fmt.Errorf("amount %s has more than %d decimal places", s, MoneyScale)
	}
	return d, nil
}

// SumMoney adds amounts left to right. Callers pass rows in chronological
// order so the result is reproducible.
func SumMoney(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return RoundMoney(total)
}

// FormatMoney renders d with exactly two decimal places
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// HasMoneyScale reports whether d carries no more than two fractional digits
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}
