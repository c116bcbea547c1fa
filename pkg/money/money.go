// Package money converts between integer pence and display strings.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the currency symbol for GBP amounts.
const Symbol = "£"

var hundred = decimal.NewFromInt(100)

// Pounds renders pence as a fixed two-decimal string, e.g. 3999 -> "39.99".
func Pounds(pence int64) string {
	return decimal.NewFromInt(pence).Div(hundred).StringFixed(2)
}

// Format renders pence with the currency symbol, e.g. 3999 -> "£39.99".
func Format(pence int64) string {
	if pence < 0 {
		return "-" + Symbol + Pounds(-pence)
	}
	return Symbol + Pounds(pence)
}

// ParsePounds converts a display string ("39.99", "£39.99") back to pence.
// Values with more than two decimal places are rejected.
func ParsePounds(value string) (int64, error) {
	raw := strings.TrimSpace(value)
	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, Symbol)
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", value)
	}
	pence := d.Mul(hundred).IntPart()
	if negative {
		pence = -pence
	}
	return pence, nil
}

// FromDecimal converts a pound amount to pence, rounding half away from zero.
func FromDecimal(pounds decimal.Decimal) int64 {
	return pounds.Mul(hundred).Round(0).IntPart()
}

// Sum adds pence values.
func Sum(values ...int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}
