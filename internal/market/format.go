package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
	trillion = decimal.NewFromInt(1_000_000_000_000)
)

// FormatPrice renders a price with two decimals, or up to eight for
// sub-unit prices.
func FormatPrice(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return d.StringFixed(2)
	}
	return d.Round(8).String()
}

// FormatPercent renders a signed percentage such as "+1.25%".
func FormatPercent(d decimal.Decimal) string {
	s := d.StringFixed(2) + "%"
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// FormatCompact renders large amounts with a K/M/B/T suffix.
func FormatCompact(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(trillion):
		return d.Div(trillion).StringFixed(2) + "T"
	case abs.GreaterThanOrEqual(billion):
		return d.Div(billion).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}

// Ticker returns the upper-cased symbol.
func (a Asset) Ticker() string {
	return strings.ToUpper(a.Symbol)
}
