package models

import "github.com/shopspring/decimal"

// Money converts a wire amount into a two-decimal domain amount.
func Money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// WireAmount converts a domain amount into a JSON number for the REST API.
func WireAmount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
