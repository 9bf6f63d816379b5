package model

import "github.com/shopspring/decimal"

// RoundPrice rounds a reported price to cents.
func RoundPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
