// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point drift across repeated recomputation.
type Money = decimal.Decimal

// Quantity is a line quantity (pieces, hours). Same representation as Money.
type Quantity = decimal.Decimal

// hundred is the percentage divisor.
var hundred = decimal.NewFromInt(100)

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Percent returns base * rate / 100.
func Percent(base Money, rate decimal.Decimal) Money {
	if base.IsZero() || rate.IsZero() {
		return decimal.Zero
	}
	return base.Mul(rate).Div(hundred)
}

// RoundWhole rounds to the nearest integer, halves away from zero.
// Negative halves therefore round down: -10.5 becomes -11.
func RoundWhole(m Money) Money {
	return m.Round(0)
}
