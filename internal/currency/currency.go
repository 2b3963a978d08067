// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package currency provides currency-safe arithmetic for donation amounts.
//
// All donation amounts in Goalpost are US-dollar float64 values carried over
// JSON. Repeated float addition drifts (0.1+0.2 != 0.3), which corrupts
// running totals that are rebuilt incrementally on every poll. Every amount
// stored or summed anywhere in the engine must pass through Round or Add.
package currency

import "github.com/shopspring/decimal"

// two is the scale used for all monetary values (cents).
const two = 2

// Round rounds x to 2 decimal places using half-up rounding.
func Round(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(two).Float64()
	return f
}

// Add returns a+b rounded to 2 decimal places. Both operands are scaled to
// integer cents before summing, so chains of Add calls cannot accumulate
// binary-float drift regardless of addition order.
func Add(a, b float64) float64 {
	da := decimal.NewFromFloat(a).Round(two)
	db := decimal.NewFromFloat(b).Round(two)
	f, _ := da.Add(db).Float64()
	return f
}

// Sub returns a-b rounded to 2 decimal places, with the same cent-scaling
// guarantee as Add.
func Sub(a, b float64) float64 {
	da := decimal.NewFromFloat(a).Round(two)
	db := decimal.NewFromFloat(b).Round(two)
	f, _ := da.Sub(db).Float64()
	return f
}

// Mul returns a*b rounded to 2 decimal places. Used for unit-priced values
// such as bits (count x per-bit dollar value).
func Mul(a, b float64) float64 {
	da := decimal.NewFromFloat(a)
	db := decimal.NewFromFloat(b)
	f, _ := da.Mul(db).Round(two).Float64()
	return f
}
