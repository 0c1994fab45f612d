// Package pricing provides the stock-elasticity price curve.
// Prices spike as stock depletes and discount as stock fills,
// bounded so they never reach zero or go negative.
package pricing

import "math"

// Sensitivity bounds for the elasticity curve.
const (
	MinSensitivity = 1.0
	MaxSensitivity = 10.0
)

// FloorPrice is the minimum quotable price for any item.
const FloorPrice = 0.01

// ClampSensitivity bounds a configured sensitivity to the supported range.
func ClampSensitivity(s float64) float64 {
	return math.Max(MinSensitivity, math.Min(MaxSensitivity, s))
}

// Multiplier returns the stock-dependent price multiplier.
//
// The curve is an exponential decay over the stock fill percentage:
//
//	maxMul = 1 + sensitivity*0.3
//	minMul = 1 / (1 + sensitivity*0.15)
//	curve  = 1 + sensitivity*0.1
//	mul    = maxMul * exp(-curve * stock/maxStock) + minMul
//
// At sensitivity 1.0 the range is roughly 0.87..2.17, at 5.0 roughly
// 1.13..3.07, at 10.0 roughly 1.65..4.40. Strictly decreasing in stock,
// always greater than minMul.
func Multiplier(stock, maxStock int, sensitivity float64) float64 {
	if maxStock <= 0 {
		return 1.0
	}
	pct := float64(stock) / float64(maxStock)

	maxMul := 1.0 + sensitivity*0.3
	minMul := 1.0 / (1.0 + sensitivity*0.15)
	curve := 1.0 + sensitivity*0.1

	return maxMul*math.Exp(-curve*pct) + minMul
}

// Round2 rounds a price to 2 decimal places.
func Round2(price float64) float64 {
	return math.Round(price*100.0) / 100.0
}

// Finalize applies the rounding and floor rules to a computed price.
func Finalize(price float64) float64 {
	if price < FloorPrice {
		return FloorPrice
	}
	return Round2(price)
}
