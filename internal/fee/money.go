package fee

import "math"

// Money is an absolute currency amount in whole units of the project currency.
type Money float64

// Percent is a percentage on the 0–100 scale.
type Percent float64

// Of applies the percentage to an amount.
func (p Percent) Of(m Money) Money {
	return Money(float64(m) * float64(p) / 100)
}

// Valid reports whether p is a finite value within [0,100].
func (p Percent) Valid() bool {
	f := float64(p)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 && f <= 100
}

// Valid reports whether m is a finite, non-negative amount.
func (m Money) Valid() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// The rounding helpers below are the only place report values are rounded.
// Currency rounds half away from zero to whole units, percentages to one
// decimal and fee-per-point to two decimals.

// RoundMoney rounds an amount to the nearest whole unit.
func RoundMoney(m Money) Money {
	return Money(roundTo(float64(m), 0))
}

// RoundPercent rounds a percentage to one decimal place.
func RoundPercent(p Percent) Percent {
	return Percent(roundTo(float64(p), 1))
}

// RoundRate rounds a per-point rate to two decimal places.
func RoundRate(m Money) Money {
	return Money(roundTo(float64(m), 2))
}

// RoundWeight rounds an aggregated weight to one decimal place for summaries.
func RoundWeight(w float64) float64 {
	return roundTo(w, 1)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // no negative zero in reports
	}
	return r
}

// finite replaces NaN and infinities with zero so they never leak into a report.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
