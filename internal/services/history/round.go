package history

import (
	"math"

	"github.com/shopspring/decimal"
)

// minPrice floors synthesized prices so every emitted price stays positive
const minPrice = 0.01

// round2 rounds half away from zero to 2 decimal places
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// changePercent returns the percent move from prev to today
func changePercent(today, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (today - prev) / prev * 100
}
