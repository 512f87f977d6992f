package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// safePercent returns part/whole*100, or 0 when whole is zero.
func safePercent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return clampRate(part / whole * 100)
}

// clampRate bounds v to [0, 100] and maps NaN/Inf to 0.
func clampRate(v float64) float64 {
	return clamp(v, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// round1 rounds a reported value to one decimal place.
func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
