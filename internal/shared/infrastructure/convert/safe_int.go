// Package convert narrows int settings to the fixed-width types that
// drivers and breakers take, saturating instead of wrapping.
package convert

import "math"

// ClampUint32 saturates v into [0, MaxUint32].
func ClampUint32(v int) uint32 {
	return uint32(clamp(int64(v), 0, math.MaxUint32))
}

// ClampInt32 saturates v into [MinInt32, MaxInt32].
func ClampInt32(v int) int32 {
	return int32(clamp(int64(v), math.MinInt32, math.MaxInt32))
}

func clamp(v, lo, hi int64) int64 {
	return max(lo, min(v, hi))
}
