package utils

import (
	"math"
)

// ModAngDeg normalizes an angle in degrees into the range [0, 360). The result is congruent to
// the input modulo 360. Non-finite inputs return NaN.
func ModAngDeg(ang float64) float64 {
	normalized := math.Mod(math.Mod(ang, 360)+360, 360)
	// A tiny negative input can round up to exactly 360 in the addition above.
	if normalized >= 360 {
		return 0
	}
	return normalized
}
