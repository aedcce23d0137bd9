package sim

import "math"

// round4 rounds to 4 decimal places for reporting.
func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
