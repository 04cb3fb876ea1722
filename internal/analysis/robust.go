package analysis

import (
	"math"
	"strconv"
)

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// round2 rounds to two decimals on the exact binary value, ties to even, so 2.675 (stored as
// 2.67499...) gives 2.67. Magnitudes whose hundredths do not fit a float64 overflow to Inf.
func round2(x float64) float64 {
	if hundredths := x * 100; math.IsInf(hundredths, 0) {
		return hundredths
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return r
}
