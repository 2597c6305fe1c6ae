//go:build fastmath

package effects

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

// mathTanh computes tanh(x) from a fast exponential.
// Uses the identity: tanh(x) = 1 - 2 / (e^(2x) + 1)
func mathTanh(x float64) float64 {
	if x == 0 {
		return 0
	}

	// e^(2x) overflows the approximation well before tanh leaves +-1.
	if x > 20 {
		return 1
	}

	if x < -20 {
		return -1
	}

	return math.Copysign(1-2/(approx.FastExp(2*math.Abs(x))+1), x)
}
