//go:build fastmath

package distortion

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

// Beyond this |x| tanh is 1 to double precision.
const tanhSaturation = 20.0

// tanh uses tanh(x) = 1 - 2/(e^(2x)+1).
func tanh(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return x
	case x > tanhSaturation:
		return 1
	case x < -tanhSaturation:
		return -1
	}
	return 1 - 2/(approx.FastExp(2*x)+1)
}
