//go:build !fastmath

package distortion

import "math"

func tanh(x float64) float64 {
	return math.Tanh(x)
}
