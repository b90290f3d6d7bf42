// Package distortion implements a tanh waveshaper unit.
//
// The transfer curve is tanh(amount * x). Building with the fastmath tag
// swaps math.Tanh for an exp-based approximation from algo-approx.
package distortion
