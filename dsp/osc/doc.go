// Package osc implements a two-operator phase-accumulator oscillator with
// frequency modulation.
//
// A modulator and a carrier accumulate phase in cycles and wrap at 1. Both
// read the same shared sine table (or evaluate math.Sin directly). Two
// modulation variants exist:
//
//   - [ModeFeedback]: the carrier increment is the base increment scaled by
//     the modulator sample and the amount input, and the output sums
//     modulator and carrier, so its peak is 2*amplitude.
//   - [ModeRatio]: the modulator runs at frequency*ratio, the carrier
//     increment is base*(1 + amount*modulator), and the output is the
//     carrier alone, bounded by amplitude.
//
// With amount = 0 both variants produce a pure sinusoid at frequency
// (ModeRatio with any ratio, ModeFeedback with ratio 1).
package osc
