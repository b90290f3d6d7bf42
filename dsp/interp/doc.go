// Package interp provides interpolation primitives used by delay lines and
// wavetable lookups.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite
//
// The [Mode] enum selects the algorithm at construction time.
package interp
