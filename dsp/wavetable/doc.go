// Package wavetable provides immutable single-cycle lookup tables and an
// arena that builds each table once and shares it between oscillators.
//
// Tables are indexed by phase in cycles: 0 is the start of the cycle and 1
// wraps back to 0. Reads interpolate between adjacent entries so that low
// resolutions do not produce audible stepping.
package wavetable
