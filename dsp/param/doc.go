// Package param implements the bridge between control-rate writers and the
// audio step.
//
// Each [Input] owns a fixed-capacity single-producer/single-consumer queue.
// A control goroutine calls [Input.TryWrite]; the audio goroutine calls
// [Input.Drain] once per block and [Input.Advance] once per smoothing step,
// then reads [Input.Value]. Bursts written between two drains collapse to
// the most recent value.
//
// Smoothing is a linear ramp: when a new target arrives the distance to it
// is split into Smooth equal steps, so the exposed value lands exactly on the
// target after Smooth advances.
package param
