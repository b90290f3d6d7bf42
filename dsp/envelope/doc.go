// Package envelope implements a linear ADSR amplitude envelope driven by
// one-shot note triggers.
//
// The envelope advances once per sample. Stage increments are expressed as
// per-sample amplitude deltas rather than times, so a control source that
// wants a time-based feel converts durations to deltas itself:
//
//	delta = 1 / (seconds * sampleRate)
package envelope
