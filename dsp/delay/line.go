package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/interp"
)

// Line is a circular delay line.
type Line struct {
	buffer   []float64
	writePos int
	mode     interp.Mode
}

// LineOption configures a Line at construction time.
type LineOption func(*Line)

// WithLineMode selects the fractional read interpolation. Unknown modes are ignored.
func WithLineMode(mode interp.Mode) LineOption {
	return func(l *Line) {
		if mode.Valid() {
			l.mode = mode
		}
	}
}

// NewLine returns a delay line of fixed size.
func NewLine(size int, opts ...LineOption) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	l := &Line{buffer: make([]float64, size), mode: interp.Linear}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Mode returns the fractional read interpolation.
func (d *Line) Mode() interp.Mode {
	return d.mode
}

// MaxDelay returns the largest fractional delay ReadFractional honours.
func (d *Line) MaxDelay() float64 {
	m := len(d.buffer) - 2*d.mode.Taps() + 1
	if m < 0 {
		return 0
	}
	return float64(m)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = core.FlushDenormals(sample)
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written age writes ago; Read(0) is the most recent.
func (d *Line) Read(age int) float64 {
	size := len(d.buffer)
	pos := (d.writePos - 1 - age) % size
	if pos < 0 {
		pos += size
	}
	return d.buffer[pos]
}

// ReadFractional reads a delay in samples between integer positions.
// Delays are clamped to [0, MaxDelay].
func (d *Line) ReadFractional(delay float64) float64 {
	if !(delay > 0) {
		delay = 0
	}
	if maxDelay := d.MaxDelay(); delay > maxDelay {
		delay = maxDelay
	}

	p := int(math.Floor(delay))
	t := delay - float64(p)

	if d.mode != interp.Hermite {
		return interp.Linear2(t, d.Read(p), d.Read(p+1))
	}

	xm1 := d.Read(max(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)
	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
