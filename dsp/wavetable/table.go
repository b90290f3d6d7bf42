package wavetable

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modsynth/dsp/interp"
)

const (
	// DefaultSize is the sine table resolution used when none is configured.
	DefaultSize = 2048
	minSize     = 4
)

// Table holds one cycle of a periodic waveform. It is never mutated after
// construction and may be read from any number of units.
type Table struct {
	data []float64
}

// NewSine builds a sine table with size entries covering [0, 2π).
func NewSine(size int) (*Table, error) {
	if size < minSize {
		return nil, fmt.Errorf("wavetable size must be >= %d: %d", minSize, size)
	}
	data := make([]float64, size)
	step := 2 * math.Pi / float64(size)
	for i := range data {
		data[i] = math.Sin(step * float64(i))
	}
	return &Table{data: data}, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.data)
}

// At samples the table at phase (in cycles). Phases outside [0,1) wrap.
func (t *Table) At(phase float64, mode interp.Mode) float64 {
	n := len(t.data)
	pos := Wrap(phase) * float64(n)
	i := int(pos)
	frac := pos - float64(i)
	if i < 0 || i >= n {
		i, frac = 0, 0
	}

	x0 := t.data[i]
	x1 := t.data[(i+1)%n]
	if mode != interp.Hermite {
		return interp.Linear2(frac, x0, x1)
	}

	xm1 := t.data[(i+n-1)%n]
	x2 := t.data[(i+2)%n]
	return interp.Hermite4(frac, xm1, x0, x1, x2)
}

// Wrap reduces a phase in cycles to [0,1). A non-finite phase, reached when
// frequency times ratio overflows, restarts the cycle at 0.
func Wrap(phase float64) float64 {
	if math.IsNaN(phase) || math.IsInf(phase, 0) {
		return 0
	}
	phase -= math.Floor(phase)
	if phase >= 1 {
		return 0
	}
	return phase
}
