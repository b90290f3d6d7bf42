// Package value provides a constant source unit. Its single input lets a
// control override the held value, which is then emitted every sample.
package value

import (
	"fmt"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// Port indices of the Value unit.
const (
	InValue  = 0
	OutValue = 0
)

var ports = []string{"value"}

// Value emits a held constant.
type Value struct {
	held float64
	out  float64
}

// New creates a Value holding v.
func New(v float64) (*Value, error) {
	if !core.IsFinite(v) {
		return nil, fmt.Errorf("value must be finite: %f", v)
	}
	return &Value{held: v, out: v}, nil
}

// Prepare is a no-op.
func (v *Value) Prepare(core.ProcessorConfig, *wavetable.Arena) error { return nil }

// Inputs returns the input port names.
func (v *Value) Inputs() []string { return ports }

// Outputs returns the output port names.
func (v *Value) Outputs() []string { return ports }

// SetInput replaces the held value.
func (v *Value) SetInput(port int, x float64) {
	if port == InValue {
		v.held = x
	}
}

// Output returns the held value as of the last tick.
func (v *Value) Output(int) float64 { return v.out }

// Tick publishes the held value.
func (v *Value) Tick() { v.out = v.held }
