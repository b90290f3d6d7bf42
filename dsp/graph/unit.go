package graph

import (
	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// Unit is a DSP node with fixed named input and output slots.
//
// SetInput stores a value in an input slot; Tick computes new outputs from
// the slots and the unit's own state; Output reads an output slot. Prepare
// is called once before the first Tick, outside the audio path.
type Unit interface {
	Prepare(cfg core.ProcessorConfig, arena *wavetable.Arena) error
	Inputs() []string
	Outputs() []string
	SetInput(port int, v float64)
	Output(port int) float64
	Tick()
}
