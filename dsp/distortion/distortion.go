package distortion

import (
	"fmt"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// Port indices of the Distortion unit.
const (
	InSample = iota
	InAmount
)

// OutSample is the index of the Distortion unit's only output.
const OutSample = 0

const defaultAmount = 1.0

var (
	distortionInputs  = []string{"sample", "amount"}
	distortionOutputs = []string{"sample"}
)

// Distortion saturates its input with tanh(amount * sample). Output lies in
// the closed interval [-1, 1]: tanh rounds to exactly ±1 in float64 once
// |amount * sample| exceeds about 19.
type Distortion struct {
	in     float64
	amount float64
	out    float64
}

// Option configures a Distortion at construction time.
type Option func(*Distortion) error

// WithAmount sets the initial drive.
func WithAmount(amount float64) Option {
	return func(d *Distortion) error {
		if !core.IsFinite(amount) {
			return fmt.Errorf("distortion amount must be finite: %f", amount)
		}
		d.amount = amount
		return nil
	}
}

// New creates a Distortion with unity drive.
func New(opts ...Option) (*Distortion, error) {
	d := &Distortion{amount: defaultAmount}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Prepare is a no-op; the shaper is stateless.
func (d *Distortion) Prepare(core.ProcessorConfig, *wavetable.Arena) error { return nil }

// Inputs returns the input port names.
func (d *Distortion) Inputs() []string { return distortionInputs }

// Outputs returns the output port names.
func (d *Distortion) Outputs() []string { return distortionOutputs }

// SetInput writes an input slot.
func (d *Distortion) SetInput(port int, v float64) {
	switch port {
	case InSample:
		d.in = v
	case InAmount:
		d.amount = v
	}
}

// Output returns the most recently computed sample.
func (d *Distortion) Output(int) float64 { return d.out }

// Amount returns the current drive.
func (d *Distortion) Amount() float64 { return d.amount }

// Tick processes one sample.
func (d *Distortion) Tick() {
	d.out = tanh(d.amount * d.in)
}

// ProcessSample shapes one sample with the current amount.
func (d *Distortion) ProcessSample(in float64) float64 {
	d.in = in
	d.Tick()
	return d.out
}

// ProcessInPlace shapes buf with the current amount.
func (d *Distortion) ProcessInPlace(buf []float64) {
	for i, v := range buf {
		buf[i] = tanh(d.amount * v)
	}
}
