package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/interp"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// Port indices of the Delay unit.
const (
	InSample = iota
	InTimeMs
)

// OutSample is the index of the Delay unit's only output.
const OutSample = 0

const (
	defaultMaxSeconds = 1.0
	maxMaxSeconds     = 60.0
	wetDryBlend       = 0.5
)

var (
	delayInputs  = []string{"sample", "time_ms"}
	delayOutputs = []string{"sample"}
)

// Delay is a fractional delay unit. Each tick writes the dry input into the
// line, reads the interpolated sample time_ms behind it and blends wet and
// dry equally.
type Delay struct {
	maxSeconds float64
	mode       interp.Mode

	line       *Line
	sampleRate float64

	timeMs       float64
	delaySamples float64

	in  float64
	out float64
}

// Option configures a Delay at construction time.
type Option func(*Delay) error

// WithMaxTime sets the buffer capacity in seconds, in (0, 60].
func WithMaxTime(seconds float64) Option {
	return func(d *Delay) error {
		if !(seconds > 0) || seconds > maxMaxSeconds {
			return fmt.Errorf("delay max time must be in (0, %g]: %f", maxMaxSeconds, seconds)
		}
		d.maxSeconds = seconds
		return nil
	}
}

// WithMode selects the fractional read interpolation.
func WithMode(mode interp.Mode) Option {
	return func(d *Delay) error {
		if !mode.Valid() {
			return fmt.Errorf("delay interpolation mode is invalid: %d", mode)
		}
		d.mode = mode
		return nil
	}
}

// WithTime sets the initial delay in milliseconds.
func WithTime(ms float64) Option {
	return func(d *Delay) error {
		if !core.IsFinite(ms) {
			return fmt.Errorf("delay time must be finite: %f", ms)
		}
		d.timeMs = ms
		return nil
	}
}

// New creates a Delay. The buffer is allocated by Prepare.
func New(opts ...Option) (*Delay, error) {
	d := &Delay{
		maxSeconds: defaultMaxSeconds,
		mode:       interp.Linear,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Prepare sizes the buffer for the configured maximum time at the sample rate.
func (d *Delay) Prepare(cfg core.ProcessorConfig, _ *wavetable.Arena) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("delay: %w", err)
	}

	size := int(math.Ceil(d.maxSeconds*cfg.SampleRate)) + 2*d.mode.Taps() - 1
	line, err := NewLine(size, WithLineMode(d.mode))
	if err != nil {
		return err
	}

	d.line = line
	d.sampleRate = cfg.SampleRate
	d.updateDelay()
	return nil
}

// Inputs returns the input port names.
func (d *Delay) Inputs() []string { return delayInputs }

// Outputs returns the output port names.
func (d *Delay) Outputs() []string { return delayOutputs }

// SetInput writes an input slot. Writing time_ms recomputes the delay length.
func (d *Delay) SetInput(port int, v float64) {
	switch port {
	case InSample:
		d.in = v
	case InTimeMs:
		if v != d.timeMs {
			d.timeMs = v
			d.updateDelay()
		}
	}
}

// Output returns the most recently computed sample.
func (d *Delay) Output(int) float64 {
	return d.out
}

// Tick processes one sample.
func (d *Delay) Tick() {
	d.line.Write(d.in)
	wet := d.line.ReadFractional(d.delaySamples)
	d.out = interp.Linear2(wetDryBlend, d.in, wet)
}

// ProcessSample is a convenience wrapper feeding in and returning the output.
func (d *Delay) ProcessSample(in float64) float64 {
	d.in = in
	d.Tick()
	return d.out
}

// DelaySamples returns the current delay length in samples.
func (d *Delay) DelaySamples() float64 {
	return d.delaySamples
}

// Reset clears the buffer and the sample slots.
func (d *Delay) Reset() {
	if d.line != nil {
		d.line.Reset()
	}
	d.in, d.out = 0, 0
}

func (d *Delay) updateDelay() {
	if d.line == nil {
		return
	}
	samples := d.timeMs * d.sampleRate / 1000
	if !core.IsFinite(samples) {
		samples = 0
	}
	d.delaySamples = core.Clamp(samples, 0, d.line.MaxDelay())
}
