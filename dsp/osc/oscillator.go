package osc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/interp"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// Mode selects the modulation variant.
type Mode int

const (
	// ModeFeedback sums modulator and carrier.
	ModeFeedback Mode = iota
	// ModeRatio is classic carrier/modulator FM.
	ModeRatio
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeFeedback:
		return "feedback"
	case ModeRatio:
		return "ratio"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Port indices of the Oscillator unit.
const (
	InFrequency = iota
	InAmplitude
	InAmount
	InRatio
)

// OutSample is the index of the Oscillator unit's only output.
const OutSample = 0

const (
	minTableSize = 16
	maxTableSize = 1 << 20
)

var (
	oscInputs  = []string{"frequency", "amplitude", "amount", "ratio"}
	oscOutputs = []string{"sample"}
)

// Oscillator is an FM sine unit.
type Oscillator struct {
	mode      Mode
	tableSize int
	direct    bool
	lookup    interp.Mode

	table         *wavetable.Table
	invSampleRate float64

	frequency float64
	amplitude float64
	amount    float64
	ratio     float64

	modPhase     float64
	carrierPhase float64
	sample       float64
}

// Option configures an Oscillator at construction time.
type Option func(*Oscillator) error

// WithMode selects the modulation variant.
func WithMode(mode Mode) Option {
	return func(o *Oscillator) error {
		if mode != ModeFeedback && mode != ModeRatio {
			return fmt.Errorf("oscillator mode is invalid: %d", mode)
		}
		o.mode = mode
		return nil
	}
}

// WithTableSize sets the sine table resolution requested from the arena.
func WithTableSize(size int) Option {
	return func(o *Oscillator) error {
		if size < minTableSize || size > maxTableSize {
			return fmt.Errorf("oscillator table size must be in [%d, %d]: %d", minTableSize, maxTableSize, size)
		}
		o.tableSize = size
		return nil
	}
}

// WithInterpolation selects how table lookups blend adjacent entries.
func WithInterpolation(mode interp.Mode) Option {
	return func(o *Oscillator) error {
		if !mode.Valid() {
			return fmt.Errorf("oscillator interpolation mode is invalid: %d", mode)
		}
		o.lookup = mode
		return nil
	}
}

// WithDirect evaluates math.Sin per sample instead of using a table.
func WithDirect() Option {
	return func(o *Oscillator) error {
		o.direct = true
		return nil
	}
}

// WithFrequency sets the initial frequency in Hz.
func WithFrequency(hz float64) Option {
	return func(o *Oscillator) error {
		if !core.IsFinite(hz) {
			return fmt.Errorf("oscillator frequency must be finite: %f", hz)
		}
		o.frequency = hz
		return nil
	}
}

// WithAmplitude sets the initial output scale.
func WithAmplitude(amp float64) Option {
	return func(o *Oscillator) error {
		if !core.IsFinite(amp) {
			return fmt.Errorf("oscillator amplitude must be finite: %f", amp)
		}
		o.amplitude = amp
		return nil
	}
}

// New creates an Oscillator. Defaults: ModeFeedback, table-based with
// wavetable.DefaultSize entries, ratio 1, amplitude 1.
func New(opts ...Option) (*Oscillator, error) {
	o := &Oscillator{
		mode:      ModeFeedback,
		tableSize: wavetable.DefaultSize,
		lookup:    interp.Linear,
		amplitude: 1,
		ratio:     1,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Prepare stores the sample period and fetches the shared sine table.
// A nil arena gives the oscillator a private table.
func (o *Oscillator) Prepare(cfg core.ProcessorConfig, arena *wavetable.Arena) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("oscillator: %w", err)
	}
	o.invSampleRate = 1 / cfg.SampleRate

	if o.direct {
		return nil
	}

	var (
		table *wavetable.Table
		err   error
	)
	if arena != nil {
		table, err = arena.Sine(o.tableSize)
	} else {
		table, err = wavetable.NewSine(o.tableSize)
	}
	if err != nil {
		return fmt.Errorf("oscillator: %w", err)
	}
	o.table = table
	return nil
}

// Inputs returns the input port names.
func (o *Oscillator) Inputs() []string { return oscInputs }

// Outputs returns the output port names.
func (o *Oscillator) Outputs() []string { return oscOutputs }

// SetInput writes an input slot.
func (o *Oscillator) SetInput(port int, v float64) {
	switch port {
	case InFrequency:
		o.frequency = v
	case InAmplitude:
		o.amplitude = v
	case InAmount:
		o.amount = v
	case InRatio:
		o.ratio = v
	}
}

// Output returns the most recently computed sample.
func (o *Oscillator) Output(int) float64 {
	return o.sample
}

// Tick advances both phase accumulators by one sample.
func (o *Oscillator) Tick() {
	inc := o.frequency * o.invSampleRate

	o.modPhase = wavetable.Wrap(o.modPhase + inc*o.ratio)
	mod := o.sine(o.modPhase)

	switch o.mode {
	case ModeRatio:
		o.carrierPhase = wavetable.Wrap(o.carrierPhase + inc*(1+o.amount*mod))
		o.sample = o.sine(o.carrierPhase) * o.amplitude
	default:
		o.carrierPhase = wavetable.Wrap(o.carrierPhase + inc*mod*o.amount)
		o.sample = (mod + o.sine(o.carrierPhase)) * o.amplitude
	}
}

// ProcessSample advances one sample and returns it.
func (o *Oscillator) ProcessSample() float64 {
	o.Tick()
	return o.sample
}

// ProcessBlock fills dst with consecutive samples.
func (o *Oscillator) ProcessBlock(dst []float64) {
	for i := range dst {
		o.Tick()
		dst[i] = o.sample
	}
}

// Reset rewinds both phases to zero.
func (o *Oscillator) Reset() {
	o.modPhase = 0
	o.carrierPhase = 0
	o.sample = 0
}

func (o *Oscillator) sine(phase float64) float64 {
	if o.table == nil {
		return math.Sin(2 * math.Pi * phase)
	}
	return o.table.At(phase, o.lookup)
}
