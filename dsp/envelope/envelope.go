package envelope

import (
	"fmt"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// State is the stage the envelope is in.
type State int

const (
	StateOff State = iota
	StateAttack
	StateDecay
	StateSustain
	StateRelease
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateAttack:
		return "attack"
	case StateDecay:
		return "decay"
	case StateSustain:
		return "sustain"
	case StateRelease:
		return "release"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Port indices of the Envelope unit.
const (
	InAttackDelta = iota
	InDecayDelta
	InSustainLevel
	InReleaseDelta
	InNoteOn
	InNoteOff
)

// OutAmplitude is the index of the Envelope unit's only output.
const OutAmplitude = 0

// armed is the trigger threshold for note_on and note_off.
const armed = 1.0

// levelEpsilon absorbs accumulated rounding so that, for example, ten steps
// of 0.1 reach 1.0 on the tenth sample.
const levelEpsilon = 1e-9

var (
	envelopeInputs  = []string{"attack_delta", "decay_delta", "sustain_level", "release_delta", "note_on", "note_off"}
	envelopeOutputs = []string{"amplitude"}
)

// Envelope is a linear ADSR state machine. Only the amplitude is visible
// from outside; the state is reported for inspection and tests.
type Envelope struct {
	attackDelta  float64
	decayDelta   float64
	sustainLevel float64
	releaseDelta float64

	noteOn  float64
	noteOff float64

	state     State
	amplitude float64
}

// Option configures initial envelope inputs.
type Option func(*Envelope) error

// WithADSR sets all four shape inputs at once.
func WithADSR(attackDelta, decayDelta, sustainLevel, releaseDelta float64) Option {
	return func(e *Envelope) error {
		for _, v := range []float64{attackDelta, decayDelta, sustainLevel, releaseDelta} {
			if !core.IsFinite(v) {
				return fmt.Errorf("envelope parameters must be finite: %f", v)
			}
		}
		e.attackDelta = attackDelta
		e.decayDelta = decayDelta
		e.sustainLevel = sustainLevel
		e.releaseDelta = releaseDelta
		return nil
	}
}

// New creates an envelope in StateOff with zero amplitude.
func New(opts ...Option) (*Envelope, error) {
	e := &Envelope{}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Prepare is a no-op: the envelope works in per-sample deltas.
func (e *Envelope) Prepare(core.ProcessorConfig, *wavetable.Arena) error {
	return nil
}

// Inputs returns the input port names.
func (e *Envelope) Inputs() []string { return envelopeInputs }

// Outputs returns the output port names.
func (e *Envelope) Outputs() []string { return envelopeOutputs }

// SetInput writes an input slot.
func (e *Envelope) SetInput(port int, v float64) {
	switch port {
	case InAttackDelta:
		e.attackDelta = v
	case InDecayDelta:
		e.decayDelta = v
	case InSustainLevel:
		e.sustainLevel = v
	case InReleaseDelta:
		e.releaseDelta = v
	case InNoteOn:
		e.noteOn = v
	case InNoteOff:
		e.noteOff = v
	}
}

// Output returns the current amplitude.
func (e *Envelope) Output(int) float64 {
	return e.amplitude
}

// NoteOn arms the note_on trigger for the next tick.
func (e *Envelope) NoteOn() { e.noteOn = armed }

// NoteOff arms the note_off trigger for the next tick.
func (e *Envelope) NoteOff() { e.noteOff = armed }

// State returns the current stage.
func (e *Envelope) State() State {
	return e.state
}

// Amplitude returns the current amplitude.
func (e *Envelope) Amplitude() float64 {
	return e.amplitude
}

// Tick advances the envelope by one sample.
//
// Triggers are consumed before the stage update, note_on first. When both
// arm in the same sample the envelope therefore ends up in release.
func (e *Envelope) Tick() {
	if e.noteOn >= armed {
		e.state = StateAttack
		e.noteOn = 0
	}

	if e.noteOff >= armed {
		e.state = StateRelease
		e.noteOff = 0
	}

	switch e.state {
	case StateAttack:
		e.amplitude += e.attackDelta
		if e.amplitude >= 1-levelEpsilon {
			e.amplitude = 1
			e.state = StateDecay
		}
	case StateDecay:
		e.amplitude -= e.decayDelta
		if e.amplitude <= e.sustainLevel+levelEpsilon {
			if e.sustainLevel <= 0 {
				e.amplitude = 0
				e.state = StateOff
			} else {
				e.amplitude = e.sustainLevel
				e.state = StateSustain
			}
		}
	case StateSustain:
		e.amplitude = e.sustainLevel
	case StateRelease:
		e.amplitude -= e.releaseDelta
		if e.amplitude <= levelEpsilon {
			e.amplitude = 0
			e.state = StateOff
		}
	case StateOff:
		e.amplitude = 0
	}
}

// ProcessSample advances one sample and returns the amplitude.
func (e *Envelope) ProcessSample() float64 {
	e.Tick()
	return e.amplitude
}

// Reset returns the envelope to StateOff with zero amplitude and clears triggers.
func (e *Envelope) Reset() {
	e.state = StateOff
	e.amplitude = 0
	e.noteOn = 0
	e.noteOff = 0
}
