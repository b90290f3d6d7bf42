// Package control feeds external control sources (terminal keys, MIDI
// byte streams, potentiometer readings) into a graph's control inputs.
//
// Every source runs in the control context and writes through
// param.Input.TryWrite only. A full queue drops the value; sources log the
// drop at debug level and carry on. An input's queue takes one producer:
// sources running on separate goroutines share a Funnel.
package control

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

// Target resolves control inputs by name. *graph.Graph satisfies it.
type Target interface {
	Input(name string) *param.Input
}

// Voice names the inputs a monophonic note source drives.
type Voice struct {
	NoteOn  string
	NoteOff string
	Freq    string
}

// DefaultVoice matches the input names of graph.DefaultDescription.
func DefaultVoice() Voice {
	return Voice{NoteOn: "note_on", NoteOff: "note_off", Freq: "freq"}
}

// voiceInputs holds the resolved inputs of a Voice. Empty names resolve to nil.
type voiceInputs struct {
	noteOn  *param.Input
	noteOff *param.Input
	freq    *param.Input
}

func resolveVoice(target Target, v Voice) (voiceInputs, error) {
	if target == nil {
		return voiceInputs{}, errors.New("control: nil target")
	}

	var (
		out voiceInputs
		err error
	)

	if out.noteOn, err = lookup(target, v.NoteOn); err != nil {
		return voiceInputs{}, err
	}

	if out.noteOff, err = lookup(target, v.NoteOff); err != nil {
		return voiceInputs{}, err
	}

	if out.freq, err = lookup(target, v.Freq); err != nil {
		return voiceInputs{}, err
	}

	return out, nil
}

func lookup(target Target, name string) (*param.Input, error) {
	if name == "" {
		return nil, nil
	}

	in := target.Input(name)
	if in == nil {
		return nil, fmt.Errorf("control: unknown input %q", name)
	}

	return in, nil
}

// write sends v to in, logging a dropped value. A nil input is a no-op.
func write(logger *slog.Logger, in *param.Input, v float64) bool {
	if in == nil {
		return false
	}

	if err := in.TryWrite(v); err != nil {
		logger.Debug("control write dropped", "input", in.Name(), "value", v, "error", err)
		return false
	}

	return true
}

// MIDINoteToHz converts a MIDI note number to frequency in Hz (A4 = 69 = 440 Hz).
func MIDINoteToHz(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// NormalizeADC maps a raw converter reading of the given bit depth to
// 1 - raw/2^bits, so a zero reading gives 1.
func NormalizeADC(raw uint32, bits uint) float64 {
	return 1 - float64(raw)/math.Exp2(float64(bits))
}
