package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/param"
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1B

	defaultBaseNote = 48
)

// pianoRow lays the home row out as white keys and the row above as black
// keys, starting at C.
var pianoRow = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6,
	'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12, 'o': 13,
	'l': 14, 'p': 15, ';': 16,
}

// Nudge binds a key to a relative change of a continuous input.
type Nudge struct {
	Key   byte
	Input string
	Step  float64
}

type nudge struct {
	in    *param.Input
	step  float64
	value *float64
}

// KeyboardOption mutates a Keyboard at construction time.
type KeyboardOption func(*Keyboard) error

// WithKeyboardVoice overrides the note inputs (default DefaultVoice).
func WithKeyboardVoice(v Voice) KeyboardOption {
	return func(k *Keyboard) error {
		k.voiceNames = v
		return nil
	}
}

// WithBaseNote sets the MIDI note played by the 'a' key.
func WithBaseNote(note int) KeyboardOption {
	return func(k *Keyboard) error {
		if note < 0 || note > 127-16 {
			return fmt.Errorf("control: base note must be in [0, 111]: %d", note)
		}

		k.base = note

		return nil
	}
}

// WithNudge adds a key that steps a continuous input by Step.
func WithNudge(n Nudge) KeyboardOption {
	return func(k *Keyboard) error {
		if _, taken := pianoRow[n.Key]; taken || isReserved(n.Key) {
			return fmt.Errorf("control: key %q is already bound", n.Key)
		}

		k.nudgeNames = append(k.nudgeNames, n)

		return nil
	}
}

// WithKeyboardLogger sets the logger used for key and drop events.
func WithKeyboardLogger(l *slog.Logger) KeyboardOption {
	return func(k *Keyboard) error {
		if l == nil {
			return errors.New("control: nil logger")
		}

		k.logger = l

		return nil
	}
}

// WithKeyboardWriter routes every write through w. Sources sharing inputs
// with another goroutine must share one Writer such as a Funnel.
func WithKeyboardWriter(w Writer) KeyboardOption {
	return func(k *Keyboard) error {
		if w == nil {
			return errors.New("control: nil writer")
		}

		k.w = w

		return nil
	}
}

// Keyboard turns single key presses into note events.
//
// The home row plays a chromatic octave from the base note, 'z' and 'x'
// shift by an octave, space releases the sounding note and 'q', escape or
// ctrl-c end Run. Terminals report no key releases, so a note sounds until
// the next key or space.
type Keyboard struct {
	in     io.Reader
	logger *slog.Logger
	w      Writer

	voiceNames Voice
	nudgeNames []Nudge

	voice   voiceInputs
	nudges  map[byte]nudge
	base    int
	playing bool
}

// NewKeyboard creates a key source reading from in and writing into target.
func NewKeyboard(in io.Reader, target Target, opts ...KeyboardOption) (*Keyboard, error) {
	if in == nil {
		return nil, errors.New("control: nil keyboard reader")
	}

	k := &Keyboard{
		in:         in,
		logger:     slog.New(slog.DiscardHandler),
		voiceNames: DefaultVoice(),
		base:       defaultBaseNote,
		nudges:     make(map[byte]nudge),
	}

	for _, opt := range opts {
		if err := opt(k); err != nil {
			return nil, err
		}
	}

	if k.w == nil {
		k.w = direct{logger: k.logger}
	}

	voice, err := resolveVoice(target, k.voiceNames)
	if err != nil {
		return nil, err
	}

	k.voice = voice

	for _, n := range k.nudgeNames {
		in, err := lookup(target, n.Input)
		if err != nil {
			return nil, err
		}

		if in == nil {
			return nil, fmt.Errorf("control: nudge key %q has no input name", n.Key)
		}

		if in.Spec().Kind != param.Continuous {
			return nil, fmt.Errorf("control: nudge key %q targets trigger input %q", n.Key, n.Input)
		}

		// The shadow value lives on the control side; the bridge's own
		// target belongs to the audio context.
		v := in.Spec().Init
		k.nudges[n.Key] = nudge{in: in, step: n.Step, value: &v}
	}

	return k, nil
}

// Run reads keys until quit, EOF or ctx cancellation. Reads happen on a
// helper goroutine; a read blocked at cancellation keeps it alive until the
// reader returns, and the byte it yields is discarded. Close the reader (or
// restore and close the terminal) to release it.
func (k *Keyboard) Run(ctx context.Context) error {
	keys := make(chan byte, 16)
	readErr := make(chan error, 1)

	go func() {
		buf := make([]byte, 16)
		for {
			n, err := k.in.Read(buf)
			for _, b := range buf[:n] {
				select {
				case keys <- b:
				case <-ctx.Done():
					return
				}
			}

			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-keys:
			if k.HandleKey(b) {
				return nil
			}
		case err := <-readErr:
			// Keys already queued still count.
			for len(keys) > 0 {
				if k.HandleKey(<-keys) {
					return nil
				}
			}

			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("control: keyboard read: %w", err)
		}
	}
}

// HandleKey applies one key press and reports whether it asks to quit.
func (k *Keyboard) HandleKey(b byte) bool {
	switch b {
	case 'q', keyEscape, keyCtrlC:
		return true
	case ' ':
		if k.playing {
			k.w.Write(k.voice.noteOff, param.Armed)
			k.playing = false
		}

		return false
	case 'z':
		k.shift(-12)
		return false
	case 'x':
		k.shift(12)
		return false
	}

	if offset, ok := pianoRow[b]; ok {
		note := k.base + offset
		k.logger.Debug("key note", "key", string(b), "note", note)
		k.w.Write(k.voice.freq, MIDINoteToHz(float64(note)))
		k.w.Write(k.voice.noteOn, param.Armed)
		k.playing = true

		return false
	}

	if n, ok := k.nudges[b]; ok {
		spec := n.in.Spec()

		v := *n.value + n.step
		if spec.HasRange {
			v = core.Clamp(v, spec.Min, spec.Max)
		}

		if k.w.Write(n.in, v) {
			*n.value = v
		}

		k.logger.Debug("nudge", "input", spec.Name, "value", *n.value)
	}

	return false
}

// Writer returns the writer the source delivers through.
func (k *Keyboard) Writer() Writer { return k.w }

// BaseNote returns the note currently mapped to the 'a' key.
func (k *Keyboard) BaseNote() int { return k.base }

func (k *Keyboard) shift(semitones int) {
	next := k.base + semitones
	if next < 0 || next > 127-16 {
		return
	}

	k.base = next
	k.logger.Info("octave", "base_note", k.base)
}

func isReserved(b byte) bool {
	switch b {
	case 'q', 'z', 'x', ' ', keyEscape, keyCtrlC:
		return true
	}

	return false
}

// Terminal holds a terminal switched to raw mode.
type Terminal struct {
	fd    int
	state *term.State
}

// MakeRaw puts f into raw mode so single key presses arrive unbuffered.
func MakeRaw(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("control: %s is not a terminal", f.Name())
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("control: failed to enter raw mode: %w", err)
	}

	return &Terminal{fd: fd, state: state}, nil
}

// Restore returns the terminal to the mode it had before MakeRaw.
func (t *Terminal) Restore() error {
	if t == nil || t.state == nil {
		return nil
	}

	err := term.Restore(t.fd, t.state)
	t.state = nil

	return err
}
