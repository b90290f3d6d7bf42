package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

// Omni accepts messages on every MIDI channel.
const Omni = -1

// CC binds a MIDI continuous controller to a control input. The 7-bit
// controller value is mapped linearly onto [Min, Max].
type CC struct {
	Controller uint8
	Input      string
	Min        float64
	Max        float64
}

type ccBinding struct {
	in       *param.Input
	min, max float64
}

// MIDIOption mutates a MIDI source at construction time.
type MIDIOption func(*MIDI) error

// WithMIDIVoice overrides the note inputs (default DefaultVoice).
func WithMIDIVoice(v Voice) MIDIOption {
	return func(m *MIDI) error {
		m.voiceNames = v
		return nil
	}
}

// WithChannel restricts the source to one MIDI channel (0-15) or Omni.
func WithChannel(ch int) MIDIOption {
	return func(m *MIDI) error {
		if ch != Omni && (ch < 0 || ch > 15) {
			return fmt.Errorf("control: midi channel must be in [0, 15] or Omni: %d", ch)
		}

		m.channel = ch

		return nil
	}
}

// WithCC binds a controller number to an input.
func WithCC(cc CC) MIDIOption {
	return func(m *MIDI) error {
		if cc.Controller > 127 {
			return fmt.Errorf("control: controller number must be in [0, 127]: %d", cc.Controller)
		}

		m.ccNames = append(m.ccNames, cc)

		return nil
	}
}

// WithMIDILogger sets the logger used for note and drop events.
func WithMIDILogger(l *slog.Logger) MIDIOption {
	return func(m *MIDI) error {
		if l == nil {
			return errors.New("control: nil logger")
		}

		m.logger = l

		return nil
	}
}

// WithMIDIWriter routes every write through w. Sources sharing inputs with
// another goroutine must share one Writer such as a Funnel.
func WithMIDIWriter(w Writer) MIDIOption {
	return func(m *MIDI) error {
		if w == nil {
			return errors.New("control: nil writer")
		}

		m.w = w

		return nil
	}
}

// MIDI reads a raw MIDI byte stream (a serial port, a /dev/snd/midi* device,
// a recorded file) and drives a monophonic voice with last-note priority.
//
// Note on writes the pitch to the frequency input and arms the note-on
// trigger. Note off arms the note-off trigger only for the sounding key.
type MIDI struct {
	r      io.Reader
	logger *slog.Logger
	w      Writer

	voiceNames Voice
	ccNames    []CC
	channel    int

	voice  voiceInputs
	cc     [128]*ccBinding
	parser Parser
	key    int
}

// NewMIDI creates a MIDI source reading from r and writing into target.
func NewMIDI(r io.Reader, target Target, opts ...MIDIOption) (*MIDI, error) {
	if r == nil {
		return nil, errors.New("control: nil midi reader")
	}

	m := &MIDI{
		r:          r,
		logger:     slog.New(slog.DiscardHandler),
		voiceNames: DefaultVoice(),
		channel:    Omni,
		key:        -1,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.w == nil {
		m.w = direct{logger: m.logger}
	}

	voice, err := resolveVoice(target, m.voiceNames)
	if err != nil {
		return nil, err
	}

	m.voice = voice

	for _, cc := range m.ccNames {
		in, err := lookup(target, cc.Input)
		if err != nil {
			return nil, err
		}

		if in == nil {
			return nil, fmt.Errorf("control: controller %d has no input name", cc.Controller)
		}

		m.cc[cc.Controller] = &ccBinding{in: in, min: cc.Min, max: cc.Max}
	}

	return m, nil
}

// Run reads and dispatches messages until the reader is exhausted or ctx is
// cancelled. EOF ends the stream without error. Run checks ctx between
// reads; close the underlying reader to interrupt a blocked read.
func (m *MIDI) Run(ctx context.Context) error {
	buf := make([]byte, 256)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := m.r.Read(buf)
		for _, b := range buf[:n] {
			if msg, ok := m.parser.Feed(b); ok {
				m.Handle(msg)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("control: midi read: %w", err)
		}
	}
}

// Handle dispatches one complete message and reports whether it was used.
func (m *MIDI) Handle(msg midi.Message) bool {
	var ch, key, vel, ctl, val uint8

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if !m.accepts(ch) {
			return false
		}

		m.logger.Debug("note on", "channel", ch, "key", key, "velocity", vel)
		m.w.Write(m.voice.freq, MIDINoteToHz(float64(key)))
		m.w.Write(m.voice.noteOn, param.Armed)
		m.key = int(key)

		return true

	case msg.GetNoteEnd(&ch, &key):
		if !m.accepts(ch) || int(key) != m.key {
			return false
		}

		m.logger.Debug("note off", "channel", ch, "key", key)
		m.w.Write(m.voice.noteOff, param.Armed)
		m.key = -1

		return true

	case msg.GetControlChange(&ch, &ctl, &val):
		if !m.accepts(ch) || ctl > 127 || m.cc[ctl] == nil {
			return false
		}

		b := m.cc[ctl]
		m.w.Write(b.in, b.min+(b.max-b.min)*float64(val)/127)

		return true
	}

	return false
}

// Writer returns the writer the source delivers through.
func (m *MIDI) Writer() Writer { return m.w }

// Sounding returns the key currently held, or -1.
func (m *MIDI) Sounding() int { return m.key }

func (m *MIDI) accepts(ch uint8) bool {
	return m.channel == Omni || int(ch) == m.channel
}
