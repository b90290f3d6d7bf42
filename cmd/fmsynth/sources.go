package main

import (
	"io"

	"github.com/cwbudde/algo-modsynth/internal/control"
)

// sources are the live note sources. They run on separate goroutines and
// drive the same inputs, so all of them write through one funnel.
type sources struct {
	funnel   *control.Funnel
	midi     *control.MIDI
	keyboard *control.Keyboard
}

// keyNudges are bound only when the patch has the input.
var keyNudges = []control.Nudge{
	{Key: '-', Input: "fm_amt", Step: -0.25},
	{Key: '=', Input: "fm_amt", Step: 0.25},
	{Key: '[', Input: "dist_amt", Step: -0.05},
	{Key: ']', Input: "dist_amt", Step: 0.05},
}

// newSources builds a MIDI source when midiIn is non-nil and a keyboard
// when keys is non-nil.
func newSources(target control.Target, midiIn, keys io.Reader, opts liveOptions) (*sources, error) {
	s := &sources{funnel: control.NewFunnel(0, logger)}

	if midiIn != nil {
		mopts := []control.MIDIOption{
			control.WithMIDILogger(logger),
			control.WithMIDIWriter(s.funnel),
			control.WithChannel(opts.midiChannel),
		}
		for _, cc := range opts.ccs {
			mopts = append(mopts, control.WithCC(cc))
		}

		m, err := control.NewMIDI(midiIn, target, mopts...)
		if err != nil {
			return nil, err
		}
		s.midi = m
	}

	if keys != nil {
		kopts := []control.KeyboardOption{
			control.WithKeyboardLogger(logger),
			control.WithKeyboardWriter(s.funnel),
		}
		for _, n := range keyNudges {
			if target.Input(n.Input) != nil {
				kopts = append(kopts, control.WithNudge(n))
			}
		}

		kb, err := control.NewKeyboard(keys, target, kopts...)
		if err != nil {
			return nil, err
		}
		s.keyboard = kb
	}

	return s, nil
}
