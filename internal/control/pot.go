package control

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

// Pot maps raw readings of one analog control onto a control input:
// value = NormalizeADC(raw, Bits) * Scale.
type Pot struct {
	Input string
	Scale float64
	Bits  uint
}

// PotBank writes a fixed set of pots into their inputs. Poll is meant to be
// called from the control loop with one reading per pot.
type PotBank struct {
	pots   []Pot
	inputs []*param.Input
	logger *slog.Logger
}

// NewPotBank resolves every pot's input on target.
func NewPotBank(target Target, logger *slog.Logger, pots ...Pot) (*PotBank, error) {
	if target == nil {
		return nil, fmt.Errorf("control: nil target")
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bank := &PotBank{pots: pots, inputs: make([]*param.Input, len(pots)), logger: logger}

	for i, p := range pots {
		if p.Bits == 0 || p.Bits > 32 {
			return nil, fmt.Errorf("control: pot %q: bit depth must be in [1, 32]: %d", p.Input, p.Bits)
		}

		in, err := lookup(target, p.Input)
		if err != nil {
			return nil, err
		}

		if in == nil {
			return nil, fmt.Errorf("control: pot %d has no input name", i)
		}

		bank.inputs[i] = in
	}

	return bank, nil
}

// Len returns the number of pots in the bank.
func (b *PotBank) Len() int { return len(b.pots) }

// Poll writes one reading per pot, in declaration order, and returns how
// many writes were accepted. Missing readings leave their pot untouched.
func (b *PotBank) Poll(raw []uint32) int {
	accepted := 0

	for i, r := range raw[:min(len(raw), len(b.pots))] {
		p := b.pots[i]
		if write(b.logger, b.inputs[i], NormalizeADC(r, p.Bits)*p.Scale) {
			accepted++
		}
	}

	return accepted
}
