package control

import (
	"testing"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

type inputs map[string]*param.Input

func (m inputs) Input(name string) *param.Input { return m[name] }

func newTarget(t *testing.T) inputs {
	t.Helper()

	specs := []param.Spec{
		{Name: "note_on", Kind: param.Trigger},
		{Name: "note_off", Kind: param.Trigger},
		{Name: "freq", Init: 220, HasRange: true, Min: 16, Max: 880},
		{Name: "fm_amt", Init: 2, HasRange: true, Min: 0.01, Max: 16},
	}

	out := make(inputs, len(specs))
	for _, s := range specs {
		in, err := param.New(s)
		if err != nil {
			t.Fatalf("param.New(%q): %v", s.Name, err)
		}
		out[s.Name] = in
	}
	return out
}

// latest drains in and returns the newest written value.
func latest(t *testing.T, in *param.Input) float64 {
	t.Helper()
	if !in.Drain() {
		t.Fatalf("%s: no value written", in.Name())
	}
	return in.Target()
}
