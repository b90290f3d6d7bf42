package graph

import (
	"fmt"

	"github.com/cwbudde/algo-modsynth/dsp/delay"
	"github.com/cwbudde/algo-modsynth/dsp/distortion"
	"github.com/cwbudde/algo-modsynth/dsp/envelope"
	"github.com/cwbudde/algo-modsynth/dsp/interp"
	"github.com/cwbudde/algo-modsynth/dsp/osc"
	"github.com/cwbudde/algo-modsynth/dsp/value"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// DefaultRegistry returns a Registry with every built-in unit type:
// oscillator (alias sine), envelope, delay, distortion and value.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister("oscillator", newOscillator)
	r.MustRegister("sine", newOscillator)
	r.MustRegister("envelope", func(p Params) (Unit, error) {
		return envelope.New(envelope.WithADSR(
			p.GetNum("attack_delta", 0),
			p.GetNum("decay_delta", 0),
			p.GetNum("sustain_level", 0),
			p.GetNum("release_delta", 0),
		))
	})
	r.MustRegister("delay", func(p Params) (Unit, error) {
		mode, err := interpMode(p)
		if err != nil {
			return nil, err
		}

		return delay.New(
			delay.WithMaxTime(p.GetNum("max_seconds", 1)),
			delay.WithMode(mode),
			delay.WithTime(p.GetNum("time_ms", 0)),
		)
	})
	r.MustRegister("distortion", func(p Params) (Unit, error) {
		return distortion.New(distortion.WithAmount(p.GetNum("amount", 1)))
	})
	r.MustRegister("value", func(p Params) (Unit, error) {
		return value.New(p.GetNum("value", 0))
	})

	return r
}

func newOscillator(p Params) (Unit, error) {
	opts := []osc.Option{
		osc.WithTableSize(int(p.GetNum("table_size", wavetable.DefaultSize))),
		osc.WithFrequency(p.GetNum("frequency", 0)),
		osc.WithAmplitude(p.GetNum("amplitude", 1)),
	}

	switch mode := p.GetStr("mode", "feedback"); mode {
	case "feedback":
		opts = append(opts, osc.WithMode(osc.ModeFeedback))
	case "ratio":
		opts = append(opts, osc.WithMode(osc.ModeRatio))
	default:
		return nil, fmt.Errorf("oscillator %q: mode is invalid: %s", p.ID, mode)
	}

	lookup, err := interpMode(p)
	if err != nil {
		return nil, err
	}

	opts = append(opts, osc.WithInterpolation(lookup))

	if p.GetBool("direct") {
		opts = append(opts, osc.WithDirect())
	}

	return osc.New(opts...)
}

func interpMode(p Params) (interp.Mode, error) {
	switch s := p.GetStr("interpolation", "linear"); s {
	case "linear":
		return interp.Linear, nil
	case "hermite":
		return interp.Hermite, nil
	default:
		return 0, fmt.Errorf("%s %q: interpolation is invalid: %s", p.Type, p.ID, s)
	}
}
