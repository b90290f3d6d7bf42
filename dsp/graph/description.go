package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

// Description is the declarative form of a graph, decodable from YAML.
type Description struct {
	Inputs      []InputDesc      `yaml:"inputs"`
	Units       []UnitDesc       `yaml:"units"`
	Connections []ConnectionDesc `yaml:"connections"`
	Outputs     []string         `yaml:"outputs"`
}

// InputDesc declares a control input.
type InputDesc struct {
	Name     string    `yaml:"name"`
	Kind     string    `yaml:"kind,omitempty"` // continuous (default) or trigger
	Init     float64   `yaml:"init,omitempty"`
	Range    []float64 `yaml:"range,omitempty"`  // [min, max]
	Smooth   int       `yaml:"smooth,omitempty"` // ramp length in steps
	Per      string    `yaml:"per,omitempty"`    // block (default) or sample
	Capacity int       `yaml:"capacity,omitempty"`
}

// UnitDesc declares a unit instance.
type UnitDesc struct {
	ID     string         `yaml:"id"`
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params,omitempty"`
}

// ConnectionDesc declares one edge.
type ConnectionDesc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ParseDescription decodes a YAML graph description.
func ParseDescription(data []byte) (Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return Description{}, fmt.Errorf("graph: failed to parse description: %w", err)
	}

	return desc, nil
}

// LoadDescription reads and decodes a YAML graph description file.
func LoadDescription(path string) (Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Description{}, fmt.Errorf("graph: failed to read description: %w", err)
	}

	return ParseDescription(data)
}

// Marshal encodes the description as YAML.
func (d Description) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Spec converts the declaration into a param.Spec.
func (d InputDesc) Spec() (param.Spec, error) {
	spec := param.Spec{
		Name:     d.Name,
		Init:     d.Init,
		Smooth:   d.Smooth,
		Capacity: d.Capacity,
	}

	switch d.Kind {
	case "", "continuous":
		spec.Kind = param.Continuous
	case "trigger":
		spec.Kind = param.Trigger
	default:
		return param.Spec{}, fmt.Errorf("graph: input %q: kind is invalid: %s", d.Name, d.Kind)
	}

	switch d.Per {
	case "", "block":
		spec.Per = param.PerBlock
	case "sample":
		spec.Per = param.PerSample
	default:
		return param.Spec{}, fmt.Errorf("graph: input %q: smoothing unit is invalid: %s", d.Name, d.Per)
	}

	switch len(d.Range) {
	case 0:
	case 2:
		spec.HasRange = true
		spec.Min, spec.Max = d.Range[0], d.Range[1]
	default:
		return param.Spec{}, fmt.Errorf("graph: input %q: range needs two values, got %d", d.Name, len(d.Range))
	}

	return spec, nil
}

// Build resolves desc against registry and compiles the graph.
func Build(desc Description, registry *Registry, opts ...Option) (*Graph, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}

	b := NewBuilder(opts...)

	for _, in := range desc.Inputs {
		spec, err := in.Spec()
		if err != nil {
			return nil, err
		}
		b.Input(spec)
	}

	for _, u := range desc.Units {
		factory := registry.Lookup(u.Type)
		if factory == nil {
			return nil, fmt.Errorf("%w: %q (unit %q)", ErrUnknownUnit, u.Type, u.ID)
		}

		num, str := parseParams(u.Params)

		unit, err := factory(Params{ID: u.ID, Type: u.Type, Num: num, Str: str})
		if err != nil {
			return nil, fmt.Errorf("graph: unit %q: %w", u.ID, err)
		}
		b.Unit(u.ID, unit)
	}

	for _, name := range desc.Outputs {
		b.Output(name)
	}

	for _, c := range desc.Connections {
		b.Connect(c.From, c.To)
	}

	return b.Build()
}

// DefaultDescription returns the stock FM voice: a feedback FM oscillator
// whose amplitude follows an ADSR envelope, saturated by a tanh stage and
// fed through a delay into the single output "audio_out".
func DefaultDescription() Description {
	shape := []float64{0.01, 10}

	return Description{
		Inputs: []InputDesc{
			{Name: "note_on", Kind: "trigger"},
			{Name: "note_off", Kind: "trigger"},
			{Name: "freq", Init: 220, Range: []float64{16, 880}, Smooth: 10},
			{Name: "fm_amt", Init: 2, Range: []float64{0.01, 16}, Smooth: 10},
			{Name: "dist_amt", Init: 0.2, Range: []float64{0.01, 0.99}, Smooth: 10},
			{Name: "attack", Init: 1, Range: shape, Smooth: 10},
			{Name: "decay", Init: 2, Range: shape, Smooth: 10},
			{Name: "sustain", Init: 2, Range: shape, Smooth: 10},
			{Name: "release", Init: 2, Range: shape, Smooth: 10},
			{Name: "delay_ms", Init: 125, Range: []float64{10, 2000}, Smooth: 10},
		},
		Units: []UnitDesc{
			{ID: "sine", Type: "oscillator"},
			{ID: "dist", Type: "distortion"},
			{ID: "env", Type: "envelope"},
			{ID: "dly", Type: "delay"},
			{ID: "val", Type: "value", Params: map[string]any{"value": 125.0}},
		},
		Connections: []ConnectionDesc{
			{From: "freq", To: "sine.frequency"},
			{From: "env", To: "sine.amplitude"},
			{From: "fm_amt", To: "sine.amount"},
			{From: "attack", To: "env.attack_delta"},
			{From: "decay", To: "env.decay_delta"},
			{From: "sustain", To: "env.sustain_level"},
			{From: "release", To: "env.release_delta"},
			{From: "note_on", To: "env.note_on"},
			{From: "note_off", To: "env.note_off"},
			{From: "sine", To: "dist.sample"},
			{From: "dist_amt", To: "dist.amount"},
			{From: "delay_ms", To: "val.value"},
			{From: "dist", To: "dly.sample"},
			{From: "val", To: "dly.time_ms"},
			{From: "dly", To: "audio_out"},
		},
		Outputs: []string{"audio_out"},
	}
}
