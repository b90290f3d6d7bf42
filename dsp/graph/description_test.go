package graph

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

const ratioPatch = `
inputs:
  - name: gate
    kind: trigger
  - name: pitch
    init: 440
    range: [20, 2000]
    smooth: 32
    per: sample
units:
  - id: op
    type: oscillator
    params:
      mode: ratio
      amplitude: 0.5
      table_size: 1024
      interpolation: Hermite
  - id: echo
    type: delay
    params:
      max_seconds: 0.5
      time_ms: 20
connections:
  - {from: pitch, to: op.frequency}
  - {from: op, to: echo.sample}
  - {from: echo, to: out}
outputs: [out]
`

func TestParseDescriptionAndBuild(t *testing.T) {
	desc, err := ParseDescription([]byte(ratioPatch))
	if err != nil {
		t.Fatalf("ParseDescription() error = %v", err)
	}

	if len(desc.Inputs) != 2 || len(desc.Units) != 2 || len(desc.Connections) != 3 {
		t.Fatalf("decoded %d inputs, %d units, %d connections", len(desc.Inputs), len(desc.Units), len(desc.Connections))
	}

	spec, err := desc.Inputs[1].Spec()
	if err != nil {
		t.Fatal(err)
	}

	want := param.Spec{Name: "pitch", Init: 440, HasRange: true, Min: 20, Max: 2000, Smooth: 32, Per: param.PerSample}
	if spec != want {
		t.Fatalf("Spec()=%+v, want %+v", spec, want)
	}

	g, err := Build(desc, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := g.Order(); !slices.Equal(got, []string{"op", "echo"}) {
		t.Fatalf("Order()=%v", got)
	}

	mustPrepare(t, g, testConfig(128, 1))

	if err := g.Process(); err != nil {
		t.Fatal(err)
	}

	if peak := g.Sink("out").Peak(); peak <= 0 || peak > 0.5 {
		t.Fatalf("peak=%v, want (0, 0.5]", peak)
	}
}

func TestLoadDescriptionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch.yaml")
	if err := os.WriteFile(path, []byte(ratioPatch), 0o600); err != nil {
		t.Fatal(err)
	}

	desc, err := LoadDescription(path)
	if err != nil {
		t.Fatalf("LoadDescription() error = %v", err)
	}

	if desc.Units[0].Type != "oscillator" {
		t.Fatalf("unit type=%q", desc.Units[0].Type)
	}

	if _, err := LoadDescription(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultDescriptionSurvivesYAML(t *testing.T) {
	data, err := DefaultDescription().Marshal()
	if err != nil {
		t.Fatal(err)
	}

	desc, err := ParseDescription(data)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Build(desc, nil); err != nil {
		t.Fatalf("Build() of re-parsed default error = %v", err)
	}
}

func TestDescriptionErrors(t *testing.T) {
	if _, err := ParseDescription([]byte("inputs: [")); err == nil {
		t.Fatal("expected YAML syntax error")
	}

	tests := []struct {
		name string
		desc Description
		want error
	}{
		{
			name: "unknown unit type",
			desc: Description{Units: []UnitDesc{{ID: "x", Type: "theremin"}}, Outputs: []string{"out"}},
			want: ErrUnknownUnit,
		},
		{
			name: "dangling",
			desc: Description{
				Units:       []UnitDesc{{ID: "d", Type: "distortion"}},
				Connections: []ConnectionDesc{{From: "nowhere", To: "d.sample"}},
				Outputs:     []string{"out"},
			},
			want: ErrDanglingConnection,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.desc, nil); !errors.Is(err, tc.want) {
				t.Fatalf("Build() error = %v, want %v", err, tc.want)
			}
		})
	}

	bad := []InputDesc{
		{Name: "k", Kind: "toggle"},
		{Name: "p", Per: "frame"},
		{Name: "r", Range: []float64{1}},
	}
	for _, in := range bad {
		if _, err := in.Spec(); err == nil {
			t.Fatalf("Spec() of %+v: expected error", in)
		}
	}

	badParams := []UnitDesc{
		{ID: "o", Type: "oscillator", Params: map[string]any{"mode": "additive"}},
		{ID: "d", Type: "delay", Params: map[string]any{"interpolation": "sinc"}},
		{ID: "d", Type: "delay", Params: map[string]any{"max_seconds": 600}},
	}
	for _, u := range badParams {
		desc := Description{Units: []UnitDesc{u}, Outputs: []string{"out"}}
		if _, err := Build(desc, nil); err == nil {
			t.Fatalf("Build() with %+v: expected error", u.Params)
		}
	}
}
