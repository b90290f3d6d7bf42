package graph

import (
	"strconv"
	"testing"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

// summer sums its inputs into a single output. With consume set it clears
// its inputs after each tick, the way trigger targets do.
type summer struct {
	name     string
	ins      []string
	in       []float64
	out      float64
	consume  bool
	ticks    *[]string
	prepared int
}

var summerOutputs = []string{"out"}

func newSummer(name string, inputs int, ticks *[]string) *summer {
	p := &summer{name: name, in: make([]float64, inputs), ticks: ticks}
	for i := range inputs {
		p.ins = append(p.ins, "in"+strconv.Itoa(i))
	}
	return p
}

func (p *summer) Prepare(core.ProcessorConfig, *wavetable.Arena) error {
	p.prepared++
	return nil
}

func (p *summer) Inputs() []string            { return p.ins }
func (p *summer) Outputs() []string           { return summerOutputs }
func (p *summer) SetInput(port int, v float64) { p.in[port] = v }
func (p *summer) Output(int) float64          { return p.out }

func (p *summer) Tick() {
	if p.ticks != nil {
		*p.ticks = append(*p.ticks, p.name)
	}

	p.out = 0
	for i, v := range p.in {
		p.out += v
		if p.consume {
			p.in[i] = 0
		}
	}
}

func testConfig(blockSize, channels int) core.ProcessorConfig {
	return core.ApplyProcessorOptions(
		core.WithSampleRate(48000),
		core.WithBlockSize(blockSize),
		core.WithChannels(channels),
	)
}

func mustBuild(t *testing.T, b *Builder) *Graph {
	t.Helper()

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	return g
}

func mustPrepare(t *testing.T, g *Graph, cfg core.ProcessorConfig) {
	t.Helper()

	if err := g.Prepare(cfg); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
}

func pullAll(t *testing.T, s *Sink) []float64 {
	t.Helper()

	out := make([]float64, s.Len())
	if n := s.Read(out); n != len(out) {
		t.Fatalf("Read()=%d, want %d", n, len(out))
	}

	return out
}
