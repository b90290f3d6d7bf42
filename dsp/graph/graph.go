package graph

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modsynth/dsp/buffer"
	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/param"
	"github.com/cwbudde/algo-modsynth/dsp/wavetable"
)

type portRef struct {
	unit Unit
	port int
}

type fanout struct {
	out int
	dst portRef
}

type control struct {
	in      *param.Input
	trigger bool
	targets []portRef
}

type node struct {
	id     string
	unit   Unit
	fanout []fanout
}

// Stats is a snapshot of the graph's counters.
type Stats struct {
	Blocks     uint64
	Dropped    uint64 // control writes rejected with param.ErrFull
	Overruns   uint64
	Underflows uint64
	Peak       float64 // loudest sink in the most recent block
}

// Graph is a compiled, immutable signal graph.
type Graph struct {
	log  *slog.Logger
	gain float64

	controls   []control
	inputs     map[string]*param.Input
	nodes      []node
	order      []string
	sinks      []*Sink
	sinkByName map[string]*Sink

	cfg      core.ProcessorConfig
	arena    *wavetable.Arena
	prepared bool

	raw, scaled []float64
	blocks      atomic.Uint64
}

// Prepare fixes the processing configuration, prepares every unit and
// control input and allocates the sinks. It must be called exactly once,
// before the first Process.
func (g *Graph) Prepare(cfg core.ProcessorConfig) error {
	if g.prepared {
		return ErrAlreadyPrepared
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	g.arena = wavetable.NewArena()

	for _, c := range g.controls {
		if err := c.in.Prepare(cfg.BlockSize); err != nil {
			return fmt.Errorf("graph: %w", err)
		}
	}

	for _, n := range g.nodes {
		if err := n.unit.Prepare(cfg, g.arena); err != nil {
			return fmt.Errorf("graph: prepare unit %q: %w", n.id, err)
		}
	}

	for _, s := range g.sinks {
		ring, err := buffer.NewRing(cfg.BlockSize)
		if err != nil {
			return fmt.Errorf("graph: output %q: %w", s.name, err)
		}
		s.ring = ring
	}

	g.raw = make([]float64, cfg.BlockSize)
	g.scaled = make([]float64, cfg.BlockSize)

	// Units start from the initial control values, not their own defaults.
	for _, c := range g.controls {
		if c.trigger {
			continue
		}
		for _, t := range c.targets {
			t.unit.SetInput(t.port, c.in.Value())
		}
	}

	g.cfg = cfg
	g.prepared = true

	g.log.Info("graph prepared",
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
		"channels", cfg.Channels,
		"order", g.order,
		"tables", g.arena.Len())

	for _, c := range g.controls {
		spec := c.in.Spec()
		g.log.Debug("control input",
			"name", spec.Name,
			"kind", spec.Kind,
			"init", c.in.Value(),
			"ramp_samples", c.in.RampSamples(),
			"targets", len(c.targets))
	}

	return nil
}

// Process runs one block and leaves BlockSize samples in every sink. If a
// sink still held samples they are dropped and ErrSinkOverrun is returned
// after the block completes.
func (g *Graph) Process() error {
	if !g.prepared {
		return ErrNotPrepared
	}

	var result error
	for _, s := range g.sinks {
		if s.begin() {
			result = ErrSinkOverrun
		}
	}

	for i := range g.controls {
		g.controls[i].in.Drain()
	}

	for frame := range g.cfg.BlockSize {
		for i := range g.controls {
			c := &g.controls[i]
			c.in.Step(frame)

			if c.trigger && (frame != 0 || !c.in.Fresh()) {
				continue
			}

			v := c.in.Value()
			for _, t := range c.targets {
				t.unit.SetInput(t.port, v)
			}
		}

		for i := range g.nodes {
			n := &g.nodes[i]
			n.unit.Tick()

			for _, f := range n.fanout {
				f.dst.unit.SetInput(f.dst.port, n.unit.Output(f.out))
			}
		}

		for _, s := range g.sinks {
			s.push()
		}
	}

	for _, s := range g.sinks {
		s.end()
	}

	g.blocks.Add(1)

	return result
}

// Render fills dst with interleaved float32 frames for the configured
// channel count, running Process whenever the sinks are empty. Sink i feeds
// channel i; a single sink feeds every channel. Render applies the master
// gain.
func (g *Graph) Render(dst []float32) error {
	if !g.prepared {
		return ErrNotPrepared
	}

	ch := g.cfg.Channels
	if len(dst)%ch != 0 {
		return fmt.Errorf("graph: render buffer length %d is not a multiple of %d channels", len(dst), ch)
	}

	frames := len(dst) / ch
	for done := 0; done < frames; {
		if g.sinks[0].Len() == 0 {
			if err := g.Process(); err != nil {
				return err
			}
		}

		n := min(frames-done, g.sinks[0].Len())

		for c := range ch {
			switch {
			case c < len(g.sinks) && (c == 0 || len(g.sinks) > 1):
				g.sinks[c].Read(g.raw[:n])
				vecmath.ScaleBlock(g.scaled[:n], g.raw[:n], g.gain)
			case len(g.sinks) == 1:
			default:
				clear(g.scaled[:n])
			}

			for i, v := range g.scaled[:n] {
				dst[(done+i)*ch+c] = float32(v)
			}
		}

		for _, s := range g.sinks[min(ch, len(g.sinks)):] {
			s.Read(g.raw[:n])
		}

		done += n
	}

	return nil
}

// Input returns the named control input, or nil.
func (g *Graph) Input(name string) *param.Input {
	return g.inputs[name]
}

// InputNames lists control inputs in declaration order.
func (g *Graph) InputNames() []string {
	names := make([]string, len(g.controls))
	for i, c := range g.controls {
		names[i] = c.in.Name()
	}
	return names
}

// Sink returns the named output sink, or nil.
func (g *Graph) Sink(name string) *Sink {
	return g.sinkByName[name]
}

// Order returns the unit ids in execution order.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Config returns the configuration fixed by Prepare.
func (g *Graph) Config() core.ProcessorConfig {
	return g.cfg
}

// Stats returns a snapshot of the counters.
func (g *Graph) Stats() Stats {
	st := Stats{Blocks: g.blocks.Load()}

	for _, c := range g.controls {
		st.Dropped += c.in.Dropped()
	}

	for _, s := range g.sinks {
		st.Overruns += s.Overruns()
		st.Underflows += s.Underflows()
		st.Peak = max(st.Peak, s.Peak())
	}

	return st
}
