package graph

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-modsynth/dsp/buffer"
	"github.com/cwbudde/algo-modsynth/dsp/param"
)

// sinkSource is either a unit output or a control input.
type sinkSource struct {
	unit  Unit
	port  int
	input *param.Input
}

func (s sinkSource) valid() bool {
	return s.unit != nil || s.input != nil
}

func (s sinkSource) value() float64 {
	if s.input != nil {
		return s.input.Value()
	}
	return s.unit.Output(s.port)
}

// Sink is a named graph output holding one block of samples. Process fills
// it; the audio collaborator drains it with Pull or Read on the same
// goroutine before the next Process. Counters may be read from anywhere.
type Sink struct {
	name string
	src  sinkSource
	ring *buffer.Ring

	blockPeak  float64
	peak       atomic.Uint64
	overruns   atomic.Uint64
	underflows atomic.Uint64
}

// Name returns the sink name.
func (s *Sink) Name() string { return s.name }

// Len returns the number of samples waiting to be pulled.
func (s *Sink) Len() int {
	if s.ring == nil {
		return 0
	}
	return s.ring.Len()
}

// Pull removes the oldest sample. Pulling an empty sink is a caller error
// and returns ErrUnderflow.
func (s *Sink) Pull() (float64, error) {
	if s.ring == nil {
		return 0, ErrNotPrepared
	}

	v, ok := s.ring.TryPop()
	if !ok {
		s.underflows.Add(1)
		return 0, ErrUnderflow
	}
	return v, nil
}

// Read pulls up to len(dst) samples and returns how many were read.
func (s *Sink) Read(dst []float64) int {
	if s.ring == nil {
		return 0
	}

	for i := range dst {
		v, ok := s.ring.TryPop()
		if !ok {
			return i
		}
		dst[i] = v
	}
	return len(dst)
}

// Overruns counts blocks that found unconsumed samples.
func (s *Sink) Overruns() uint64 { return s.overruns.Load() }

// Underflows counts pulls from an empty sink.
func (s *Sink) Underflows() uint64 { return s.underflows.Load() }

// Peak returns the absolute peak of the most recent block.
func (s *Sink) Peak() float64 { return math.Float64frombits(s.peak.Load()) }

// begin drops stale samples and reports whether any were found.
func (s *Sink) begin() bool {
	s.blockPeak = 0
	if s.ring.Discard() > 0 {
		s.overruns.Add(1)
		return true
	}
	return false
}

func (s *Sink) push() {
	v := s.src.value()
	s.ring.TryPush(v)
	s.blockPeak = max(s.blockPeak, math.Abs(v))
}

func (s *Sink) end() {
	s.peak.Store(math.Float64bits(s.blockPeak))
}
