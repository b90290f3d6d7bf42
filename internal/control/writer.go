package control

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

// Writer delivers control values to inputs. Each input's queue takes a
// single producer, so every source feeding the same inputs must share one
// Writer whose writes land on one goroutine.
type Writer interface {
	// Write hands v to in and reports whether it was accepted. A nil input
	// is a no-op.
	Write(in *param.Input, v float64) bool
}

// direct writes through TryWrite on the caller's goroutine. It is the
// default for a source that owns its inputs alone.
type direct struct {
	logger *slog.Logger
}

func (d direct) Write(in *param.Input, v float64) bool {
	return write(d.logger, in, v)
}

// DefaultFunnelSize is the event capacity used by NewFunnel for size <= 0.
const DefaultFunnelSize = 256

type event struct {
	in *param.Input
	v  float64
}

// Funnel merges writes from several sources onto the goroutine running Run.
// Write may be called from any goroutine; only Run calls TryWrite, so each
// input keeps exactly one producer.
type Funnel struct {
	events  chan event
	logger  *slog.Logger
	dropped atomic.Uint64
}

// NewFunnel creates a funnel buffering up to size pending writes.
func NewFunnel(size int, logger *slog.Logger) *Funnel {
	if size <= 0 {
		size = DefaultFunnelSize
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Funnel{events: make(chan event, size), logger: logger}
}

// Write queues v for in without blocking. It reports false for a nil input
// or a full funnel; true means queued, not yet accepted by the input.
func (f *Funnel) Write(in *param.Input, v float64) bool {
	if in == nil {
		return false
	}

	select {
	case f.events <- event{in: in, v: v}:
		return true
	default:
		f.dropped.Add(1)
		f.logger.Debug("control funnel full", "input", in.Name(), "value", v)

		return false
	}
}

// Run applies queued writes until ctx is cancelled. Writes still queued at
// cancellation are discarded.
func (f *Funnel) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-f.events:
			write(f.logger, e.in, e.v)
		}
	}
}

// Pending returns the number of queued writes.
func (f *Funnel) Pending() int { return len(f.events) }

// Dropped returns the number of writes rejected because the funnel was full.
func (f *Funnel) Dropped() uint64 { return f.dropped.Load() }
