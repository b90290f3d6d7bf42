// Package audio connects a graph to an audio device. The device pulls
// interleaved float32 frames; Player renders them on demand from the graph.
//
// The default build plays through oto. Building with the headless tag swaps
// in a null device that consumes frames at the real-time rate, for machines
// without a sound card.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-modsynth/dsp/core"
)

// Renderer fills dst with interleaved frames. *graph.Graph satisfies it.
type Renderer interface {
	Render(dst []float32) error
}

// backend is the device side: it pulls from r once started.
type backend interface {
	name() string
	start(r io.Reader) error
	close() error
}

// Option configures a Player.
type Option func(*Player) error

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) error {
		if l == nil {
			return errors.New("audio: nil logger")
		}
		p.logger = l
		return nil
	}
}

// Player streams a Renderer to the audio device.
type Player struct {
	cfg     core.ProcessorConfig
	stream  *stream
	device  backend
	logger  *slog.Logger
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewPlayer opens the audio device for cfg and prepares to pull from r.
// cfg must match the configuration r was prepared with.
func NewPlayer(cfg core.ProcessorConfig, r Renderer, opts ...Option) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("audio: nil renderer")
	}

	p := &Player{
		cfg:    cfg,
		stream: newStream(r, cfg.Channels, cfg.BlockSize),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	device, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("audio: failed to open device: %w", err)
	}
	p.device = device

	return p, nil
}

// Start begins playback. Starting a started player is a no-op.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("audio: player is closed")
	}
	if p.started {
		return nil
	}
	if err := p.device.start(p.stream); err != nil {
		return fmt.Errorf("audio: failed to start %s: %w", p.device.name(), err)
	}
	p.started = true

	p.logger.Info("audio started",
		"backend", p.device.name(),
		"sample_rate", p.cfg.SampleRate,
		"channels", p.cfg.Channels,
		"block_size", p.cfg.BlockSize,
	)
	return nil
}

// Close stops playback and releases the device. It is safe to call twice.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.started = false

	err := p.device.close()
	p.logger.Info("audio stopped",
		"frames", p.stream.frames.Load(),
		"render_errors", p.stream.errors.Load(),
	)
	return err
}

// Backend names the device implementation in use.
func (p *Player) Backend() string { return p.device.name() }

// Frames returns the number of frames delivered to the device.
func (p *Player) Frames() uint64 { return p.stream.frames.Load() }

// Errors returns how many device pulls were answered with silence because
// rendering failed.
func (p *Player) Errors() uint64 { return p.stream.errors.Load() }

// stream adapts a Renderer to the byte-oriented pull interface devices use.
type stream struct {
	r        Renderer
	channels int
	samples  []float32
	frames   atomic.Uint64
	errors   atomic.Uint64
}

func newStream(r Renderer, channels, blockSize int) *stream {
	return &stream{
		r:        r,
		channels: channels,
		samples:  make([]float32, blockSize*channels),
	}
}

// Read renders whole frames into p as little-endian float32 and pads any
// trailing partial frame with silence. It always fills p; a failed render
// plays silence and is counted.
func (s *stream) Read(p []byte) (int, error) {
	frameBytes := 4 * s.channels
	n := len(p) / frameBytes * s.channels

	if len(s.samples) < n {
		s.samples = make([]float32, n)
	}
	samples := s.samples[:n]

	if n > 0 {
		if err := s.r.Render(samples); err != nil {
			s.errors.Add(1)
			clear(samples)
		}
	}

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	clear(p[4*n:])

	s.frames.Add(uint64(n / s.channels))
	return len(p), nil
}

// blockDuration is the wall-clock length of one block.
func blockDuration(cfg core.ProcessorConfig) time.Duration {
	return time.Duration(float64(cfg.BlockSize) / cfg.SampleRate * float64(time.Second))
}
