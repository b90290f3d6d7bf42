package core

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate for unusable processing settings.
var ErrInvalidConfig = errors.New("invalid processor config")

// ProcessorConfig defines the audio settings fixed at prepare time.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for offline and streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  1024,
		Channels:   2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size in frames.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the number of interleaved output channels.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports whether every field holds a positive, usable value.
func (c ProcessorConfig) Validate() error {
	if !(c.SampleRate > 0) || !IsFinite(c.SampleRate) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrInvalidConfig, c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size must be > 0: %d", ErrInvalidConfig, c.BlockSize)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("%w: channel count must be > 0: %d", ErrInvalidConfig, c.Channels)
	}
	return nil
}
