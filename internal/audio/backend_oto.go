//go:build !headless

package audio

import (
	"io"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-modsynth/dsp/core"
)

type otoBackend struct {
	ctx    *oto.Context
	player *oto.Player
}

func newBackend(cfg core.ProcessorConfig) (backend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(cfg.SampleRate),
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   blockDuration(cfg),
	})
	if err != nil {
		return nil, err
	}
	<-ready

	return &otoBackend{ctx: ctx}, nil
}

func (b *otoBackend) name() string { return "oto" }

func (b *otoBackend) start(r io.Reader) error {
	b.player = b.ctx.NewPlayer(r)
	b.player.Play()
	return b.player.Err()
}

func (b *otoBackend) close() error {
	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	return err
}
