//go:build headless

package audio

import (
	"io"
	"time"

	"github.com/cwbudde/algo-modsynth/dsp/core"
)

// nullBackend pulls one block per block period and discards it.
type nullBackend struct {
	period time.Duration
	buf    []byte
	stop   chan struct{}
	done   chan struct{}
}

func newBackend(cfg core.ProcessorConfig) (backend, error) {
	return &nullBackend{
		period: blockDuration(cfg),
		buf:    make([]byte, 4*cfg.BlockSize*cfg.Channels),
	}, nil
}

func (b *nullBackend) name() string { return "null" }

func (b *nullBackend) start(r io.Reader) error {
	b.stop = make(chan struct{})
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)

		ticker := time.NewTicker(b.period)
		defer ticker.Stop()

		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				_, _ = r.Read(b.buf)
			}
		}
	}()
	return nil
}

func (b *nullBackend) close() error {
	if b.stop == nil {
		return nil
	}
	close(b.stop)
	<-b.done
	b.stop = nil
	return nil
}
