// Command fmsynth plays a modular FM synthesizer patch.
//
// Usage:
//
//	fmsynth [flags]
//
// Without -patch it plays the built-in patch: an FM oscillator through a
// tanh distortion, an ADSR envelope and a delay. Notes come from the
// terminal keyboard and, with -midi, from a raw MIDI byte stream such as
// /dev/snd/midiC1D0 or a serial adapter.
//
// Examples:
//
//	fmsynth
//	fmsynth -midi /dev/snd/midiC1D0 -cc 1=fm_amt:0.01:16
//	fmsynth -patch patch.yaml -rate 44100 -block 128
//	fmsynth -analyze 2 -note 57
//	fmsynth -dump-patch > patch.yaml
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cwbudde/algo-modsynth/dsp/core"
	"github.com/cwbudde/algo-modsynth/dsp/graph"
	"github.com/cwbudde/algo-modsynth/internal/audio"
	"github.com/cwbudde/algo-modsynth/internal/control"
)

var (
	logger = slog.New(slog.DiscardHandler)
	logOut = &crlfWriter{w: os.Stderr}
)

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// crlfWriter translates line endings while the terminal is in raw mode.
type crlfWriter struct {
	w   io.Writer
	raw atomic.Bool
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if !c.raw.Load() {
		return c.w.Write(p)
	}
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ccFlags collects repeated -cc controller=input:min:max bindings.
type ccFlags []control.CC

func (f *ccFlags) String() string {
	parts := make([]string, len(*f))
	for i, cc := range *f {
		parts[i] = fmt.Sprintf("%d=%s:%g:%g", cc.Controller, cc.Input, cc.Min, cc.Max)
	}
	return strings.Join(parts, ",")
}

func (f *ccFlags) Set(s string) error {
	cc, err := parseCC(s)
	if err != nil {
		return err
	}
	*f = append(*f, cc)
	return nil
}

func parseCC(s string) (control.CC, error) {
	ctl, rest, ok := strings.Cut(s, "=")
	if !ok {
		return control.CC{}, fmt.Errorf("cc binding %q: want controller=input:min:max", s)
	}

	n, err := strconv.ParseUint(ctl, 10, 7)
	if err != nil {
		return control.CC{}, fmt.Errorf("cc binding %q: controller: %w", s, err)
	}

	fields := strings.Split(rest, ":")
	if len(fields) != 3 || fields[0] == "" {
		return control.CC{}, fmt.Errorf("cc binding %q: want controller=input:min:max", s)
	}

	lo, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return control.CC{}, fmt.Errorf("cc binding %q: min: %w", s, err)
	}
	hi, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return control.CC{}, fmt.Errorf("cc binding %q: max: %w", s, err)
	}

	return control.CC{Controller: uint8(n), Input: fields[0], Min: lo, Max: hi}, nil
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	patchPath := flag.String("patch", "", "YAML patch description (default: built-in patch)")
	dumpPatch := flag.Bool("dump-patch", false, "print the built-in patch as YAML and exit")
	rate := flag.Float64("rate", 48000, "sample rate in Hz")
	block := flag.Int("block", 256, "block size in frames")
	channels := flag.Int("channels", 2, "output channels")
	gainDB := flag.Float64("gain-db", -2, "master gain in dB")
	midiPath := flag.String("midi", "", "raw MIDI byte stream to read notes from")
	midiChannel := flag.Int("midi-channel", control.Omni, "MIDI channel 0-15, -1 for all")
	noKeys := flag.Bool("no-keyboard", false, "do not read notes from the terminal")
	statsEvery := flag.Duration("stats", 5*time.Second, "interval between stats log lines, 0 disables")
	analyze := flag.Float64("analyze", 0, "render this many seconds offline and print a THD report")
	note := flag.Int("note", 57, "MIDI note held during -analyze")
	var ccs ccFlags
	flag.Var(&ccs, "cc", "bind a MIDI controller as controller=input:min:max (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fmsynth [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays a modular FM synthesizer patch.\n\n")
		fmt.Fprintf(os.Stderr, "Keys: a-; play notes, z/x octave, space release, -/= fm amount, [/] distortion, q quit.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	initLogger(*debug)

	if *dumpPatch {
		out, err := graph.DefaultDescription().Marshal()
		if err != nil {
			logger.Error("marshal patch failed", "err", err)
			os.Exit(1)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	desc := graph.DefaultDescription()
	if *patchPath != "" {
		var err error
		if desc, err = graph.LoadDescription(*patchPath); err != nil {
			logger.Error("load patch failed", "err", err)
			os.Exit(1)
		}
	}

	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(*rate),
		core.WithBlockSize(*block),
		core.WithChannels(*channels),
	)

	logger.Info("fmsynth starting",
		"patch", patchName(*patchPath),
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
		"channels", cfg.Channels,
		"gain_db", *gainDB,
		"midi", *midiPath,
		"debug", *debug,
	)

	g, err := graph.Build(desc, nil, graph.WithLogger(logger), graph.WithGain(core.DBToLinear(*gainDB)))
	if err != nil {
		logger.Error("build patch failed", "err", err)
		os.Exit(1)
	}
	if err := g.Prepare(cfg); err != nil {
		logger.Error("prepare failed", "err", err)
		os.Exit(1)
	}

	if *analyze > 0 {
		if err := runAnalysis(os.Stdout, g, desc, *analyze, *note); err != nil {
			logger.Error("analysis failed", "err", err)
			os.Exit(1)
		}
		return
	}

	opts := liveOptions{
		midiPath:    *midiPath,
		midiChannel: *midiChannel,
		ccs:         ccs,
		keyboard:    !*noKeys,
		statsEvery:  *statsEvery,
	}
	if err := runLive(g, opts); err != nil {
		logger.Error("fmsynth failed", "err", err)
		os.Exit(1)
	}
}

func patchName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

type liveOptions struct {
	midiPath    string
	midiChannel int
	ccs         []control.CC
	keyboard    bool
	statsEvery  time.Duration
}

func runLive(g *graph.Graph, opts liveOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	player, err := audio.NewPlayer(g.Config(), g, audio.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := player.Close(); err != nil {
			logger.Warn("audio close failed", "err", err)
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	var midiIn io.Reader
	if opts.midiPath != "" {
		f, err := os.Open(opts.midiPath)
		if err != nil {
			return fmt.Errorf("failed to open midi input: %w", err)
		}
		midiIn = f

		// Closing the device unblocks a pending read.
		go func() {
			<-ctx.Done()
			_ = f.Close()
		}()
	}

	var keys io.Reader
	if opts.keyboard {
		keys = os.Stdin
	}

	src, err := newSources(g, midiIn, keys, opts)
	if err != nil {
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = src.funnel.Run(ctx)
	}()

	if src.midi != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.midi.Run(ctx); err != nil {
				logger.Warn("midi input stopped", "err", err)
			}
		}()
	}

	if src.keyboard != nil {
		if err := startKeyboard(ctx, cancel, src.keyboard, &wg); err != nil {
			logger.Warn("terminal keyboard disabled", "err", err)
		}
	}

	if err := player.Start(); err != nil {
		return err
	}
	logger.Info("running, press q to quit")

	var tick <-chan time.Time
	if opts.statsEvery > 0 {
		ticker := time.NewTicker(opts.statsEvery)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			logStats(g, player, src.funnel)
			return nil
		case <-tick:
			logStats(g, player, src.funnel)
		}
	}
}

func startKeyboard(ctx context.Context, quit context.CancelFunc, kb *control.Keyboard, wg *sync.WaitGroup) error {
	tty, err := control.MakeRaw(os.Stdin)
	if err != nil {
		return err
	}
	logOut.raw.Store(true)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			logOut.raw.Store(false)
			if err := tty.Restore(); err != nil {
				logger.Warn("terminal restore failed", "err", err)
			}
		}()

		// A read blocked on stdin at shutdown outlives Run; the process
		// exits right after, so it is not closed here.
		if err := kb.Run(ctx); err != nil {
			logger.Warn("keyboard stopped", "err", err)
		}
		quit()
	}()

	return nil
}

func logStats(g *graph.Graph, player *audio.Player, funnel *control.Funnel) {
	st := g.Stats()
	logger.Info("stats",
		"blocks", st.Blocks,
		"frames", player.Frames(),
		"dropped", st.Dropped,
		"overruns", st.Overruns,
		"underflows", st.Underflows,
		"peak", fmt.Sprintf("%.3f", st.Peak),
		"render_errors", player.Errors(),
		"control_dropped", funnel.Dropped(),
	)
}
