package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/algo-modsynth/dsp/graph"
	"github.com/cwbudde/algo-modsynth/dsp/param"
	"github.com/cwbudde/algo-modsynth/internal/control"
	"github.com/cwbudde/algo-modsynth/measure/level"
	"github.com/cwbudde/algo-modsynth/measure/thd"
)

const analysisFFTSize = 8192

var errNoOutput = errors.New("patch has no outputs")

// holdNote writes the pitch and arms the note-on trigger when the patch
// has the default voice inputs.
func holdNote(g *graph.Graph, note int) {
	v := control.DefaultVoice()
	if in := g.Input(v.Freq); in != nil {
		_ = in.TryWrite(control.MIDINoteToHz(float64(note)))
	}
	if in := g.Input(v.NoteOn); in != nil {
		_ = in.TryWrite(param.Armed)
	}
}

type report struct {
	output string
	whole  level.Level // the full render
	steady level.Level // the analysed tail
	result thd.Result
}

func analyzeOutputs(g *graph.Graph, desc graph.Description, seconds float64, note int) ([]report, error) {
	if len(desc.Outputs) == 0 {
		return nil, errNoOutput
	}

	cfg := g.Config()
	frames := max(int(seconds*cfg.SampleRate), analysisFFTSize)

	holdNote(g, note)

	// Render every sink in lockstep; one Process feeds them all.
	signals := make([][]float64, len(desc.Outputs))
	meters := make([]level.Meter, len(desc.Outputs))
	for i := range signals {
		signals[i] = make([]float64, 0, frames)
	}
	buf := make([]float64, cfg.BlockSize)
	for len(signals[0]) < frames {
		if err := g.Process(); err != nil {
			return nil, err
		}
		for i, name := range desc.Outputs {
			n := g.Sink(name).Read(buf)
			block := buf[:min(n, frames-len(signals[i]))]
			meters[i].Update(block)
			signals[i] = append(signals[i], block...)
		}
	}

	reports := make([]report, len(desc.Outputs))
	for i, name := range desc.Outputs {
		sig := signals[i]
		tail := sig[len(sig)-analysisFFTSize:]
		reports[i] = report{
			output: name,
			whole:  meters[i].Result(),
			steady: level.Measure(tail),
			result: thd.AnalyzeSignal(tail, thd.Config{
				SampleRate:     cfg.SampleRate,
				FFTSize:        analysisFFTSize,
				RangeLowerFreq: 20,
				RangeUpperFreq: cfg.SampleRate / 2,
			}),
		}
	}

	return reports, nil
}

func runAnalysis(w io.Writer, g *graph.Graph, desc graph.Description, seconds float64, note int) error {
	reports, err := analyzeOutputs(g, desc, seconds, note)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Output\tPeak [dB]\tRMS [dB]\tCrest [dB]\tClipped\tFundamental [Hz]\tTHD [%%]\tTHD+N [%%]\tSINAD [dB]\tHarmonics\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "------\t---------\t--------\t----------\t-------\t----------------\t-------\t---------\t----------\t---------\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}

	for _, r := range reports {
		if _, err := fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\t%.2f\t%.3f\t%.3f\t%.2f\t%d\n",
			r.output,
			r.whole.PeakDB,
			r.steady.RMSDB,
			r.steady.CrestDB,
			r.whole.Clipped,
			r.result.FundamentalFreq,
			100*r.result.THD,
			100*r.result.THDN,
			r.result.SINAD,
			len(r.result.Harmonics),
		); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	st := g.Stats()
	_, err = fmt.Fprintf(w, "\nblocks=%d dropped=%d overruns=%d underflows=%d\n",
		st.Blocks, st.Dropped, st.Overruns, st.Underflows)
	return err
}
