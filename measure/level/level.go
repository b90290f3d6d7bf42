// Package level meters rendered audio: peak, RMS, DC offset, crest factor,
// clipping and a zero-crossing pitch estimate. A Meter accumulates across
// blocks and gives the same result as one Measure call over the whole run.
package level

import (
	"math"

	"github.com/cwbudde/algo-modsynth/dsp/core"
)

// FullScale is the clipping threshold for normalized output.
const FullScale = 1.0

// Level summarizes a stretch of samples. dB fields are relative to
// FullScale and -Inf for silence.
type Level struct {
	Frames        int
	Peak          float64
	PeakDB        float64
	PeakPos       int
	RMS           float64
	RMSDB         float64
	DC            float64
	Crest         float64 // peak / RMS, 0 for silence
	CrestDB       float64
	Clipped       int // samples at or beyond FullScale
	ZeroCrossings int
}

// Frequency estimates the fundamental from the zero-crossing rate. It is
// only meaningful for signals dominated by one partial.
func (l Level) Frequency(sampleRate float64) float64 {
	if l.Frames < 2 {
		return 0
	}
	return float64(l.ZeroCrossings) / 2 * sampleRate / float64(l.Frames-1)
}

// Measure meters one buffer.
func Measure(samples []float64) Level {
	var m Meter
	m.Update(samples)
	return m.Result()
}

// Meter accumulates levels block by block.
type Meter struct {
	n       int
	sum     float64
	sumSq   float64
	peak    float64
	peakPos int
	clipped int
	zc      int
	last    float64
}

// Update adds a block.
func (m *Meter) Update(block []float64) {
	for _, x := range block {
		if a := math.Abs(x); a > m.peak {
			m.peak = a
			m.peakPos = m.n
		}
		if math.Abs(x) >= FullScale {
			m.clipped++
		}
		if m.n > 0 && m.last*x < 0 {
			m.zc++
		}

		m.sum += x
		m.sumSq += x * x
		m.last = x
		m.n++
	}
}

// Result returns the levels accumulated so far.
func (m *Meter) Result() Level {
	if m.n == 0 {
		return Level{PeakDB: math.Inf(-1), RMSDB: math.Inf(-1), CrestDB: math.Inf(-1)}
	}

	nf := float64(m.n)
	rms := math.Sqrt(m.sumSq / nf)

	l := Level{
		Frames:        m.n,
		Peak:          m.peak,
		PeakDB:        core.LinearToDB(m.peak / FullScale),
		PeakPos:       m.peakPos,
		RMS:           rms,
		RMSDB:         core.LinearToDB(rms / FullScale),
		DC:            m.sum / nf,
		Clipped:       m.clipped,
		ZeroCrossings: m.zc,
		CrestDB:       math.Inf(-1),
	}
	if rms > 0 {
		l.Crest = m.peak / rms
		l.CrestDB = core.LinearToDB(l.Crest)
	}
	return l
}

// Reset clears the meter.
func (m *Meter) Reset() { *m = Meter{} }
