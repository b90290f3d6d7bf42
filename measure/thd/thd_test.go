package thd

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-modsynth/dsp/window"
)

func TestCalculateFromMagnitudeKnownSpectrum(t *testing.T) {
	cfg := Config{
		SampleRate:      48000,
		FFTSize:         48000,
		FundamentalFreq: 1000,
		RangeLowerFreq:  20,
		RangeUpperFreq:  10000,
	}

	mag := make([]float64, cfg.FFTSize/2+1)
	mag[1000] = 1.0
	mag[2000] = 0.1 * 0.1
	mag[3000] = 0.05 * 0.05
	mag[4500] = 0.02 * 0.02

	res := NewCalculator(cfg).CalculateFromMagnitude(mag)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"fundamental freq", res.FundamentalFreq, 1000},
		{"fundamental level", res.FundamentalLevel, 1},
		{"THD", res.THD, 0.15},
		{"THDN", res.THDN, 0.17},
		{"noise", res.Noise, 0.02},
		{"odd", res.OddHD, 0.05},
		{"even", res.EvenHD, 0.1},
		{"SINAD", res.SINAD, -20 * math.Log10(0.17)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Fatalf("%s: got %.12f want %.12f", c.name, c.got, c.want)
		}
	}

	if len(res.Harmonics) != 2 {
		t.Fatalf("harmonic count mismatch: got %d want 2", len(res.Harmonics))
	}
}

func TestCalculateAutodetectFundamental(t *testing.T) {
	cfg := Config{
		SampleRate:     48000,
		FFTSize:        48000,
		RangeLowerFreq: 20,
		RangeUpperFreq: 5000,
	}

	mag := make([]float64, cfg.FFTSize/2+1)
	mag[1000] = 0.8 * 0.8
	mag[1200] = 1.2 * 1.2
	mag[2400] = 0.1 * 0.1

	res := NewCalculator(cfg).CalculateFromMagnitude(mag)
	if math.Abs(res.FundamentalFreq-1200) > 1e-9 {
		t.Fatalf("auto fundamental mismatch: got %f", res.FundamentalFreq)
	}

	if len(res.Harmonics) == 0 {
		t.Fatal("expected harmonics to include H2")
	}
}

func TestCalculateCaptureBins(t *testing.T) {
	cfg := Config{
		SampleRate:      48000,
		FFTSize:         48000,
		FundamentalFreq: 1000,
		RangeLowerFreq:  20,
		RangeUpperFreq:  5000,
		CaptureBins:     1,
	}

	mag := make([]float64, cfg.FFTSize/2+1)
	mag[999] = 0.2 * 0.2
	mag[1000] = 1.0
	mag[1001] = 0.2 * 0.2
	mag[2000] = 0.1 * 0.1
	mag[2001] = 0.05 * 0.05

	res := NewCalculator(cfg).CalculateFromMagnitude(mag)

	if math.Abs(res.FundamentalLevel-1.4) > 1e-12 {
		t.Fatalf("fundamental capture mismatch: got %.12f", res.FundamentalLevel)
	}

	if math.Abs(res.THD-(0.15/1.4)) > 1e-12 {
		t.Fatalf("THD capture mismatch: got %.12f want %.12f", res.THD, 0.15/1.4)
	}
}

func TestCalculateMaxHarmonics(t *testing.T) {
	cfg := Config{
		SampleRate:      48000,
		FFTSize:         48000,
		FundamentalFreq: 1000,
		RangeUpperFreq:  10000,
		MaxHarmonics:    1,
	}

	mag := make([]float64, cfg.FFTSize/2+1)
	mag[1000] = 1.0
	mag[2000] = 0.1 * 0.1
	mag[3000] = 0.05 * 0.05

	res := NewCalculator(cfg).CalculateFromMagnitude(mag)
	if math.Abs(res.THD-0.1) > 1e-12 {
		t.Fatalf("THD=%.12f, want only H2", res.THD)
	}
}

func TestAnalyzeSignalPureToneLowDistortion(t *testing.T) {
	sr := 48000.0
	n := 4096
	freq := 64 * sr / float64(n)

	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}

	for _, wt := range []window.Type{window.TypeHann, window.TypeBlackman} {
		res := AnalyzeSignal(signal, Config{
			SampleRate:      sr,
			FundamentalFreq: freq,
			WindowType:      wt,
		})

		if res.FundamentalLevel <= 0 {
			t.Fatalf("%v: expected positive fundamental level", wt)
		}

		if res.THD > 1e-3 {
			t.Fatalf("%v: expected near-zero THD, got %g", wt, res.THD)
		}
	}
}

func TestAnalyzeSignalDetectsSaturation(t *testing.T) {
	sr := 48000.0
	n := 4096
	freq := 32 * sr / float64(n)

	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Tanh(4 * math.Sin(2*math.Pi*freq*float64(i)/sr))
	}

	res := AnalyzeSignal(signal, Config{SampleRate: sr})
	if math.Abs(res.FundamentalFreq-freq) > 1e-9 {
		t.Fatalf("fundamental=%f, want %f", res.FundamentalFreq, freq)
	}

	if res.OddHD < 0.05 {
		t.Fatalf("odd harmonics=%g, expected strong odd content", res.OddHD)
	}

	if res.EvenHD > res.OddHD/10 {
		t.Fatalf("even=%g odd=%g, symmetric clipping should be odd dominated", res.EvenHD, res.OddHD)
	}
}

func TestAnalyzeSignalEmpty(t *testing.T) {
	if res := AnalyzeSignal(nil, Config{}); res.FundamentalLevel != 0 {
		t.Fatalf("empty signal result=%#v", res)
	}
}

func TestCalculateMultiToneHarmonicSeparation(t *testing.T) {
	cfg := Config{
		SampleRate:      48000,
		FFTSize:         48000,
		FundamentalFreq: 1000,
		RangeLowerFreq:  20,
		RangeUpperFreq:  10000,
	}

	mag := make([]float64, cfg.FFTSize/2+1)
	mag[1000] = 1.0
	mag[2000] = 0.10 * 0.10
	mag[3000] = 0.05 * 0.05

	mag[1300] = 0.80 * 0.80
	mag[2600] = 0.20 * 0.20
	mag[3900] = 0.10 * 0.10

	res := NewCalculator(cfg).CalculateFromMagnitude(mag)

	if math.Abs(res.THD-0.15) > 1e-12 {
		t.Fatalf("THD mismatch: got %.12f want %.12f", res.THD, 0.15)
	}

	wantNoise := 0.80 + 0.20 + 0.10
	if math.Abs(res.Noise-wantNoise) > 1e-12 {
		t.Fatalf("Noise mismatch: got %.12f want %.12f", res.Noise, wantNoise)
	}
}
