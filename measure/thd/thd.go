// Package thd measures harmonic distortion of rendered audio. It backs the
// oscillator purity tests and the fmsynth -analyze report.
package thd

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modsynth/dsp/window"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
)

// Config holds THD calculation parameters. Zero values select defaults:
// a Hann window, a power-of-two FFT covering the signal and an automatic
// capture width taken from the window's main lobe.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	CaptureBins     int
	MaxHarmonics    int
	WindowType      window.Type
}

// Result holds THD measurement results. All ratios are relative to the
// fundamental level.
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	THD              float64
	THDN             float64
	THDdB            float64
	THDNdB           float64
	OddHD            float64
	EvenHD           float64
	Noise            float64
	Harmonics        []float64
	SINAD            float64
}

// Calculator performs THD analysis on frequency-domain data.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a new THD calculator.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: normalizeConfig(cfg)}
}

// AnalyzeSignal performs one-shot THD analysis from a time-domain signal.
func AnalyzeSignal(signal []float64, cfg Config) Result {
	return NewCalculator(cfg).AnalyzeSignal(signal)
}

// AnalyzeSignal windows the signal, transforms it and evaluates THD metrics.
func (c *Calculator) AnalyzeSignal(signal []float64) Result {
	if len(signal) == 0 {
		return Result{}
	}

	cfg := c.cfg

	fftSize := cfg.FFTSize
	if fftSize <= 0 {
		fftSize = nextPowerOf2(len(signal))
	}

	if fftSize <= 1 || len(signal) > fftSize {
		return Result{}
	}

	windowed, err := window.ApplyCoefficients(signal, window.Generate(cfg.WindowType, len(signal)))
	if err != nil {
		return Result{}
	}

	in := make([]complex128, fftSize)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Result{}
	}

	cfg.FFTSize = fftSize

	return (&Calculator{cfg: cfg}).CalculateFromMagnitude(powerSpectrum(out))
}

// CalculateFromMagnitude computes THD metrics from a squared-magnitude
// spectrum holding the non-negative frequency bins [0..Nyquist].
func (c *Calculator) CalculateFromMagnitude(magSquared []float64) Result {
	if len(magSquared) <= 1 {
		return Result{}
	}

	cfg := c.cfg
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = 2 * (len(magSquared) - 1)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = float64(cfg.FFTSize)
	}

	maxBin := len(magSquared) - 1
	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	lowerBin := clampInt(int(math.Round(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Round(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := findFundamentalBin(magSquared, cfg.FundamentalFreq, binHz, lowerBin, upperBin)

	captureBins := cfg.CaptureBins
	if captureBins <= 0 {
		captureBins = window.Info(cfg.WindowType).FirstMinimumBins
	}

	if captureBins*2 > fundamentalBin {
		captureBins = fundamentalBin / 2
	}

	fundamentalLevel := binLevel(magSquared, fundamentalBin, captureBins)
	if fundamentalLevel <= 0 {
		return Result{FundamentalFreq: float64(fundamentalBin) * binHz}
	}

	var thdAbs, oddAbs, evenAbs float64

	harmonics := make([]float64, 0, 8)

	for k := 2; cfg.MaxHarmonics == 0 || k-1 <= cfg.MaxHarmonics; k++ {
		bin := k * fundamentalBin
		if bin > upperBin {
			break
		}

		level := binLevel(magSquared, bin, captureBins)
		thdAbs += level

		if k%2 == 0 {
			evenAbs += level
		} else {
			oddAbs += level
		}

		if level > 0 {
			harmonics = append(harmonics, level/fundamentalLevel)
		}
	}

	totalAbs := 0.0
	for i := lowerBin; i <= upperBin; i++ {
		totalAbs += sqrtPositive(magSquared[i])
	}

	thdnAbs := math.Max(totalAbs-fundamentalLevel, 0)
	noiseAbs := math.Max(thdnAbs-thdAbs, 0)

	thd := thdAbs / fundamentalLevel
	thdn := thdnAbs / fundamentalLevel

	sinad := math.Inf(1)
	if thdn > 0 {
		sinad = -20 * math.Log10(thdn)
	}

	return Result{
		FundamentalFreq:  float64(fundamentalBin) * binHz,
		FundamentalLevel: fundamentalLevel,
		THD:              thd,
		THDN:             thdn,
		THDdB:            ratioToDB(thd),
		THDNdB:           ratioToDB(thdn),
		OddHD:            oddAbs / fundamentalLevel,
		EvenHD:           evenAbs / fundamentalLevel,
		Noise:            noiseAbs / fundamentalLevel,
		Harmonics:        harmonics,
		SINAD:            sinad,
	}
}

func powerSpectrum(spectrum []complex128) []float64 {
	bins := len(spectrum)/2 + 1

	re := make([]float64, bins)
	im := make([]float64, bins)

	for i := range bins {
		re[i] = real(spectrum[i])
		im[i] = imag(spectrum[i])
	}

	out := make([]float64, bins)
	vecmath.Power(out, re, im)

	return out
}

func findFundamentalBin(magSquared []float64, freq, binHz float64, lowerBin, upperBin int) int {
	if freq > 0 {
		return clampInt(int(math.Round(freq/binHz)), lowerBin, upperBin)
	}

	best := lowerBin
	for i := lowerBin + 1; i <= upperBin; i++ {
		if magSquared[i] > magSquared[best] {
			best = i
		}
	}

	return best
}

func normalizeConfig(cfg Config) Config {
	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultRangeLowerHz
	}

	if cfg.RangeUpperFreq <= 0 {
		cfg.RangeUpperFreq = defaultRangeUpperHz
	}

	cfg.RangeUpperFreq = math.Max(cfg.RangeUpperFreq, cfg.RangeLowerFreq)

	if !cfg.WindowType.Valid() {
		cfg.WindowType = window.TypeHann
	}

	cfg.CaptureBins = max(cfg.CaptureBins, 0)
	cfg.MaxHarmonics = max(cfg.MaxHarmonics, 0)

	return cfg
}

// binLevel sums magnitudes across bin +/- captureBins.
func binLevel(magSquared []float64, bin, captureBins int) float64 {
	if bin < 0 || bin >= len(magSquared) {
		return 0
	}

	lo := max(bin-captureBins, 0)
	hi := min(bin+captureBins, len(magSquared)-1)

	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += sqrtPositive(magSquared[i])
	}

	return sum
}

func sqrtPositive(v float64) float64 {
	if v <= 0 {
		return 0
	}

	return math.Sqrt(v)
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	return max(lo, min(val, hi))
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
