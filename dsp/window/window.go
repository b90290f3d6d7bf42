package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function. The zero value is Hann.
type Type int

const (
	TypeHann Type = iota
	TypeRectangular
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris4Term
)

// Metadata holds spectral properties of a window type.
type Metadata struct {
	Name            string
	ENBW            float64
	HighestSidelobe float64
	// FirstMinimumBins is the main-lobe half width in bins.
	FirstMinimumBins int
}

var (
	hannCoeffs            = []float64{0.5, -0.5}
	hammingCoeffs         = []float64{0.54, -0.46}
	blackmanCoeffs        = []float64{0.42, -0.5, 0.08}
	blackmanHarris4Coeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
)

var metadataByType = map[Type]Metadata{
	TypeRectangular:         {Name: "Rectangular", ENBW: 1, HighestSidelobe: -13.3, FirstMinimumBins: 1},
	TypeHann:                {Name: "Hann", ENBW: 1.5, HighestSidelobe: -31.5, FirstMinimumBins: 2},
	TypeHamming:             {Name: "Hamming", ENBW: 1.36, HighestSidelobe: -42.7, FirstMinimumBins: 2},
	TypeBlackman:            {Name: "Blackman", ENBW: 1.73, HighestSidelobe: -58.1, FirstMinimumBins: 3},
	TypeBlackmanHarris4Term: {Name: "Blackman-Harris", ENBW: 2.0, HighestSidelobe: -92, FirstMinimumBins: 4},
}

// Generate returns symmetric window coefficients of the given length.
func Generate(t Type, length int) []float64 {
	if length <= 0 {
		return nil
	}

	coeffs := cosineTerms(t)

	out := make([]float64, length)
	for i := range out {
		out[i] = cosineFromCoeffs(samplePosition(i, length), coeffs)
	}

	return out
}

// ApplyCoefficients multiplies samples with coefficients and returns a new slice.
func ApplyCoefficients(samples, coeffs []float64) ([]float64, error) {
	if len(samples) != len(coeffs) {
		return nil, errMismatchedLength
	}

	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, coeffs)

	return out, nil
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	if m, ok := metadataByType[t]; ok {
		return m
	}

	return Metadata{}
}

// Valid reports whether t names a known window.
func (t Type) Valid() bool {
	_, ok := metadataByType[t]
	return ok
}

func (t Type) String() string {
	if m, ok := metadataByType[t]; ok {
		return m.Name
	}

	return "Unknown"
}

func cosineTerms(t Type) []float64 {
	switch t {
	case TypeHann:
		return hannCoeffs
	case TypeHamming:
		return hammingCoeffs
	case TypeBlackman:
		return blackmanCoeffs
	case TypeBlackmanHarris4Term:
		return blackmanHarris4Coeffs
	default:
		return nil
	}
}

// cosineFromCoeffs evaluates sum c[k]*cos(2*pi*k*x). An empty set is rectangular.
func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 1
	}

	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int) float64 {
	if size <= 1 {
		return 0
	}

	return float64(n) / float64(size-1)
}
