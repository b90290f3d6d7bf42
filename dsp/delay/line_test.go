package delay

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-modsynth/dsp/interp"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// --- construction and validation ---

func TestNewLineValidation(t *testing.T) {
	if _, err := NewLine(0); err == nil {
		t.Fatal("expected error for size=0")
	}

	if _, err := NewLine(-1); err == nil {
		t.Fatal("expected error for size=-1")
	}
}

func TestNewLineDefaults(t *testing.T) {
	d, err := NewLine(16)
	if err != nil {
		t.Fatal(err)
	}

	if d.Len() != 16 {
		t.Fatalf("Len: got %d want 16", d.Len())
	}

	if d.Mode() != interp.Linear {
		t.Fatalf("default mode: got %v want Linear", d.Mode())
	}

	if d.MaxDelay() != 15 {
		t.Fatalf("MaxDelay: got %v want 15", d.MaxDelay())
	}
}

func TestNewLineWithOptions(t *testing.T) {
	d, err := NewLine(16, WithLineMode(interp.Hermite))
	if err != nil {
		t.Fatal(err)
	}

	if d.Mode() != interp.Hermite {
		t.Fatalf("mode: got %v want Hermite", d.Mode())
	}

	if d.MaxDelay() != 13 {
		t.Fatalf("MaxDelay: got %v want 13", d.MaxDelay())
	}
}

// --- integer Read/Write ---

func TestReadWrite(t *testing.T) {
	d, err := NewLine(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		d.Write(float64(i))
	}
	// age=0 => most recently written (7)
	if got := d.Read(0); got != 7 {
		t.Fatalf("got %v want 7", got)
	}
	if got := d.Read(3); got != 4 {
		t.Fatalf("got %v want 4", got)
	}
}

func TestReadWraparound(t *testing.T) {
	d, err := NewLine(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		d.Write(float64(i))
	}
	// buffer should contain [8, 9, 6, 7], writePos=2
	if got := d.Read(0); got != 9 {
		t.Fatalf("got %v want 9", got)
	}
	if got := d.Read(3); got != 6 {
		t.Fatalf("got %v want 6", got)
	}
}

func TestReset(t *testing.T) {
	d, err := NewLine(4)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.Write(2)
	d.Reset()

	for i := 0; i < 4; i++ {
		if got := d.Read(i); got != 0 {
			t.Fatalf("after reset Read(%d): got %v want 0", i, got)
		}
	}
}

// --- fractional reads ---

// fillRamp fills a delay line with a linear ramp [0, 1, 2, ..., size-1].
func fillRamp(d *Line) {
	for i := 0; i < d.Len(); i++ {
		d.Write(float64(i))
	}
}

func TestReadFractionalLinear(t *testing.T) {
	d, err := NewLine(32)
	if err != nil {
		t.Fatal(err)
	}

	fillRamp(d)
	// With a linear ramp, linear interpolation is exact.
	got := d.ReadFractional(5.5)

	want := float64(d.Len()-1) - 5.5
	if !approxEqual(got, want, 1e-10) {
		t.Fatalf("Linear: got %v want %v", got, want)
	}
}

func TestReadFractionalHermite(t *testing.T) {
	d, err := NewLine(32, WithLineMode(interp.Hermite))
	if err != nil {
		t.Fatal(err)
	}

	fillRamp(d)
	got := d.ReadFractional(5.5)

	want := float64(d.Len()-1) - 5.5
	if !approxEqual(got, want, 1e-10) {
		t.Fatalf("Hermite: got %v want %v", got, want)
	}
}

func TestReadFractionalClamped(t *testing.T) {
	d, err := NewLine(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		d.Write(float64(i + 1))
	}

	if got := d.ReadFractional(-1.0); got != 8 {
		t.Fatalf("negative delay: got %v want 8", got)
	}
	if got := d.ReadFractional(math.NaN()); got != 8 {
		t.Fatalf("NaN delay: got %v want 8", got)
	}
	if got := d.ReadFractional(100); got != 1 {
		t.Fatalf("oversized delay: got %v want 1", got)
	}
}

func TestAllModesDCPreservation(t *testing.T) {
	for _, mode := range []interp.Mode{interp.Linear, interp.Hermite} {
		d, err := NewLine(32, WithLineMode(mode))
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < d.Len(); i++ {
			d.Write(42.0)
		}

		got := d.ReadFractional(5.3)
		if !approxEqual(got, 42.0, 1e-9) {
			t.Fatalf("%s DC: got %v want 42", mode, got)
		}
	}
}

func TestAllModesSineQuality(t *testing.T) {
	// Write a low-frequency sine into a large buffer and verify
	// that fractional reads are close to the analytic value.
	freq := 0.02 // low frequency relative to sample rate
	size := 256

	modes := []struct {
		mode interp.Mode
		tol  float64
	}{
		{interp.Linear, 0.01},
		{interp.Hermite, 1e-4},
	}

	for _, tc := range modes {
		d, err := NewLine(size, WithLineMode(tc.mode))
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < size; i++ {
			d.Write(math.Sin(2 * math.Pi * freq * float64(i)))
		}

		delay := 20.37
		// Read(0) returns the sample written at index size-1.
		exactSample := float64(size-1) - delay
		want := math.Sin(2 * math.Pi * freq * exactSample)
		got := d.ReadFractional(delay)

		if e := math.Abs(got - want); e > tc.tol {
			t.Fatalf("%s sine: got %v want %v (err=%e, tol=%e)", tc.mode, got, want, e, tc.tol)
		}
	}
}

// --- benchmarks ---

func BenchmarkReadFractionalLinear(b *testing.B) {
	d, _ := NewLine(1024)
	fillRamp(d)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.ReadFractional(100.37)
	}
}

func BenchmarkReadFractionalHermite(b *testing.B) {
	d, _ := NewLine(1024, WithLineMode(interp.Hermite))
	fillRamp(d)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.ReadFractional(100.37)
	}
}
