package param

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func mustNew(t *testing.T, spec Spec) *Input {
	t.Helper()
	in, err := New(spec)
	if err != nil {
		t.Fatalf("New(%+v) error = %v", spec, err)
	}
	return in
}

func TestSpecValidation(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"empty name", Spec{}},
		{"bad kind", Spec{Name: "x", Kind: Kind(7)}},
		{"bad per", Spec{Name: "x", Per: SmoothPer(3)}},
		{"nan init", Spec{Name: "x", Init: math.NaN()}},
		{"inverted range", Spec{Name: "x", HasRange: true, Min: 2, Max: 1}},
		{"negative smooth", Spec{Name: "x", Smooth: -1}},
		{"smoothed trigger", Spec{Name: "x", Kind: Trigger, Smooth: 2}},
		{"negative capacity", Spec{Name: "x", Capacity: -4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.spec); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestInitialValueClamped(t *testing.T) {
	in := mustNew(t, Spec{Name: "freq", Init: 2000, HasRange: true, Min: 16, Max: 880})

	if got := in.Value(); got != 880 {
		t.Fatalf("Value()=%g, want 880", got)
	}

	if got := in.Target(); got != 880 {
		t.Fatalf("Target()=%g, want 880", got)
	}
}

func TestTryWriteOverflowCounts(t *testing.T) {
	const capacity, writes = 4, 11

	in := mustNew(t, Spec{Name: "x", Capacity: capacity})

	accepted, full := 0, 0
	for i := range writes {
		err := in.TryWrite(float64(i))
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if accepted != capacity || full != writes-capacity {
		t.Fatalf("accepted=%d full=%d, want %d and %d", accepted, full, capacity, writes-capacity)
	}

	if got := in.Dropped(); got != writes-capacity {
		t.Fatalf("Dropped()=%d, want %d", got, writes-capacity)
	}

	if !in.Drain() {
		t.Fatal("Drain() reported no value")
	}

	if got := in.Value(); got != capacity-1 {
		t.Fatalf("Value()=%g, want last accepted %d", got, capacity-1)
	}

	if in.Pending() != 0 {
		t.Fatalf("Pending()=%d after drain", in.Pending())
	}
}

func TestDrainCoalescesBurst(t *testing.T) {
	in := mustNew(t, Spec{Name: "x"})

	for _, v := range []float64{0.1, 0.2, 0.3} {
		if err := in.TryWrite(v); err != nil {
			t.Fatal(err)
		}
	}

	in.Drain()

	if got := in.Value(); got != 0.3 {
		t.Fatalf("Value()=%g, want 0.3", got)
	}

	if in.Drain() {
		t.Fatal("second Drain() should find nothing")
	}

	if in.Fresh() {
		t.Fatal("Fresh() should be false after an empty drain")
	}

	if got := in.Value(); got != 0.3 {
		t.Fatalf("value not held: %g", got)
	}
}

func TestTryWriteClampsAndRejectsNonFinite(t *testing.T) {
	in := mustNew(t, Spec{Name: "amt", Init: 0.5, HasRange: true, Min: 0.01, Max: 0.99})

	if err := in.TryWrite(5); err != nil {
		t.Fatal(err)
	}
	in.Drain()

	if got := in.Value(); got != 0.99 {
		t.Fatalf("Value()=%g, want 0.99", got)
	}

	if err := in.TryWrite(-3); err != nil {
		t.Fatal(err)
	}
	in.Drain()

	if got := in.Value(); got != 0.01 {
		t.Fatalf("Value()=%g, want 0.01", got)
	}

	if err := in.TryWrite(math.NaN()); !errors.Is(err, ErrNotFinite) {
		t.Fatalf("NaN write error = %v, want ErrNotFinite", err)
	}

	if in.Pending() != 0 || in.Dropped() != 0 {
		t.Fatal("rejected NaN should not be queued or counted as dropped")
	}
}

func TestLinearRampReachesTarget(t *testing.T) {
	in := mustNew(t, Spec{Name: "x", Smooth: 4})

	if err := in.TryWrite(1); err != nil {
		t.Fatal(err)
	}
	in.Drain()

	if got := in.Value(); got != 0 {
		t.Fatalf("value jumped before first step: %g", got)
	}

	want := []float64{0.25, 0.5, 0.75, 1, 1}
	for i, w := range want {
		in.Advance()
		if got := in.Value(); math.Abs(got-w) > 1e-12 {
			t.Fatalf("step %d: Value()=%g, want %g", i, got, w)
		}
	}

	if in.Ramping() {
		t.Fatal("ramp should be finished")
	}
}

func TestRampRetargetMidway(t *testing.T) {
	in := mustNew(t, Spec{Name: "x", Smooth: 10})

	_ = in.TryWrite(10)
	in.Drain()

	for range 5 {
		in.Advance()
	}

	if got := in.Value(); math.Abs(got-5) > 1e-12 {
		t.Fatalf("Value()=%g, want 5", got)
	}

	_ = in.TryWrite(0)
	in.Drain()

	for range 10 {
		in.Advance()
	}

	if got := in.Value(); got != 0 {
		t.Fatalf("Value()=%g, want 0", got)
	}
}

func TestStepPerBlockAndPerSample(t *testing.T) {
	block := mustNew(t, Spec{Name: "b", Smooth: 2, Per: PerBlock})
	sample := mustNew(t, Spec{Name: "s", Smooth: 2, Per: PerSample})

	for _, in := range []*Input{block, sample} {
		if err := in.Prepare(4); err != nil {
			t.Fatal(err)
		}
		_ = in.TryWrite(1)
		in.Drain()
	}

	for frame := range 4 {
		block.Step(frame)
		sample.Step(frame)
	}

	if got := block.Value(); got != 0.5 {
		t.Fatalf("per-block value after one block=%g, want 0.5", got)
	}

	if got := sample.Value(); got != 1 {
		t.Fatalf("per-sample value after one block=%g, want 1", got)
	}

	if block.RampSamples() != 8 || sample.RampSamples() != 2 {
		t.Fatalf("RampSamples block=%d sample=%d", block.RampSamples(), sample.RampSamples())
	}

	if err := block.Prepare(0); err == nil {
		t.Fatal("expected error for zero block size")
	}
}

func TestTriggerDeliveredOncePerWrite(t *testing.T) {
	in := mustNew(t, Spec{Name: "note_on", Kind: Trigger})

	if in.Drain() {
		t.Fatal("no write yet")
	}

	_ = in.TryWrite(Armed)

	if !in.Drain() || in.Value() != Armed {
		t.Fatalf("trigger not delivered: fresh=%v value=%g", in.Fresh(), in.Value())
	}

	if in.Drain() {
		t.Fatal("trigger delivered twice")
	}
}

func TestReset(t *testing.T) {
	in := mustNew(t, Spec{Name: "x", Init: 3, Smooth: 4})

	_ = in.TryWrite(7)
	in.Drain()
	in.Advance()
	_ = in.TryWrite(9)

	in.Reset()

	if in.Value() != 3 || in.Target() != 3 || in.Ramping() || in.Pending() != 0 {
		t.Fatalf("reset state value=%g target=%g ramping=%v pending=%d",
			in.Value(), in.Target(), in.Ramping(), in.Pending())
	}
}

func TestConcurrentWriterDrainSeesMonotonicValues(t *testing.T) {
	in := mustNew(t, Spec{Name: "x", Capacity: 8})

	const writes = 20000

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			for in.TryWrite(float64(i)) != nil {
			}
		}
	}()

	last := 0.0
	for last < writes {
		if in.Drain() {
			v := in.Value()
			if v <= last {
				t.Errorf("value went backwards: %g after %g", v, last)
			}
			last = v
		}
	}

	wg.Wait()
}

func TestKindAndSmoothPerStrings(t *testing.T) {
	if Continuous.String() != "continuous" || Trigger.String() != "trigger" {
		t.Fatal("kind names")
	}

	if PerBlock.String() != "block" || PerSample.String() != "sample" {
		t.Fatal("smoothing unit names")
	}
}

func BenchmarkDrainAdvance(b *testing.B) {
	in, _ := New(Spec{Name: "x", Smooth: 64, Per: PerSample})

	b.ReportAllocs()

	for i := range b.N {
		_ = in.TryWrite(float64(i & 1))
		in.Drain()
		in.Advance()
	}
}
