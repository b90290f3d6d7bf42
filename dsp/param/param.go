package param

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-modsynth/dsp/buffer"
	"github.com/cwbudde/algo-modsynth/dsp/core"
)

// DefaultCapacity is the queue capacity used when Spec.Capacity is zero.
const DefaultCapacity = 16

// Armed is the value a trigger write carries by convention.
const Armed = 1.0

var (
	// ErrFull is returned by TryWrite when the queue has no free slot. The
	// value is dropped.
	ErrFull = errors.New("param: queue full")
	// ErrNotFinite is returned by TryWrite for NaN or infinite values.
	ErrNotFinite = errors.New("param: value must be finite")
)

// Kind distinguishes persistent values from one-shot events.
type Kind int

const (
	// Continuous values persist until overwritten.
	Continuous Kind = iota
	// Trigger values are delivered to their target once per write.
	Trigger
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Trigger:
		return "trigger"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SmoothPer selects the unit of a smoothing step.
type SmoothPer int

const (
	// PerBlock advances the ramp once per processed block.
	PerBlock SmoothPer = iota
	// PerSample advances the ramp once per sample.
	PerSample
)

func (p SmoothPer) String() string {
	switch p {
	case PerBlock:
		return "block"
	case PerSample:
		return "sample"
	default:
		return fmt.Sprintf("SmoothPer(%d)", int(p))
	}
}

// Spec declares a control input.
type Spec struct {
	Name string
	Kind Kind
	Init float64

	// Min and Max bound accepted values when HasRange is set.
	HasRange bool
	Min, Max float64

	// Smooth is the ramp length in steps; zero applies targets immediately.
	Smooth int
	Per    SmoothPer

	// Capacity is the queue size; zero selects DefaultCapacity.
	Capacity int
}

// Validate reports the first problem with s.
func (s Spec) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("param: name must not be empty")
	case s.Kind != Continuous && s.Kind != Trigger:
		return fmt.Errorf("param %q: kind is invalid: %d", s.Name, s.Kind)
	case s.Per != PerBlock && s.Per != PerSample:
		return fmt.Errorf("param %q: smoothing unit is invalid: %d", s.Name, s.Per)
	case !core.IsFinite(s.Init):
		return fmt.Errorf("param %q: init must be finite: %f", s.Name, s.Init)
	case s.HasRange && !(core.IsFinite(s.Min) && core.IsFinite(s.Max) && s.Min <= s.Max):
		return fmt.Errorf("param %q: range must be finite with min <= max: [%f, %f]", s.Name, s.Min, s.Max)
	case s.Smooth < 0:
		return fmt.Errorf("param %q: smoothing must be >= 0: %d", s.Name, s.Smooth)
	case s.Kind == Trigger && s.Smooth > 0:
		return fmt.Errorf("param %q: trigger inputs cannot be smoothed", s.Name)
	case s.Capacity < 0:
		return fmt.Errorf("param %q: capacity must be >= 0: %d", s.Name, s.Capacity)
	}
	return nil
}

// Input is one control input. TryWrite and Dropped may be called from the
// control goroutine; every other method belongs to the audio goroutine.
type Input struct {
	spec    Spec
	queue   *buffer.Ring
	dropped atomic.Uint64

	blockSize int

	current   float64
	target    float64
	step      float64
	remaining int
	fresh     bool
}

// New creates an Input from spec. The initial value is clamped into range
// and exposed without smoothing.
func New(spec Spec) (*Input, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Capacity == 0 {
		spec.Capacity = DefaultCapacity
	}

	queue, err := buffer.NewRing(spec.Capacity)
	if err != nil {
		return nil, fmt.Errorf("param %q: %w", spec.Name, err)
	}

	in := &Input{spec: spec, queue: queue, blockSize: 1}
	in.current = in.clamp(spec.Init)
	in.target = in.current
	return in, nil
}

// Name returns the input name.
func (in *Input) Name() string { return in.spec.Name }

// Spec returns the declaration the input was built from.
func (in *Input) Spec() Spec { return in.spec }

// TryWrite enqueues v without blocking. Out-of-range values are clamped. A
// full queue drops v, counts it and returns ErrFull.
func (in *Input) TryWrite(v float64) error {
	if !core.IsFinite(v) {
		return ErrNotFinite
	}
	if !in.queue.TryPush(in.clamp(v)) {
		in.dropped.Add(1)
		return ErrFull
	}
	return nil
}

// Dropped returns the number of writes rejected with ErrFull.
func (in *Input) Dropped() uint64 { return in.dropped.Load() }

// Pending returns a snapshot of the queued write count.
func (in *Input) Pending() int { return in.queue.Len() }

// Drain empties the queue and retargets to the newest value. It reports
// whether any value arrived since the previous drain.
func (in *Input) Drain() bool {
	var (
		latest float64
		got    bool
	)
	for {
		v, ok := in.queue.TryPop()
		if !ok {
			break
		}
		latest, got = v, true
	}

	in.fresh = got
	if got {
		in.retarget(latest)
	}
	return got
}

// Fresh reports whether the last Drain delivered a value.
func (in *Input) Fresh() bool { return in.fresh }

// Advance moves the exposed value one smoothing step toward the target.
func (in *Input) Advance() {
	if in.remaining == 0 {
		return
	}
	in.remaining--
	if in.remaining == 0 {
		in.current = in.target
		return
	}
	in.current += in.step
}

// Prepare fixes the block size used to interpret per-block smoothing.
func (in *Input) Prepare(blockSize int) error {
	if blockSize <= 0 {
		return fmt.Errorf("param %q: block size must be > 0: %d", in.spec.Name, blockSize)
	}
	in.blockSize = blockSize
	return nil
}

// Step advances the ramp if frame begins a smoothing step: every frame for
// per-sample inputs, the first frame of each block for per-block inputs.
func (in *Input) Step(frame int) {
	if in.spec.Per == PerSample || frame%in.blockSize == 0 {
		in.Advance()
	}
}

// RampSamples returns the full smoothing length in samples.
func (in *Input) RampSamples() int {
	if in.spec.Per == PerBlock {
		return in.spec.Smooth * in.blockSize
	}
	return in.spec.Smooth
}

// Value returns the exposed, possibly smoothed, value.
func (in *Input) Value() float64 { return in.current }

// Target returns the value the ramp is heading to.
func (in *Input) Target() float64 { return in.target }

// Ramping reports whether smoothing steps remain.
func (in *Input) Ramping() bool { return in.remaining > 0 }

// Reset drops queued writes and restores the initial value. Audio side only.
func (in *Input) Reset() {
	in.queue.Discard()
	in.current = in.clamp(in.spec.Init)
	in.target = in.current
	in.step, in.remaining, in.fresh = 0, 0, false
}

func (in *Input) retarget(v float64) {
	in.target = v
	if in.spec.Smooth <= 0 || v == in.current {
		in.current = v
		in.step, in.remaining = 0, 0
		return
	}
	in.remaining = in.spec.Smooth
	in.step = (v - in.current) / float64(in.spec.Smooth)
}

func (in *Input) clamp(v float64) float64 {
	if !in.spec.HasRange {
		return v
	}
	return core.Clamp(v, in.spec.Min, in.spec.Max)
}
