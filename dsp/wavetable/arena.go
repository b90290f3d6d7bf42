package wavetable

// Arena owns the tables built for one graph. Tables are created on first
// request and shared by every later request for the same resolution.
//
// An Arena is filled during prepare, before the audio context starts, and is
// not safe for concurrent Sine calls.
type Arena struct {
	sines map[int]*Table
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{sines: make(map[int]*Table)}
}

// Sine returns the shared sine table of the given resolution.
func (a *Arena) Sine(size int) (*Table, error) {
	if t, ok := a.sines[size]; ok {
		return t, nil
	}
	t, err := NewSine(size)
	if err != nil {
		return nil, err
	}
	a.sines[size] = t
	return t, nil
}

// Len returns how many distinct tables the arena holds.
func (a *Arena) Len() int {
	return len(a.sines)
}
