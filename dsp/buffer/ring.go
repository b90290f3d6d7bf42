package buffer

import (
	"fmt"
	"sync/atomic"
)

// cacheLinePad keeps the producer and consumer indices on separate cache lines.
type cacheLinePad [56]byte

// Ring is a bounded lock-free SPSC queue.
//
// head and tail are monotonically increasing counters; the slot index is the
// counter modulo capacity, so the full and empty states stay distinguishable
// without wasting a slot.
type Ring struct {
	head atomic.Uint64 // next slot to pop, written by the consumer only
	_    cacheLinePad
	tail atomic.Uint64 // next slot to push, written by the producer only
	_    cacheLinePad

	slots []float64
	size  uint64
}

// NewRing returns a ring holding at most capacity values.
func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring capacity must be > 0: %d", capacity)
	}
	return &Ring{
		slots: make([]float64, capacity),
		size:  uint64(capacity),
	}, nil
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return int(r.size)
}

// Len returns the number of queued values. The result is a snapshot and may
// be stale by the time the caller inspects it if the other side is active.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// TryPush appends v. It reports false without side effects when the ring is full.
// Producer side only.
func (r *Ring) TryPush(v float64) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= r.size {
		return false
	}
	r.slots[tail%r.size] = v
	r.tail.Store(tail + 1)
	return true
}

// TryPop removes the oldest value. It reports false when the ring is empty.
// Consumer side only.
func (r *Ring) TryPop() (float64, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return 0, false
	}
	v := r.slots[head%r.size]
	r.head.Store(head + 1)
	return v, true
}

// Discard drops every queued value and returns how many were dropped.
// Consumer side only.
func (r *Ring) Discard() int {
	head := r.head.Load()
	tail := r.tail.Load()
	r.head.Store(tail)
	return int(tail - head)
}
