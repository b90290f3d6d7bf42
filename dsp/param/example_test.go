package param_test

import (
	"fmt"

	"github.com/cwbudde/algo-modsynth/dsp/param"
)

func ExampleInput() {
	freq, _ := param.New(param.Spec{
		Name:     "freq",
		Init:     220,
		HasRange: true,
		Min:      16,
		Max:      880,
		Smooth:   4,
	})

	_ = freq.TryWrite(300)
	_ = freq.TryWrite(2000) // clamped, and the newest write wins

	freq.Drain()
	for range 4 {
		freq.Advance()
		fmt.Printf("%.0f ", freq.Value())
	}
	fmt.Println()
	// Output:
	// 385 550 715 880
}
