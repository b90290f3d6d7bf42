package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-modsynth/dsp/buffer"
)

func ExampleRing() {
	r, err := buffer.NewRing(2)
	if err != nil {
		panic(err)
	}

	fmt.Println(r.TryPush(0.25), r.TryPush(0.5), r.TryPush(0.75))

	v, ok := r.TryPop()
	fmt.Println(v, ok, r.Len())

	// Output:
	// true true false
	// 0.25 true 1
}
