//go:build molrepdebug

package buffer

import "fmt"

// Debug reports whether attribute length assertions are compiled in.
const Debug = true

func assertLen(ch Channel, data []float32, want int) {
	if len(data) != want {
		panic(fmt.Sprintf("buffer: %s has %d values, want %d", ch, len(data), want))
	}
}
