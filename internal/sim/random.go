package sim

import "math/rand/v2"

// Independent random streams of one episode. Adding a stream never shifts
// the draws of the others.
const (
	streamLattice uint64 = iota + 1
	streamTurbulence
)

func newStream(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// Seeds returns n consecutive seeds starting at base.
func Seeds(base int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = base + int64(i)
	}
	return out
}
