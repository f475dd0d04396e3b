package cpso

import "math/rand/v2"

// NewRand returns the seeded generator used for every random draw of a run.
// Two generators built from the same seed produce identical sequences.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// RandomSeed draws a fresh seed from the runtime's global source.  Solvers
// record it so an unseeded run can be replayed.
func RandomSeed() uint64 { return rand.Uint64() }
