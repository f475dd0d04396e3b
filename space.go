package cpso

import (
	"math"
	"math/rand/v2"
)

// Space is a box-bounded search domain.  It is immutable: the bound vectors
// are copied in NewSpace and every accessor returns copies.
type Space struct {
	lower []float64
	upper []float64
}

// NewSpace validates low and up and returns the search space they describe.
// It returns an *InvalidBoundsError if the vectors are empty or of different
// lengths, hold non-finite values, or if low[i] >= up[i] for any i.
func NewSpace(low, up []float64) (Space, error) {
	switch {
	case len(low) != len(up):
		return Space{}, &InvalidBoundsError{Index: -1, Msg: "lower and upper bound vectors have different lengths"}
	case len(low) == 0:
		return Space{}, &InvalidBoundsError{Index: -1, Msg: "no dimensions"}
	}

	for i := range low {
		l, u := low[i], up[i]
		switch {
		case math.IsNaN(l) || math.IsInf(l, 0) || math.IsNaN(u) || math.IsInf(u, 0):
			return Space{}, &InvalidBoundsError{Index: i, Lower: l, Upper: u, Msg: "bounds must be finite"}
		case l >= u:
			return Space{}, &InvalidBoundsError{Index: i, Lower: l, Upper: u, Msg: "lower bound must be less than upper bound"}
		}
	}

	return Space{lower: append([]float64{}, low...), upper: append([]float64{}, up...)}, nil
}

func (s Space) Dims() int { return len(s.lower) }

func (s Space) Lo(i int) float64 { return s.lower[i] }

func (s Space) Up(i int) float64 { return s.upper[i] }

// Span returns the width of dimension i.
func (s Space) Span(i int) float64 { return s.upper[i] - s.lower[i] }

func (s Space) Lower() []float64 { return append([]float64{}, s.lower...) }

func (s Space) Upper() []float64 { return append([]float64{}, s.upper...) }

// Contains reports whether x lies inside the closed box.
func (s Space) Contains(x []float64) bool {
	if len(x) != len(s.lower) {
		return false
	}
	for i, v := range x {
		if v < s.lower[i] || v > s.upper[i] || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Rand returns a position drawn uniformly from the space.
func (s Space) Rand(rng *rand.Rand) []float64 {
	pos := make([]float64, len(s.lower))
	for i := range pos {
		pos[i] = s.lower[i] + rng.Float64()*(s.upper[i]-s.lower[i])
	}
	return pos
}
