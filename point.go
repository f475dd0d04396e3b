package cpso

import (
	"crypto/sha1"
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point is an evaluated (or not yet evaluated) position in the search space.
// The position itself is immutable once the point is created - Pos always
// returns a copy.
type Point struct {
	pos []float64
	// Val is the objective value at the position.
	Val float64
	// Feasible is true if every constraint is satisfied within tolerance.
	Feasible bool
	// Violation is the summed magnitude of violated constraints.  It is
	// +Inf for positions whose evaluation failed.
	Violation float64
	// Payload is the opaque side value returned by a PayloadObjectiver for
	// this position (if any).
	Payload any
	// Err records why the evaluation of this point failed.
	Err error
}

// NewPoint creates a feasible point at pos with objective value val.  pos is
// copied.
func NewPoint(pos []float64, val float64) Point {
	cpos := make([]float64, len(pos))
	copy(cpos, pos)
	return Point{pos: cpos, Val: val, Feasible: true}
}

// Unevaluated creates a point at pos that ranks below every evaluated
// point.
func Unevaluated(pos []float64) Point {
	p := NewPoint(pos, math.Inf(1))
	p.Feasible = false
	p.Violation = math.Inf(1)
	return p
}

func (p Point) At(i int) float64 { return p.pos[i] }

func (p Point) Len() int { return len(p.pos) }

func (p Point) Pos() []float64 {
	if p.pos == nil {
		return nil
	}
	pos := make([]float64, len(p.pos))
	copy(pos, p.pos)
	return pos
}

// Vec returns the position as a gonum column vector.
func (p Point) Vec() *mat.VecDense { return mat.NewVecDense(len(p.pos), p.Pos()) }

// Failed reports whether the evaluation of p failed.
func (p Point) Failed() bool { return p.Err != nil }

// Better reports whether a strictly dominates b.  Feasible points always
// beat infeasible ones; between two feasible points the lower objective
// value wins; between two infeasible points the lower violation wins, with
// the objective value breaking exact violation ties.  Equal points do not
// dominate each other so callers keep the incumbent on ties.
func Better(a, b Point) bool {
	switch {
	case a.Feasible != b.Feasible:
		return a.Feasible
	case a.Feasible:
		return a.Val < b.Val
	case a.Violation != b.Violation:
		return a.Violation < b.Violation
	default:
		return a.Val < b.Val
	}
}

func hashPoint(p Point) [sha1.Size]byte {
	data := make([]byte, p.Len()*8)
	for i := 0; i < p.Len(); i++ {
		binary.BigEndian.PutUint64(data[i*8:], math.Float64bits(p.At(i)))
	}
	return sha1.Sum(data)
}
