package cpso

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear holds the linear inequality constraints "A x <= b".  It satisfies
// VectorConstrainer (one value b[i] - A[i]·x per row) and Dimensioner.
type Linear struct {
	A *mat.Dense
	B []float64
}

// NewLinear copies A and b into a linear constraint set "A x <= b".
func NewLinear(A *mat.Dense, b []float64) (*Linear, error) {
	r, _ := A.Dims()
	if r != len(b) {
		return nil, &ConfigError{Field: "linear constraints", Msg: fmt.Sprintf("A has %d rows but b has %d entries", r, len(b))}
	}
	return &Linear{A: mat.DenseCopyOf(A), B: append([]float64{}, b...)}, nil
}

// NewLinearRange builds the constraints "low <= A x <= up" by stacking them
// into a single "A' x <= b'" system:
//
//	[ -A ]       [ -low ]
//	[  A ] x <=  [  up  ]
//
// Infinite entries of low or up do not generate a row.
func NewLinearRange(low []float64, A *mat.Dense, up []float64) (*Linear, error) {
	r, c := A.Dims()
	if len(low) != r || len(up) != r {
		return nil, &ConfigError{Field: "linear constraints", Msg: fmt.Sprintf("A has %d rows, low has %d, up has %d", r, len(low), len(up))}
	}

	var data, b []float64
	for i := 0; i < r; i++ {
		if !math.IsInf(low[i], 0) {
			row := append([]float64{}, A.RawRowView(i)...)
			floats.Scale(-1, row)
			data = append(data, row...)
			b = append(b, -low[i])
		}
		if !math.IsInf(up[i], 0) {
			data = append(data, A.RawRowView(i)...)
			b = append(b, up[i])
		}
	}
	if len(b) == 0 {
		return nil, &ConfigError{Field: "linear constraints", Msg: "every bound is infinite"}
	}
	return &Linear{A: mat.NewDense(len(b), c, data), B: b}, nil
}

func (l *Linear) Dims() int {
	_, c := l.A.Dims()
	return c
}

func (l *Linear) Constraints(v []float64) ([]float64, error) {
	r, _ := l.A.Dims()
	ax := mat.NewVecDense(r, nil)
	ax.MulVec(l.A, mat.NewVecDense(len(v), append([]float64{}, v...)))

	vals := make([]float64, r)
	for i := range vals {
		vals[i] = l.B[i] - ax.AtVec(i)
	}
	return vals, nil
}

// Constrainers splits the system into one scalar constraint per row so it
// can be combined with other constraints in a Constraints.List.
func (l *Linear) Constrainers() []Constrainer {
	r, _ := l.A.Dims()
	cons := make([]Constrainer, r)
	for i := range cons {
		row := l.A.RawRowView(i)
		b := l.B[i]
		cons[i] = ErrConstraintFunc(func(v []float64) (float64, error) {
			if len(v) != len(row) {
				return math.Inf(-1), &DimensionMismatchError{What: "position", Want: len(row), Got: len(v)}
			}
			return b - floats.Dot(row, v), nil
		})
	}
	return cons
}

// Project moves v toward the feasible region by repeatedly projecting it
// onto the plane of the most violated row, at most maxiter times.  The
// returned slice is a new position; v is not modified.
func (l *Linear) Project(v []float64, maxiter int) []float64 {
	x := append([]float64{}, v...)
	r, _ := l.A.Dims()
	for iter := 0; iter < maxiter; iter++ {
		worst, maxviol := -1, 0.0
		for i := 0; i < r; i++ {
			if viol := floats.Dot(l.A.RawRowView(i), x) - l.B[i]; viol > maxviol {
				worst, maxviol = i, viol
			}
		}
		if worst < 0 {
			break
		}

		norm := l.A.RawRowView(worst)
		nn := floats.Dot(norm, norm)
		if nn == 0 {
			break
		}
		floats.AddScaled(x, -maxviol/nn, norm)
	}
	return x
}
