package cpso

import (
	"fmt"
	"math"
)

// Constrainer is a single inequality constraint.  A position satisfies the
// constraint if the returned value is >= 0.
type Constrainer interface {
	Constraint(v []float64) (float64, error)
}

// VectorConstrainer evaluates every constraint of a problem in one call,
// each element of the returned slice being one constraint value (>= 0 when
// satisfied).
type VectorConstrainer interface {
	Constraints(v []float64) ([]float64, error)
}

type ConstraintFunc func([]float64) float64

func (fn ConstraintFunc) Constraint(v []float64) (float64, error) { return fn(v), nil }

type ErrConstraintFunc func([]float64) (float64, error)

func (fn ErrConstraintFunc) Constraint(v []float64) (float64, error) { return fn(v) }

type VectorConstraint func([]float64) ([]float64, error)

func (fn VectorConstraint) Constraints(v []float64) ([]float64, error) { return fn(v) }

// BindConstraintArgs returns a constraint that calls fn with the fixed extra
// args appended to every evaluation.
func BindConstraintArgs(fn func(v []float64, args ...any) (float64, error), args ...any) Constrainer {
	return ErrConstraintFunc(func(v []float64) (float64, error) { return fn(v, args...) })
}

// Constraints is the ordered set of inequality constraints of a problem.  A
// nil *Constraints has no constraints.
type Constraints struct {
	List []Constrainer
	// Vector, if non-nil, replaces List entirely.
	Vector VectorConstrainer
	// Tol is the feasibility tolerance: a constraint value c is satisfied
	// if c >= -Tol.
	Tol float64
}

// NewConstraints builds a constraint set with zero tolerance.
func NewConstraints(cons ...Constrainer) *Constraints {
	return &Constraints{List: cons}
}

// Empty reports whether the set holds no constraints at all.
func (c *Constraints) Empty() bool {
	return c == nil || (c.Vector == nil && len(c.List) == 0)
}

// Values returns every constraint value at v, in order.
func (c *Constraints) Values(v []float64) (vals []float64, err error) {
	if c.Empty() {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			vals, err = nil, &PanicError{Value: r}
		}
	}()

	if c.Vector != nil {
		return c.Vector.Constraints(v)
	}

	vals = make([]float64, len(c.List))
	for i, con := range c.List {
		if vals[i], err = con.Constraint(v); err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return vals, nil
}

// Check evaluates every constraint at v.  feasible is true iff each value is
// >= -Tol and violation is the sum of the negative parts of the values.  If
// a constraint fails, panics or yields NaN, Check returns (false, +Inf, err).
func (c *Constraints) Check(v []float64) (feasible bool, violation float64, err error) {
	vals, err := c.Values(v)
	if err != nil {
		return false, math.Inf(1), err
	}

	var tol float64
	if c != nil {
		tol = c.Tol
	}

	feasible = true
	for i, val := range vals {
		switch {
		case math.IsNaN(val):
			return false, math.Inf(1), fmt.Errorf("constraint %d: %w", i, ErrNaN)
		case val < 0:
			violation -= val
			if val < -tol {
				feasible = false
			}
		}
	}
	return feasible, violation, nil
}

func (c *Constraints) validate(ndims int) error {
	if c.Tol < 0 || math.IsNaN(c.Tol) {
		return &ConfigError{Field: "constraint tolerance", Msg: fmt.Sprintf("must be >= 0, got %v", c.Tol)}
	}

	if d, ok := c.Vector.(Dimensioner); ok && d.Dims() != ndims {
		return &DimensionMismatchError{What: "vector constraint", Want: ndims, Got: d.Dims()}
	}
	for i, con := range c.List {
		if con == nil {
			return &ConfigError{Field: "constraint", Msg: fmt.Sprintf("constraint %d is nil", i)}
		}
		if d, ok := con.(Dimensioner); ok && d.Dims() != ndims {
			return &DimensionMismatchError{What: fmt.Sprintf("constraint %d", i), Want: ndims, Got: d.Dims()}
		}
	}
	return nil
}
