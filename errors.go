package cpso

import (
	"errors"
	"fmt"
)

// ErrNoFeasibleSolution is returned by Result.Err when the search finished
// without visiting any position that satisfies every constraint.
var ErrNoFeasibleSolution = errors.New("no feasible solution found")

// ErrNaN marks an objective or constraint evaluation that produced NaN.
var ErrNaN = errors.New("evaluation returned NaN")

// InvalidBoundsError describes a malformed pair of bound vectors.
type InvalidBoundsError struct {
	// Index is the offending dimension, or -1 if the problem is not
	// specific to a dimension.
	Index        int
	Lower, Upper float64
	Msg          string
}

func (e *InvalidBoundsError) Error() string {
	if e.Index < 0 {
		return "invalid bounds: " + e.Msg
	}
	return fmt.Sprintf("invalid bounds: dimension %d [%v, %v]: %s", e.Index, e.Lower, e.Upper, e.Msg)
}

// DimensionMismatchError is returned when an objective or constraint
// declares a dimension count different from the search space.
type DimensionMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s has %d dimensions, search space has %d", e.What, e.Got, e.Want)
}

// ConfigError reports an invalid solver or swarm setting.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// AllEvaluationsFailedError aborts a run in which every evaluation of a
// generation failed.
type AllEvaluationsFailedError struct {
	Iter int
	N    int
	// Err is the failure of the first particle in the generation.
	Err error
}

func (e *AllEvaluationsFailedError) Error() string {
	return fmt.Sprintf("all %d evaluations failed in iteration %d: %v", e.N, e.Iter, e.Err)
}

func (e *AllEvaluationsFailedError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking objective or
// constraint function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("evaluation panicked: %v", e.Value) }

// EvalError records a failed evaluation of a single position.
type EvalError struct {
	// Stage is "objective" or "constraint".
	Stage string
	Pos   []float64
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s evaluation at %v: %v", e.Stage, e.Pos, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }
