// Package cpso implements a gradient-free particle swarm optimizer for
// box-bounded problems with inequality constraints.
//
// The root package holds the pieces shared by every iterator: search spaces,
// points and their ranking, objective and constraint adapters, evaluators
// and the Solver that drives an Iterator to termination.  The swarm
// subpackage provides the particle swarm Iterator itself.
package cpso

import (
	"math"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/rwcarlsen/cpso/internal/logging"
)

type Objectiver interface {
	// Objective evaluates the variables in v and returns the objective
	// function value.  The objective function must be framed so that lower
	// values are better.  A returned error marks the position as failed -
	// it is ranked as maximally infeasible and the search continues.
	Objective(v []float64) (float64, error)
}

// PayloadObjectiver is implemented by objectives that return an auxiliary
// value (e.g. a fitted model) alongside the objective.  The solver never
// inspects the payload; it is reported only for the best point.
type PayloadObjectiver interface {
	Objectiver
	ObjectivePayload(v []float64) (float64, any, error)
}

// Dimensioner is implemented by objectives and constraints that only accept
// positions of a fixed length.
type Dimensioner interface {
	Dims() int
}

// Func adapts a plain function to the Objectiver interface.
type Func func([]float64) float64

func (fn Func) Objective(v []float64) (float64, error) { return fn(v), nil }

// ErrFunc adapts a function that can fail.
type ErrFunc func([]float64) (float64, error)

func (fn ErrFunc) Objective(v []float64) (float64, error) { return fn(v) }

// PayloadFunc adapts a function returning a side payload.
type PayloadFunc func([]float64) (float64, any, error)

func (fn PayloadFunc) Objective(v []float64) (float64, error) {
	val, _, err := fn(v)
	return val, err
}

func (fn PayloadFunc) ObjectivePayload(v []float64) (float64, any, error) { return fn(v) }

// BindArgs returns an objective that calls fn with the fixed extra args
// appended to every evaluation.
func BindArgs(fn func(v []float64, args ...any) (float64, error), args ...any) Objectiver {
	return ErrFunc(func(v []float64) (float64, error) { return fn(v, args...) })
}

// ObjectiveLogger logs every evaluation of the wrapped objective at trace
// verbosity.  It is safe for concurrent use if the wrapped objective is.
type ObjectiveLogger struct {
	Objectiver
	Log   logr.Logger
	count atomic.Int64
}

func NewObjectiveLogger(obj Objectiver, log logr.Logger) *ObjectiveLogger {
	return &ObjectiveLogger{Objectiver: obj, Log: log}
}

func (ol *ObjectiveLogger) Objective(v []float64) (float64, error) {
	val, _, err := ol.ObjectivePayload(v)
	return val, err
}

func (ol *ObjectiveLogger) ObjectivePayload(v []float64) (float64, any, error) {
	var (
		val     float64
		payload any
		err     error
	)
	if po, ok := ol.Objectiver.(PayloadObjectiver); ok {
		val, payload, err = po.ObjectivePayload(v)
	} else {
		val, err = ol.Objectiver.Objective(v)
	}

	n := ol.count.Add(1)
	ol.Log.V(logging.TRACE).Info("objective evaluated", "n", n, "x", v, "val", val, "err", err)
	return val, payload, err
}

// Count returns the number of evaluations seen so far.
func (ol *ObjectiveLogger) Count() int { return int(ol.count.Load()) }

// Problem bundles an objective with its search space and constraints.
type Problem struct {
	Obj   Objectiver
	Space Space
	// Cons may be nil for unconstrained problems.
	Cons *Constraints
}

// NewProblem checks that obj and every constraint agree with the space on
// the number of dimensions (for those implementing Dimensioner).
func NewProblem(obj Objectiver, space Space, cons *Constraints) (*Problem, error) {
	if obj == nil {
		return nil, &ConfigError{Field: "objective", Msg: "must not be nil"}
	} else if space.Dims() == 0 {
		return nil, &InvalidBoundsError{Index: -1, Msg: "no dimensions"}
	}

	if d, ok := obj.(Dimensioner); ok && d.Dims() != space.Dims() {
		return nil, &DimensionMismatchError{What: "objective", Want: space.Dims(), Got: d.Dims()}
	}
	if cons != nil {
		if err := cons.validate(space.Dims()); err != nil {
			return nil, err
		}
	}
	return &Problem{Obj: obj, Space: space, Cons: cons}, nil
}

// Evaluate computes the objective and constraint state at pos.  It never
// fails: errors, NaN results and panics from user code are recorded in the
// returned point's Err field and the point is ranked as maximally
// infeasible.
func (p *Problem) Evaluate(pos []float64) Point {
	pt := NewPoint(pos, math.Inf(1))

	val, payload, err := callObjective(p.Obj, pt.Pos())
	if err != nil {
		pt.Feasible = false
		pt.Violation = math.Inf(1)
		pt.Err = &EvalError{Stage: "objective", Pos: pt.Pos(), Err: err}
		return pt
	}
	pt.Val = val
	pt.Payload = payload

	feasible, viol, err := p.Cons.Check(pt.Pos())
	pt.Feasible = feasible
	pt.Violation = viol
	if err != nil {
		pt.Err = &EvalError{Stage: "constraint", Pos: pt.Pos(), Err: err}
	}
	return pt
}

func callObjective(obj Objectiver, v []float64) (val float64, payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, payload, err = math.Inf(1), nil, &PanicError{Value: r}
		}
	}()

	if po, ok := obj.(PayloadObjectiver); ok {
		val, payload, err = po.ObjectivePayload(v)
	} else {
		val, err = obj.Objective(v)
	}
	if err == nil && math.IsNaN(val) {
		err = ErrNaN
	}
	if err != nil {
		return math.Inf(1), nil, err
	}
	return val, payload, nil
}
