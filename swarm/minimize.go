package swarm

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/rwcarlsen/cpso"
)

// Minimize searches the box [lower, upper] for the position minimizing obj
// subject to cons (nil for an unconstrained problem).  set controls
// termination (use cpso.DefaultSettings for the usual defaults) and opts
// configure the swarm.  The solver logs to the logr.Logger carried by ctx,
// if any.
//
// Invalid configurations are reported before any evaluation with a nil
// result.  A search that never finds a feasible point is not an error:
// check Result.Feasible or Result.Err.
func Minimize(ctx context.Context, obj cpso.Objectiver, lower, upper []float64, cons *cpso.Constraints, set cpso.Settings, opts ...Option) (*cpso.Result, error) {
	space, err := cpso.NewSpace(lower, upper)
	if err != nil {
		return nil, err
	}
	prob, err := cpso.NewProblem(obj, space, cons)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	it, err := NewIterator(space, opts...)
	if err != nil {
		return nil, err
	}

	s := cpso.NewSolver(it, prob)
	s.Settings = set
	s.Log = logr.FromContextOrDiscard(ctx)
	return s.Run(ctx)
}
