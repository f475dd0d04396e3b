package cpso

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted replays a fixed sequence of generations, repeating the last one.
type scripted struct {
	gens    []Generation
	i       int
	initErr error
}

func (s *scripted) Init(prob *Problem) (Generation, error) {
	if s.initErr != nil {
		return Generation{}, s.initErr
	}
	return s.next(), nil
}

func (s *scripted) Iterate(prob *Problem) (Generation, error) { return s.next(), nil }

func (s *scripted) Seed() uint64 { return 99 }

func (s *scripted) next() Generation {
	g := s.gens[min(s.i, len(s.gens)-1)]
	s.i++
	return g
}

func gen(x, val float64, evals int) Generation {
	p := NewPoint([]float64{x}, val)
	return Generation{Best: p, Evals: evals, Points: []Point{p}, Bests: []Point{p}}
}

func infeasibleGen(x, viol float64) Generation {
	p := NewPoint([]float64{x}, x)
	p.Feasible = false
	p.Violation = viol
	return Generation{Best: p, Evals: 1, Points: []Point{p}, Bests: []Point{p}}
}

func solverFor(t *testing.T, gens ...Generation) *Solver {
	t.Helper()
	space, err := NewSpace([]float64{-100}, []float64{100})
	require.NoError(t, err)
	prob, err := NewProblem(Func(func(v []float64) float64 { return v[0] }), space, nil)
	require.NoError(t, err)
	return NewSolver(&scripted{gens: gens}, prob)
}

func TestSolverStall(t *testing.T) {
	s := solverFor(t, gen(0, 10, 1), gen(1, 5, 1), gen(1, 5, 1))
	s.StallLimit = 3

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Converged, res.Reason)
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, 5, res.Evals)
	assert.Equal(t, 5.0, res.Value)
	assert.Equal(t, uint64(99), res.Seed)
}

func TestSolverSmallImprovementsStall(t *testing.T) {
	s := solverFor(t, gen(0, 1, 1), gen(0, 1-1e-10, 1), gen(0, 1-2e-10, 1), gen(0, 1-3e-10, 1))
	s.StallLimit = 3
	s.ImprovementTol = 1e-8

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Converged, res.Reason)
	assert.Equal(t, 3, res.Iterations)
}

func TestSolverNoStallWhileInfeasible(t *testing.T) {
	s := solverFor(t, infeasibleGen(1, 3))
	s.StallLimit = 2
	s.MaxIter = 20

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MaxIterationsReached, res.Reason)
	assert.Equal(t, 20, res.Iterations)
	assert.False(t, res.Feasible)
	assert.ErrorIs(t, res.Err(), ErrNoFeasibleSolution)
}

func TestSolverMinStep(t *testing.T) {
	s := solverFor(t, gen(0, 10, 1), gen(1, 5, 1), gen(1.001, 4.9, 1), gen(2, 1, 1))
	s.StallLimit = 0
	s.MinStep = 0.01

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Converged, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, []float64{1.001}, res.Position)
}

func TestSolverMaxEvals(t *testing.T) {
	s := solverFor(t, gen(0, 1, 10))
	s.StallLimit = 0
	s.MaxEvals = 35

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MaxEvalsReached, res.Reason)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 40, res.Evals)
}

func TestSolverZeroSettings(t *testing.T) {
	s := solverFor(t, gen(0, 1, 4))
	s.Settings = Settings{}

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MaxIterationsReached, res.Reason)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, 4, res.Evals)
	assert.False(t, s.Next(context.Background()))
}

func TestSolverObserverAbort(t *testing.T) {
	errDisk := errors.New("disk full")
	s := solverFor(t, gen(0, 1, 1))
	s.Observers = []Observer{ObserverFunc(func(rec IterationRecord) error {
		if rec.Iter == 2 {
			return errDisk
		}
		return nil
	})}

	res, err := s.Run(context.Background())
	assert.ErrorIs(t, err, errDisk)
	require.NotNil(t, res)
	assert.Equal(t, Aborted, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, err, s.Err())
}

func TestSolverInitError(t *testing.T) {
	errInit := errors.New("init")
	s := solverFor(t)
	s.Iter = &scripted{initErr: errInit}

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, errInit)
	assert.Equal(t, Aborted, s.Reason())
}

func TestSolverConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(s *Solver)
	}{
		{"nil iterator", func(s *Solver) { s.Iter = nil }},
		{"nil problem", func(s *Solver) { s.Prob = nil }},
		{"negative iterations", func(s *Solver) { s.MaxIter = -1 }},
		{"negative evals", func(s *Solver) { s.MaxEvals = -1 }},
		{"negative stall", func(s *Solver) { s.StallLimit = -1 }},
		{"nan tolerance", func(s *Solver) { s.ImprovementTol = math.NaN() }},
		{"negative step", func(s *Solver) { s.MinStep = -1 }},
		{"negative archive", func(s *Solver) { s.ArchiveSize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := solverFor(t, gen(0, 1, 1))
			tt.mod(s)
			res, err := s.Run(context.Background())
			assert.Nil(t, res)
			var cerr *ConfigError
			assert.ErrorAs(t, err, &cerr)
			assert.Equal(t, 0, s.Neval())
		})
	}
}

func TestSolverRecord(t *testing.T) {
	failed := Unevaluated([]float64{3})
	failed.Err = errors.New("nope")
	bad := NewPoint([]float64{2}, 4)
	bad.Feasible = false
	bad.Violation = 1
	best := NewPoint([]float64{0}, 1)

	g := Generation{Best: best, Evals: 3, BoundHits: 2, Points: []Point{best, bad, failed}}
	s := solverFor(t, g)
	s.MaxIter = 0

	var rec IterationRecord
	s.Observers = []Observer{ObserverFunc(func(r IterationRecord) error {
		rec = r
		return nil
	})}
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Feasible)
	assert.Equal(t, 1, rec.Failed)
	assert.Equal(t, 2, rec.BoundHits)
	assert.Equal(t, 3, rec.TotalEvals)
	assert.InDelta(t, 2.5, rec.MeanVal, 1e-12)
	assert.InDelta(t, 5.0/3, rec.Spread, 1e-12)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "max-iterations", MaxIterationsReached.String())
	assert.Equal(t, "Reason(42)", Reason(42).String())
}
