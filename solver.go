package cpso

import (
	"context"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rwcarlsen/cpso/internal/logging"
)

const (
	DefaultMaxIter        = 100
	DefaultStallLimit     = 10
	DefaultImprovementTol = 1e-8
)

// Generation summarizes one pass of an Iterator over its population.
type Generation struct {
	// Best is the iterator's global best after the pass.
	Best Point
	// Evals is the number of objective evaluations performed.
	Evals int
	// BoundHits counts coordinates that had to be pulled back inside the
	// search space.
	BoundHits int
	// Points holds the evaluated positions of the pass in particle order.
	Points []Point
	// Bests holds each particle's personal best after the pass.
	Bests []Point
}

type Iterator interface {
	// Init builds and evaluates the starting population.
	Init(prob *Problem) (Generation, error)
	// Iterate runs a single generation of the solver.
	Iterate(prob *Problem) (Generation, error)
}

// Seeder is implemented by iterators that can report the seed of their
// random source.
type Seeder interface {
	Seed() uint64
}

// IterationRecord is the diagnostic summary of one generation.  Iter 0 is
// the initial population.
type IterationRecord struct {
	Iter       int
	Best       Point
	Feasible   int
	Failed     int
	Evals      int
	TotalEvals int
	BoundHits  int
	// MeanVal is the mean of the finite objective values of the
	// generation (NaN if there are none).
	MeanVal float64
	// Spread is the mean distance of the generation's positions from the
	// global best.
	Spread float64
	Points []Point
	Bests  []Point
}

// Observer receives an IterationRecord after every generation.  A non-nil
// error aborts the run.
type Observer interface {
	Observe(rec IterationRecord) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(rec IterationRecord) error

func (fn ObserverFunc) Observe(rec IterationRecord) error { return fn(rec) }

// Reason tells why a search stopped.
type Reason int

const (
	Running Reason = iota
	// Converged means the feasible best stopped improving (see
	// Settings.StallLimit and Settings.MinStep).
	Converged
	MaxIterationsReached
	MaxEvalsReached
	// Stopped means the run's context was cancelled.
	Stopped
	// Aborted means the run failed (see Solver.Err).
	Aborted
)

func (r Reason) String() string {
	switch r {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxIterationsReached:
		return "max-iterations"
	case MaxEvalsReached:
		return "max-evals"
	case Stopped:
		return "stopped"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Settings holds the termination and reporting knobs of a Solver.
type Settings struct {
	// MaxIter is the number of generations run after initialization.
	// Zero stops right after the initial population is evaluated.
	MaxIter int
	// MaxEvals stops the search once this many objective evaluations have
	// been performed.  Zero means no limit.
	MaxEvals int
	// StallLimit is the number of consecutive generations the feasible
	// best may improve by less than ImprovementTol before the search is
	// considered converged.  Zero disables the check.
	StallLimit     int
	ImprovementTol float64
	// MinStep, if positive, declares convergence when the feasible best
	// improves but moves less than MinStep.
	MinStep float64
	// Verbose collects an IterationRecord per generation in
	// Result.History.
	Verbose bool
	// ArchiveSize is the number of best distinct positions reported in
	// Result.Archive.
	ArchiveSize int
}

func DefaultSettings() Settings {
	return Settings{
		MaxIter:        DefaultMaxIter,
		StallLimit:     DefaultStallLimit,
		ImprovementTol: DefaultImprovementTol,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.MaxIter < 0:
		return &ConfigError{Field: "max iterations", Msg: fmt.Sprintf("must be >= 0, got %d", s.MaxIter)}
	case s.MaxEvals < 0:
		return &ConfigError{Field: "max evaluations", Msg: fmt.Sprintf("must be >= 0, got %d", s.MaxEvals)}
	case s.StallLimit < 0:
		return &ConfigError{Field: "stall limit", Msg: fmt.Sprintf("must be >= 0, got %d", s.StallLimit)}
	case !(s.ImprovementTol >= 0):
		return &ConfigError{Field: "improvement tolerance", Msg: fmt.Sprintf("must be >= 0, got %v", s.ImprovementTol)}
	case !(s.MinStep >= 0):
		return &ConfigError{Field: "min step", Msg: fmt.Sprintf("must be >= 0, got %v", s.MinStep)}
	case s.ArchiveSize < 0:
		return &ConfigError{Field: "archive size", Msg: fmt.Sprintf("must be >= 0, got %d", s.ArchiveSize)}
	}
	return nil
}

// Solver drives an Iterator over a Problem until a termination criterion is
// met.  Use NewSolver for the default settings; a zero Settings stops right
// after initialization.
type Solver struct {
	Iter Iterator
	Prob *Problem
	Settings
	Observers []Observer
	Log       logr.Logger

	started bool
	done    bool
	reason  Reason
	err     error
	niter   int
	neval   int
	best    Point
	ref     Point
	stall   int
	history []IterationRecord
	archive *Archive
}

func NewSolver(it Iterator, prob *Problem) *Solver {
	return &Solver{
		Iter:     it,
		Prob:     prob,
		Settings: DefaultSettings(),
		Log:      logr.Discard(),
	}
}

// Run iterates until termination and returns the result.  Configuration
// errors are returned with a nil result.  If the run is aborted or its
// context is cancelled, the partial result is returned along with the
// error.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	for s.Next(ctx) {
	}
	if !s.Started() {
		return nil, s.err
	}
	return s.Result(), s.err
}

// Next runs a single generation (the initial population on the first call)
// and reports whether the search should continue.
func (s *Solver) Next(ctx context.Context) bool {
	if s.done {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.finish(Stopped, err)
		return false
	}

	var (
		gen Generation
		err error
	)
	if !s.started {
		if err := s.validate(); err != nil {
			s.done, s.err = true, err
			return false
		}
		s.started = true
		s.archive = NewArchive(s.ArchiveSize)
		gen, err = s.Iter.Init(s.Prob)
	} else {
		s.niter++
		gen, err = s.Iter.Iterate(s.Prob)
	}
	if err != nil {
		s.finish(Aborted, err)
		return false
	}

	s.neval += gen.Evals
	prev := s.best
	s.best = gen.Best
	rec := s.record(gen)

	if rec.Failed > 0 && rec.Failed == len(gen.Points) {
		s.finish(Aborted, &AllEvaluationsFailedError{Iter: s.niter, N: rec.Failed, Err: gen.Points[0].Err})
		return false
	}

	s.archive.Add(gen.Points...)
	if s.Verbose {
		h := rec
		h.Points, h.Bests = nil, nil
		s.history = append(s.history, h)
	}
	for _, o := range s.Observers {
		if err := o.Observe(rec); err != nil {
			s.finish(Aborted, fmt.Errorf("observer: %w", err))
			return false
		}
	}

	s.Log.V(logging.DEBUG).Info("generation done", "iter", s.niter, "best", s.best.Val,
		"feasible", s.best.Feasible, "violation", s.best.Violation, "nfeasible", rec.Feasible,
		"nfailed", rec.Failed, "evals", s.neval)

	if s.niter == 0 {
		s.ref = s.best
	} else if s.converged(prev) {
		s.finish(Converged, nil)
		return false
	}

	switch {
	case s.niter >= s.MaxIter:
		s.finish(MaxIterationsReached, nil)
	case s.MaxEvals > 0 && s.neval >= s.MaxEvals:
		s.finish(MaxEvalsReached, nil)
	}
	return !s.done
}

func (s *Solver) validate() error {
	switch {
	case s.Iter == nil:
		return &ConfigError{Field: "iterator", Msg: "must not be nil"}
	case s.Prob == nil:
		return &ConfigError{Field: "problem", Msg: "must not be nil"}
	}
	return s.Settings.Validate()
}

// converged applies the stall and min-step criteria.  Both only fire once
// the best point is feasible.
func (s *Solver) converged(prev Point) bool {
	if !s.best.Feasible {
		return false
	}

	if !s.ref.Feasible || s.ref.Val-s.best.Val > s.ImprovementTol {
		s.ref = s.best
		s.stall = 0
	} else {
		s.stall++
	}
	if s.StallLimit > 0 && s.stall >= s.StallLimit {
		s.Log.V(logging.DEBUG).Info("stopping search: best objective stalled",
			"generations", s.stall, "tol", s.ImprovementTol)
		return true
	}

	if s.MinStep > 0 && prev.Feasible && Better(s.best, prev) {
		if step := floats.Distance(s.best.pos, prev.pos, 2); step < s.MinStep {
			s.Log.V(logging.DEBUG).Info("stopping search: best position step below minimum",
				"step", step, "minstep", s.MinStep)
			return true
		}
	}
	return false
}

func (s *Solver) finish(r Reason, err error) {
	s.done, s.reason, s.err = true, r, err
	if r == Aborted {
		s.Log.Error(err, "search aborted", "iter", s.niter)
		return
	}
	s.Log.Info("search finished", "reason", r.String(), "iter", s.niter, "evals", s.neval,
		"best", s.best.Val, "feasible", s.best.Feasible)
}

func (s *Solver) record(gen Generation) IterationRecord {
	rec := IterationRecord{
		Iter:       s.niter,
		Best:       gen.Best,
		Evals:      gen.Evals,
		TotalEvals: s.neval,
		BoundHits:  gen.BoundHits,
		Points:     gen.Points,
		Bests:      gen.Bests,
		MeanVal:    math.NaN(),
	}

	vals := make([]float64, 0, len(gen.Points))
	spread := 0.0
	for _, p := range gen.Points {
		if p.Feasible {
			rec.Feasible++
		}
		if p.Failed() {
			rec.Failed++
			s.Log.V(logging.TRACE).Info("evaluation failed", "iter", s.niter, "err", p.Err.Error())
		}
		if !math.IsInf(p.Val, 0) {
			vals = append(vals, p.Val)
		}
		if gen.Best.Len() == p.Len() {
			spread += floats.Distance(p.pos, gen.Best.pos, 2)
		}
	}
	if len(vals) > 0 {
		rec.MeanVal = stat.Mean(vals, nil)
	}
	if len(gen.Points) > 0 {
		rec.Spread = spread / float64(len(gen.Points))
	}
	return rec
}

// Started reports whether the search got past configuration checks.
func (s *Solver) Started() bool { return s.started }

// Best returns the best point found so far.
func (s *Solver) Best() Point { return s.best }

// Niter returns the number of generations run after initialization.
func (s *Solver) Niter() int { return s.niter }

// Neval returns the number of objective evaluations performed.
func (s *Solver) Neval() int { return s.neval }

// Reason returns why the search stopped (Running while it has not).
func (s *Solver) Reason() Reason { return s.reason }

// Err returns the error that aborted the search, if any.
func (s *Solver) Err() error { return s.err }

// Result packages the solver's current state.
func (s *Solver) Result() *Result {
	res := &Result{
		Position:   s.best.Pos(),
		Value:      s.best.Val,
		Feasible:   s.best.Feasible,
		Violation:  s.best.Violation,
		Payload:    s.best.Payload,
		Reason:     s.reason,
		Iterations: s.niter,
		Evals:      s.neval,
		History:    s.history,
	}
	if sd, ok := s.Iter.(Seeder); ok {
		res.Seed = sd.Seed()
	}
	if s.archive != nil {
		res.Archive = s.archive.Points()
	}
	return res
}
