package swarm

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rwcarlsen/cpso"
)

// Projector moves a position toward a feasible region.  *cpso.Linear
// implements it.
type Projector interface {
	Project(v []float64, maxiter int) []float64
}

// Iterator is a synchronous particle swarm: every particle of generation
// k+1 moves toward the global best of generation k, and the global best is
// only recomputed once the whole generation has been evaluated.
type Iterator struct {
	Pop Population
	cpso.Evaler
	Cognition float64
	Social    float64
	InertiaFn func(iter int) float64
	// Vmax is the speed limit per dimension for particles.  If nil, speed
	// is unlimited.
	Vmax        []float64
	Repairer    Repairer
	Projector   Projector
	ProjectIter int

	space   cpso.Space
	size    int
	start   [][]float64
	zeroVel bool
	seed    uint64
	seeded  bool
	rng     *rand.Rand
	count   int
	best    cpso.Point
}

// NewIterator builds a swarm over space.  The swarm is not populated (and
// nothing is evaluated) until Init is called.
func NewIterator(space cpso.Space, opts ...Option) (*Iterator, error) {
	it := &Iterator{
		Evaler:    cpso.SerialEvaler{},
		Cognition: DefaultCognition,
		Social:    DefaultSocial,
		InertiaFn: func(iter int) float64 { return DefaultInertia },
		Repairer:  ClampZero,
		space:     space,
		size:      DefaultSwarmSize,
	}
	if space.Dims() == 0 {
		return nil, &cpso.InvalidBoundsError{Index: -1, Msg: "no dimensions"}
	}

	for _, opt := range opts {
		opt(it)
	}

	if err := it.validate(); err != nil {
		return nil, err
	}

	if !it.seeded {
		it.seed = cpso.RandomSeed()
	}
	it.rng = cpso.NewRand(it.seed)
	return it, nil
}

func (it *Iterator) validate() error {
	ndim := it.space.Dims()
	switch {
	case it.size < 1:
		return &cpso.ConfigError{Field: "swarm size", Msg: fmt.Sprintf("must be >= 1, got %d", it.size)}
	case !(it.Cognition >= 0) || math.IsInf(it.Cognition, 0):
		return &cpso.ConfigError{Field: "cognition weight", Msg: fmt.Sprintf("must be finite and >= 0, got %v", it.Cognition)}
	case !(it.Social >= 0) || math.IsInf(it.Social, 0):
		return &cpso.ConfigError{Field: "social weight", Msg: fmt.Sprintf("must be finite and >= 0, got %v", it.Social)}
	case it.InertiaFn == nil:
		return &cpso.ConfigError{Field: "inertia", Msg: "no inertia function"}
	case it.Evaler == nil:
		return &cpso.ConfigError{Field: "evaluator", Msg: "must not be nil"}
	case it.Repairer == nil:
		return &cpso.ConfigError{Field: "repair policy", Msg: "must not be nil"}
	case it.ProjectIter < 0:
		return &cpso.ConfigError{Field: "projection iterations", Msg: fmt.Sprintf("must be >= 0, got %d", it.ProjectIter)}
	}

	if w := it.InertiaFn(0); math.IsNaN(w) || math.IsInf(w, 0) {
		return &cpso.ConfigError{Field: "inertia", Msg: fmt.Sprintf("must be finite, got %v", w)}
	}

	if it.Vmax != nil {
		if len(it.Vmax) != ndim {
			return &cpso.DimensionMismatchError{What: "vmax", Want: ndim, Got: len(it.Vmax)}
		}
		for i, v := range it.Vmax {
			if !(v > 0) {
				return &cpso.ConfigError{Field: "vmax", Msg: fmt.Sprintf("dimension %d must be > 0, got %v", i, v)}
			}
		}
	}

	if d, ok := it.Projector.(cpso.Dimensioner); ok && d.Dims() != ndim {
		return &cpso.DimensionMismatchError{What: "projection constraints", Want: ndim, Got: d.Dims()}
	}

	for i, pos := range it.start {
		if len(pos) != ndim {
			return &cpso.DimensionMismatchError{What: fmt.Sprintf("start position %d", i), Want: ndim, Got: len(pos)}
		} else if !it.space.Contains(pos) {
			return &cpso.ConfigError{Field: "start position", Msg: fmt.Sprintf("position %d %v is outside the search space", i, pos)}
		}
	}
	return nil
}

// Seed returns the seed of the run's random source.
func (it *Iterator) Seed() uint64 { return it.seed }

// Best returns the global best found so far.
func (it *Iterator) Best() cpso.Point { return it.best }

// Space returns the search space the swarm moves in.
func (it *Iterator) Space() cpso.Space { return it.space }

// Init places the particles, draws their velocities and evaluates the
// starting positions, which become the personal bests.
func (it *Iterator) Init(prob *cpso.Problem) (cpso.Generation, error) {
	if err := it.checkProblem(prob); err != nil {
		return cpso.Generation{}, err
	}

	positions := it.start
	if positions == nil {
		positions = RandPositions(it.size, it.space, it.rng)
	}

	var vspan []float64
	if !it.zeroVel {
		vspan = make([]float64, it.space.Dims())
		for i := range vspan {
			vspan[i] = it.space.Span(i)
		}
	}

	points := make([]cpso.Point, len(positions))
	for i, pos := range positions {
		points[i] = cpso.Unevaluated(pos)
	}
	results, n := it.Evaler.Eval(prob, points...)

	it.Pop = NewPopulation(results, vspan, it.rng)
	it.count = 0
	it.best = it.Pop.Best().Best
	return cpso.Generation{
		Best:   it.best,
		Evals:  n,
		Points: results,
		Bests:  it.Pop.Bests(),
	}, nil
}

// Iterate moves every particle, repairs and evaluates the new positions,
// updates the personal bests and finally the global best.
func (it *Iterator) Iterate(prob *cpso.Problem) (cpso.Generation, error) {
	if len(it.Pop) == 0 {
		return cpso.Generation{}, errors.New("swarm: Iterate called before Init")
	}
	if err := it.checkProblem(prob); err != nil {
		return cpso.Generation{}, err
	}
	it.count++

	inertia := it.InertiaFn(it.count)
	hits := 0
	points := make([]cpso.Point, len(it.Pop))
	for i, p := range it.Pop {
		pos := p.Move(it.best, it.Vmax, inertia, it.Social, it.Cognition, it.rng)
		hits += it.Repairer.Repair(it.space, pos, p.Vel)
		if it.Projector != nil && it.ProjectIter > 0 {
			pos = it.Projector.Project(pos, it.ProjectIter)
			clampPos(it.space, pos)
		}
		points[i] = cpso.Unevaluated(pos)
	}

	results, n := it.Evaler.Eval(prob, points...)
	for i := range results {
		it.Pop[i].Update(results[i])
	}

	// every particle has been evaluated: only now may the global best move.
	if pbest := it.Pop.Best(); cpso.Better(pbest.Best, it.best) {
		it.best = pbest.Best
	}

	return cpso.Generation{
		Best:      it.best,
		Evals:     n,
		BoundHits: hits,
		Points:    results,
		Bests:     it.Pop.Bests(),
	}, nil
}

func (it *Iterator) checkProblem(prob *cpso.Problem) error {
	if prob == nil {
		return &cpso.ConfigError{Field: "problem", Msg: "must not be nil"}
	} else if prob.Space.Dims() != it.space.Dims() {
		return &cpso.DimensionMismatchError{What: "problem", Want: it.space.Dims(), Got: prob.Space.Dims()}
	}
	return nil
}
