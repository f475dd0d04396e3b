package swarm

import (
	"github.com/rwcarlsen/cpso"
)

type Option func(*Iterator)

// Size sets the number of particles in the swarm.
func Size(n int) Option {
	return func(it *Iterator) {
		it.size = n
	}
}

// Seed fixes the seed of the run's random source.  Without it a random seed
// is drawn and reported through Iterator.Seed.
func Seed(seed uint64) Option {
	return func(it *Iterator) {
		it.seed = seed
		it.seeded = true
	}
}

// ZeroVelocity starts every particle at rest instead of with a random
// velocity spanning the search space.
func ZeroVelocity() Option {
	return func(it *Iterator) {
		it.zeroVel = true
	}
}

func Vmax(vmaxes []float64) Option {
	return func(it *Iterator) {
		it.Vmax = append([]float64{}, vmaxes...)
	}
}

func VmaxAll(vmax float64) Option {
	return func(it *Iterator) {
		it.Vmax = make([]float64, it.space.Dims())
		for i := range it.Vmax {
			it.Vmax[i] = vmax
		}
	}
}

// VmaxBounds sets the maximum particle speed for each dimension equal to
// the bounded range for the problem - i.e. up[i]-low[i] for each dimension.
// Eberhart et al. suggest half of this as a rule of thumb in:
//
//	Eberhart, R.C.; Yuhui Shi, "Particle swarm optimization: developments,
//	applications and resources," Evolutionary Computation, 2001. Proceedings of
//	the 2001 Congress on , vol.1, no., pp.81,86 vol. 1, 2001 doi:
//	10.1109/CEC.2001.934374
//
// Removing the divide by two seems to help the swarm avoid premature
// convergence in difficult problems.
func VmaxBounds() Option {
	return func(it *Iterator) {
		it.Vmax = make([]float64, it.space.Dims())
		for i := range it.Vmax {
			it.Vmax[i] = it.space.Span(i)
		}
	}
}

func LearnFactors(cognition, social float64) Option {
	return func(it *Iterator) {
		it.Cognition = cognition
		it.Social = social
	}
}

// LinInertia sets particle inertia for velocity updates to varry linearly
// from the start (high) to end (low) values from 0 to maxiter.  Common values
// are start = 0.9 and end = 0.4 - for details see:
//
//	Eberhart, R.C.; Yuhui Shi, "Particle swarm optimization: developments,
//	applications and resources," Evolutionary Computation, 2001. Proceedings of
//	the 2001 Congress on , vol.1, no., pp.81,86 vol. 1, 2001 doi:
//	10.1109/CEC.2001.934374
func LinInertia(start, end float64, maxiter int) Option {
	return func(it *Iterator) {
		it.InertiaFn = func(iter int) float64 {
			if maxiter <= 0 || iter >= maxiter {
				return end
			}
			return start - (start-end)*float64(iter)/float64(maxiter)
		}
	}
}

func FixedInertia(v float64) Option {
	return func(it *Iterator) {
		it.InertiaFn = func(iter int) float64 { return v }
	}
}

// Constricted uses the constriction coefficient form of the velocity rule
// with c1 = c2 = 2.05.
func Constricted() Option {
	return func(it *Iterator) {
		it.Cognition = ConstrictedCognition
		it.Social = ConstrictedSocial
		it.InertiaFn = func(iter int) float64 { return ConstrictedInertia }
	}
}

// Evaler sets the evaluator used for every generation (cpso.SerialEvaler by
// default).
func Evaler(ev cpso.Evaler) Option {
	return func(it *Iterator) {
		it.Evaler = ev
	}
}

// Repair sets the bound repair policy (ClampZero by default).
func Repair(r Repairer) Option {
	return func(it *Iterator) {
		it.Repairer = r
	}
}

// ProjectLinear enables feasibility repair: after bound repair, a moved
// position violating "A x <= b" is projected onto the violated half-spaces
// at most maxiter times and clamped back into the box.
func ProjectLinear(l *cpso.Linear, maxiter int) Option {
	return func(it *Iterator) {
		if l != nil {
			it.Projector = l
		}
		it.ProjectIter = maxiter
	}
}

// StartFrom places the initial particles at the given positions instead of
// drawing them at random.  The swarm size becomes len(positions).
func StartFrom(positions [][]float64) Option {
	return func(it *Iterator) {
		it.start = make([][]float64, len(positions))
		for i, pos := range positions {
			it.start[i] = append([]float64{}, pos...)
		}
		it.size = len(positions)
	}
}
