// Package swarm implements a generational particle swarm Iterator with
// constraint-aware ranking of particles.
package swarm

import (
	"math"
	"math/rand/v2"

	"github.com/rwcarlsen/cpso"
)

const (
	DefaultSwarmSize = 100
	DefaultInertia   = 0.5
	DefaultCognition = 0.5
	DefaultSocial    = 0.5
)

// These params are calculated using a constriction factor originally
// described in:
//
//	Clerc and M.  “The swarm and the queen: towards a deterministic and
//	adaptive particle swarm optimization” Proc. 1999 Congress on
//	Evolutionary Computation, pp. 1951-1957
//
// The cognition and social parameters correspond to c1 and c2 values of 2.05
// that have been multiplied by their constriction coeffient - i.e.
// ConstrictedSocial = Constriction(2.05, 2.05)*2.05.  ConstrictedInertia is
// set equal to the constriction coefficient.
const (
	ConstrictedCognition = 1.496179765663133
	ConstrictedSocial    = 1.496179765663133
	ConstrictedInertia   = 0.7298437881283576
)

// Constriction calculates the constriction coefficient for the given c1 and
// c2 for the particle velocity equation:
//
//	v_next = k(v_curr + c1*rand*(p_glob-x) + c2*rand*(p_personal-x))
//
//	or
//
//	v_next = w*v_curr + b1*rand*(p_glob-x) + b2*rand*(p_personal-x)
//
//	(with constriction coefficient multiplied through.
//
// c1+c2 should usually be greater than (but close to) 4.  'w = k' is often
// referred to as the inertia in the traditional swarm equation
func Constriction(c1, c2 float64) float64 {
	phi := c1 + c2
	return 2 / math.Abs(2-phi-math.Sqrt(phi*phi-4*phi))
}

type Particle struct {
	Id int
	cpso.Point
	Vel []float64
	// Best is the particle's personal best.  It carries its own
	// feasibility and violation.
	Best cpso.Point
}

// Move updates p's velocity and returns the unrepaired position it moves
// to.  p's current point is left untouched until the new position has been
// evaluated (see Update).
func (p *Particle) Move(gbest cpso.Point, vmax []float64, inertia, social, cognition float64, rng *rand.Rand) []float64 {
	pos := p.Pos()
	for i, currv := range p.Vel {
		// random numbers r1 and r2 MUST go inside this loop and be generated
		// uniquely for each dimension of p's velocity.
		r1 := rng.Float64()
		r2 := rng.Float64()
		p.Vel[i] = inertia*currv +
			cognition*r1*(p.Best.At(i)-p.At(i)) +
			social*r2*(gbest.At(i)-p.At(i))
		if vmax != nil && math.Abs(p.Vel[i]) > vmax[i] {
			p.Vel[i] = math.Copysign(vmax[i], p.Vel[i])
		}
		pos[i] += p.Vel[i]
	}
	return pos
}

// Update makes newp the particle's current point and replaces its personal
// best if newp strictly dominates it.  Ties keep the existing best.
func (p *Particle) Update(newp cpso.Point) {
	p.Point = newp
	if cpso.Better(newp, p.Best) {
		p.Best = newp
	}
}

type Population []*Particle

// NewPopulation initializes a population of particles at the given
// evaluated points.  Velocities for each dimension i are drawn uniformly
// from [-vspan[i], vspan[i]]; a nil vspan gives zero velocities.
func NewPopulation(points []cpso.Point, vspan []float64, rng *rand.Rand) Population {
	pop := make(Population, len(points))
	for i, p := range points {
		pop[i] = &Particle{
			Id:    i,
			Point: p,
			Best:  p,
			Vel:   make([]float64, p.Len()),
		}
		for j := range vspan {
			pop[i].Vel[j] = vspan[j] * (2*rng.Float64() - 1)
		}
	}
	return pop
}

// RandPositions draws n positions uniformly distributed in space.
func RandPositions(n int, space cpso.Space, rng *rand.Rand) [][]float64 {
	positions := make([][]float64, n)
	for i := range positions {
		positions[i] = space.Rand(rng)
	}
	return positions
}

func (pop Population) Points() []cpso.Point {
	points := make([]cpso.Point, 0, len(pop))
	for _, p := range pop {
		points = append(points, p.Point)
	}
	return points
}

// Bests returns every particle's personal best in particle order.
func (pop Population) Bests() []cpso.Point {
	points := make([]cpso.Point, 0, len(pop))
	for _, p := range pop {
		points = append(points, p.Best)
	}
	return points
}

// Best returns the particle holding the best personal best.  The lowest
// index wins ties.
func (pop Population) Best() *Particle {
	if len(pop) == 0 {
		return nil
	}

	best := pop[0]
	for _, p := range pop[1:] {
		if cpso.Better(p.Best, best.Best) {
			best = p
		}
	}
	return best
}
