package swarm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rwcarlsen/cpso"
)

func TestConstriction(t *testing.T) {
	k := Constriction(2.05, 2.05)
	assert.InDelta(t, ConstrictedInertia, k, 1e-12)
	assert.InDelta(t, ConstrictedSocial, k*2.05, 1e-12)
	assert.InDelta(t, ConstrictedCognition, k*2.05, 1e-12)
}

func infeasible(pos []float64, viol, val float64) cpso.Point {
	p := cpso.NewPoint(pos, val)
	p.Feasible = false
	p.Violation = viol
	return p
}

func TestParticleUpdate(t *testing.T) {
	start := cpso.NewPoint([]float64{1}, 3)
	p := &Particle{Point: start, Best: start, Vel: []float64{0}}

	// tie keeps the incumbent
	tie := cpso.NewPoint([]float64{2}, 3)
	p.Update(tie)
	assert.Equal(t, tie.Pos(), p.Pos())
	assert.Equal(t, start.Pos(), p.Best.Pos())

	// feasible always beats infeasible
	p = &Particle{Point: infeasible([]float64{0}, 1, -10), Vel: []float64{0}}
	p.Best = p.Point
	p.Update(cpso.NewPoint([]float64{4}, 100))
	assert.True(t, p.Best.Feasible)
	assert.Equal(t, 100.0, p.Best.Val)

	// infeasible never replaces feasible
	p.Update(infeasible([]float64{5}, 0.1, -100))
	assert.True(t, p.Best.Feasible)
	assert.Equal(t, []float64{5}, p.Pos())
	assert.Equal(t, []float64{4}, p.Best.Pos())
}

func TestParticleMoveVmax(t *testing.T) {
	rng := cpso.NewRand(1)
	best := cpso.NewPoint([]float64{10, -10}, 0)
	p := &Particle{Point: cpso.NewPoint([]float64{0, 0}, 1), Vel: []float64{0, 0}}
	p.Best = p.Point

	pos := p.Move(best, []float64{0.5, 0.25}, 0, 4, 0, rng)
	assert.LessOrEqual(t, math.Abs(p.Vel[0]), 0.5)
	assert.LessOrEqual(t, math.Abs(p.Vel[1]), 0.25)
	assert.Equal(t, p.Vel, pos)
	// the current point only changes on Update
	assert.Equal(t, []float64{0, 0}, p.Pos())
}

func TestParticleMoveNoPull(t *testing.T) {
	rng := cpso.NewRand(1)
	p := &Particle{Point: cpso.NewPoint([]float64{1, 2}, 1), Vel: []float64{0.5, -1}}
	p.Best = p.Point

	pos := p.Move(p.Point, nil, 0.5, 1, 1, rng)
	assert.Equal(t, []float64{0.25, -0.5}, p.Vel)
	assert.Equal(t, []float64{1.25, 1.5}, pos)
}

func TestPopulationBest(t *testing.T) {
	pop := NewPopulation([]cpso.Point{
		infeasible([]float64{0}, 2, -5),
		cpso.NewPoint([]float64{1}, 7),
		infeasible([]float64{2}, 0.5, -50),
		cpso.NewPoint([]float64{3}, 7),
		cpso.NewPoint([]float64{4}, 9),
	}, nil, cpso.NewRand(1))

	// feasible first, lowest index on ties
	assert.Equal(t, 1, pop.Best().Id)

	pop = NewPopulation([]cpso.Point{
		infeasible([]float64{0}, 2, -5),
		infeasible([]float64{1}, 0.5, 3),
		infeasible([]float64{2}, 0.5, 1),
	}, nil, cpso.NewRand(1))
	assert.Equal(t, 2, pop.Best().Id)

	assert.Nil(t, Population{}.Best())
}

func TestPopulationBestUsesPersonalBest(t *testing.T) {
	pop := NewPopulation([]cpso.Point{
		cpso.NewPoint([]float64{0}, 1),
		cpso.NewPoint([]float64{1}, 2),
	}, nil, cpso.NewRand(1))

	pop[0].Update(cpso.NewPoint([]float64{0.5}, 10))
	pop[1].Update(cpso.NewPoint([]float64{1.5}, 5))
	assert.Equal(t, 0, pop.Best().Id)
}

func TestNewPopulationVelocities(t *testing.T) {
	points := make([]cpso.Point, 20)
	for i := range points {
		points[i] = cpso.NewPoint([]float64{0, 0}, 0)
	}

	pop := NewPopulation(points, []float64{2, 0.5}, cpso.NewRand(3))
	for _, p := range pop {
		assert.LessOrEqual(t, math.Abs(p.Vel[0]), 2.0)
		assert.LessOrEqual(t, math.Abs(p.Vel[1]), 0.5)
	}

	pop = NewPopulation(points, nil, cpso.NewRand(3))
	for _, p := range pop {
		assert.Equal(t, []float64{0, 0}, p.Vel)
	}
}

func TestRepair(t *testing.T) {
	space, err := cpso.NewSpace([]float64{0, 0, 0}, []float64{10, 10, 10})
	require.NoError(t, err)

	tests := []struct {
		name    string
		r       Repairer
		pos     []float64
		vel     []float64
		wantPos []float64
		wantVel []float64
		hits    int
	}{
		{"clamp-zero", ClampZero, []float64{-1, 5, 12}, []float64{-2, 1, 3}, []float64{0, 5, 10}, []float64{0, 1, 0}, 2},
		{"clamp", Clamp, []float64{-1, 5, 12}, []float64{-2, 1, 3}, []float64{0, 5, 10}, []float64{-2, 1, 3}, 2},
		{"reflect", Reflect, []float64{-1, 5, 12}, []float64{-2, 1, 3}, []float64{1, 5, 8}, []float64{2, 1, -3}, 2},
		{"reflect-overshoot", Reflect, []float64{-25, 10, 0}, []float64{-30, 0, 0}, []float64{10, 10, 0}, []float64{30, 0, 0}, 1},
		{"inside", ClampZero, []float64{0, 10, 3}, []float64{1, 1, 1}, []float64{0, 10, 3}, []float64{1, 1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.r.Repair(space, tt.pos, tt.vel)
			assert.Equal(t, tt.hits, n)
			assert.Equal(t, tt.wantPos, tt.pos)
			assert.Equal(t, tt.wantVel, tt.vel)
			assert.True(t, space.Contains(tt.pos))
		})
	}
}

func TestRepairPolicy(t *testing.T) {
	for name, want := range map[string]Repairer{
		"":              ClampZero,
		PolicyClampZero: ClampZero,
		PolicyClamp:     Clamp,
		PolicyReflect:   Reflect,
	} {
		r, err := RepairPolicy(name)
		require.NoError(t, err)
		// RepairFunc values are not comparable; compare behaviour instead.
		space, _ := cpso.NewSpace([]float64{0}, []float64{1})
		p1, v1 := []float64{2}, []float64{1}
		p2, v2 := []float64{2}, []float64{1}
		r.Repair(space, p1, v1)
		want.Repair(space, p2, v2)
		assert.Equal(t, p2, p1, name)
		assert.Equal(t, v2, v1, name)
	}

	_, err := RepairPolicy("bounce")
	var cerr *cpso.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestLinInertia(t *testing.T) {
	it := &Iterator{}
	LinInertia(0.9, 0.4, 100)(it)
	assert.InDelta(t, 0.9, it.InertiaFn(0), 1e-12)
	assert.InDelta(t, 0.65, it.InertiaFn(50), 1e-12)
	assert.InDelta(t, 0.4, it.InertiaFn(100), 1e-12)
	assert.InDelta(t, 0.4, it.InertiaFn(1000), 1e-12)
}

func TestVmaxOptions(t *testing.T) {
	space, err := cpso.NewSpace([]float64{-1, 0}, []float64{1, 10})
	require.NoError(t, err)

	it, err := NewIterator(space, VmaxBounds())
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 10}, it.Vmax)

	it, err = NewIterator(space, VmaxAll(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, it.Vmax)

	it, err = NewIterator(space)
	require.NoError(t, err)
	assert.Nil(t, it.Vmax)
}

func TestNewIteratorErrors(t *testing.T) {
	space, err := cpso.NewSpace([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	l, err := cpso.NewLinear(mat.NewDense(1, 3, []float64{1, 1, 1}), []float64{1})
	require.NoError(t, err)

	tests := []struct {
		name string
		opts []Option
		dims bool
	}{
		{"zero size", []Option{Size(0)}, false},
		{"negative cognition", []Option{LearnFactors(-1, 0.5)}, false},
		{"nan social", []Option{LearnFactors(0.5, math.NaN())}, false},
		{"infinite inertia", []Option{FixedInertia(math.Inf(1))}, false},
		{"zero vmax", []Option{VmaxAll(0)}, false},
		{"vmax length", []Option{Vmax([]float64{1})}, true},
		{"nil evaler", []Option{Evaler(nil)}, false},
		{"nil repair", []Option{Repair(nil)}, false},
		{"projection dims", []Option{ProjectLinear(l, 5)}, true},
		{"negative projection", []Option{ProjectLinear(nil, -1)}, false},
		{"start outside", []Option{StartFrom([][]float64{{0.5, 2}})}, false},
		{"start dims", []Option{StartFrom([][]float64{{0.5}})}, true},
		{"empty start", []Option{StartFrom([][]float64{})}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := NewIterator(space, tt.opts...)
			assert.Nil(t, it)
			if tt.dims {
				var derr *cpso.DimensionMismatchError
				assert.ErrorAs(t, err, &derr)
			} else {
				var cerr *cpso.ConfigError
				assert.ErrorAs(t, err, &cerr)
			}
		})
	}

	_, err = NewIterator(cpso.Space{})
	var berr *cpso.InvalidBoundsError
	assert.ErrorAs(t, err, &berr)
}
