package cpso

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func infeasiblePoint(val, viol float64) Point {
	p := NewPoint([]float64{0}, val)
	p.Feasible = false
	p.Violation = viol
	return p
}

func TestBetter(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"lower value", NewPoint(nil, 1), NewPoint(nil, 2), true},
		{"higher value", NewPoint(nil, 2), NewPoint(nil, 1), false},
		{"equal", NewPoint(nil, 1), NewPoint(nil, 1), false},
		{"feasible beats infeasible", NewPoint(nil, 100), infeasiblePoint(-100, 0.1), true},
		{"infeasible loses", infeasiblePoint(-100, 0.1), NewPoint(nil, 100), false},
		{"lower violation", infeasiblePoint(5, 1), infeasiblePoint(1, 2), true},
		{"violation tie", infeasiblePoint(1, 2), infeasiblePoint(5, 2), true},
		{"full tie", infeasiblePoint(1, 2), infeasiblePoint(1, 2), false},
		{"evaluated beats unevaluated", infeasiblePoint(1e300, 1e300), Unevaluated(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Better(tt.a, tt.b))
		})
	}
}

func TestPointImmutable(t *testing.T) {
	pos := []float64{1, 2}
	p := NewPoint(pos, 0)
	pos[0] = 99
	assert.Equal(t, 1.0, p.At(0))

	p.Pos()[1] = 99
	assert.Equal(t, 2.0, p.At(1))

	v := p.Vec()
	v.SetVec(0, 42)
	assert.Equal(t, 1.0, p.At(0))
	assert.Equal(t, 2, p.Len())
}

func TestUnevaluated(t *testing.T) {
	p := Unevaluated([]float64{3})
	assert.False(t, p.Feasible)
	assert.True(t, math.IsInf(p.Val, 1))
	assert.True(t, math.IsInf(p.Violation, 1))
	assert.False(t, p.Failed())
}

func TestHashPoint(t *testing.T) {
	a := NewPoint([]float64{1, 2}, 0)
	b := NewPoint([]float64{1, 2}, 5)
	c := NewPoint([]float64{2, 1}, 0)
	assert.Equal(t, hashPoint(a), hashPoint(b))
	assert.NotEqual(t, hashPoint(a), hashPoint(c))
}
