package cpso

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwcarlsen/cpso/internal/logging"
)

func TestProblemEvaluate(t *testing.T) {
	errBad := errors.New("bad")
	cons := NewConstraints(ConstraintFunc(func(v []float64) float64 { return v[0] }))

	tests := []struct {
		name     string
		obj      Objectiver
		x        float64
		val      float64
		feasible bool
		viol     float64
		stage    string
		is       error
	}{
		{"feasible", Func(func(v []float64) float64 { return 2 * v[0] }), 1, 2, true, 0, "", nil},
		{"infeasible", Func(func(v []float64) float64 { return 2 * v[0] }), -1, -2, false, 1, "", nil},
		{"error", ErrFunc(func(v []float64) (float64, error) { return 1, errBad }), 1, math.Inf(1), false, math.Inf(1), "objective", errBad},
		{"nan", Func(func(v []float64) float64 { return math.NaN() }), 1, math.Inf(1), false, math.Inf(1), "objective", ErrNaN},
		{"panic", Func(func(v []float64) float64 { panic("x") }), 1, math.Inf(1), false, math.Inf(1), "objective", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prob := testProblem(t, tt.obj, cons)
			p := prob.Evaluate([]float64{tt.x, 0})
			assert.Equal(t, tt.val, p.Val)
			assert.Equal(t, tt.feasible, p.Feasible)
			assert.Equal(t, tt.viol, p.Violation)
			assert.Equal(t, []float64{tt.x, 0}, p.Pos())
			if tt.stage == "" {
				assert.NoError(t, p.Err)
				return
			}

			var eerr *EvalError
			require.ErrorAs(t, p.Err, &eerr)
			assert.Equal(t, tt.stage, eerr.Stage)
			if tt.is != nil {
				assert.ErrorIs(t, p.Err, tt.is)
			}
		})
	}
}

func TestProblemEvaluateConstraintFailure(t *testing.T) {
	cons := NewConstraints(ConstraintFunc(func(v []float64) float64 { return math.NaN() }))
	prob := testProblem(t, Func(func(v []float64) float64 { return 3 }), cons)

	p := prob.Evaluate([]float64{0, 0})
	assert.Equal(t, 3.0, p.Val)
	assert.False(t, p.Feasible)
	assert.True(t, math.IsInf(p.Violation, 1))

	var eerr *EvalError
	require.ErrorAs(t, p.Err, &eerr)
	assert.Equal(t, "constraint", eerr.Stage)
	assert.ErrorIs(t, p.Err, ErrNaN)
}

func TestPayload(t *testing.T) {
	type model struct{ coef float64 }
	obj := PayloadFunc(func(v []float64) (float64, any, error) {
		return v[0], model{coef: v[0] * 2}, nil
	})

	prob := testProblem(t, obj, nil)
	p := prob.Evaluate([]float64{1.5, 0})
	assert.Equal(t, model{coef: 3}, p.Payload)

	val, err := obj.Objective([]float64{4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, val)
}

func TestBindArgs(t *testing.T) {
	obj := BindArgs(func(v []float64, args ...any) (float64, error) {
		return v[0] * args[0].(float64), nil
	}, 3.0)
	val, err := obj.Objective([]float64{2})
	require.NoError(t, err)
	assert.Equal(t, 6.0, val)
}

type dimObj struct{ n int }

func (o dimObj) Dims() int { return o.n }

func (o dimObj) Objective(v []float64) (float64, error) { return 0, nil }

func TestNewProblemErrors(t *testing.T) {
	space, err := NewSpace([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)

	_, err = NewProblem(dimObj{3}, space, nil)
	var derr *DimensionMismatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 2, derr.Want)
	assert.Equal(t, 3, derr.Got)

	_, err = NewProblem(nil, space, nil)
	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)

	_, err = NewProblem(dimObj{2}, Space{}, nil)
	var berr *InvalidBoundsError
	assert.ErrorAs(t, err, &berr)
}

func TestObjectiveLogger(t *testing.T) {
	var buf bytes.Buffer
	ol := NewObjectiveLogger(PayloadFunc(func(v []float64) (float64, any, error) {
		return v[0] + 1, "payload", nil
	}), logging.NewLogger(logging.TRACE, &buf))

	prob := testProblem(t, ol, nil)
	p := prob.Evaluate([]float64{1, 2})
	assert.Equal(t, 2.0, p.Val)
	assert.Equal(t, "payload", p.Payload)

	_, err := ol.Objective([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, ol.Count())
	assert.Contains(t, buf.String(), "objective evaluated")
}
