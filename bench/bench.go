// Package bench provides tools for testing solvers against benchmark
// optimization functions from
// http://en.wikipedia.org/wiki/Test_functions_for_optimization.
package bench

import (
	"context"
	"fmt"
	"math"

	"github.com/rwcarlsen/cpso"
)

var (
	sin  = math.Sin
	cos  = math.Cos
	abs  = math.Abs
	exp  = math.Exp
	sqrt = math.Sqrt
)

var AllFuncs = []Func{
	Sphere{NDim: 2},
	Sphere{NDim: 10},
	Ackley{},
	CrossTray{},
	Eggholder{},
	HolderTable{},
	Schaffer2{},
	Styblinski{NDim: 1},
	Styblinski{NDim: 10},
	Styblinski{NDim: 100},
	Styblinski{NDim: 500},
	Rosenbrock{NDim: 2},
	Rosenbrock{NDim: 10},
	Rosenbrock{NDim: 100},
	Rosenbrock{NDim: 500},
	HalfLine{},
	Disk{},
	Unreachable{},
}

type Func interface {
	Eval(v []float64) float64
	Bounds() (low, up []float64)
	// Optima lists the known global minima.  It is empty for problems
	// without a feasible region.
	Optima() []cpso.Point
	Name() string
}

// Constrained is implemented by benchmark functions that carry inequality
// constraints.
type Constrained interface {
	Func
	Constraints() *cpso.Constraints
}

// Lookup returns the benchmark function with the given name.
func Lookup(name string) (Func, bool) {
	for _, fn := range AllFuncs {
		if fn.Name() == name {
			return fn, true
		}
	}
	return nil, false
}

// Names lists the names of AllFuncs in order.
func Names() []string {
	names := make([]string, len(AllFuncs))
	for i, fn := range AllFuncs {
		names[i] = fn.Name()
	}
	return names
}

// Kind is "constrained" or "unconstrained".
func Kind(fn Func) string {
	if _, ok := fn.(Constrained); ok {
		return "constrained"
	}
	return "unconstrained"
}

// Dims returns the number of dimensions of fn.
func Dims(fn Func) int {
	low, _ := fn.Bounds()
	return len(low)
}

// Problem builds the optimization problem described by fn.
func Problem(fn Func) (*cpso.Problem, error) {
	space, err := cpso.NewSpace(fn.Bounds())
	if err != nil {
		return nil, err
	}
	var cons *cpso.Constraints
	if c, ok := fn.(Constrained); ok {
		cons = c.Constraints()
	}
	return cpso.NewProblem(cpso.Func(fn.Eval), space, cons)
}

type Sphere struct {
	NDim int
}

func (fn Sphere) Name() string { return fmt.Sprintf("Sphere_%vD", fn.NDim) }

func (fn Sphere) Eval(x []float64) float64 {
	tot := 0.0
	for _, v := range x {
		tot += v * v
	}
	return tot
}

func (fn Sphere) Bounds() (low, up []float64) { return box(fn.NDim, -10, 10) }

func (fn Sphere) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint(make([]float64, fn.NDim), 0),
	}
}

type Ackley struct{}

func (fn Ackley) Name() string { return "Ackley" }

func (fn Ackley) Eval(v []float64) float64 {
	if !InsideBounds(v, fn) {
		return math.Inf(1)
	}

	x := v[0]
	y := v[1]
	return -20*math.Exp(-0.2*math.Sqrt(0.5*(x*x+y*y))) -
		math.Exp(0.5*(math.Cos(2*math.Pi*x)+math.Cos(2*math.Pi*y))) +
		20 + math.E
}

func (fn Ackley) Bounds() (low, up []float64) {
	return []float64{-5, -5}, []float64{5, 5}
}

func (fn Ackley) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint([]float64{0, 0}, 0),
	}
}

type CrossTray struct{}

func (fn CrossTray) Name() string { return "CrossTray" }

func (fn CrossTray) Eval(v []float64) float64 {
	if !InsideBounds(v, fn) {
		return math.Inf(1)
	}

	x := v[0]
	y := v[1]
	return -.0001 * math.Pow(abs(sin(x)*sin(y)*exp(abs(100-sqrt(x*x+y*y)/math.Pi)))+1, 0.1)
}

func (fn CrossTray) Bounds() (low, up []float64) {
	return []float64{-10, -10}, []float64{10, 10}
}

func (fn CrossTray) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint([]float64{1.34941, -1.34941}, -2.06261),
		cpso.NewPoint([]float64{1.34941, 1.34941}, -2.06261),
		cpso.NewPoint([]float64{-1.34941, 1.34941}, -2.06261),
		cpso.NewPoint([]float64{-1.34941, -1.34941}, -2.06261),
	}
}

type Eggholder struct{}

func (fn Eggholder) Name() string { return "Eggholder" }

func (fn Eggholder) Eval(v []float64) float64 {
	if !InsideBounds(v, fn) {
		return math.Inf(1)
	}

	x := v[0]
	y := v[1]
	return -(y+47)*sin(sqrt(abs(y+x/2+47))) - x*sin(sqrt(abs(x-(y+47))))
}

func (fn Eggholder) Bounds() (low, up []float64) {
	return []float64{-512, -512}, []float64{512, 512}
}

func (fn Eggholder) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint([]float64{512, 404.2319}, -959.6407),
	}
}

type HolderTable struct{}

func (fn HolderTable) Name() string { return "HolderTable" }

func (fn HolderTable) Eval(v []float64) float64 {
	if !InsideBounds(v, fn) {
		return math.Inf(1)
	}

	x := v[0]
	y := v[1]
	return -abs(sin(x) * cos(y) * exp(abs(1-sqrt(x*x+y*y)/math.Pi)))
}

func (fn HolderTable) Bounds() (low, up []float64) {
	return []float64{-10, -10}, []float64{10, 10}
}

func (fn HolderTable) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint([]float64{8.05502, 9.66459}, -19.2085),
		cpso.NewPoint([]float64{-8.05502, 9.66459}, -19.2085),
		cpso.NewPoint([]float64{8.05502, -9.66459}, -19.2085),
		cpso.NewPoint([]float64{-8.05502, -9.66459}, -19.2085),
	}
}

type Schaffer2 struct{}

func (fn Schaffer2) Name() string { return "Schaffer2" }

func (fn Schaffer2) Eval(v []float64) float64 {
	if !InsideBounds(v, fn) {
		return math.Inf(1)
	}

	x := v[0]
	y := v[1]
	return 0.5 + (math.Pow(sin(x*x-y*y), 2)-0.5)/math.Pow(1+.0001*(x*x+y*y), 2)
}

func (fn Schaffer2) Bounds() (low, up []float64) {
	return []float64{-100, -100}, []float64{100, 100}
}

func (fn Schaffer2) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint([]float64{0, 0}, 0),
	}
}

type Styblinski struct {
	NDim int
}

func (fn Styblinski) Name() string { return fmt.Sprintf("Styblinski_%vD", fn.NDim) }

func (fn Styblinski) Eval(x []float64) float64 {
	if !InsideBounds(x, fn) {
		return math.Inf(1)
	}

	tot := 0.0
	for _, v := range x {
		tot += math.Pow(v, 4) - 16*math.Pow(v, 2) + 5*v
	}
	return tot / 2
}

func (fn Styblinski) Bounds() (low, up []float64) { return box(fn.NDim, -5, 5) }

func (fn Styblinski) Optima() []cpso.Point {
	pos := make([]float64, fn.NDim)
	for i := range pos {
		pos[i] = -2.903534
	}
	return []cpso.Point{
		cpso.NewPoint(pos, -39.16599*float64(fn.NDim)),
	}
}

type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Eval(x []float64) float64 {
	if !InsideBounds(x, fn) {
		return math.Inf(1)
	}

	tot := 0.0
	for i := 0; i < fn.NDim-1; i++ {
		tot += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(x[i]-1, 2)
	}
	return tot
}

func (fn Rosenbrock) Bounds() (low, up []float64) { return box(fn.NDim, -1000, 1000) }

func (fn Rosenbrock) Optima() []cpso.Point {
	pos := make([]float64, fn.NDim)
	for i := range pos {
		pos[i] = 1
	}
	return []cpso.Point{
		cpso.NewPoint(pos, 0),
	}
}

// HalfLine minimizes f(x) = x on [0, 10] subject to x - 5 >= 0.  The
// constraint is active at the optimum.
type HalfLine struct{}

func (fn HalfLine) Name() string { return "HalfLine" }

func (fn HalfLine) Eval(v []float64) float64 { return v[0] }

func (fn HalfLine) Bounds() (low, up []float64) { return []float64{0}, []float64{10} }

func (fn HalfLine) Constraints() *cpso.Constraints {
	return cpso.NewConstraints(cpso.ConstraintFunc(func(v []float64) float64 { return v[0] - 5 }))
}

func (fn HalfLine) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint([]float64{5}, 5),
	}
}

// Disk minimizes x + y over the unit disk inside [-2, 2]x[-2, 2].
type Disk struct{}

func (fn Disk) Name() string { return "Disk" }

func (fn Disk) Eval(v []float64) float64 { return v[0] + v[1] }

func (fn Disk) Bounds() (low, up []float64) { return box(2, -2, 2) }

func (fn Disk) Constraints() *cpso.Constraints {
	return &cpso.Constraints{
		List: []cpso.Constrainer{cpso.ConstraintFunc(func(v []float64) float64 {
			return 1 - v[0]*v[0] - v[1]*v[1]
		})},
		Tol: 1e-9,
	}
}

func (fn Disk) Optima() []cpso.Point {
	return []cpso.Point{
		cpso.NewPoint([]float64{-math.Sqrt2 / 2, -math.Sqrt2 / 2}, -math.Sqrt2),
	}
}

// Unreachable minimizes f(x) = x on [0, 10] subject to x - 100 >= 0, which
// no position in bounds satisfies.
type Unreachable struct{}

func (fn Unreachable) Name() string { return "Unreachable" }

func (fn Unreachable) Eval(v []float64) float64 { return v[0] }

func (fn Unreachable) Bounds() (low, up []float64) { return []float64{0}, []float64{10} }

func (fn Unreachable) Constraints() *cpso.Constraints {
	return cpso.NewConstraints(cpso.ConstraintFunc(func(v []float64) float64 { return v[0] - 100 }))
}

func (fn Unreachable) Optima() []cpso.Point { return nil }

// Solved reports whether p is feasible and within the relative tolerance
// tol (but at least 0.001 absolute) of fn's optimum value.
func Solved(fn Func, p cpso.Point, tol float64) bool {
	optima := fn.Optima()
	if len(optima) == 0 || !p.Feasible {
		return false
	}
	optimum := optima[0].Val
	thresh := tol * abs(optimum)
	if 0.001 > thresh {
		thresh = 0.001
	}
	return abs(optimum-p.Val) < thresh
}

// Benchmark runs it on fn until the best point is Solved or maxeval
// objective evaluations (or generations) have been spent.
func Benchmark(ctx context.Context, it cpso.Iterator, fn Func, tol float64, maxeval int) (res *cpso.Result, solved bool, err error) {
	prob, err := Problem(fn)
	if err != nil {
		return nil, false, err
	}

	s := cpso.NewSolver(it, prob)
	// a cached evaler may report zero evaluations for a generation
	s.MaxIter = maxeval
	s.MaxEvals = maxeval
	s.StallLimit = 0

	for s.Next(ctx) {
		if Solved(fn, s.Best(), tol) {
			break
		}
	}
	if !s.Started() {
		return nil, false, s.Err()
	}
	return s.Result(), Solved(fn, s.Best(), tol), s.Err()
}

func InsideBounds(p []float64, fn Func) bool {
	low, up := fn.Bounds()
	for i := range p {
		if p[i] < low[i] || p[i] > up[i] {
			return false
		}
	}
	return true
}

func box(ndim int, lo, up float64) (low, upper []float64) {
	low = make([]float64, ndim)
	upper = make([]float64, ndim)
	for i := range low {
		low[i] = lo
		upper[i] = up
	}
	return low, upper
}
