package cpso

import (
	"crypto/sha1"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

type Evaler interface {
	// Eval evaluates each point's position against prob and returns the
	// evaluated points in the same order along with the number of
	// objective evaluations n actually performed.  Failed evaluations are
	// reported through each result's Err field, never by aborting the
	// batch.
	Eval(prob *Problem, points ...Point) (results []Point, n int)
}

// SerialEvaler evaluates points one after another on the calling goroutine.
type SerialEvaler struct{}

func (ev SerialEvaler) Eval(prob *Problem, points ...Point) (results []Point, n int) {
	results = make([]Point, 0, len(points))
	for _, p := range points {
		results = append(results, prob.Evaluate(p.pos))
	}
	return results, len(results)
}

// ParallelEvaler evaluates points concurrently on at most Workers
// goroutines (GOMAXPROCS if Workers <= 0).  The objective and constraints
// must be safe for concurrent use.  Eval returns only once every point has
// been evaluated, and results are positioned by input index, so the outcome
// does not depend on scheduling.
type ParallelEvaler struct {
	Workers int
}

func (ev ParallelEvaler) Eval(prob *Problem, points ...Point) (results []Point, n int) {
	workers := ev.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results = make([]Point, len(points))
	p := pool.New().WithMaxGoroutines(workers)
	for i, pt := range points {
		p.Go(func() {
			results[i] = prob.Evaluate(pt.pos)
		})
	}
	p.Wait()
	return results, len(points)
}

// CacheEvaler memoizes successful evaluations by exact position.  Positions
// repeated within a single batch are evaluated once.  A CacheEvaler must
// only be used with a single problem and is not safe for concurrent calls
// to Eval (the wrapped Evaler may still be parallel).
type CacheEvaler struct {
	ev    Evaler
	cache map[[sha1.Size]byte]Point
	// Hits counts positions served without calling the wrapped Evaler.
	Hits int
}

func NewCacheEvaler(ev Evaler) *CacheEvaler {
	if ev == nil {
		ev = SerialEvaler{}
	}
	return &CacheEvaler{
		ev:    ev,
		cache: map[[sha1.Size]byte]Point{},
	}
}

func (ev *CacheEvaler) Eval(prob *Problem, points ...Point) (results []Point, n int) {
	results = make([]Point, len(points))

	var (
		newp    []Point
		newkeys [][sha1.Size]byte
	)
	pending := map[[sha1.Size]byte][]int{}
	for i, p := range points {
		key := hashPoint(p)
		if cached, ok := ev.cache[key]; ok {
			results[i] = cached
			ev.Hits++
		} else if idx, ok := pending[key]; ok {
			pending[key] = append(idx, i)
			ev.Hits++
		} else {
			pending[key] = []int{i}
			newp = append(newp, p)
			newkeys = append(newkeys, key)
		}
	}

	fresh, n := ev.ev.Eval(prob, newp...)
	for j, p := range fresh {
		key := newkeys[j]
		// failures may be transient - don't remember them
		if !p.Failed() {
			ev.cache[key] = p
		}
		for _, i := range pending[key] {
			results[i] = p
		}
	}
	return results, n
}
