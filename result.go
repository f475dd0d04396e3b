package cpso

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Result is the outcome of a search.
type Result struct {
	Position []float64
	Value    float64
	// Feasible is false when no evaluated position satisfied every
	// constraint; Position is then the least infeasible one found.
	Feasible  bool
	Violation float64
	// Payload is the side value the objective returned when it evaluated
	// Position, carried through unexamined.
	Payload    any
	Reason     Reason
	Iterations int
	Evals      int
	Seed       uint64
	// History holds one record per generation (without per-particle
	// points) when Settings.Verbose is set.
	History []IterationRecord
	// Archive holds the best distinct positions seen, best first, when
	// Settings.ArchiveSize is positive.
	Archive []Point
}

// Err returns ErrNoFeasibleSolution if the best point found violates the
// constraints.
func (r *Result) Err() error {
	if !r.Feasible {
		return ErrNoFeasibleSolution
	}
	return nil
}

// Report writes a human readable summary of r to w.
func (r *Result) Report(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("termination: %v after %d iterations (%d evaluations)\n", r.Reason, r.Iterations, r.Evals)
	if !r.Feasible {
		ew.printf("warning:     no feasible point found - reporting the least infeasible one\n")
	}
	ew.printf("feasible:    %v\n", r.Feasible)
	ew.printf("value:       %g\n", r.Value)
	ew.printf("position:    %v\n", r.Position)
	if r.Violation != 0 {
		ew.printf("violation:   %g\n", r.Violation)
	}
	if r.Payload != nil {
		ew.printf("payload:     %v\n", r.Payload)
	}
	ew.printf("seed:        %d\n", r.Seed)

	if len(r.History) > 0 {
		ew.printf("history:\n")
		for _, rec := range r.History {
			ew.printf("    iter %4d  best %-14g feasible %v  nfeasible %d  nfailed %d\n",
				rec.Iter, rec.Best.Val, rec.Best.Feasible, rec.Feasible, rec.Failed)
		}
	}
	if len(r.Archive) > 0 {
		ew.printf("archive:\n")
		for i, p := range r.Archive {
			ew.printf("    %2d  %-14g feasible %v  %v\n", i, p.Val, p.Feasible, p.Pos())
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// ResultView is the serializable form of a Result.  Non-finite numbers are
// rendered as the strings "+Inf", "-Inf" and "NaN".
type ResultView struct {
	Position   []float64    `json:"position" yaml:"position"`
	Value      any          `json:"value" yaml:"value"`
	Feasible   bool         `json:"feasible" yaml:"feasible"`
	Violation  any          `json:"violation" yaml:"violation"`
	Payload    any          `json:"payload,omitempty" yaml:"payload,omitempty"`
	Reason     string       `json:"reason" yaml:"reason"`
	Iterations int          `json:"iterations" yaml:"iterations"`
	Evals      int          `json:"evals" yaml:"evals"`
	Seed       uint64       `json:"seed" yaml:"seed"`
	History    []RecordView `json:"history,omitempty" yaml:"history,omitempty"`
	Archive    []PointView  `json:"archive,omitempty" yaml:"archive,omitempty"`
}

type RecordView struct {
	Iter      int  `json:"iter" yaml:"iter"`
	Best      any  `json:"best" yaml:"best"`
	Feasible  bool `json:"feasible" yaml:"feasible"`
	NFeasible int  `json:"nfeasible" yaml:"nfeasible"`
	NFailed   int  `json:"nfailed" yaml:"nfailed"`
	Evals     int  `json:"evals" yaml:"evals"`
}

type PointView struct {
	Position  []float64 `json:"position" yaml:"position"`
	Value     any       `json:"value" yaml:"value"`
	Feasible  bool      `json:"feasible" yaml:"feasible"`
	Violation any       `json:"violation" yaml:"violation"`
}

func (r *Result) View() ResultView {
	v := ResultView{
		Position:   r.Position,
		Value:      finite(r.Value),
		Feasible:   r.Feasible,
		Violation:  finite(r.Violation),
		Payload:    r.Payload,
		Reason:     r.Reason.String(),
		Iterations: r.Iterations,
		Evals:      r.Evals,
		Seed:       r.Seed,
	}
	for _, rec := range r.History {
		v.History = append(v.History, RecordView{
			Iter:      rec.Iter,
			Best:      finite(rec.Best.Val),
			Feasible:  rec.Best.Feasible,
			NFeasible: rec.Feasible,
			NFailed:   rec.Failed,
			Evals:     rec.TotalEvals,
		})
	}
	for _, p := range r.Archive {
		v.Archive = append(v.Archive, PointView{
			Position:  p.Pos(),
			Value:     finite(p.Val),
			Feasible:  p.Feasible,
			Violation: finite(p.Violation),
		})
	}
	return v
}

func (r *Result) MarshalJSON() ([]byte, error) { return json.Marshal(r.View()) }

func (r *Result) MarshalYAML() (any, error) { return r.View(), nil }

func finite(v float64) any {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return v
}
