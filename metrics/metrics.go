// Package metrics exports the progress of swarm runs as Prometheus
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rwcarlsen/cpso"
)

const (
	namespace = "cpso"
	subsystem = "swarm"
)

// Collector updates its metrics from the IterationRecords of a run.  It
// implements cpso.Observer.
type Collector struct {
	Generations       prometheus.Counter
	Evaluations       prometheus.Counter
	FailedEvaluations prometheus.Counter
	BoundHits         prometheus.Counter
	BestValue         prometheus.Gauge
	BestViolation     prometheus.Gauge
	BestFeasible      prometheus.Gauge
	FeasibleFraction  prometheus.Gauge
	Spread            prometheus.Gauge
	Runs              *prometheus.CounterVec
}

// New creates the collector's metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
	}

	c := &Collector{
		Generations:       prometheus.NewCounter(prometheus.CounterOpts(opts("generations_total", "Generations completed, including the initial population."))),
		Evaluations:       prometheus.NewCounter(prometheus.CounterOpts(opts("evaluations_total", "Objective evaluations performed."))),
		FailedEvaluations: prometheus.NewCounter(prometheus.CounterOpts(opts("failed_evaluations_total", "Evaluations that returned an error, NaN or panicked."))),
		BoundHits:         prometheus.NewCounter(prometheus.CounterOpts(opts("bound_hits_total", "Coordinates pulled back inside the search space."))),
		BestValue:         prometheus.NewGauge(prometheus.GaugeOpts(opts("best_value", "Objective value of the global best."))),
		BestViolation:     prometheus.NewGauge(prometheus.GaugeOpts(opts("best_violation", "Constraint violation of the global best."))),
		BestFeasible:      prometheus.NewGauge(prometheus.GaugeOpts(opts("best_feasible", "1 if the global best satisfies every constraint."))),
		FeasibleFraction:  prometheus.NewGauge(prometheus.GaugeOpts(opts("feasible_fraction", "Fraction of the last generation's positions that were feasible."))),
		Spread:            prometheus.NewGauge(prometheus.GaugeOpts(opts("spread", "Mean distance of the last generation's positions from the global best."))),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts(opts("runs_total", "Finished runs by termination reason.")),
			[]string{"reason"}),
	}

	for _, m := range []prometheus.Collector{
		c.Generations, c.Evaluations, c.FailedEvaluations, c.BoundHits,
		c.BestValue, c.BestViolation, c.BestFeasible, c.FeasibleFraction, c.Spread, c.Runs,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Observe(rec cpso.IterationRecord) error {
	c.Generations.Inc()
	c.Evaluations.Add(float64(rec.Evals))
	c.FailedEvaluations.Add(float64(rec.Failed))
	c.BoundHits.Add(float64(rec.BoundHits))

	c.BestValue.Set(rec.Best.Val)
	c.BestViolation.Set(rec.Best.Violation)
	c.BestFeasible.Set(boolf(rec.Best.Feasible))
	if n := len(rec.Points); n > 0 {
		c.FeasibleFraction.Set(float64(rec.Feasible) / float64(n))
	}
	c.Spread.Set(rec.Spread)
	return nil
}

// Finish counts a finished run under its termination reason.
func (c *Collector) Finish(res *cpso.Result) {
	c.Runs.WithLabelValues(res.Reason.String()).Inc()
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format (for the node exporter's textfile collector).
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
