package metrics

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rwcarlsen/cpso"
	"github.com/rwcarlsen/cpso/swarm"
)

var _ = Describe("Collector", func() {
	var (
		reg *prometheus.Registry
		c   *Collector
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
		var err error
		c, err = New(reg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("refuses to register twice", func() {
		_, err := New(reg)
		Expect(err).To(HaveOccurred())
	})

	It("tracks a single generation", func() {
		failed := cpso.Unevaluated([]float64{1})
		failed.Err = errors.New("nope")
		best := cpso.NewPoint([]float64{0}, 2)

		Expect(c.Observe(cpso.IterationRecord{
			Best:      best,
			Evals:     4,
			Feasible:  3,
			Failed:    1,
			BoundHits: 2,
			Spread:    0.25,
			Points:    []cpso.Point{best, best, best, failed},
		})).To(Succeed())

		Expect(testutil.ToFloat64(c.Generations)).To(Equal(1.0))
		Expect(testutil.ToFloat64(c.Evaluations)).To(Equal(4.0))
		Expect(testutil.ToFloat64(c.FailedEvaluations)).To(Equal(1.0))
		Expect(testutil.ToFloat64(c.BoundHits)).To(Equal(2.0))
		Expect(testutil.ToFloat64(c.BestValue)).To(Equal(2.0))
		Expect(testutil.ToFloat64(c.BestFeasible)).To(Equal(1.0))
		Expect(testutil.ToFloat64(c.FeasibleFraction)).To(Equal(0.75))
		Expect(testutil.ToFloat64(c.Spread)).To(Equal(0.25))
	})

	It("reports an infeasible best", func() {
		best := cpso.NewPoint([]float64{10}, 10)
		best.Feasible = false
		best.Violation = math.Inf(1)
		Expect(c.Observe(cpso.IterationRecord{Best: best, Points: []cpso.Point{best}})).To(Succeed())

		Expect(testutil.ToFloat64(c.BestFeasible)).To(Equal(0.0))
		Expect(math.IsInf(testutil.ToFloat64(c.BestViolation), 1)).To(BeTrue())
		Expect(testutil.ToFloat64(c.FeasibleFraction)).To(Equal(0.0))
	})

	Context("observing a swarm run", func() {
		var res *cpso.Result

		BeforeEach(func() {
			space, err := cpso.NewSpace([]float64{-2, -2}, []float64{2, 2})
			Expect(err).NotTo(HaveOccurred())
			prob, err := cpso.NewProblem(cpso.Func(func(v []float64) float64 { return v[0]*v[0] + v[1]*v[1] }), space, nil)
			Expect(err).NotTo(HaveOccurred())
			it, err := swarm.NewIterator(space, swarm.Size(8), swarm.Seed(3))
			Expect(err).NotTo(HaveOccurred())

			s := cpso.NewSolver(it, prob)
			s.MaxIter = 10
			s.StallLimit = 0
			s.Observers = []cpso.Observer{c}
			res, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			c.Finish(res)
		})

		It("counts generations and evaluations", func() {
			Expect(testutil.ToFloat64(c.Generations)).To(Equal(11.0))
			Expect(testutil.ToFloat64(c.Evaluations)).To(Equal(float64(res.Evals)))
			Expect(testutil.ToFloat64(c.BestValue)).To(Equal(res.Value))
		})

		It("counts the run under its reason", func() {
			Expect(testutil.ToFloat64(c.Runs.WithLabelValues("max-iterations"))).To(Equal(1.0))
			Expect(testutil.CollectAndCount(c.Runs)).To(Equal(1))
		})

		It("writes a textfile", func() {
			path := filepath.Join(GinkgoT().TempDir(), "cpso.prom")
			Expect(WriteTextfile(path, reg)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("cpso_swarm_generations_total 11"))
			Expect(string(data)).To(ContainSubstring(`cpso_swarm_runs_total{reason="max-iterations"} 1`))
		})
	})
})
