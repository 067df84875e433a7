package metrics

import (
	"io"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"unfold-core/unfold"
)

// Metrics records unfolding progress into a private registry.
type Metrics struct {
	reg *prometheus.Registry

	// Completed iterations by test statistic
	Iterations *prometheus.CounterVec

	// Latest test statistic value by run name
	TestStatistic *prometheus.GaugeVec

	// Finished runs by terminal state
	Runs *prometheus.CounterVec

	RunIterations prometheus.Histogram
	RunDuration   prometheus.Histogram
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Iterations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "unfold_iterations_total",
			Help: "Completed unfolding iterations by test statistic",
		}, []string{"ts"}),

		TestStatistic: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "unfold_test_statistic",
			Help: "Test statistic of the latest completed iteration",
		}, []string{"name"}),

		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "unfold_runs_total",
			Help: "Finished unfolding runs by terminal state",
		}, []string{"state"}),

		RunIterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "unfold_run_iterations",
			Help:    "Iterations performed per run",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100, 200, 500},
		}),

		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "unfold_run_duration_seconds",
			Help:    "Wall time of one unfolding run",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observer returns an unfold.Observer that feeds the per-iteration metrics
// for the run called name.
func (m *Metrics) Observer(name, tsName string) unfold.Observer {
	return unfold.ObserverFunc(func(s unfold.IterationState) {
		if m == nil {
			return
		}
		m.Iterations.WithLabelValues(tsName).Inc()
		if !math.IsInf(s.TS, 0) && !math.IsNaN(s.TS) {
			m.TestStatistic.WithLabelValues(name).Set(s.TS)
		}
	})
}

// ObserveRun records a finished run. res may be nil when the run was
// rejected before iterating.
func (m *Metrics) ObserveRun(res *unfold.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	state := unfold.StateFailed
	iterations := 0
	if res != nil {
		state, iterations = res.State, res.Iterations
	}
	m.Runs.WithLabelValues(state.String()).Inc()
	m.RunIterations.Observe(float64(iterations))
	m.RunDuration.Observe(elapsed.Seconds())
}

// WriteText writes every gathered family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
