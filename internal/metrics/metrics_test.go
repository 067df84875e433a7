package metrics

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unfold-core/unfold"
)

func TestObserverCountsIterations(t *testing.T) {
	m := New()
	obs := m.Observer("run-a", "ks")
	obs.OnIterationComplete(unfold.IterationState{Iteration: 1, TS: 0.4})
	obs.OnIterationComplete(unfold.IterationState{Iteration: 2, TS: 0.005})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Iterations.WithLabelValues("ks")))
	assert.Equal(t, 0.005, testutil.ToFloat64(m.TestStatistic.WithLabelValues("run-a")))
}

func TestObserverIgnoresInfiniteStatistic(t *testing.T) {
	m := New()
	m.Observer("r", "chi2").OnIterationComplete(unfold.IterationState{TS: math.Inf(1)})
	assert.Equal(t, 0, testutil.CollectAndCount(m.TestStatistic))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Iterations.WithLabelValues("chi2")))
}

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(&unfold.Result{State: unfold.StateConverged, Iterations: 4}, 20*time.Millisecond)
	m.ObserveRun(&unfold.Result{State: unfold.StateMaxIterReached, Iterations: 100}, time.Second)
	m.ObserveRun(nil, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("CONVERGED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("MAX_ITER_REACHED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("FAILED")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.Runs))
}

func TestWriteText(t *testing.T) {
	m := New()
	m.ObserveRun(&unfold.Result{State: unfold.StateConverged, Iterations: 2}, time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "# TYPE unfold_runs_total counter")
	assert.Contains(t, out, `unfold_runs_total{state="CONVERGED"} 1`)
	assert.Contains(t, out, "unfold_run_iterations_count 1")

	expected := `
# HELP unfold_runs_total Finished unfolding runs by terminal state
# TYPE unfold_runs_total counter
unfold_runs_total{state="CONVERGED"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "unfold_runs_total"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun(nil, time.Second)
	m.Observer("x", "ks").OnIterationComplete(unfold.IterationState{TS: 1})
}
