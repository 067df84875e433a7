package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"unfold-core/unfold"

	"unfold/pkg/api"
)

func TestFormats_Stable(t *testing.T) {
	assert.Equal(t, "text", FormatText)
	assert.Equal(t, "json", FormatJSON)
	assert.Equal(t, "jsonl", FormatJSONL)
}

func sampleRun() Run {
	stat := mat.NewSymDense(2, []float64{50, 0, 0, 50})
	sys := mat.NewSymDense(2, []float64{25, 0, 0, 25})
	first := unfold.IterationState{Iteration: 0, Unfolded: []float64{50, 50}, TS: math.Inf(1)}
	last := unfold.IterationState{Iteration: 1, Unfolded: []float64{50, 50}, StatCov: stat, SysCov: sys, TS: 0, Converged: true}
	return Run{
		RunID: "r-1",
		Name:  "perfect",
		Prior: "uniform",
		Result: &unfold.Result{
			Unfolded:   []float64{50, 50},
			StatErr:    []float64{math.Sqrt(50), math.Sqrt(50)},
			SysErr:     []float64{5, 5},
			TotalErr:   []float64{math.Sqrt(75), math.Sqrt(75)},
			StatCov:    stat,
			SysCov:     sys,
			Iterations: 1,
			Converged:  true,
			State:      unfold.StateConverged,
			TSName:     "ks",
			TS:         0,
			TSStopping: 0.01,
			Prior:      []float64{0.5, 0.5},
			Last:       last,
			History:    []unfold.IterationState{first, last},
		},
	}
}

func TestToAPIResult(t *testing.T) {
	v := ToAPIResult(sampleRun(), Options{})
	assert.Equal(t, api.KindResult, v.Kind)
	assert.Equal(t, "CONVERGED", v.State)
	assert.Equal(t, 1, v.Iterations)
	require.NotNil(t, v.TSValue)
	assert.Equal(t, 0.0, *v.TSValue)
	assert.Equal(t, []float64{5, 5}, v.SysErr)
	assert.Equal(t, []float64{0.5, 0.5}, v.PriorVec)
	assert.Nil(t, v.StatCov)
	assert.Nil(t, v.History)
	assert.Empty(t, v.Warning)
	assert.Empty(t, v.Error)

	v = ToAPIResult(sampleRun(), Options{Cov: true, History: true})
	assert.Equal(t, [][]float64{{50, 0}, {0, 50}}, v.StatCov)
	require.Len(t, v.History, 2)
	assert.Nil(t, v.History[0].TS)
	assert.Nil(t, v.History[0].StatErr)
	assert.InDeltaSlice(t, []float64{math.Sqrt(50), math.Sqrt(50)}, v.History[1].StatErr, 1e-12)
}

func TestToAPIResultWarningAndFailure(t *testing.T) {
	r := sampleRun()
	r.Result.State = unfold.StateMaxIterReached
	r.Result.Converged = false
	r.Result.TS = 0.2
	assert.Contains(t, ToAPIResult(r, Options{}).Warning, "0.2")

	v := ToAPIResult(Run{Name: "bad", Err: errors.New("invalid input: data: empty")}, Options{})
	assert.Equal(t, "FAILED", v.State)
	assert.Equal(t, "invalid input: data: empty", v.Error)
	assert.Nil(t, v.TSValue)
	assert.Nil(t, v.Unfolded)
}

func TestWriteJSONEncodesInfinityAsNull(t *testing.T) {
	r := sampleRun()
	r.Result.TS = math.Inf(1)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []Run{r}, Options{History: true}))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Nil(t, got[0]["ts_value"])
	assert.Equal(t, "perfect", got[0]["name"])
	assert.Equal(t, float64(1), got[0]["num_iterations"])
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, []Run{sampleRun(), {Name: "rejected"}}, Options{Header: true}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, TSVHeader, lines[0])
	assert.Equal(t, "perfect\tuniform\tCONVERGED\t1\tks\t0\t0\t50\t7.07107\t5\t8.66025", lines[1])
}

func TestWriteTextHistoryAndCov(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, []Run{sampleRun()}, Options{Header: false, History: true, Cov: true}))
	out := buf.String()
	assert.NotContains(t, out, "name\t")
	assert.Contains(t, out, "perfect\tuniform\t0\tNA\tfalse\t0\t50\tNA\tNA\n")
	assert.Contains(t, out, "perfect\tuniform\t1\t0\ttrue\t1\t50\t7.07107\t5\n")
	assert.Contains(t, out, "# stat_cov perfect\n#\t50\t0\n#\t0\t50\n")
	assert.Contains(t, out, "# sys_cov perfect\n")
}
