// internal/output/json.go
package output

import (
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"unfold-core/unfold"

	"unfold/internal/jsonutil"
	"unfold/pkg/api"
)

// ToAPIResult converts a finished run to the stable wire schema (v1).
func ToAPIResult(r Run, o Options) api.ResultV1 {
	v := api.ResultV1{
		Kind:  api.KindResult,
		RunID: r.RunID,
		Name:  r.Name,
		Prior: r.Prior,
		State: unfold.StateFailed.String(),
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	res := r.Result
	if res == nil {
		return v
	}
	v.State = res.State.String()
	v.Converged = res.Converged
	v.Iterations = res.Iterations
	v.TS = res.TSName
	v.TSValue = jsonutil.Finite(res.TS)
	v.TSStopping = res.TSStopping
	v.Unfolded = clone(res.Unfolded)
	v.StatErr = clone(res.StatErr)
	v.SysErr = clone(res.SysErr)
	v.TotalErr = clone(res.TotalErr)
	v.PriorVec = clone(res.Prior)
	if w := res.Warning(); w != nil {
		v.Warning = w.Error()
	}
	if o.Cov {
		v.StatCov = rows(res.StatCov)
		v.SysCov = rows(res.SysCov)
	}
	if o.History {
		for _, s := range res.History {
			v.History = append(v.History, ToAPIIteration(Iteration{RunID: r.RunID, Name: r.Name, State: s}))
		}
	}
	return v
}

// ToAPIIteration converts one iteration state to the wire schema (v1).
func ToAPIIteration(it Iteration) api.IterationV1 {
	v := api.IterationV1{
		Kind:      api.KindIteration,
		RunID:     it.RunID,
		Name:      it.Name,
		Iteration: it.State.Iteration,
		TS:        jsonutil.Finite(it.State.TS),
		Converged: it.State.Converged,
		Unfolded:  clone(it.State.Unfolded),
	}
	if it.State.StatCov != nil {
		v.StatErr = sqrtDiag(it.State.StatCov)
		v.SysErr = sqrtDiag(it.State.SysCov)
	}
	return v
}

// WriteJSON writes all runs as one indented JSON array.
func WriteJSON(w io.Writer, runs []Run, o Options) error {
	out := make([]api.ResultV1, 0, len(runs))
	for _, r := range runs {
		out = append(out, ToAPIResult(r, o))
	}
	return jsonutil.EncodePretty(w, out)
}

func rows(s *mat.SymDense) [][]float64 {
	if s == nil {
		return nil
	}
	n := s.SymmetricDim()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = s.At(i, j)
		}
	}
	return out
}

func sqrtDiag(s *mat.SymDense) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, s.SymmetricDim())
	for i := range out {
		out[i] = math.Sqrt(math.Max(s.At(i, i), 0))
	}
	return out
}

// clone copies v, keeping nil as nil.
func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
