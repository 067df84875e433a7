package unfold

import (
	"gonum.org/v1/gonum/mat"

	"unfold-core/errs"
)

// State is the engine's lifecycle position.
type State int

const (
	StateInitialized State = iota
	StateIterating
	StateConverged
	StateMaxIterReached
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "INITIALIZED"
	case StateIterating:
		return "ITERATING"
	case StateConverged:
		return "CONVERGED"
	case StateMaxIterReached:
		return "MAX_ITER_REACHED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further iterations follow s.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateMaxIterReached || s == StateFailed
}

// IterationState is a snapshot taken at an iteration boundary. Snapshots
// handed to observers and kept in history are copies.
type IterationState struct {
	Iteration int
	Unfolded  []float64
	StatCov   *mat.SymDense // nil at iteration 0
	SysCov    *mat.SymDense
	TS        float64 // +Inf at iteration 0
	Converged bool
}

func (s IterationState) clone() IterationState {
	out := s
	out.Unfolded = append([]float64(nil), s.Unfolded...)
	if s.StatCov != nil {
		out.StatCov = mat.NewSymDense(s.StatCov.SymmetricDim(), nil)
		out.StatCov.CopySym(s.StatCov)
	}
	if s.SysCov != nil {
		out.SysCov = mat.NewSymDense(s.SysCov.SymmetricDim(), nil)
		out.SysCov.CopySym(s.SysCov)
	}
	return out
}

// Result is the outcome of a run.
type Result struct {
	Unfolded []float64
	StatErr  []float64
	SysErr   []float64
	TotalErr []float64 // sqrt(stat² + sys²)
	StatCov  *mat.SymDense
	SysCov   *mat.SymDense

	Iterations int
	Converged  bool
	State      State

	TSName     string
	TS         float64
	TSStopping float64
	Prior      []float64

	// Last is the final valid state; for FAILED runs it precedes the failure.
	Last    IterationState
	History []IterationState // only when Config.KeepHistory
}

// Warning returns a *errs.ConvergenceWarning when the run stopped at the
// iteration cap, nil otherwise.
func (r *Result) Warning() error {
	if r == nil || r.State != StateMaxIterReached {
		return nil
	}
	return &errs.ConvergenceWarning{Iterations: r.Iterations, Statistic: r.TS, Threshold: r.TSStopping}
}
