// pkg/api/result_v1.go
package api

// Record kinds carried in the "kind" field so JSONL consumers can dispatch.
const (
	KindIteration = "iteration"
	KindResult    = "result"
	KindPrior     = "prior"
)

// ResultV1 is the stable JSON/JSONL schema for one unfolding run.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ResultV1 struct {
	Kind       string        `json:"kind"`
	RunID      string        `json:"run_id"`
	Name       string        `json:"name"`
	Prior      string        `json:"prior"`
	State      string        `json:"state"`
	Converged  bool          `json:"converged"`
	Iterations int           `json:"num_iterations"`
	TS         string        `json:"ts"`
	TSValue    *float64      `json:"ts_value"` // null until an iteration completed
	TSStopping float64       `json:"ts_stopping"`
	Unfolded   []float64     `json:"unfolded"`
	StatErr    []float64     `json:"stat_err"`
	SysErr     []float64     `json:"sys_err"`
	TotalErr   []float64     `json:"total_err,omitempty"`
	PriorVec   []float64     `json:"prior_vec,omitempty"`
	StatCov    [][]float64   `json:"stat_cov,omitempty"`
	SysCov     [][]float64   `json:"sys_cov,omitempty"`
	History    []IterationV1 `json:"history,omitempty"`
	Warning    string        `json:"warning,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// IterationV1 is one per-iteration progress record (JSONL only).
type IterationV1 struct {
	Kind      string    `json:"kind"`
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Iteration int       `json:"iteration"`
	TS        *float64  `json:"ts"` // null for iteration 0
	Converged bool      `json:"converged"`
	Unfolded  []float64 `json:"unfolded"`
	StatErr   []float64 `json:"stat_err,omitempty"`
	SysErr    []float64 `json:"sys_err,omitempty"`
}

// PriorV1 is the output of unfold-prior.
type PriorV1 struct {
	Kind        string    `json:"kind"`
	Prior       string    `json:"prior"`
	Normalized  bool      `json:"normalized"`
	CauseLimits []float64 `json:"cause_limits,omitempty"`
	Values      []float64 `json:"values"`
	Sum         float64   `json:"sum"`
}
