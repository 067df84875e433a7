package output

import (
	"unfold-core/unfold"
)

// Output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// TSVHeader is the header row of the per-bin result table.
const TSVHeader = "name\tprior\tstate\titerations\tts\tts_value\tbin\tunfolded\tstat_err\tsys_err\ttotal_err"

// HistoryTSVHeader is the header row of the per-iteration table (--history).
const HistoryTSVHeader = "name\tprior\titeration\tts_value\tconverged\tbin\tunfolded\tstat_err\tsys_err"

// Run is one finished unfold as the writers see it. Result is nil when the
// run was rejected before iterating; Err carries the failure, if any.
type Run struct {
	RunID  string
	Name   string
	Prior  string
	Result *unfold.Result
	Err    error
}

// Iteration is one progress record streamed while a run is in flight.
type Iteration struct {
	RunID string
	Name  string
	State unfold.IterationState
}

// Event is what flows to a writer: exactly one of Run or Iteration is set.
type Event struct {
	Run       *Run
	Iteration *Iteration
}

// Options selects optional report content.
type Options struct {
	Header  bool
	Cov     bool // covariance matrices
	History bool // Result.History embedded in text/json reports
}
