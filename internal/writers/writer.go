package writers

import (
	"encoding/json"
	"io"

	"unfold/internal/jsonlutil"
	"unfold/internal/output"
)

// Start spins up the writer goroutine for format. Send events on the
// returned channel, close it, then read the error channel once.
//
// jsonl streams every event as it arrives. Batch formats collect runs and
// render on close; they ignore Iteration events since Result.History carries
// the same states.
func Start(out io.Writer, format string, o output.Options, bufSize int) (chan<- output.Event, <-chan error) {
	if format == output.FormatJSONL {
		return jsonlutil.Start(out, bufSize, func(enc *json.Encoder, ev output.Event) error {
			if ev.Iteration != nil {
				return enc.Encode(output.ToAPIIteration(*ev.Iteration))
			}
			return enc.Encode(output.ToAPIResult(*ev.Run, o))
		}, IsBrokenPipe)
	}

	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan output.Event, bufSize)
	errCh := make(chan error, 1)
	go func() {
		var runs []output.Run
		for ev := range in {
			if ev.Run != nil {
				runs = append(runs, *ev.Run)
			}
		}
		errCh <- WriteBatch(format, out, runs, o)
	}()
	return in, errCh
}
