// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"

	"unfold/internal/output"
)

// BatchFunc renders every collected run at once.
type BatchFunc func(w io.Writer, runs []output.Run, o output.Options) error

// Batch writers by format. Streaming formats (jsonl) are not listed here.
var batchWriters = map[string]BatchFunc{
	output.FormatText: output.WriteText,
	output.FormatJSON: output.WriteJSON,
}

// WriteBatch dispatches to the writer registered for format.
func WriteBatch(format string, w io.Writer, runs []output.Run, o output.Options) error {
	fn, ok := batchWriters[format]
	if !ok {
		return fmt.Errorf("unknown output format %q (no writer registered)", format)
	}
	return fn(w, runs, o)
}
