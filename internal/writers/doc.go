// Package writers turns finished runs and iteration progress into
// serialized output.
//
// Design:
//   - Writers own all presentation knowledge (TSV tables, JSON, JSONL).
//   - The core engine stays domain-only; the pipeline stays orchestration-only.
//   - JSON/JSONL go through pkg/api (v1) for a stable wire format.
package writers
