package cmdutil

import (
	"context"
	"errors"

	"unfold-core/errs"
)

// Exit codes shared by every tool.
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitFailure  = 3
	ExitCanceled = 130
)

// ExitCodeFor maps a run error to an exit code: invalid input is a usage
// error and cancellation is 130. Everything else is 3, including an expired
// --timeout.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	case errors.Is(err, errs.ErrInvalidInput):
		return ExitUsage
	default:
		return ExitFailure
	}
}
