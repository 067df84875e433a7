// Package errs holds the error taxonomy shared by the unfolding core.
//
// Validation problems are *InvalidInputError and numeric breakdowns during an
// iteration are *NumericInstabilityError. Both match their package sentinels
// through errors.Is, so callers never need to type-switch:
//
//	if errors.Is(err, errs.ErrInvalidInput) { ... }
//
// Reaching the iteration cap is not an error; see ConvergenceWarning.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed shapes, non-normalized priors and
	// non-positive values where positivity is required.
	ErrInvalidInput = errors.New("unfold: invalid input")

	// ErrNumericInstability marks NaN/Inf produced during an update or while
	// propagating covariance.
	ErrNumericInstability = errors.New("unfold: numeric instability")
)

// InvalidInputError describes which input failed validation and why.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unfold: invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("unfold: invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid is shorthand for &InvalidInputError{...} with a formatted reason.
func Invalid(field, format string, a ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

// NumericInstabilityError reports the iteration and cause bin where a
// non-finite value first appeared. Bin is -1 when no single bin applies.
type NumericInstabilityError struct {
	Iteration int
	Bin       int
	Quantity  string // "unfolded", "stat_cov", "sys_cov"
	Value     float64
}

func (e *NumericInstabilityError) Error() string {
	if e.Bin < 0 {
		return fmt.Sprintf("unfold: non-finite %s at iteration %d", e.Quantity, e.Iteration)
	}
	return fmt.Sprintf("unfold: non-finite %s at iteration %d, cause bin %d (%v)",
		e.Quantity, e.Iteration, e.Bin, e.Value)
}

func (e *NumericInstabilityError) Is(target error) bool { return target == ErrNumericInstability }

// ConvergenceWarning is the non-fatal outcome of hitting the iteration cap
// before the test statistic dropped below its stopping threshold. The partial
// estimate is still returned.
type ConvergenceWarning struct {
	Iterations int
	Statistic  float64
	Threshold  float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("unfold: not converged after %d iterations (ts=%.6g > %.6g)",
		w.Iterations, w.Statistic, w.Threshold)
}
