// core/prior/prior.go
// Initial cause distributions.
//
// Uniform and Jeffreys are pure helpers. A Source is what the engine consumes:
// it yields a normalized vector for a given number of cause bins and is
// validated against the same invariant whatever its origin.
package prior

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"unfold-core/errs"
)

// SumTolerance is how far a prior's sum may drift from 1.
const SumTolerance = 1e-6

// Uniform returns n entries of 1/n.
func Uniform(n int) ([]float64, error) {
	if n <= 0 {
		return nil, errs.Invalid("prior", "number of cause bins must be > 0, got %d", n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out, nil
}

// Jeffreys returns 1/(ln(Cmax/Cmin)·Cμ) for every representative cause value.
// The output is not renormalized; use Normalize when a unit-sum vector is needed.
func Jeffreys(causeLimits []float64) ([]float64, error) {
	if len(causeLimits) == 0 {
		return nil, errs.Invalid("cause_limits", "empty")
	}
	for i, c := range causeLimits {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return nil, errs.Invalid("cause_limits", "value %v at bin %d must be finite and > 0", c, i)
		}
	}
	cmin, cmax := floats.Min(causeLimits), floats.Max(causeLimits)
	if cmax == cmin {
		return nil, errs.Invalid("cause_limits", "max equals min (%v)", cmax)
	}
	ln := math.Log(cmax / cmin)
	out := make([]float64, len(causeLimits))
	for i, c := range causeLimits {
		out[i] = 1 / (ln * c)
	}
	return out, nil
}

// Normalize returns a copy of v scaled to sum to 1.
func Normalize(v []float64) ([]float64, error) {
	if err := checkEntries(v); err != nil {
		return nil, err
	}
	sum := floats.Sum(v)
	if sum <= 0 {
		return nil, errs.Invalid("prior", "sum must be > 0, got %v", sum)
	}
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/sum, out)
	return out, nil
}

// Validate checks that v is a probability vector over n cause bins.
func Validate(v []float64, n int) error {
	if len(v) != n {
		return errs.Invalid("prior", "length %d does not match %d cause bins", len(v), n)
	}
	if err := checkEntries(v); err != nil {
		return err
	}
	if sum := floats.Sum(v); math.Abs(sum-1) > SumTolerance {
		return errs.Invalid("prior", "must sum to 1, got %.9g", sum)
	}
	return nil
}

func checkEntries(v []float64) error {
	if len(v) == 0 {
		return errs.Invalid("prior", "empty")
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return errs.Invalid("prior", "entry %d is %v; entries must be finite and ≥ 0", i, x)
		}
	}
	return nil
}
