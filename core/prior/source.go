package prior

import (
	"strings"

	"unfold-core/errs"
)

// Source produces the engine's starting distribution for n cause bins.
type Source interface {
	Prior(n int) ([]float64, error)
	Name() string
}

// UniformSource is the default Source.
type UniformSource struct{}

func (UniformSource) Name() string                   { return "uniform" }
func (UniformSource) Prior(n int) ([]float64, error) { return Uniform(n) }

// JeffreysSource normalizes Jeffreys(CauseLimits). CauseLimits must hold one
// representative value per cause bin.
type JeffreysSource struct {
	CauseLimits []float64
}

func (JeffreysSource) Name() string { return "jeffreys" }

func (s JeffreysSource) Prior(n int) ([]float64, error) {
	if len(s.CauseLimits) != n {
		return nil, errs.Invalid("cause_limits", "length %d does not match %d cause bins", len(s.CauseLimits), n)
	}
	raw, err := Jeffreys(s.CauseLimits)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

// Vector is a caller-supplied prior. It is copied and must already be
// normalized.
type Vector []float64

func (Vector) Name() string { return "custom" }

func (v Vector) Prior(n int) ([]float64, error) {
	if err := Validate(v, n); err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, nil
}

// ByName resolves a built-in source. causeLimits is only consulted for jeffreys.
func ByName(name string, causeLimits []float64) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "uniform":
		return UniformSource{}, nil
	case "jeffreys":
		if len(causeLimits) == 0 {
			return nil, errs.Invalid("cause_limits", "required for the jeffreys prior")
		}
		return JeffreysSource{CauseLimits: append([]float64(nil), causeLimits...)}, nil
	default:
		return nil, errs.Invalid("prior", "unknown prior %q (want uniform | jeffreys)", name)
	}
}
