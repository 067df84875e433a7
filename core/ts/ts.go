// core/ts/ts.go
// Test statistics comparing successive unfolded distributions. A run stops
// once the statistic drops to or below its stopping threshold.
package ts

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"unfold-core/errs"
)

// Names of the built-in statistics.
const (
	KS   = "ks"
	Chi2 = "chi2"
	RMD  = "rmd"
)

// Statistic is a divergence between two same-length cause distributions.
// variance is the per-bin variance of current; statistics that do not need it
// ignore it.
type Statistic interface {
	Name() string
	Calc(previous, current, variance []float64) float64
}

var registry = map[string]Statistic{
	KS:   ks{},
	Chi2: chi2{},
	RMD:  rmd{},
}

// Names lists the registered statistics in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the statistic registered under name.
func Lookup(name string) (Statistic, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errs.Invalid("ts", "unknown test statistic %q (want %s)", name, strings.Join(Names(), " | "))
	}
	return s, nil
}

// Evaluator pairs a statistic with its stopping threshold.
type Evaluator struct {
	stat      Statistic
	threshold float64
}

// New builds an Evaluator; threshold must be finite and > 0.
func New(name string, threshold float64) (*Evaluator, error) {
	s, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return nil, errs.Invalid("ts_stopping", "must be finite and > 0, got %v", threshold)
	}
	return &Evaluator{stat: s, threshold: threshold}, nil
}

func (e *Evaluator) Name() string       { return e.stat.Name() }
func (e *Evaluator) Threshold() float64 { return e.threshold }

// Evaluate compares current against previous. With no previous distribution
// the statistic is +Inf and never within threshold.
func (e *Evaluator) Evaluate(previous, current, variance []float64) (stat float64, within bool) {
	if previous == nil {
		return math.Inf(1), false
	}
	stat = e.stat.Calc(previous, current, variance)
	return stat, stat <= e.threshold
}

// ks is the largest absolute difference between the cumulative sums of the
// two normalized distributions.
type ks struct{}

func (ks) Name() string { return KS }

func (ks) Calc(previous, current, _ []float64) float64 {
	sp, sc := floats.Sum(previous), floats.Sum(current)
	switch {
	case sp == 0 && sc == 0:
		return 0
	case sp == 0 || sc == 0:
		return 1
	}
	var cp, cc, d float64
	for i := range current {
		cp += previous[i] / sp
		cc += current[i] / sc
		d = math.Max(d, math.Abs(cc-cp))
	}
	return d
}

// chi2 sums (current-previous)² / variance over bins with positive variance.
type chi2 struct{}

func (chi2) Name() string { return Chi2 }

func (chi2) Calc(previous, current, variance []float64) float64 {
	var s float64
	for i := range current {
		if i >= len(variance) || variance[i] <= 0 {
			continue
		}
		d := current[i] - previous[i]
		s += d * d / variance[i]
	}
	return s
}

// rmd is the mean of |current-previous|/previous over bins where previous > 0.
type rmd struct{}

func (rmd) Name() string { return RMD }

func (rmd) Calc(previous, current, _ []float64) float64 {
	var s float64
	n := 0
	for i := range current {
		if previous[i] <= 0 {
			continue
		}
		s += math.Abs(current[i]-previous[i]) / previous[i]
		n++
	}
	if n == 0 {
		return 0
	}
	return s / float64(n)
}
