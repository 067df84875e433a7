// core/unfold/engine.go
package unfold

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"unfold-core/covariance"
	"unfold-core/errs"
	"unfold-core/prior"
	"unfold-core/response"
	"unfold-core/ts"
)

const (
	DefaultStopping      = 0.01
	DefaultMaxIterations = 100
)

// Config holds the run parameters. Zero values select the defaults: uniform
// prior, ks statistic, DefaultStopping, DefaultMaxIterations, Poisson data
// covariance.
type Config struct {
	Prior         prior.Source
	TestStatistic string
	Stopping      float64
	MaxIterations int
	CovModel      covariance.Model
	KeepHistory   bool
	Observers     []Observer
}

// WithDefaults returns c with every zero field replaced by its default.
func (c Config) WithDefaults() Config {
	if c.Prior == nil {
		c.Prior = prior.UniformSource{}
	}
	if c.TestStatistic == "" {
		c.TestStatistic = ts.KS
	}
	if c.Stopping == 0 {
		c.Stopping = DefaultStopping
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return c
}

// Observation is the measured effect distribution.
type Observation struct {
	Counts []float64
	Err    []float64
}

// Engine is a validated (response, config) pair. Run may be called
// repeatedly and concurrently; every call owns its own state.
type Engine struct {
	model *response.Model
	cfg   Config
	eval  *ts.Evaluator
	prior []float64
}

// New validates cfg against model. All configuration problems surface here,
// before any iteration runs.
func New(model *response.Model, cfg Config) (*Engine, error) {
	if model == nil {
		return nil, errs.Invalid("response", "nil model")
	}
	cfg = cfg.WithDefaults()
	if cfg.MaxIterations < 0 {
		return nil, errs.Invalid("max_iter", "must be ≥ 1, got %d", cfg.MaxIterations)
	}
	if cfg.CovModel != covariance.Poisson && cfg.CovModel != covariance.Multinomial {
		return nil, errs.Invalid("cov_type", "unknown covariance model %d", cfg.CovModel)
	}

	eval, err := ts.New(cfg.TestStatistic, cfg.Stopping)
	if err != nil {
		return nil, err
	}
	_, nc := model.Dims()
	p, err := cfg.Prior.Prior(nc)
	if err != nil {
		return nil, err
	}
	if err := prior.Validate(p, nc); err != nil {
		return nil, err
	}
	cfg.Observers = append([]Observer(nil), cfg.Observers...)
	return &Engine{model: model, cfg: cfg, eval: eval, prior: p}, nil
}

// Prior returns a copy of the resolved prior.
func (e *Engine) Prior() []float64 { return append([]float64(nil), e.prior...) }

// Unfold is New followed by Run.
func Unfold(ctx context.Context, obs Observation, model *response.Model, cfg Config) (*Result, error) {
	e, err := New(model, cfg)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, obs)
}

// Run iterates until the test statistic is within threshold or the iteration
// cap is hit. Not converging is reported through Result.Warning, not as an
// error. On numeric failure or cancellation the returned Result is in
// StateFailed and holds the last valid state alongside the error.
//
// ctx is only consulted between iterations.
func (e *Engine) Run(ctx context.Context, obs Observation) (*Result, error) {
	ne, nc := e.model.Dims()
	if err := validateObservation(obs, ne); err != nil {
		return nil, err
	}

	total := floats.Sum(obs.Counts)
	start := make([]float64, nc)
	floats.ScaleTo(start, total, e.prior)

	prop := covariance.New(e.model, obs.Counts, obs.Err, e.cfg.CovModel)
	data := mat.NewVecDense(ne, append([]float64(nil), obs.Counts...))

	res := &Result{
		State:      StateInitialized,
		TSName:     e.eval.Name(),
		TSStopping: e.eval.Threshold(),
		Prior:      e.Prior(),
	}
	cur := IterationState{Iteration: 0, Unfolded: start, TS: math.Inf(1)}
	if e.cfg.KeepHistory {
		res.History = append(res.History, cur.clone())
	}

	for {
		it := cur.Iteration + 1
		if err := ctx.Err(); err != nil {
			return e.fail(res, cur, fmt.Errorf("unfold: stopped before iteration %d: %w", it, err))
		}

		mix, expected := e.model.Mixing(cur.Unfolded)
		var nv mat.VecDense
		nv.MulVec(mix, data)
		next := make([]float64, nc)
		for i := range next {
			v := nv.AtVec(i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return e.fail(res, cur, &errs.NumericInstabilityError{Iteration: it, Bin: i, Quantity: "unfolded", Value: v})
			}
			next[i] = v
		}

		cov, err := prop.Step(it, cur.Unfolded, next, mix, expected)
		if err != nil {
			return e.fail(res, cur, err)
		}

		stat, ok := e.eval.Evaluate(cur.Unfolded, next, diag(cov.Stat))
		cur = IterationState{
			Iteration: it,
			Unfolded:  next,
			StatCov:   cov.Stat,
			SysCov:    cov.Sys,
			TS:        stat,
			Converged: ok,
		}
		res.State = StateIterating
		for _, o := range e.cfg.Observers {
			o.OnIterationComplete(cur.clone())
		}
		if e.cfg.KeepHistory {
			res.History = append(res.History, cur.clone())
		}

		switch {
		case ok:
			res.State = StateConverged
		case it >= e.cfg.MaxIterations:
			res.State = StateMaxIterReached
		}
		if res.State.Terminal() {
			e.finish(res, cur)
			return res, nil
		}
	}
}

func (e *Engine) finish(res *Result, last IterationState) {
	res.Last = last
	res.Iterations = last.Iteration
	res.Converged = res.State == StateConverged
	res.TS = last.TS
	res.Unfolded = append([]float64(nil), last.Unfolded...)
	if last.StatCov == nil {
		return
	}
	res.StatCov, res.SysCov = last.StatCov, last.SysCov
	stat, sys := diag(last.StatCov), diag(last.SysCov)
	n := len(stat)
	res.StatErr = make([]float64, n)
	res.SysErr = make([]float64, n)
	res.TotalErr = make([]float64, n)
	for i := 0; i < n; i++ {
		s, y := math.Max(stat[i], 0), math.Max(sys[i], 0)
		res.StatErr[i] = math.Sqrt(s)
		res.SysErr[i] = math.Sqrt(y)
		res.TotalErr[i] = math.Sqrt(s + y)
	}
}

func (e *Engine) fail(res *Result, last IterationState, err error) (*Result, error) {
	res.State = StateFailed
	e.finish(res, last)
	res.Converged = false
	return res, err
}

func validateObservation(obs Observation, ne int) error {
	if len(obs.Counts) != ne {
		return errs.Invalid("data", "length %d does not match %d effect bins", len(obs.Counts), ne)
	}
	if len(obs.Err) != ne {
		return errs.Invalid("data_err", "length %d does not match %d effect bins", len(obs.Err), ne)
	}
	for i := 0; i < ne; i++ {
		if v := obs.Counts[i]; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errs.Invalid("data", "bin %d is %v; want a finite value ≥ 0", i, v)
		}
		if v := obs.Err[i]; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errs.Invalid("data_err", "bin %d is %v; want a finite value ≥ 0", i, v)
		}
	}
	return nil
}

func diag(s *mat.SymDense) []float64 {
	n := s.SymmetricDim()
	out := make([]float64, n)
	for i := range out {
		out[i] = s.At(i, i)
	}
	return out
}
