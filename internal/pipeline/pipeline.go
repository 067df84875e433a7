// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"unfold-core/response"
	"unfold-core/unfold"
)

// Job is one self-contained unfold: its own model, data and configuration.
type Job struct {
	RunID   string
	Name    string
	Prior   string // prior label reported with the outcome
	Model   *response.Model
	Obs     unfold.Observation
	Config  unfold.Config
	Timeout time.Duration // 0 = no per-job deadline

	// Err marks a job that could not be built; it is reported, not run.
	Err error
}

// Outcome pairs a job with what the engine returned for it. Result may be
// non-nil together with Err when the run failed after iterating.
type Outcome struct {
	Job     Job
	Result  *unfold.Result
	Err     error
	Elapsed time.Duration
}

// Runner executes a single job.
type Runner interface {
	Run(ctx context.Context, j Job) (*unfold.Result, error)
}

// Engine runs jobs with unfold.Unfold.
type Engine struct{}

func (Engine) Run(ctx context.Context, j Job) (*unfold.Result, error) {
	return unfold.Unfold(ctx, j.Obs, j.Model, j.Config)
}

// Config controls the job pipeline.
type Config struct {
	Threads int    // concurrent jobs; <=0 means all CPUs
	Runner  Runner // nil means Engine{}
}

// RunAll runs jobs with at most cfg.Threads in flight and calls visit once
// per job, in job order. Engine failures are delivered in Outcome.Err and do
// not stop other jobs. Once ctx is done, jobs not yet started are visited
// with the context error. A visit error stops the remaining work and is
// returned; otherwise RunAll returns ctx.Err().
func RunAll(parent context.Context, cfg Config, jobs []Job, visit func(Outcome) error) error {
	thr := cfg.Threads
	if thr <= 0 {
		thr = runtime.NumCPU()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = Engine{}
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(thr)

	outcomes := make([]Outcome, len(jobs))
	ready := make([]chan struct{}, len(jobs))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	// g.Go blocks once thr jobs are in flight, so submission runs beside
	// the in-order visitor below.
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i := range jobs {
			if err := gctx.Err(); err != nil {
				outcomes[i] = Outcome{Job: jobs[i], Err: err}
				close(ready[i])
				continue
			}
			g.Go(func() error {
				defer close(ready[i])
				outcomes[i] = runOne(gctx, runner, jobs[i])
				return nil
			})
		}
	}()

	var verr error
	for i := range jobs {
		<-ready[i]
		if verr = visit(outcomes[i]); verr != nil {
			break
		}
	}
	cancel()
	<-submitted
	_ = g.Wait()

	if verr != nil {
		return verr
	}
	return parent.Err()
}

func runOne(ctx context.Context, r Runner, j Job) Outcome {
	if j.Err != nil {
		return Outcome{Job: j, Err: j.Err}
	}
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := r.Run(ctx, j)
	return Outcome{Job: j, Result: res, Err: err, Elapsed: time.Since(start)}
}
