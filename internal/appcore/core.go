// internal/appcore/core.go
package appcore

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"

	"unfold-core/unfold"

	"unfold/internal/cmdutil"
	"unfold/internal/metrics"
	"unfold/internal/output"
	"unfold/internal/pipeline"
	"unfold/internal/writers"
)

type Options struct {
	Threads int

	// Stream sends every completed iteration to the writer as it happens.
	Stream bool

	NotConvergedExitCode int
	MetricsOut           string
}

// WriterFactory starts the output goroutine for one invocation.
type WriterFactory interface {
	Start(out io.Writer, bufSize int) (chan<- output.Event, <-chan error)
}

// Writer is the WriterFactory backed by package writers.
type Writer struct {
	Format string
	Opts   output.Options
}

func (w Writer) Start(out io.Writer, bufSize int) (chan<- output.Event, <-chan error) {
	return writers.Start(out, w.Format, w.Opts, bufSize)
}

// Run executes jobs, streams their results to stdout and returns the exit
// code. Per-run failures are logged and reported; they do not stop the
// other runs.
func Run(
	parent context.Context,
	stdout io.Writer,
	log *zap.Logger,
	o Options,
	jobs []pipeline.Job,
	wf WriterFactory,
) int {
	outw := bufio.NewWriter(stdout)

	thr := o.Threads
	if thr <= 0 {
		thr = runtime.NumCPU()
	}
	var m *metrics.Metrics
	if o.MetricsOut != "" {
		m = metrics.New()
	}

	inCh, writeErr := wf.Start(outw, thr*4)

	for i := range jobs {
		j := &jobs[i]
		resolved := j.Config.WithDefaults()
		obs := append([]unfold.Observer(nil), j.Config.Observers...)
		obs = append(obs, cmdutil.IterationLogger{Log: log, Run: j.RunID, Threshold: resolved.Stopping})
		if m != nil {
			obs = append(obs, m.Observer(j.Name, resolved.TestStatistic))
		}
		if o.Stream {
			runID, name := j.RunID, j.Name
			obs = append(obs, unfold.ObserverFunc(func(s unfold.IterationState) {
				inCh <- output.Event{Iteration: &output.Iteration{RunID: runID, Name: name, State: s}}
			}))
		}
		j.Config.Observers = obs
	}

	code := cmdutil.ExitOK
	perr := pipeline.RunAll(parent, pipeline.Config{Threads: thr}, jobs, func(out pipeline.Outcome) error {
		code = worse(code, report(log, out, o.NotConvergedExitCode))
		m.ObserveRun(out.Result, out.Elapsed)
		inCh <- output.Event{Run: &output.Run{
			RunID:  out.Job.RunID,
			Name:   out.Job.Name,
			Prior:  out.Job.Prior,
			Result: out.Result,
			Err:    out.Err,
		}}
		return nil
	})
	close(inCh)

	if werr := <-writeErr; writers.IsBrokenPipe(werr) {
		return cmdutil.ExitOK
	} else if werr != nil {
		log.Error("write output", zap.Error(werr))
		return cmdutil.ExitFailure
	}
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return cmdutil.ExitOK
	} else if e != nil {
		log.Error("write output", zap.Error(e))
		return cmdutil.ExitFailure
	}

	if m != nil {
		if err := writeMetrics(o.MetricsOut, m); err != nil {
			log.Error("write metrics", zap.String("path", o.MetricsOut), zap.Error(err))
			code = worse(code, cmdutil.ExitFailure)
		}
	}
	if perr != nil {
		return worse(code, cmdutil.ExitCodeFor(perr))
	}
	return code
}

// report logs one outcome and returns the exit code it calls for.
func report(log *zap.Logger, out pipeline.Outcome, notConverged int) int {
	fields := []zap.Field{
		zap.String("run", out.Job.RunID),
		zap.String("name", out.Job.Name),
		zap.String("prior", out.Job.Prior),
	}
	if res := out.Result; res != nil {
		fields = append(fields,
			zap.Stringer("state", res.State),
			zap.Int("iterations", res.Iterations),
			zap.Duration("elapsed", out.Elapsed),
		)
	}
	switch {
	case out.Err != nil:
		log.Error("unfold failed", append(fields, zap.Error(out.Err))...)
		return cmdutil.ExitCodeFor(out.Err)
	case out.Result.Warning() != nil:
		cmdutil.Warnf(log.With(fields...), "%v", out.Result.Warning())
		return notConverged
	default:
		log.Info("unfold converged", fields...)
		return cmdutil.ExitOK
	}
}

// worse keeps the more severe of two exit codes:
// cancel > numeric/I-O failure > usage > not converged > ok.
func worse(a, b int) int {
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func rank(code int) int {
	switch code {
	case cmdutil.ExitOK:
		return 0
	case cmdutil.ExitUsage:
		return 2
	case cmdutil.ExitFailure:
		return 3
	case cmdutil.ExitCanceled:
		return 4
	default:
		return 1 // --not-converged-exit-code
	}
}

func writeMetrics(path string, m *metrics.Metrics) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, fh.Close()) }()
	return m.WriteText(fh)
}
