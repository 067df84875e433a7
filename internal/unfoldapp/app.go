// internal/unfoldapp/app.go
package unfoldapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unfold/internal/appcore"
	"unfold/internal/cli"
	"unfold/internal/clibase"
	"unfold/internal/cmdutil"
	"unfold/internal/output"
	"unfold/internal/version"
	"unfold/internal/writers"
)

// RunContext is the unfold entry point used by cmd/unfold.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	return RunIO(parent, argv, os.Stdin, stdout, stderr)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// RunIO is RunContext with an explicit stdin for '-' inputs.
func RunIO(parent context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("unfold")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	opts, err := cli.ParseArgs(fs, argv)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return printed(stdout, stderr, cmdutil.ExitOK, func(w io.Writer) { fs.SetOutput(w); fs.Usage() })
	case errors.Is(err, clibase.ErrPrintedAndExitOK):
		return printed(stdout, stderr, cmdutil.ExitOK, cli.PrintExamples)
	case err != nil:
		_, _ = fmt.Fprintln(stderr, err)
		return printed(stdout, stderr, cmdutil.ExitUsage, func(w io.Writer) { fs.SetOutput(w); fs.Usage() })
	case opts.Version:
		return printed(stdout, stderr, cmdutil.ExitOK, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "unfold version %s\n", version.Version)
		})
	}

	log := cmdutil.NewLogger(stderr, opts.Quiet, opts.Verbose)
	defer func() { _ = log.Sync() }()

	jobs := BuildJobs(opts, stdin)
	log.Debug("starting", zap.Int("runs", len(jobs)), zap.Int("threads", opts.Threads))

	wopts := output.Options{Header: opts.Header, Cov: opts.Cov, History: opts.History}
	stream := opts.History && opts.Output == clibase.OutputJSONL
	if stream {
		// Iterations already went out one line at a time.
		wopts.History = false
	}
	return appcore.Run(parent, stdout, log, appcore.Options{
		Threads:              opts.Threads,
		Stream:               stream,
		NotConvergedExitCode: opts.NotConvergedExitCode,
		MetricsOut:           opts.MetricsOut,
	}, jobs, appcore.Writer{Format: opts.Output, Opts: wopts})
}

// printed writes help-style text through a buffered stdout and maps write
// failures the way the run path does.
func printed(stdout, stderr io.Writer, code int, body func(io.Writer)) int {
	outw := bufio.NewWriter(stdout)
	body(outw)
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return code
	} else if e != nil {
		_, _ = fmt.Fprintln(stderr, e)
		return cmdutil.ExitFailure
	}
	return code
}

func newRunID() string { return uuid.NewString() }
