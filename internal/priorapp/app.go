package priorapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"unfold-core/prior"

	"unfold/internal/clibase"
	"unfold/internal/cmdutil"
	"unfold/internal/jsonutil"
	"unfold/internal/priorcli"
	"unfold/internal/version"
	"unfold/internal/writers"
	"unfold/pkg/api"
)

// RunContext is the unfold-prior entry point used by cmd/unfold-prior.
func RunContext(_ context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := priorcli.NewFlagSet("unfold-prior")
	fs.SetOutput(io.Discard)
	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	outw := bufio.NewWriter(stdout)
	flush := func(code int) int {
		if e := outw.Flush(); writers.IsBrokenPipe(e) {
			return code
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return cmdutil.ExitFailure
		}
		return code
	}

	opts, err := priorcli.ParseArgs(fs, argv)
	switch {
	case errors.Is(err, flag.ErrHelp):
		fs.SetOutput(outw)
		fs.Usage()
		return flush(cmdutil.ExitOK)
	case errors.Is(err, clibase.ErrPrintedAndExitOK):
		priorcli.PrintExamples(outw)
		return flush(cmdutil.ExitOK)
	case err != nil:
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		return flush(cmdutil.ExitUsage)
	case opts.Version:
		_, _ = fmt.Fprintf(outw, "unfold-prior version %s\n", version.Version)
		return flush(cmdutil.ExitOK)
	}

	log := cmdutil.NewLogger(stderr, opts.Quiet, opts.Verbose)
	defer func() { _ = log.Sync() }()

	rec, err := Compute(opts)
	if err != nil {
		log.Error(err.Error())
		return cmdutil.ExitCodeFor(err)
	}
	if err := write(outw, opts, rec); err != nil && !writers.IsBrokenPipe(err) {
		log.Error(err.Error())
		return cmdutil.ExitFailure
	}
	return flush(cmdutil.ExitOK)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// Compute evaluates the requested prior.
func Compute(o priorcli.Options) (api.PriorV1, error) {
	rec := api.PriorV1{Kind: api.KindPrior, Prior: o.Kind}
	var (
		vals []float64
		err  error
	)
	switch o.Kind {
	case "uniform":
		vals, err = prior.Uniform(o.N)
		rec.Normalized = true
	default:
		rec.CauseLimits = append([]float64(nil), o.CauseLimits...)
		vals, err = prior.Jeffreys(o.CauseLimits)
		if err == nil && o.Normalize {
			vals, err = prior.Normalize(vals)
			rec.Normalized = true
		}
	}
	if err != nil {
		return rec, err
	}
	rec.Values = vals
	rec.Sum = floats.Sum(vals)
	return rec, nil
}

func write(w io.Writer, o priorcli.Options, rec api.PriorV1) error {
	switch o.Output {
	case clibase.OutputJSON:
		return jsonutil.EncodePretty(w, rec)
	case clibase.OutputJSONL:
		return jsonutil.EncodeLine(w, rec)
	}
	if o.Header {
		if _, err := fmt.Fprintln(w, "bin\tprior"); err != nil {
			return err
		}
	}
	for i, v := range rec.Values {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", i, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}
