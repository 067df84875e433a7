// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"unfold-core/covariance"
	"unfold-core/ts"
	"unfold-core/unfold"

	"unfold/internal/clibase"
	"unfold/internal/cliutil"
)

// Options holds all unfold flags and arguments.
type Options struct {
	clibase.Common

	Prior       string
	CauseLimits []float64

	TS         string
	TSStopping float64
	MaxIter    int
	CovType    string

	History       bool
	ComparePriors bool
	Timeout       time.Duration
	MetricsOut    string

	NotConvergedExitCode int

	// set records flags given explicitly; those override document values.
	set map[string]bool
}

// Explicit reports whether the named flag was given on the command line.
func (o Options) Explicit(name string) bool { return o.set[name] }

// ParseArgs registers and parses all flags and returns the Options.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var o Options
	var help bool

	noHeader := clibase.Register(fs, &o.Common)

	var limits cliutil.FloatList
	fs.StringVar(&o.Prior, "prior", "", "prior: uniform | jeffreys (overrides document)")
	fs.Var(&limits, "cause-limits", "comma-separated cause bin values (one per cause) for jeffreys")

	fs.StringVar(&o.TS, "ts", ts.KS, "test statistic: ks | chi2 | rmd [ks]")
	fs.Float64Var(&o.TSStopping, "ts-stopping", unfold.DefaultStopping, "convergence threshold [0.01]")
	fs.IntVar(&o.MaxIter, "max-iter", unfold.DefaultMaxIterations, "maximum iterations [100]")
	fs.StringVar(&o.CovType, "cov-type", covariance.Poisson.String(), "data covariance: poisson | multinomial [poisson]")

	fs.BoolVar(&o.History, "history", false, "report every iteration [false]")
	fs.BoolVar(&o.ComparePriors, "compare-priors", false, "unfold with uniform and jeffreys priors [false]")
	fs.DurationVar(&o.Timeout, "timeout", 0, "abort runs after this long (0=none) [0s]")
	fs.StringVar(&o.MetricsOut, "metrics-out", "", "write Prometheus text metrics to file")
	fs.IntVar(&o.NotConvergedExitCode, "not-converged-exit-code", 1, "exit code when a run hits --max-iter [1]")

	fs.BoolVar(&help, "h", false, "show this help [false]")
	fs.BoolVar(&help, "help", false, "show this help [false]")

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return o, err
	}
	if help {
		return o, flag.ErrHelp
	}
	if o.Examples {
		return o, clibase.ErrPrintedAndExitOK
	}
	if o.Version {
		return o, nil
	}

	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	o.CauseLimits = limits

	if err := clibase.AfterParse(&o.Common, noHeader, posArgs); err != nil {
		return o, err
	}
	return o, validate(&o)
}

func validate(o *Options) error {
	if len(o.Inputs) == 0 {
		return errors.New("at least one input document is required")
	}
	switch o.Prior {
	case "", "uniform", "jeffreys":
	default:
		return fmt.Errorf("invalid --prior %q (want uniform | jeffreys)", o.Prior)
	}
	if o.ComparePriors && o.Prior != "" {
		return errors.New("--compare-priors conflicts with --prior")
	}
	if _, err := ts.Lookup(o.TS); err != nil {
		return fmt.Errorf("invalid --ts %q", o.TS)
	}
	if !(o.TSStopping > 0) {
		return errors.New("--ts-stopping must be > 0")
	}
	if o.MaxIter < 1 {
		return errors.New("--max-iter must be ≥ 1")
	}
	if _, err := covariance.ParseModel(o.CovType); err != nil {
		return fmt.Errorf("invalid --cov-type %q", o.CovType)
	}
	if o.Timeout < 0 {
		return errors.New("--timeout must be ≥ 0")
	}
	return nil
}
