package priorcli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"unfold/internal/clibase"
	"unfold/internal/cliutil"
)

type Options struct {
	clibase.Common

	Kind        string
	N           int
	CauseLimits []float64
	Normalize   bool
}

func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	clibase.UsageCommon(fs, name, "prior distributions for unfolding", func(out io.Writer, def func(string) string) {
		_, _ = fmt.Fprintln(out, "Usage:")
		_, _ = fmt.Fprintf(out, "  %s --kind uniform --n 5\n", name)
		_, _ = fmt.Fprintf(out, "  %s --kind jeffreys --limits 1,2,3,4 [--normalize]\n", name)

		_, _ = fmt.Fprintln(out, "\nPrior:")
		_, _ = fmt.Fprintf(out, "  -k, --kind string           uniform | jeffreys [%s]\n", def("kind"))
		_, _ = fmt.Fprintln(out, "  -n, --n int                 Number of cause bins (uniform)")
		_, _ = fmt.Fprintln(out, "      --limits list           Cause bin values, one per cause (jeffreys)")
		_, _ = fmt.Fprintf(out, "      --normalize             Rescale jeffreys values to sum to 1 [%s]\n", def("normalize"))
	})
	return fs
}

// PrintExamples prints a short quickstart for unfold-prior.
func PrintExamples(out io.Writer) {
	clibase.PrintExamples(out, "unfold-prior", func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "Print the prior vectors unfold would start from.")
		_, _ = fmt.Fprintln(w, "\nExamples:")
		_, _ = fmt.Fprintln(w, "  unfold-prior --kind uniform --n 4")
		_, _ = fmt.Fprintln(w, "  unfold-prior --kind jeffreys --limits 1,10,100 --normalize --output json")
	})
}

func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var o Options
	var help bool

	noHeader := clibase.Register(fs, &o.Common)

	var limits cliutil.FloatList
	fs.StringVar(&o.Kind, "kind", "uniform", "uniform | jeffreys [uniform]")
	fs.StringVar(&o.Kind, "k", "uniform", "alias of --kind")
	fs.IntVar(&o.N, "n", 0, "number of cause bins (uniform)")
	fs.Var(&limits, "limits", "comma-separated cause bin values (jeffreys)")
	fs.BoolVar(&o.Normalize, "normalize", false, "rescale jeffreys values to sum to 1 [false]")
	fs.BoolVar(&help, "h", false, "show this help [false]")
	fs.BoolVar(&help, "help", false, "show this help [false]")

	if err := fs.Parse(argv); err != nil {
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
	o.CauseLimits = limits
	if err := clibase.AfterParse(&o.Common, noHeader, nil); err != nil {
		return o, err
	}
	if len(fs.Args()) > 0 {
		return o, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	switch o.Kind {
	case "uniform":
		if o.N < 1 {
			return o, errors.New("--kind uniform requires --n ≥ 1")
		}
		if len(o.CauseLimits) > 0 {
			return o, errors.New("--limits only applies to --kind jeffreys")
		}
	case "jeffreys":
		if len(o.CauseLimits) == 0 {
			return o, errors.New("--kind jeffreys requires --limits")
		}
		if o.N != 0 {
			return o, errors.New("--n only applies to --kind uniform")
		}
	default:
		return o, fmt.Errorf("invalid --kind %q (want uniform | jeffreys)", o.Kind)
	}
	return o, nil
}
