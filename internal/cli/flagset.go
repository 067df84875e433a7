package cli

import (
	"flag"
	"fmt"
	"io"

	"unfold/internal/clibase"
)

// NewFlagSet returns a ContinueOnError FlagSet with the unfold usage text.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	clibase.UsageCommon(fs, name, "iterative Bayesian unfolding", func(out io.Writer, def func(string) string) {
		_, _ = fmt.Fprintln(out, "Usage:")
		_, _ = fmt.Fprintf(out, "  %s [options] run.yaml [more.yaml ...]\n", name)

		_, _ = fmt.Fprintln(out, "\nInput:")
		_, _ = fmt.Fprintln(out, "  -i, --input file            Input document(s) (repeatable) or '-' for STDIN")
		_, _ = fmt.Fprintf(out, "      --prior string          Prior: uniform | jeffreys (overrides document) [%s]\n", def("prior"))
		_, _ = fmt.Fprintln(out, "      --cause-limits list     Cause bin values, one per cause (jeffreys)")

		_, _ = fmt.Fprintln(out, "\nUnfolding:")
		_, _ = fmt.Fprintf(out, "      --ts string             Test statistic: ks | chi2 | rmd [%s]\n", def("ts"))
		_, _ = fmt.Fprintf(out, "      --ts-stopping float     Convergence threshold [%s]\n", def("ts-stopping"))
		_, _ = fmt.Fprintf(out, "      --max-iter int          Maximum iterations [%s]\n", def("max-iter"))
		_, _ = fmt.Fprintf(out, "      --cov-type string       Data covariance: poisson | multinomial [%s]\n", def("cov-type"))
		_, _ = fmt.Fprintf(out, "      --compare-priors        Unfold with uniform and jeffreys priors [%s]\n", def("compare-priors"))
		_, _ = fmt.Fprintf(out, "      --history               Report every iteration [%s]\n", def("history"))
		_, _ = fmt.Fprintf(out, "      --timeout duration      Fail runs after this long, exit 3 (0=none) [%s]\n", def("timeout"))
		_, _ = fmt.Fprintf(out, "      --metrics-out file      Write Prometheus text metrics to file [%s]\n", def("metrics-out"))
		_, _ = fmt.Fprintf(out, "      --not-converged-exit-code int  Exit code when a run hits --max-iter [%s]\n", def("not-converged-exit-code"))
	})
	return fs
}

// PrintExamples prints a short quickstart for unfold.
func PrintExamples(out io.Writer) {
	clibase.PrintExamples(out, "unfold", func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "Unfold observed effect counts back to cause counts.")
		_, _ = fmt.Fprintln(w, "\nExample document (run.yaml):")
		_, _ = fmt.Fprintln(w, "  data: [100, 150, 80]")
		_, _ = fmt.Fprintln(w, "  response: [[0.6, 0.2, 0.0], [0.2, 0.5, 0.2], [0.0, 0.1, 0.6]]")
		_, _ = fmt.Fprintln(w, "  efficiencies: [0.8, 0.8, 0.8]")
		_, _ = fmt.Fprintln(w, "\nExamples:")
		_, _ = fmt.Fprintln(w, "  unfold run.yaml")
		_, _ = fmt.Fprintln(w, "  unfold --ts chi2 --ts-stopping 0.1 --output json run.yaml")
		_, _ = fmt.Fprintln(w, "  unfold --compare-priors --cause-limits 1,2,3 run.yaml")
		_, _ = fmt.Fprintln(w, "  unfold --history --output jsonl runs/*.yaml")
	})
}
