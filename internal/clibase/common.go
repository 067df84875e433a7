// internal/clibase/common.go
package clibase

import (
	"errors"
	"flag"
	"fmt"

	"unfold/internal/cliutil"
)

// Output formats understood by every tool.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputJSONL = "jsonl"
)

// Common holds CLI fields shared by unfold and unfold-prior.
type Common struct {
	Inputs  []string
	Threads int

	// Output
	Output string // text|json|jsonl
	Header bool
	Cov    bool

	// Misc
	Quiet    bool
	Verbose  bool
	Version  bool
	Examples bool
}

// sliceValue appends each value to a *[]string (for --input/-i)
type sliceValue struct{ dst *[]string }

func (s *sliceValue) String() string {
	if s.dst == nil {
		return ""
	}
	return fmt.Sprint(*s.dst)
}

func (s *sliceValue) Set(v string) error {
	*s.dst = append(*s.dst, v)
	return nil
}

// Register wires shared flags onto fs and returns a pointer to the "no-header"
// bool that AfterParse folds into Common.Header.
func Register(fs *flag.FlagSet, c *Common) *bool {
	in := &sliceValue{dst: &c.Inputs}
	fs.Var(in, "input", "input document(s) (repeatable) or '-'")
	fs.Var(in, "i", "alias of --input")

	fs.IntVar(&c.Threads, "threads", 0, "concurrent unfolds (0=all CPUs) [0]")
	fs.IntVar(&c.Threads, "t", 0, "alias of --threads")

	fs.StringVar(&c.Output, "output", OutputText, "output: text | json | jsonl [text]")
	fs.StringVar(&c.Output, "o", OutputText, "alias of --output")
	fs.BoolVar(&c.Cov, "cov", false, "include covariance matrices [false]")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress header line [false]")

	fs.BoolVar(&c.Quiet, "quiet", false, "log errors only [false]")
	fs.BoolVar(&c.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&c.Verbose, "verbose", false, "log every iteration [false]")
	fs.BoolVar(&c.Version, "v", false, "print version and exit [false]")
	fs.BoolVar(&c.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&c.Examples, "examples", false, "print usage examples and exit [false]")
	return &noHeader
}

// AfterParse finalizes header and expands positionals, then runs shared validation.
func AfterParse(c *Common, noHeader *bool, posArgs []string) error {
	c.Header = !*noHeader
	if len(posArgs) > 0 {
		exp, err := cliutil.ExpandPositionals(posArgs)
		if err != nil {
			return err
		}
		c.Inputs = append(c.Inputs, exp...)
	}
	return Validate(c)
}

// Validate applies shared CLI invariants used by all tools.
func Validate(c *Common) error {
	if c.Threads < 0 {
		return errors.New("--threads must be ≥ 0")
	}
	if c.Quiet && c.Verbose {
		return errors.New("--quiet conflicts with --verbose")
	}
	switch c.Output {
	case OutputText, OutputJSON, OutputJSONL:
	default:
		return fmt.Errorf("invalid --output %q", c.Output)
	}
	return nil
}
