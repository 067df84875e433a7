package clibase

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, argv ...string) (Common, *bool, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	var c Common
	nh := Register(fs, &c)
	require.NoError(t, fs.Parse(argv))
	return c, nh, fs
}

func TestRegisterDefaults(t *testing.T) {
	c, nh, _ := parse(t)
	require.NoError(t, AfterParse(&c, nh, nil))
	assert.Equal(t, OutputText, c.Output)
	assert.True(t, c.Header)
	assert.Zero(t, c.Threads)
	assert.Empty(t, c.Inputs)
}

func TestAliasesAndRepeatableInput(t *testing.T) {
	c, nh, _ := parse(t, "-i", "a.yaml", "--input", "b.yaml", "-o", "json", "--no-header", "-t", "3")
	require.NoError(t, AfterParse(&c, nh, []string{"-"}))
	assert.Equal(t, []string{"a.yaml", "b.yaml", "-"}, c.Inputs)
	assert.Equal(t, OutputJSON, c.Output)
	assert.False(t, c.Header)
	assert.Equal(t, 3, c.Threads)
}

func TestAfterParseExpandsGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.yaml", "b.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("data: [1]\n"), 0o644))
	}
	c, nh, _ := parse(t)
	require.NoError(t, AfterParse(&c, nh, []string{filepath.Join(dir, "*.yaml")}))
	assert.Len(t, c.Inputs, 2)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		c    Common
		want string
	}{
		{"threads", Common{Output: OutputText, Threads: -1}, "--threads"},
		{"output", Common{Output: "fasta"}, `invalid --output "fasta"`},
		{"quiet-verbose", Common{Output: OutputText, Quiet: true, Verbose: true}, "--quiet conflicts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
	assert.NoError(t, Validate(&Common{Output: OutputJSONL}))
}

func TestUsageCommonPrintsDefaults(t *testing.T) {
	_, _, fs := parse(t)
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	UsageCommon(fs, "unfold", "iterative Bayesian unfolding", func(out io.Writer, def func(string) string) {
		_, _ = out.Write([]byte("Input:\n"))
	})
	fs.Usage()
	assert.Contains(t, buf.String(), "unfold – iterative Bayesian unfolding")
	assert.Contains(t, buf.String(), "Input:")
	assert.Contains(t, buf.String(), "Output: text | json | jsonl [text]")
}

func TestPrintExamples(t *testing.T) {
	var buf bytes.Buffer
	PrintExamples(&buf, "unfold", func(w io.Writer) { _, _ = w.Write([]byte("  unfold run.yaml\n")) })
	assert.Contains(t, buf.String(), "unfold quickstart")
	assert.Contains(t, buf.String(), "unfold run.yaml")
	assert.Contains(t, buf.String(), "--help")
	PrintExamples(nil, "unfold", nil)
}
