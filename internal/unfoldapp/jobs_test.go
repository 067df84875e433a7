package unfoldapp

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unfold-core/covariance"
	"unfold-core/errs"

	"unfold/internal/cli"
)

const doc3 = `
data: [100, 150, 80]
response: [[0.6, 0.2, 0.0], [0.2, 0.5, 0.2], [0.0, 0.1, 0.6]]
ts: chi2
ts_stopping: 0.5
max_iter: 7
cov_type: multinomial
`

func parse(t *testing.T, args ...string) cli.Options {
	t.Helper()
	fs := cli.NewFlagSet("unfold")
	fs.SetOutput(io.Discard)
	o, err := cli.ParseArgs(fs, args)
	require.NoError(t, err)
	return o
}

func TestDocumentSettingsBeatFlagDefaults(t *testing.T) {
	jobs := BuildJobs(parse(t, "-"), strings.NewReader(doc3))
	require.Len(t, jobs, 1)
	j := jobs[0]
	require.NoError(t, j.Err)
	assert.Equal(t, "stdin", j.Name)
	assert.Equal(t, "uniform", j.Prior)
	assert.Equal(t, "chi2", j.Config.TestStatistic)
	assert.Equal(t, 0.5, j.Config.Stopping)
	assert.Equal(t, 7, j.Config.MaxIterations)
	assert.Equal(t, covariance.Multinomial, j.Config.CovModel)
	assert.NotEmpty(t, j.RunID)
	assert.Equal(t, []float64{100, 150, 80}, j.Obs.Counts)
}

func TestExplicitFlagsBeatDocument(t *testing.T) {
	opts := parse(t, "--ts", "rmd", "--ts-stopping", "0.02", "--max-iter", "9", "--cov-type", "poisson", "--history", "--timeout", "1s", "-")
	jobs := BuildJobs(opts, strings.NewReader(doc3))
	require.Len(t, jobs, 1)
	c := jobs[0].Config
	assert.Equal(t, "rmd", c.TestStatistic)
	assert.Equal(t, 0.02, c.Stopping)
	assert.Equal(t, 9, c.MaxIterations)
	assert.Equal(t, covariance.Poisson, c.CovModel)
	assert.True(t, c.KeepHistory)
	assert.Equal(t, "1s", jobs[0].Timeout.String())
}

func TestComparePriorsMakesTwoJobs(t *testing.T) {
	jobs := BuildJobs(parse(t, "--compare-priors", "--cause-limits", "1,2,3", "-"), strings.NewReader(doc3))
	require.Len(t, jobs, 2)
	assert.Equal(t, "uniform", jobs[0].Prior)
	assert.Equal(t, "jeffreys", jobs[1].Prior)
	assert.NotEqual(t, jobs[0].RunID, jobs[1].RunID)
	for _, j := range jobs {
		assert.NoError(t, j.Err)
	}
}

func TestJeffreysWithoutLimitsIsRejected(t *testing.T) {
	jobs := BuildJobs(parse(t, "--prior", "jeffreys", "-"), strings.NewReader(doc3))
	require.Len(t, jobs, 1)
	assert.True(t, errors.Is(jobs[0].Err, errs.ErrInvalidInput))
	assert.Equal(t, "jeffreys", jobs[0].Prior)
}

func TestBadDocumentsBecomeFailedJobs(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte(doc3), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("data: [1, 2]\nresponse: [[0.7, 0.6], [0.5, 0.1]]\n"), 0o644))

	jobs := BuildJobs(parse(t, good, bad, filepath.Join(dir, "missing.yaml")), nil)
	require.Len(t, jobs, 3)
	assert.NoError(t, jobs[0].Err)
	assert.Equal(t, "good", jobs[0].Name)
	assert.True(t, errors.Is(jobs[1].Err, errs.ErrInvalidInput), "column sum > 1")
	assert.True(t, errors.Is(jobs[2].Err, os.ErrNotExist))
}
