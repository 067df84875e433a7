package input

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unfold-core/errs"
)

const perfect = `
data: [50, 50]
response: [[1, 0], [0, 1]]
efficiencies: [1, 1]
efficiencies_err: [0.1, 0.1]
`

func TestDecodeDefaults(t *testing.T) {
	doc, err := Decode(strings.NewReader(perfect))
	require.NoError(t, err)

	obs := doc.Observation()
	assert.InDeltaSlice(t, []float64{math.Sqrt(50), math.Sqrt(50)}, obs.Err, 1e-12)

	m, err := doc.Model()
	require.NoError(t, err)
	ne, nc := m.Dims()
	assert.Equal(t, 2, ne)
	assert.Equal(t, 2, nc)
	assert.Equal(t, 0.0, m.Err().At(0, 1))

	src, err := doc.PriorSource("")
	require.NoError(t, err)
	assert.Equal(t, "uniform", src.Name())
}

func TestPriorForms(t *testing.T) {
	doc, err := Decode(strings.NewReader(perfect + "prior: [0.25, 0.75]\n"))
	require.NoError(t, err)
	src, err := doc.PriorSource("")
	require.NoError(t, err)
	assert.Equal(t, "custom", src.Name())
	p, err := src.Prior(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, p)

	doc, err = Decode(strings.NewReader(perfect + "prior: jeffreys\ncause_limits: [1, 10]\n"))
	require.NoError(t, err)
	src, err = doc.PriorSource("")
	require.NoError(t, err)
	assert.Equal(t, "jeffreys", src.Name())

	// command line wins
	src, err = doc.PriorSource("uniform")
	require.NoError(t, err)
	assert.Equal(t, "uniform", src.Name())

	_, err = Decode(strings.NewReader(perfect + "prior: {a: 1}\n"))
	assert.Error(t, err)
}

func TestResponseHistogram(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
data: [10, 20]
response_hist: [[90, 10], [10, 90]]
`))
	require.NoError(t, err)
	m, err := doc.Model()
	require.NoError(t, err)
	assert.InDelta(t, 0.9, m.Matrix().At(0, 0), 1e-12)
	assert.InDelta(t, math.Sqrt(90)/100, m.Err().At(0, 0), 1e-12)
	assert.Equal(t, []float64{1, 1}, m.Efficiencies())
}

func TestEfficiencyDefaultsToColumnSums(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
data: [10, 20, 5]
response: [[0.1, 0.0], [0.2, 0.5], [0.7, 0.25]]
`))
	require.NoError(t, err)
	m, err := doc.Model()
	require.NoError(t, err)
	eff := m.Efficiencies()
	assert.InDelta(t, 1.0, eff[0], 1e-12)
	assert.LessOrEqual(t, eff[0], 1.0)
	assert.InDelta(t, 0.75, eff[1], 1e-12)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"no data":      "response: [[1]]\n",
		"no response":  "data: [1]\n",
		"both":         "data: [1]\nresponse: [[1]]\nresponse_hist: [[1]]\n",
		"unknown key":  perfect + "max_iters: 3\n",
		"bad sequence": "data: [1, x]\nresponse: [[1]]\n",
	}
	for name, src := range cases {
		_, err := Decode(strings.NewReader(src))
		assert.Errorf(t, err, name)
	}
	_, err := Decode(strings.NewReader("data: [1]\n"))
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	_, err = Decode(strings.NewReader(perfect + "max_iters: 3\n"))
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	assert.Contains(t, err.Error(), "max_iters")
}

func TestLoadNamesFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "spectrum.yaml")
	require.NoError(t, os.WriteFile(p, []byte(perfect), 0o644))

	doc, err := Load(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "spectrum", doc.Name)
	assert.Equal(t, p, doc.Path)

	doc, err = Load("-", strings.NewReader("name: given\n"+perfect))
	require.NoError(t, err)
	assert.Equal(t, "given", doc.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}
