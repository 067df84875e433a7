package prior

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"unfold-core/errs"
)

func TestUniformSumsToOne(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 100} {
		p, err := Uniform(n)
		require.NoError(t, err)
		require.Len(t, p, n)
		assert.InDelta(t, 1.0, floats.Sum(p), 1e-12, "n=%d", n)
		for _, x := range p {
			assert.InDelta(t, 1/float64(n), x, 1e-15)
		}
	}
}

func TestUniformRejectsNonPositive(t *testing.T) {
	_, err := Uniform(0)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestJeffreysPositiveAndDecreasing(t *testing.T) {
	limits := []float64{1, 2, 5, 10, 50, 100}
	p, err := Jeffreys(limits)
	require.NoError(t, err)
	for i := range p {
		assert.Greater(t, p[i], 0.0)
		if i > 0 {
			assert.Less(t, p[i], p[i-1], "bin %d", i)
		}
	}
	// 1/(ln(100)·1)
	assert.InDelta(t, 0.2171472409516259, p[0], 1e-12)
}

func TestJeffreysInvalid(t *testing.T) {
	for name, limits := range map[string][]float64{
		"empty":    nil,
		"zero":     {0, 1, 2},
		"negative": {-1, 2},
		"flat":     {3, 3, 3},
	} {
		_, err := Jeffreys(limits)
		assert.Truef(t, errors.Is(err, errs.ErrInvalidInput), "%s: %v", name, err)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]float64{0.25, 0.75}, 2))
	assert.Error(t, Validate([]float64{0.25, 0.75}, 3))
	assert.Error(t, Validate([]float64{0.5, 0.6}, 2))
	assert.Error(t, Validate([]float64{-0.5, 1.5}, 2))
}

func TestSources(t *testing.T) {
	u, err := ByName("", nil)
	require.NoError(t, err)
	assert.Equal(t, "uniform", u.Name())

	_, err = ByName("jeffreys", nil)
	assert.Error(t, err)

	j, err := ByName("Jeffreys", []float64{1, 10, 100})
	require.NoError(t, err)
	p, err := j.Prior(3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, floats.Sum(p), 1e-12)

	_, err = j.Prior(4)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	v := Vector{0.1, 0.9}
	got, err := v.Prior(2)
	require.NoError(t, err)
	got[0] = 42
	assert.Equal(t, 0.1, v[0], "Prior must copy")

	_, err = ByName("flat", nil)
	assert.Error(t, err)
}
