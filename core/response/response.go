// core/response/response.go
// Response model: P(effect_i | cause_j) with per-entry uncertainty, plus
// per-cause efficiencies. Rows are effect bins, columns are cause bins, and
// each column sums to that cause's efficiency.
package response

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"unfold-core/errs"
)

// ColumnTolerance bounds how far a column sum may exceed its efficiency.
const ColumnTolerance = 1e-6

// Model is immutable once built; accessors hand out copies or read-only views.
type Model struct {
	resp    *mat.Dense // effects × causes
	respErr *mat.Dense
	eff     []float64
	effErr  []float64
}

// New validates an already-normalized response matrix.
func New(response, responseErr [][]float64, eff, effErr []float64) (*Model, error) {
	r, err := dense("response", response)
	if err != nil {
		return nil, err
	}
	re, err := dense("response_err", responseErr)
	if err != nil {
		return nil, err
	}
	m := &Model{resp: r, respErr: re, eff: clone(eff), effErr: clone(effErr)}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// FromHistogram normalizes a raw response histogram (counts of effect given
// cause). Each column is divided by its sum and multiplied by the cause's
// efficiency; counts are treated as Poisson, so the uncertainty of an entry
// is sqrt(count) scaled by the same factor. Efficiency uncertainty is carried
// separately and not folded into the entry errors.
func FromHistogram(counts [][]float64, eff, effErr []float64) (*Model, error) {
	h, err := dense("response_hist", counts)
	if err != nil {
		return nil, err
	}
	ne, nc := h.Dims()
	if len(eff) != nc {
		return nil, errs.Invalid("efficiencies", "length %d does not match %d cause bins", len(eff), nc)
	}
	r := mat.NewDense(ne, nc, nil)
	re := mat.NewDense(ne, nc, nil)
	for j := 0; j < nc; j++ {
		sum := mat.Sum(h.ColView(j))
		if sum <= 0 {
			return nil, errs.Invalid("response_hist", "column %d sums to %v; cannot normalize", j, sum)
		}
		scale := eff[j] / sum
		for i := 0; i < ne; i++ {
			v := h.At(i, j)
			r.Set(i, j, v*scale)
			re.Set(i, j, math.Sqrt(v)*scale)
		}
	}
	m := &Model{resp: r, respErr: re, eff: clone(eff), effErr: clone(effErr)}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Dims returns (effect bins, cause bins).
func (m *Model) Dims() (effects, causes int) { return m.resp.Dims() }

// Matrix is a read-only view of P(effect|cause).
func (m *Model) Matrix() mat.Matrix { return m.resp }

// Err is a read-only view of the entry uncertainties.
func (m *Model) Err() mat.Matrix { return m.respErr }

func (m *Model) Efficiencies() []float64  { return clone(m.eff) }
func (m *Model) EfficiencyErr() []float64 { return clone(m.effErr) }

// Mixing computes, for the current estimate nc, the expected effect counts
// f_i = Σ_j P_ij nc_j and the unfolding matrix
//
//	M_ji = P_ij nc_j / (ε_j f_i)
//
// (causes × effects). Effects with f_i == 0 and causes with ε_j == 0
// contribute nothing.
func (m *Model) Mixing(nc []float64) (mix *mat.Dense, expected []float64) {
	ne, ncause := m.resp.Dims()
	f := mat.NewVecDense(ne, nil)
	f.MulVec(m.resp, mat.NewVecDense(ncause, clone(nc)))
	expected = make([]float64, ne)
	for i := range expected {
		expected[i] = f.AtVec(i)
	}

	mix = mat.NewDense(ncause, ne, nil)
	for j := 0; j < ncause; j++ {
		if m.eff[j] == 0 || nc[j] == 0 {
			continue
		}
		w := nc[j] / m.eff[j]
		for i := 0; i < ne; i++ {
			if expected[i] == 0 {
				continue
			}
			mix.Set(j, i, m.resp.At(i, j)*w/expected[i])
		}
	}
	return mix, expected
}

func dense(field string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errs.Invalid(field, "matrix is empty")
	}
	nc := len(rows[0])
	data := make([]float64, 0, len(rows)*nc)
	for i, row := range rows {
		if len(row) != nc {
			return nil, errs.Invalid(field, "row %d has %d columns, want %d", i, len(row), nc)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), nc, data), nil
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
