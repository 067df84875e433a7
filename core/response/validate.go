package response

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"unfold-core/errs"
)

func (m *Model) validate() error {
	ne, nc := m.resp.Dims()
	if re, ce := m.respErr.Dims(); re != ne || ce != nc {
		return errs.Invalid("response_err", "shape %dx%d does not match response %dx%d", re, ce, ne, nc)
	}
	if len(m.eff) != nc {
		return errs.Invalid("efficiencies", "length %d does not match %d cause bins", len(m.eff), nc)
	}
	if len(m.effErr) != nc {
		return errs.Invalid("efficiencies_err", "length %d does not match %d cause bins", len(m.effErr), nc)
	}
	for j := 0; j < nc; j++ {
		if !finite(m.eff[j]) || m.eff[j] < 0 || m.eff[j] > 1 {
			return errs.Invalid("efficiencies", "bin %d is %v; want a value in [0,1]", j, m.eff[j])
		}
		if !finite(m.effErr[j]) || m.effErr[j] < 0 {
			return errs.Invalid("efficiencies_err", "bin %d is %v; want a finite value ≥ 0", j, m.effErr[j])
		}
		for i := 0; i < ne; i++ {
			if v := m.resp.At(i, j); !finite(v) || v < 0 {
				return errs.Invalid("response", "entry (%d,%d) is %v; want a finite value ≥ 0", i, j, v)
			}
			if v := m.respErr.At(i, j); !finite(v) || v < 0 {
				return errs.Invalid("response_err", "entry (%d,%d) is %v; want a finite value ≥ 0", i, j, v)
			}
		}
		if sum := mat.Sum(m.resp.ColView(j)); sum > m.eff[j]+ColumnTolerance {
			return errs.Invalid("response", "column %d sums to %v, above efficiency %v", j, sum, m.eff[j])
		}
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
