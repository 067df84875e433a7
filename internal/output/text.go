// internal/output/text.go
package output

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

func num(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func at(v []float64, i int) string {
	if i >= len(v) {
		return "NA"
	}
	return num(v[i])
}

// WriteText prints one TSV row per run and cause bin. Runs rejected before
// iterating produce no rows. With o.History a second table lists every
// iteration; with o.Cov each run's matrices follow as '#'-prefixed blocks.
func WriteText(w io.Writer, runs []Run, o Options) error {
	if o.Header {
		if _, err := fmt.Fprintln(w, TSVHeader); err != nil {
			return err
		}
	}
	for _, r := range runs {
		res := r.Result
		if res == nil {
			continue
		}
		for i := range res.Unfolded {
			_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				r.Name, r.Prior, res.State, res.Iterations, res.TSName, num(res.TS),
				i, num(res.Unfolded[i]), at(res.StatErr, i), at(res.SysErr, i), at(res.TotalErr, i),
			)
			if err != nil {
				return err
			}
		}
	}

	if o.History {
		if err := writeHistory(w, runs, o.Header); err != nil {
			return err
		}
	}
	if o.Cov {
		for _, r := range runs {
			if r.Result == nil || r.Result.StatCov == nil {
				continue
			}
			if err := writeMatrix(w, "stat_cov", r.Name, r.Result.StatCov); err != nil {
				return err
			}
			if err := writeMatrix(w, "sys_cov", r.Name, r.Result.SysCov); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeHistory(w io.Writer, runs []Run, header bool) error {
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if header {
		if _, err := fmt.Fprintln(w, HistoryTSVHeader); err != nil {
			return err
		}
	}
	for _, r := range runs {
		if r.Result == nil {
			continue
		}
		for _, s := range r.Result.History {
			it := ToAPIIteration(Iteration{State: s})
			for i, u := range s.Unfolded {
				_, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\t%d\t%s\t%s\t%s\n",
					r.Name, r.Prior, s.Iteration, num(s.TS), s.Converged,
					i, num(u), at(it.StatErr, i), at(it.SysErr, i),
				)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeMatrix(w io.Writer, label, name string, s *mat.SymDense) error {
	if _, err := fmt.Fprintf(w, "# %s %s\n", label, name); err != nil {
		return err
	}
	n := s.SymmetricDim()
	cells := make([]string, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cells[j] = num(s.At(i, j))
		}
		if _, err := fmt.Fprintf(w, "#\t%s\n", strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}
