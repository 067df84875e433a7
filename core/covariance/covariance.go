// core/covariance/covariance.go
// Error propagation for the iterative Bayesian update.
//
// Each update n̂ = M·n is treated as a map of the observed counts n, the
// response entries P, the efficiencies ε and the previous estimate n0. The
// propagator carries the total derivatives of the current estimate with
// respect to n, P and ε across iterations:
//
//	D_x(t) = ∂n̂/∂x|direct + T·D_x(t-1),   T = ∂n̂/∂n0 = diag(r) − G
//	r_i    = (1/ε_i) Σ_j P_ji n_j/f_j
//	G_il   = Σ_j M_ij (n_j/f_j) P_jl
//
// Statistical covariance is D_n·V_n·D_nᵀ. Systematic covariance sums, in
// quadrature, independent perturbations of every response entry and every
// efficiency by its own uncertainty.
package covariance

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"unfold-core/errs"
	"unfold-core/response"
)

// Model selects the covariance of the observed counts.
type Model int

const (
	// Poisson uses diag(data_err²).
	Poisson Model = iota
	// Multinomial uses n_j(δ_jk − n_k/N) with N = Σ n.
	Multinomial
)

func (m Model) String() string {
	switch m {
	case Poisson:
		return "poisson"
	case Multinomial:
		return "multinomial"
	default:
		return "unknown"
	}
}

// ParseModel maps "poisson" (default for "") and "multinomial".
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "poisson":
		return Poisson, nil
	case "multinomial":
		return Multinomial, nil
	}
	return 0, errs.Invalid("cov_type", "unknown covariance model %q (want poisson | multinomial)", s)
}

// Covariance is the (causes × causes) pair produced by one step.
type Covariance struct {
	Stat *mat.SymDense
	Sys  *mat.SymDense
}

// Propagator is owned by a single run; it is not safe for concurrent use.
type Propagator struct {
	p       mat.Matrix // effects × causes
	eff     []float64
	effErr  []float64
	data    []float64
	dataErr []float64
	kind    Model
	ne, nc  int

	trackP bool      // any response entry has non-zero uncertainty
	sigmaP []float64 // flattened (effect a, cause b) → a*nc+b

	steps int
	dn    *mat.Dense // causes × effects
	dP    *mat.Dense // causes × (effects·causes)
	dEff  *mat.Dense // causes × causes
}

// New prepares a propagator for one run over data with per-bin errors.
func New(model *response.Model, data, dataErr []float64, kind Model) *Propagator {
	ne, nc := model.Dims()
	pr := &Propagator{
		p:       model.Matrix(),
		eff:     model.Efficiencies(),
		effErr:  model.EfficiencyErr(),
		data:    append([]float64(nil), data...),
		dataErr: append([]float64(nil), dataErr...),
		kind:    kind,
		ne:      ne,
		nc:      nc,
		dn:      mat.NewDense(nc, ne, nil),
		dEff:    mat.NewDense(nc, nc, nil),
	}
	pr.sigmaP = make([]float64, ne*nc)
	re := model.Err()
	for a := 0; a < ne; a++ {
		for b := 0; b < nc; b++ {
			s := re.At(a, b)
			pr.sigmaP[a*nc+b] = s
			if s != 0 {
				pr.trackP = true
			}
		}
	}
	if pr.trackP {
		pr.dP = mat.NewDense(nc, ne*nc, nil)
	}
	return pr
}

// Jacobian is a read-only view of ∂unfolded/∂data after the last step.
func (pr *Propagator) Jacobian() mat.Matrix { return pr.dn }

// Step advances the derivatives by one update from prev to next, where mix
// and expected are the unfolding matrix and expected effect counts computed
// from prev (see response.Model.Mixing).
func (pr *Propagator) Step(iteration int, prev, next []float64, mix *mat.Dense, expected []float64) (Covariance, error) {
	ne, nc := pr.ne, pr.nc

	q := make([]float64, ne) // n_j / f_j
	for j := 0; j < ne; j++ {
		if expected[j] != 0 {
			q[j] = pr.data[j] / expected[j]
		}
	}

	var T *mat.Dense
	if pr.steps > 0 {
		T = pr.transfer(mix, q)
	}

	// ∂/∂n: M + T·D_n
	dn := mat.DenseCopyOf(mix)
	if T != nil {
		dn.Add(dn, mulOf(T, pr.dn))
	}
	pr.dn = dn

	// ∂/∂ε: -n̂_i/ε_i on the diagonal
	dEff := mat.NewDense(nc, nc, nil)
	for i := 0; i < nc; i++ {
		if pr.eff[i] > 0 {
			dEff.Set(i, i, -next[i]/pr.eff[i])
		}
	}
	if T != nil {
		dEff.Add(dEff, mulOf(T, pr.dEff))
	}
	pr.dEff = dEff

	if pr.trackP {
		dP := pr.directP(prev, mix, q)
		if T != nil {
			dP.Add(dP, mulOf(T, pr.dP))
		}
		pr.dP = dP
	}
	pr.steps++

	stat := pr.statCov()
	if err := checkFinite(stat, iteration, "stat_cov"); err != nil {
		return Covariance{}, err
	}
	sys := pr.sysCov()
	if err := checkFinite(sys, iteration, "sys_cov"); err != nil {
		return Covariance{}, err
	}
	return Covariance{Stat: stat, Sys: sys}, nil
}

// transfer builds T = diag(r) − G for the previous estimate.
func (pr *Propagator) transfer(mix *mat.Dense, q []float64) *mat.Dense {
	ne, nc := pr.ne, pr.nc

	mq := mat.NewDense(nc, ne, nil)
	mq.Apply(func(i, j int, v float64) float64 { return v * q[j] }, mix)
	g := mat.NewDense(nc, nc, nil)
	g.Mul(mq, pr.p)

	t := mat.NewDense(nc, nc, nil)
	t.Scale(-1, g)
	for i := 0; i < nc; i++ {
		if pr.eff[i] == 0 {
			continue
		}
		var r float64
		for j := 0; j < ne; j++ {
			r += pr.p.At(j, i) * q[j]
		}
		t.Set(i, i, t.At(i, i)+r/pr.eff[i])
	}
	return t
}

// directP is ∂n̂_i/∂P_ab holding n0 fixed:
//
//	δ_ib n0_i n_a/(ε_i f_a) − M_ia n_a n0_b/f_a
func (pr *Propagator) directP(prev []float64, mix *mat.Dense, q []float64) *mat.Dense {
	ne, nc := pr.ne, pr.nc
	d := mat.NewDense(nc, ne*nc, nil)
	for a := 0; a < ne; a++ {
		if q[a] == 0 {
			continue
		}
		for i := 0; i < nc; i++ {
			mia := mix.At(i, a)
			for b := 0; b < nc; b++ {
				v := -mia * q[a] * prev[b]
				if i == b && pr.eff[i] > 0 {
					v += prev[i] * q[a] / pr.eff[i]
				}
				d.Set(i, a*nc+b, v)
			}
		}
	}
	return d
}

func (pr *Propagator) statCov() *mat.SymDense {
	nc := pr.nc
	out := mat.NewSymDense(nc, nil)
	switch pr.kind {
	case Multinomial:
		vn := multinomial(pr.data)
		tmp := mat.NewDense(nc, pr.ne, nil)
		tmp.Mul(pr.dn, vn)
		full := mat.NewDense(nc, nc, nil)
		full.Mul(tmp, pr.dn.T())
		symmetrizeInto(out, full)
	default:
		out.SymOuterK(1, scaleCols(pr.dn, pr.dataErr))
	}
	return out
}

func (pr *Propagator) sysCov() *mat.SymDense {
	out := mat.NewSymDense(pr.nc, nil)
	out.SymOuterK(1, scaleCols(pr.dEff, pr.effErr))
	if pr.trackP {
		out.SymRankK(out, 1, scaleCols(pr.dP, pr.sigmaP))
	}
	return out
}

func multinomial(n []float64) *mat.SymDense {
	k := len(n)
	var total float64
	for _, v := range n {
		total += v
	}
	v := mat.NewSymDense(k, nil)
	if total <= 0 {
		return v
	}
	for j := 0; j < k; j++ {
		for l := j; l < k; l++ {
			x := -n[j] * n[l] / total
			if j == l {
				x += n[j]
			}
			v.SetSym(j, l, x)
		}
	}
	return v
}

func mulOf(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(a, b)
	return &out
}

func scaleCols(m *mat.Dense, s []float64) *mat.Dense {
	out := mat.DenseCopyOf(m)
	out.Apply(func(_, j int, v float64) float64 { return v * s[j] }, out)
	return out
}

// symmetrizeInto writes (a + aᵀ)/2 into dst.
func symmetrizeInto(dst *mat.SymDense, a mat.Matrix) {
	n, _ := a.Dims()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
}

func checkFinite(s *mat.SymDense, iteration int, quantity string) error {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := s.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return &errs.NumericInstabilityError{Iteration: iteration, Bin: i, Quantity: quantity, Value: v}
			}
		}
	}
	return nil
}
