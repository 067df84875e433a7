// Package unfold runs the iterative Bayesian unfolding loop. It never imports
// app, writers, cli, or pipeline; keep it domain-only.
//
// The estimate is carried in counts: iteration 0 is prior × Σ data and no
// renormalization is applied between iterations. Each run owns its state, so
// independent runs may execute concurrently.
//
// State machine:
//
//	INITIALIZED → ITERATING → CONVERGED | MAX_ITER_REACHED | FAILED
package unfold
