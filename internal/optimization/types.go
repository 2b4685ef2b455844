// Package optimization defines the shared contracts of the STEEP
// minimization service: the oracle abstraction that supplies objective
// values and derivatives, and the result/trace types produced by the
// iterative solvers.
package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Oracle is the objective function abstraction consumed by the solvers
// and the line search. Implementations are stateless mappings from a
// point to values and must be safe for repeated evaluation.
type Oracle interface {
	// Func evaluates the objective at x.
	Func(x *mat.VecDense) float64

	// Grad evaluates the gradient at x.
	Grad(x *mat.VecDense) *mat.VecDense

	// FuncDirectional evaluates the one-dimensional restriction
	// phi(alpha) = f(x + alpha*d).
	FuncDirectional(x, d *mat.VecDense, alpha float64) float64

	// GradDirectional evaluates the derivative of the restriction,
	// phi'(alpha) = grad f(x + alpha*d) . d.
	GradDirectional(x, d *mat.VecDense, alpha float64) float64
}

// HessianOracle is an Oracle that can additionally evaluate second
// derivatives. Required by Newton's method.
type HessianOracle interface {
	Oracle

	// Hess evaluates the Hessian at x.
	Hess(x *mat.VecDense) *mat.SymDense
}

// Status describes how a solver run terminated.
type Status string

const (
	// StatusSuccess means the relative gradient-norm stopping criterion
	// was satisfied.
	StatusSuccess Status = "success"

	// StatusIterationsExceeded means the iteration budget ran out before
	// the stopping criterion held. This is a normal terminal state, not
	// an error.
	StatusIterationsExceeded Status = "iterations_exceeded"

	// StatusComputationalError means a function or gradient evaluation
	// produced a non-finite value; the run is aborted and the starting
	// point is returned.
	StatusComputationalError Status = "computational_error"

	// StatusStepComputationalError means the line search produced a NaN
	// step size or failed outright.
	StatusStepComputationalError Status = "a_k computational_error"

	// StatusPointComputationalError means the iterate contains Inf.
	StatusPointComputationalError Status = "x_k computational_error"

	// StatusDirectionComputationalError means the search direction
	// contains Inf.
	StatusDirectionComputationalError Status = "d_k computational_error"

	// StatusNewtonDirectionError means the Hessian linear system could
	// not be solved (singular or non-positive-definite Hessian).
	StatusNewtonDirectionError Status = "newton_direction_error"
)

// Result is the outcome of one solver run. X is always the best point
// available for the given status: the final iterate on success or
// exhaustion, the current iterate on direction failures, and the
// original starting point on computational errors.
type Result struct {
	X          *mat.VecDense
	Status     Status
	Iterations int
	History    *History
}

// History is the optional per-iteration trace of a run. The Time, Func
// and GradNorm slices always have equal length: one record per
// iteration plus one final record. X holds the trajectory and is
// populated only for problems of dimension <= 2.
type History struct {
	Time     []float64
	Func     []float64
	GradNorm []float64
	X        []*mat.VecDense
}

// Record appends one trace record. The point is copied, and stored only
// when its dimension is at most two.
func (h *History) Record(elapsed, f, gradNorm float64, x *mat.VecDense) {
	h.Time = append(h.Time, elapsed)
	h.Func = append(h.Func, f)
	h.GradNorm = append(h.GradNorm, gradNorm)
	if x.Len() <= 2 {
		h.X = append(h.X, mat.VecDenseCopyOf(x))
	}
}

// Len reports the number of records.
func (h *History) Len() int {
	return len(h.Func)
}

// VecIsFinite reports whether every element of v is finite.
func VecIsFinite(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		e := v.AtVec(i)
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
	}
	return true
}

// VecHasInf reports whether any element of v is infinite.
func VecHasInf(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if math.IsInf(v.AtVec(i), 0) {
			return true
		}
	}
	return false
}
