// Package oracle provides concrete objective families implementing the
// optimization.Oracle interfaces.
package oracle

import (
	"gonum.org/v1/gonum/mat"
)

// Quadratic is the convex quadratic objective
//
//	f(x) = 1/2 x^T A x - b^T x
//
// with symmetric A. Its gradient is Ax - b and its Hessian is the
// constant matrix A. When A is positive definite the unique minimizer
// is the solution of Ax = b.
type Quadratic struct {
	a *mat.SymDense
	b *mat.VecDense
}

// NewQuadratic creates the quadratic oracle for the given A and b.
// It panics when the dimensions do not agree.
func NewQuadratic(a *mat.SymDense, b *mat.VecDense) *Quadratic {
	n, _ := a.Dims()
	if n != b.Len() {
		panic("oracle: quadratic dimensions do not agree")
	}
	return &Quadratic{a: a, b: b}
}

// Func evaluates 1/2 x^T A x - b^T x.
func (q *Quadratic) Func(x *mat.VecDense) float64 {
	ax := mat.NewVecDense(x.Len(), nil)
	ax.MulVec(q.a, x)
	return 0.5*mat.Dot(x, ax) - mat.Dot(q.b, x)
}

// Grad evaluates Ax - b.
func (q *Quadratic) Grad(x *mat.VecDense) *mat.VecDense {
	g := mat.NewVecDense(x.Len(), nil)
	g.MulVec(q.a, x)
	g.SubVec(g, q.b)
	return g
}

// Hess returns A.
func (q *Quadratic) Hess(_ *mat.VecDense) *mat.SymDense {
	h := mat.NewSymDense(q.b.Len(), nil)
	h.CopySym(q.a)
	return h
}

// FuncDirectional evaluates f(x + alpha*d).
func (q *Quadratic) FuncDirectional(x, d *mat.VecDense, alpha float64) float64 {
	return q.Func(pointAlong(x, d, alpha))
}

// GradDirectional evaluates grad f(x + alpha*d) . d.
func (q *Quadratic) GradDirectional(x, d *mat.VecDense, alpha float64) float64 {
	return mat.Dot(q.Grad(pointAlong(x, d, alpha)), d)
}

// pointAlong returns x + alpha*d as a fresh vector.
func pointAlong(x, d *mat.VecDense, alpha float64) *mat.VecDense {
	y := mat.NewVecDense(x.Len(), nil)
	y.AddScaledVec(x, alpha, d)
	return y
}
