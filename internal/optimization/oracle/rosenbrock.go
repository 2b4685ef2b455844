package oracle

import (
	"gonum.org/v1/gonum/mat"
)

// Rosenbrock is the n-dimensional Rosenbrock function
//
//	f(x) = sum_{i=1}^{n-1} 100*(x_{i+1} - x_i^2)^2 + (1 - x_i)^2
//
// with its analytic gradient and tridiagonal Hessian. The global
// minimum is f = 0 at x = (1, ..., 1). The narrow curved valley makes
// it a standard stress test for line searches.
type Rosenbrock struct {
	dim int
}

// NewRosenbrock creates the Rosenbrock oracle of the given dimension.
// It panics when dim < 2.
func NewRosenbrock(dim int) *Rosenbrock {
	if dim < 2 {
		panic("oracle: rosenbrock dimension must be at least 2")
	}
	return &Rosenbrock{dim: dim}
}

// Dim reports the problem dimension.
func (r *Rosenbrock) Dim() int {
	return r.dim
}

// Func evaluates the objective at x.
func (r *Rosenbrock) Func(x *mat.VecDense) float64 {
	sum := 0.0
	for i := 0; i < r.dim-1; i++ {
		xi, xn := x.AtVec(i), x.AtVec(i+1)
		t := xn - xi*xi
		sum += 100*t*t + (1-xi)*(1-xi)
	}
	return sum
}

// Grad evaluates the gradient at x.
func (r *Rosenbrock) Grad(x *mat.VecDense) *mat.VecDense {
	g := mat.NewVecDense(r.dim, nil)
	for i := 0; i < r.dim-1; i++ {
		xi, xn := x.AtVec(i), x.AtVec(i+1)
		t := xn - xi*xi
		g.SetVec(i, g.AtVec(i)-400*xi*t-2*(1-xi))
		g.SetVec(i+1, g.AtVec(i+1)+200*t)
	}
	return g
}

// Hess evaluates the tridiagonal Hessian at x.
func (r *Rosenbrock) Hess(x *mat.VecDense) *mat.SymDense {
	h := mat.NewSymDense(r.dim, nil)
	for i := 0; i < r.dim-1; i++ {
		xi, xn := x.AtVec(i), x.AtVec(i+1)
		h.SetSym(i, i, h.At(i, i)+1200*xi*xi-400*xn+2)
		h.SetSym(i+1, i+1, h.At(i+1, i+1)+200)
		h.SetSym(i, i+1, -400*xi)
	}
	return h
}

// FuncDirectional evaluates f(x + alpha*d).
func (r *Rosenbrock) FuncDirectional(x, d *mat.VecDense, alpha float64) float64 {
	return r.Func(pointAlong(x, d, alpha))
}

// GradDirectional evaluates grad f(x + alpha*d) . d.
func (r *Rosenbrock) GradDirectional(x, d *mat.VecDense, alpha float64) float64 {
	return mat.Dot(r.Grad(pointAlong(x, d, alpha)), d)
}
