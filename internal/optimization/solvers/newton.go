package solvers

import (
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/STEEP/internal/optimization"
)

// Newton minimizes the oracle's objective by Newton's method from x0.
// The direction on each iteration solves H(x_k) d = -grad f(x_k) via
// Cholesky factorization; a Hessian that is singular or not positive
// definite terminates the run with StatusNewtonDirectionError and the
// current iterate. Everything else mirrors GradientDescent.
func Newton(o optimization.HessianOracle, x0 *mat.VecDense, cfg Config) *optimization.Result {
	cfg = cfg.withDefaults(DefaultNewtonIterations)
	cfg.Logger = cfg.Logger.Named("newton")
	return run(o, x0, cfg, newtonDirection(o))
}

func newtonDirection(o optimization.HessianOracle) directionFunc {
	return func(x, g *mat.VecDense) (*mat.VecDense, optimization.Status) {
		h := o.Hess(x)

		var chol mat.Cholesky
		if ok := chol.Factorize(h); !ok {
			return nil, optimization.StatusNewtonDirectionError
		}

		n := g.Len()
		rhs := mat.NewVecDense(n, nil)
		rhs.ScaleVec(-1, g)
		d := mat.NewVecDense(n, nil)
		if err := chol.SolveVecTo(d, rhs); err != nil {
			return nil, optimization.StatusNewtonDirectionError
		}
		return d, ""
	}
}
