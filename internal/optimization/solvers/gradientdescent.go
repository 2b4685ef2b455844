package solvers

import (
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/STEEP/internal/optimization"
)

// GradientDescent minimizes the oracle's objective by steepest descent
// from x0, selecting the step on every iteration with the configured
// line search. The run terminates with StatusSuccess once the gradient
// norm falls below Tolerance times the gradient norm at x0.
func GradientDescent(o optimization.Oracle, x0 *mat.VecDense, cfg Config) *optimization.Result {
	cfg = cfg.withDefaults(DefaultGradientDescentIterations)
	cfg.Logger = cfg.Logger.Named("gradient_descent")
	return run(o, x0, cfg, steepestDescent)
}

// steepestDescent returns d = -grad f(x).
func steepestDescent(_, g *mat.VecDense) (*mat.VecDense, optimization.Status) {
	d := mat.NewVecDense(g.Len(), nil)
	d.ScaleVec(-1, g)
	return d, ""
}
