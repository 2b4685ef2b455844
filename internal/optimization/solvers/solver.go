// Package solvers implements the iterative unconstrained minimization
// drivers: gradient descent and Newton's method. Both share the same
// loop structure and delegate step-size selection to a line search
// policy.
package solvers

import (
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/STEEP/internal/optimization"
	"github.com/copyleftdev/STEEP/internal/optimization/linesearch"
)

const (
	// DefaultTolerance is the relative gradient-norm stopping tolerance.
	DefaultTolerance = 1e-5
	// DefaultGradientDescentIterations is the gradient descent
	// iteration budget.
	DefaultGradientDescentIterations = 10000
	// DefaultNewtonIterations is the Newton iteration budget. Newton
	// needs far fewer iterations when it converges at all.
	DefaultNewtonIterations = 100
)

// Config holds the settings shared by the solvers. The zero value is
// usable: every field takes its documented default.
type Config struct {
	// Tolerance is the relative stopping tolerance: the run succeeds
	// when ||grad f(x_k)|| <= Tolerance * ||grad f(x_0)||.
	Tolerance float64

	// MaxIterations bounds the number of iterations.
	MaxIterations int

	// LineSearch selects the step size on every iteration. Defaults to
	// the strong-Wolfe policy.
	LineSearch *linesearch.Tool

	// Trace enables per-iteration history recording.
	Trace bool

	// Logger receives per-run debug logging.
	Logger *zap.Logger
}

func (c Config) withDefaults(maxIterations int) Config {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = maxIterations
	}
	if c.LineSearch == nil {
		c.LineSearch = linesearch.Default()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// directionFunc computes the search direction from the current iterate
// and its gradient. A non-empty status aborts the run with the current
// iterate returned unchanged.
type directionFunc func(x, g *mat.VecDense) (*mat.VecDense, optimization.Status)

// run is the iteration driver shared by gradient descent and Newton.
// It owns the iterate, carries the previously accepted step as the
// warm-start for the next line search, and converts non-finite values
// into terminal statuses instead of propagating them.
func run(o optimization.Oracle, x0 *mat.VecDense, cfg Config, direction directionFunc) *optimization.Result {
	start := time.Now()

	var hist *optimization.History
	if cfg.Trace {
		hist = &optimization.History{}
	}

	x := mat.VecDenseCopyOf(x0)
	g0Norm := mat.Norm(o.Grad(x0), 2)

	cfg.Logger.Debug("starting run",
		zap.Int("dim", x0.Len()),
		zap.Float64("tolerance", cfg.Tolerance),
		zap.Int("max_iterations", cfg.MaxIterations),
		zap.Stringer("line_search", cfg.LineSearch.Method()),
	)

	finish := func(pt *mat.VecDense, status optimization.Status, iters int) *optimization.Result {
		cfg.Logger.Debug("run finished",
			zap.String("status", string(status)),
			zap.Int("iterations", iters),
		)
		return &optimization.Result{X: pt, Status: status, Iterations: iters, History: hist}
	}

	prevStep := 0.0
	for k := 0; k < cfg.MaxIterations; k++ {
		f := o.Func(x)
		g := o.Grad(x)
		if !isFinite(f) || !optimization.VecIsFinite(g) {
			return finish(mat.VecDenseCopyOf(x0), optimization.StatusComputationalError, k)
		}
		gNorm := mat.Norm(g, 2)
		if hist != nil {
			hist.Record(time.Since(start).Seconds(), f, gNorm, x)
		}
		if gNorm <= cfg.Tolerance*g0Norm {
			return finish(x, optimization.StatusSuccess, k)
		}

		d, status := direction(x, g)
		if status != "" {
			return finish(x, status, k)
		}

		step, err := cfg.LineSearch.SelectStep(o, x, d, prevStep)
		if err != nil || math.IsNaN(step) {
			return finish(x, optimization.StatusStepComputationalError, k)
		}
		prevStep = step

		if optimization.VecHasInf(x) {
			return finish(x, optimization.StatusPointComputationalError, k)
		}
		if optimization.VecHasInf(d) {
			return finish(x, optimization.StatusDirectionComputationalError, k)
		}
		x.AddScaledVec(x, step, d)
	}

	// One final record and stopping test after the budget runs out.
	f := o.Func(x)
	g := o.Grad(x)
	if !isFinite(f) || !optimization.VecIsFinite(g) {
		return finish(mat.VecDenseCopyOf(x0), optimization.StatusComputationalError, cfg.MaxIterations)
	}
	gNorm := mat.Norm(g, 2)
	if hist != nil {
		hist.Record(time.Since(start).Seconds(), f, gNorm, x)
	}
	if gNorm <= cfg.Tolerance*g0Norm {
		return finish(x, optimization.StatusSuccess, cfg.MaxIterations)
	}
	return finish(x, optimization.StatusIterationsExceeded, cfg.MaxIterations)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
