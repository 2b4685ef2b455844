// Package linesearch implements the step-size selection policies used
// by the iterative solvers: a fixed step, Armijo backtracking, and a
// strong-Wolfe search with Armijo fallback.
package linesearch

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/STEEP/internal/optimization"
)

// Method identifies a step-size selection policy.
type Method int

const (
	// Constant returns the same configured step on every call.
	Constant Method = iota
	// Armijo backtracks by halving until the sufficient-decrease
	// condition holds.
	Armijo
	// Wolfe enforces the strong Wolfe conditions, falling back to
	// Armijo backtracking when the search fails.
	Wolfe
)

// String returns the method name used on the configuration surface.
func (m Method) String() string {
	switch m {
	case Constant:
		return "Constant"
	case Armijo:
		return "Armijo"
	default:
		return "Wolfe"
	}
}

// ParseMethod maps a method name to its Method. Matching is
// case-insensitive; an unrecognized name is a configuration error.
func ParseMethod(name string) (Method, error) {
	switch {
	case strings.EqualFold(name, "Constant"):
		return Constant, nil
	case strings.EqualFold(name, "Armijo"):
		return Armijo, nil
	case strings.EqualFold(name, "Wolfe"):
		return Wolfe, nil
	}
	return 0, optimization.NewErrorf("unknown line search method %q", name).WithOperation("linesearch.ParseMethod")
}

const (
	// DefaultConstantStep is the step returned by the Constant policy
	// when no step is configured.
	DefaultConstantStep = 1.0
	// DefaultSufficientDecrease is the Armijo constant c1.
	DefaultSufficientDecrease = 1e-4
	// DefaultCurvature is the strong Wolfe curvature constant c2.
	DefaultCurvature = 0.9
	// DefaultInitialStep seeds the backtracking and Wolfe searches.
	DefaultInitialStep = 1.0

	// minBacktrackingStep bounds the halving loop. Non-descent
	// directions are rejected before the loop starts, so reaching the
	// floor means the objective evaluates to NaN along the direction.
	minBacktrackingStep = 1e-20

	// maxWolfeIterations bounds the More-Thuente search before the
	// Armijo fallback takes over.
	maxWolfeIterations = 100
)

// Options is the dictionary-like construction surface for a Tool, as
// received from configuration or the HTTP API. Zero-valued parameters
// take their documented defaults.
type Options struct {
	Method string  `json:"method"`
	C      float64 `json:"c,omitempty"`
	C1     float64 `json:"c1,omitempty"`
	C2     float64 `json:"c2,omitempty"`
	Alpha0 float64 `json:"alpha_0,omitempty"`
}

// Tool selects step sizes for a line search along a descent direction.
// A Tool is immutable after construction and safe to share across
// concurrent runs.
type Tool struct {
	method Method

	c      float64 // Constant step.
	c1     float64 // Sufficient-decrease constant.
	c2     float64 // Curvature constant.
	alpha0 float64 // Initial step for backtracking and Wolfe.
}

// NewConstant returns a Tool that always selects step c.
func NewConstant(c float64) (*Tool, error) {
	if c <= 0 {
		return nil, optimization.NewErrorf("constant step must be positive, got %v", c).WithOperation("linesearch.NewConstant")
	}
	return &Tool{method: Constant, c: c}, nil
}

// NewArmijo returns a backtracking Tool with sufficient-decrease
// constant c1 and initial step alpha0. Zero values take defaults.
func NewArmijo(c1, alpha0 float64) (*Tool, error) {
	if c1 == 0 {
		c1 = DefaultSufficientDecrease
	}
	if alpha0 == 0 {
		alpha0 = DefaultInitialStep
	}
	if c1 <= 0 || c1 >= 1 {
		return nil, optimization.NewErrorf("c1 must be in (0, 1), got %v", c1).WithOperation("linesearch.NewArmijo")
	}
	if alpha0 <= 0 {
		return nil, optimization.NewErrorf("alpha_0 must be positive, got %v", alpha0).WithOperation("linesearch.NewArmijo")
	}
	return &Tool{method: Armijo, c1: c1, alpha0: alpha0}, nil
}

// NewWolfe returns a strong-Wolfe Tool with constants c1 and c2 and
// initial step alpha0. Zero values take defaults.
func NewWolfe(c1, c2, alpha0 float64) (*Tool, error) {
	if c1 == 0 {
		c1 = DefaultSufficientDecrease
	}
	if c2 == 0 {
		c2 = DefaultCurvature
	}
	if alpha0 == 0 {
		alpha0 = DefaultInitialStep
	}
	if c1 <= 0 || c1 >= 1 {
		return nil, optimization.NewErrorf("c1 must be in (0, 1), got %v", c1).WithOperation("linesearch.NewWolfe")
	}
	if c2 <= c1 || c2 >= 1 {
		return nil, optimization.NewErrorf("c2 must be in (c1, 1), got %v", c2).WithOperation("linesearch.NewWolfe")
	}
	if alpha0 <= 0 {
		return nil, optimization.NewErrorf("alpha_0 must be positive, got %v", alpha0).WithOperation("linesearch.NewWolfe")
	}
	return &Tool{method: Wolfe, c1: c1, c2: c2, alpha0: alpha0}, nil
}

// Default returns the Wolfe policy with default constants.
func Default() *Tool {
	t, _ := NewWolfe(0, 0, 0)
	return t
}

// FromOptions constructs a Tool from its configuration surface.
func FromOptions(opts Options) (*Tool, error) {
	method, err := ParseMethod(opts.Method)
	if err != nil {
		return nil, err
	}
	switch method {
	case Constant:
		if opts.C == 0 {
			opts.C = DefaultConstantStep
		}
		return NewConstant(opts.C)
	case Armijo:
		return NewArmijo(opts.C1, opts.Alpha0)
	default:
		return NewWolfe(opts.C1, opts.C2, opts.Alpha0)
	}
}

// Method reports the policy variant of the tool.
func (t *Tool) Method() Method {
	return t.method
}

// SelectStep chooses a step size alpha for the search direction d at
// the point x, so that phi(alpha) = f(x + alpha*d) satisfies the
// tool's acceptance criterion. prev is the step accepted on the
// previous iteration and warm-starts the backtracking procedure; pass
// zero when there is no previous step.
//
// The returned error indicates that no acceptable step exists within
// the search bounds, which for a true descent direction cannot happen.
func (t *Tool) SelectStep(o optimization.Oracle, x, d *mat.VecDense, prev float64) (float64, error) {
	switch t.method {
	case Constant:
		return t.c, nil
	case Armijo:
		return t.backtrack(o, x, d, prev)
	default:
		if step, ok := t.strongWolfe(o, x, d); ok {
			return step, nil
		}
		return t.backtrack(o, x, d, prev)
	}
}

// backtrack halves the candidate step until the sufficient-decrease
// condition phi(alpha) <= phi(0) + c1*alpha*phi'(0) holds. The first
// candidate is alpha0, or twice the previously accepted step so the
// step can grow back after a small accepted step.
func (t *Tool) backtrack(o optimization.Oracle, x, d *mat.VecDense, prev float64) (float64, error) {
	phi0 := o.FuncDirectional(x, d, 0)
	dphi0 := o.GradDirectional(x, d, 0)
	if !(dphi0 < 0) {
		// Halving cannot be trusted to reject an ascent direction:
		// once alpha reaches the order of machine epsilon, phi(alpha)
		// and the Armijo bound both round to phi(0) and a meaningless
		// step would be accepted.
		return 0, optimization.NewErrorf("not a descent direction: phi'(0) = %v", dphi0).WithOperation("linesearch.backtrack")
	}

	alpha := t.alpha0
	if prev > 0 {
		alpha = 2 * prev
	}
	for alpha > minBacktrackingStep {
		if o.FuncDirectional(x, d, alpha) <= phi0+t.c1*alpha*dphi0 {
			return alpha, nil
		}
		alpha /= 2
	}
	return alpha, optimization.NewErrorf("no step above %v satisfies sufficient decrease; phi'(0) = %v", minBacktrackingStep, dphi0).WithOperation("linesearch.backtrack")
}

// strongWolfe runs the More-Thuente bracketing search for a step
// satisfying the strong Wolfe conditions. It reports failure instead
// of returning an error so the caller can fall back to backtracking.
func (t *Tool) strongWolfe(o optimization.Oracle, x, d *mat.VecDense) (float64, bool) {
	dphi0 := o.GradDirectional(x, d, 0)
	if !(dphi0 < 0) {
		// More-Thuente requires a descent direction.
		return 0, false
	}
	phi0 := o.FuncDirectional(x, d, 0)

	mt := optimize.MoreThuente{
		DecreaseFactor:  t.c1,
		CurvatureFactor: t.c2,
	}
	step := t.alpha0
	op := mt.Init(phi0, dphi0, step)
	for i := 0; i < maxWolfeIterations; i++ {
		var f, g float64
		if op&optimize.FuncEvaluation != 0 {
			f = o.FuncDirectional(x, d, step)
		}
		if op&optimize.GradEvaluation != 0 {
			g = o.GradDirectional(x, d, step)
		}
		var err error
		op, step, err = mt.Iterate(f, g)
		if err != nil || math.IsNaN(step) {
			return 0, false
		}
		if op == optimize.MajorIteration {
			return step, true
		}
	}
	return 0, false
}
