package solvers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/STEEP/internal/optimization"
	"github.com/copyleftdev/STEEP/internal/optimization/linesearch"
	"github.com/copyleftdev/STEEP/internal/optimization/oracle"
)

// identityQuadratic builds f(x) = 1/2 ||x||^2 - b.x of dimension n.
func identityQuadratic(n int, b []float64) *oracle.Quadratic {
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		a.SetSym(i, i, 1)
	}
	if b == nil {
		b = make([]float64, n)
	}
	return oracle.NewQuadratic(a, mat.NewVecDense(n, b))
}

func mustArmijo(t *testing.T) *linesearch.Tool {
	t.Helper()
	tool, err := linesearch.NewArmijo(1e-4, 1.0)
	require.NoError(t, err)
	return tool
}

func TestGradientDescentIdentityQuadratic(t *testing.T) {
	// f(x) = 1/2 x^T x - b^T x with b = [0, 1, 2, 3, 4]; the minimizer
	// is b itself.
	b := []float64{0, 1, 2, 3, 4}
	o := identityQuadratic(5, b)
	x0 := mat.NewVecDense(5, nil)

	result := GradientDescent(o, x0, Config{LineSearch: mustArmijo(t)})

	require.Equal(t, optimization.StatusSuccess, result.Status)
	for i, want := range b {
		assert.InDelta(t, want, result.X.AtVec(i), 1e-4)
	}
}

func TestGradientDescentStartAtOptimum(t *testing.T) {
	b := []float64{1, -2}
	o := identityQuadratic(2, b)
	x0 := mat.NewVecDense(2, b)

	result := GradientDescent(o, x0, Config{})

	require.Equal(t, optimization.StatusSuccess, result.Status)
	assert.Equal(t, 0, result.Iterations)
}

func TestGradientDescentTraceInvariants(t *testing.T) {
	tests := []struct {
		name    string
		dim     int
		recordX bool
	}{
		{name: "dimension 2 records trajectory", dim: 2, recordX: true},
		{name: "dimension 5 omits trajectory", dim: 5, recordX: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make([]float64, tt.dim)
			for i := range b {
				b[i] = float64(i + 1)
			}
			o := identityQuadratic(tt.dim, b)
			x0 := mat.NewVecDense(tt.dim, nil)

			result := GradientDescent(o, x0, Config{LineSearch: mustArmijo(t), Trace: true})

			require.Equal(t, optimization.StatusSuccess, result.Status)
			require.NotNil(t, result.History)

			h := result.History
			assert.Equal(t, result.Iterations+1, h.Len())
			assert.Len(t, h.Time, h.Len())
			assert.Len(t, h.GradNorm, h.Len())
			if tt.recordX {
				assert.Len(t, h.X, h.Len())
			} else {
				assert.Empty(t, h.X)
			}
		})
	}
}

func TestGradientDescentNoTrace(t *testing.T) {
	o := identityQuadratic(2, []float64{1, 1})
	result := GradientDescent(o, mat.NewVecDense(2, nil), Config{})
	assert.Nil(t, result.History)
}

func TestGradientDescentIterationsExceeded(t *testing.T) {
	// Five steepest-descent iterations are nowhere near enough for the
	// Rosenbrock valley.
	o := oracle.NewRosenbrock(2)
	x0 := mat.NewVecDense(2, []float64{-1.2, 1})

	result := GradientDescent(o, x0, Config{MaxIterations: 5, Trace: true})

	require.Equal(t, optimization.StatusIterationsExceeded, result.Status)
	assert.Equal(t, 5, result.Iterations)
	// One record per iteration plus the final record.
	assert.Equal(t, 6, result.History.Len())
}

// nanGradientOracle evaluates to a NaN gradient everywhere.
type nanGradientOracle struct {
	*oracle.Quadratic
}

func (o nanGradientOracle) Grad(x *mat.VecDense) *mat.VecDense {
	g := mat.NewVecDense(x.Len(), nil)
	for i := 0; i < x.Len(); i++ {
		g.SetVec(i, math.NaN())
	}
	return g
}

func TestGradientDescentNaNGradient(t *testing.T) {
	constant, err := linesearch.NewConstant(1.0)
	require.NoError(t, err)

	o := nanGradientOracle{identityQuadratic(2, nil)}
	x0 := mat.NewVecDense(2, []float64{3, -4})

	result := GradientDescent(o, x0, Config{LineSearch: constant, Trace: true})

	require.Equal(t, optimization.StatusComputationalError, result.Status)
	// The original starting point is returned and the history is
	// truncated at the point of failure.
	assert.Equal(t, 3.0, result.X.AtVec(0))
	assert.Equal(t, -4.0, result.X.AtVec(1))
	assert.Equal(t, 0, result.History.Len())
}

// nanLineOracle evaluates the directional restriction to NaN away
// from the origin of the ray, so every backtracking candidate fails.
type nanLineOracle struct {
	*oracle.Quadratic
}

func (o nanLineOracle) FuncDirectional(x, d *mat.VecDense, alpha float64) float64 {
	if alpha > 0 {
		return math.NaN()
	}
	return o.Quadratic.FuncDirectional(x, d, alpha)
}

func TestGradientDescentStepComputationalError(t *testing.T) {
	o := nanLineOracle{identityQuadratic(2, nil)}
	x0 := mat.NewVecDense(2, []float64{3, -4})

	result := GradientDescent(o, x0, Config{LineSearch: mustArmijo(t), Trace: true})

	require.Equal(t, optimization.StatusStepComputationalError, result.Status)
	// The line search failed on the first iteration, so the current
	// iterate is still the starting point.
	assert.Equal(t, 3.0, result.X.AtVec(0))
	assert.Equal(t, -4.0, result.X.AtVec(1))
	assert.Equal(t, 0, result.Iterations)
	// The failing iteration's record is already in the history.
	assert.Equal(t, 1, result.History.Len())
}

func TestGradientDescentWolfeOnRosenbrock(t *testing.T) {
	// Gradient descent crawls on Rosenbrock but every accepted step
	// must still decrease the objective.
	o := oracle.NewRosenbrock(2)
	x0 := mat.NewVecDense(2, []float64{-1.2, 1})

	result := GradientDescent(o, x0, Config{MaxIterations: 50, Trace: true})

	require.Equal(t, optimization.StatusIterationsExceeded, result.Status)
	h := result.History
	for i := 1; i < h.Len(); i++ {
		assert.LessOrEqual(t, h.Func[i], h.Func[i-1], "objective increased at record %d", i)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults(DefaultGradientDescentIterations)

	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, DefaultGradientDescentIterations, cfg.MaxIterations)
	require.NotNil(t, cfg.LineSearch)
	assert.Equal(t, linesearch.Wolfe, cfg.LineSearch.Method())
	assert.NotNil(t, cfg.Logger)
}
