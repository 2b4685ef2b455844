package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copyleftdev/STEEP/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Solver.Tolerance = 1e-5
	cfg.Solver.MaxIterations = 10000
	cfg.Solver.NewtonMaxIterations = 100
	cfg.Solver.LineSearch = "Wolfe"

	r := chi.NewRouter()
	NewServer(cfg, zap.NewNop()).RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func postMinimize(t *testing.T, ts *httptest.Server, body map[string]interface{}) (*http.Response, minimizeResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/minimize", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out minimizeResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestMinimizeGradientDescent(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postMinimize(t, ts, map[string]interface{}{
		"solver": "gradient_descent",
		"oracle": map[string]interface{}{
			"type": "quadratic",
			"a":    [][]float64{{1, 0}, {0, 1}},
			"b":    []float64{1, 2},
		},
		"x0":          []float64{0, 0},
		"line_search": map[string]interface{}{"method": "Armijo", "c1": 1e-4},
		"trace":       true,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", out.Status)
	assert.InDelta(t, 1.0, out.X[0], 1e-4)
	assert.InDelta(t, 2.0, out.X[1], 1e-4)

	require.NotNil(t, out.History)
	assert.Len(t, out.History.Func, out.Iterations+1)
	assert.Len(t, out.History.GradNorm, out.Iterations+1)
	// Dimension 2: trajectory is recorded.
	assert.Len(t, out.History.X, out.Iterations+1)
}

func TestMinimizeNewton(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postMinimize(t, ts, map[string]interface{}{
		"solver": "newton",
		"oracle": map[string]interface{}{
			"type": "rosenbrock",
		},
		"x0": []float64{-1.2, 1},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", out.Status)
	assert.InDelta(t, 1.0, out.X[0], 1e-3)
	assert.InDelta(t, 1.0, out.X[1], 1e-3)
	assert.Nil(t, out.History)
}

func TestMinimizeNewtonSingular(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postMinimize(t, ts, map[string]interface{}{
		"solver": "newton",
		"oracle": map[string]interface{}{
			"type": "quadratic",
			"a":    [][]float64{{1, 0}, {0, 0}},
			"b":    []float64{1, 1},
		},
		"x0": []float64{2, 3},
	})

	// Numerical failures are terminal statuses, not HTTP errors.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "newton_direction_error", out.Status)
	assert.Equal(t, []float64{2, 3}, out.X)
}

func TestMinimizeRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "unknown solver",
			body: map[string]interface{}{
				"solver": "bfgs",
				"oracle": map[string]interface{}{"type": "rosenbrock"},
				"x0":     []float64{0, 0},
			},
		},
		{
			name: "unknown oracle",
			body: map[string]interface{}{
				"solver": "gradient_descent",
				"oracle": map[string]interface{}{"type": "ackley"},
				"x0":     []float64{0, 0},
			},
		},
		{
			name: "unknown line search method",
			body: map[string]interface{}{
				"solver":      "gradient_descent",
				"oracle":      map[string]interface{}{"type": "rosenbrock"},
				"x0":          []float64{0, 0},
				"line_search": map[string]interface{}{"method": "GoldenSection"},
			},
		},
		{
			name: "missing x0",
			body: map[string]interface{}{
				"solver": "gradient_descent",
				"oracle": map[string]interface{}{"type": "rosenbrock"},
			},
		},
		{
			name: "asymmetric matrix",
			body: map[string]interface{}{
				"solver": "gradient_descent",
				"oracle": map[string]interface{}{
					"type": "quadratic",
					"a":    [][]float64{{1, 2}, {3, 1}},
					"b":    []float64{0, 0},
				},
				"x0": []float64{0, 0},
			},
		},
		{
			name: "dimension mismatch",
			body: map[string]interface{}{
				"solver": "gradient_descent",
				"oracle": map[string]interface{}{
					"type": "quadratic",
					"a":    [][]float64{{1}},
					"b":    []float64{0},
				},
				"x0": []float64{0, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postMinimize(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
