// Package server implements the HTTP surface of the STEEP minimization
// service. Solver runs are fast, single-threaded and have no
// cancellation mechanism, so requests are served synchronously.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/STEEP/internal/config"
	"github.com/copyleftdev/STEEP/internal/logging"
	"github.com/copyleftdev/STEEP/internal/optimization"
	"github.com/copyleftdev/STEEP/internal/optimization/linesearch"
	"github.com/copyleftdev/STEEP/internal/optimization/oracle"
	"github.com/copyleftdev/STEEP/internal/optimization/solvers"
)

// Server handles minimization requests.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewServer creates a new server instance with the given config and logger.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger.Named("server"),
	}
}

// RegisterRoutes mounts the API on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/minimize", s.handleMinimize)
	})
	r.Get("/healthz", s.handleHealth)
}

// minimizeRequest is the body of POST /api/v1/minimize.
type minimizeRequest struct {
	Solver        string              `json:"solver"`
	Oracle        oracleSpec          `json:"oracle"`
	X0            []float64           `json:"x0"`
	Tolerance     float64             `json:"tolerance,omitempty"`
	MaxIterations int                 `json:"max_iterations,omitempty"`
	LineSearch    *linesearch.Options `json:"line_search,omitempty"`
	Trace         bool                `json:"trace,omitempty"`
}

// oracleSpec selects and parameterizes an objective family.
type oracleSpec struct {
	Type string      `json:"type"`
	A    [][]float64 `json:"a,omitempty"`
	B    []float64   `json:"b,omitempty"`
	Dim  int         `json:"dim,omitempty"`
}

type minimizeResponse struct {
	X          []float64    `json:"x"`
	Status     string       `json:"status"`
	Iterations int          `json:"iterations"`
	History    *historyJSON `json:"history,omitempty"`
}

type historyJSON struct {
	Time     []float64   `json:"time"`
	Func     []float64   `json:"func"`
	GradNorm []float64   `json:"grad_norm"`
	X        [][]float64 `json:"x,omitempty"`
}

func (s *Server) handleMinimize(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req minimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.X0) == 0 {
		s.respondError(w, http.StatusBadRequest, "x0 is required")
		return
	}

	o, err := buildOracle(req.Oracle, len(req.X0))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ls, err := s.buildLineSearch(req.LineSearch)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	solverCfg := solvers.Config{
		Tolerance:     req.Tolerance,
		MaxIterations: req.MaxIterations,
		LineSearch:    ls,
		Trace:         req.Trace,
		Logger:        logger,
	}
	if solverCfg.Tolerance <= 0 {
		solverCfg.Tolerance = s.cfg.Solver.Tolerance
	}

	x0 := mat.NewVecDense(len(req.X0), req.X0)

	var result *optimization.Result
	start := time.Now()
	switch req.Solver {
	case "gradient_descent":
		if solverCfg.MaxIterations <= 0 {
			solverCfg.MaxIterations = s.cfg.Solver.MaxIterations
		}
		result = solvers.GradientDescent(o, x0, solverCfg)
	case "newton":
		if solverCfg.MaxIterations <= 0 {
			solverCfg.MaxIterations = s.cfg.Solver.NewtonMaxIterations
		}
		result = solvers.Newton(o, x0, solverCfg)
	default:
		s.respondError(w, http.StatusBadRequest, "unknown solver: "+req.Solver)
		return
	}

	runsTotal.WithLabelValues(req.Solver, string(result.Status)).Inc()
	runDuration.WithLabelValues(req.Solver).Observe(time.Since(start).Seconds())

	logger.Info("solver run completed",
		zap.String("solver", req.Solver),
		zap.String("status", string(result.Status)),
		zap.Int("iterations", result.Iterations),
	)

	s.respondJSON(w, http.StatusOK, toResponse(result))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// buildLineSearch constructs the line search for a request, falling
// back to the configured default method when the request omits it.
func (s *Server) buildLineSearch(opts *linesearch.Options) (*linesearch.Tool, error) {
	if opts == nil {
		return linesearch.FromOptions(linesearch.Options{Method: s.cfg.Solver.LineSearch})
	}
	return linesearch.FromOptions(*opts)
}

// buildOracle instantiates the requested objective family, checking
// that its dimension agrees with the starting point.
func buildOracle(spec oracleSpec, dim int) (optimization.HessianOracle, error) {
	switch spec.Type {
	case "quadratic":
		if len(spec.A) != dim {
			return nil, optimization.NewErrorf("matrix a must be %dx%d to match x0", dim, dim)
		}
		if len(spec.B) != dim {
			return nil, optimization.NewErrorf("vector b must have length %d to match x0", dim)
		}
		for _, row := range spec.A {
			if len(row) != dim {
				return nil, optimization.NewErrorf("matrix a must be %dx%d to match x0", dim, dim)
			}
		}
		a := mat.NewSymDense(dim, nil)
		for i, row := range spec.A {
			for j := i; j < dim; j++ {
				if spec.A[j][i] != row[j] {
					return nil, optimization.NewError("matrix a must be symmetric")
				}
				a.SetSym(i, j, row[j])
			}
		}
		return oracle.NewQuadratic(a, mat.NewVecDense(dim, spec.B)), nil
	case "rosenbrock":
		if spec.Dim == 0 {
			spec.Dim = dim
		}
		if spec.Dim != dim {
			return nil, optimization.NewErrorf("rosenbrock dim %d does not match x0 length %d", spec.Dim, dim)
		}
		if spec.Dim < 2 {
			return nil, optimization.NewError("rosenbrock requires dimension >= 2")
		}
		return oracle.NewRosenbrock(spec.Dim), nil
	}
	return nil, optimization.NewErrorf("unknown oracle type: %q", spec.Type)
}

func toResponse(result *optimization.Result) minimizeResponse {
	resp := minimizeResponse{
		X:          vecSlice(result.X),
		Status:     string(result.Status),
		Iterations: result.Iterations,
	}
	if result.History != nil {
		h := &historyJSON{
			Time:     result.History.Time,
			Func:     result.History.Func,
			GradNorm: result.History.GradNorm,
		}
		for _, x := range result.History.X {
			h.X = append(h.X, vecSlice(x))
		}
		resp.History = h
	}
	return resp
}

func vecSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("request rejected",
		zap.Int("status", status),
		zap.String("message", message),
	)
	s.respondJSON(w, status, map[string]string{"error": message})
}
