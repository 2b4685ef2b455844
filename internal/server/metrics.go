package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "steep_solver_runs_total",
		Help: "Solver runs by solver and terminal status.",
	}, []string{"solver", "status"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "steep_solver_run_duration_seconds",
		Help:    "Wall-clock duration of solver runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"solver"})
)
