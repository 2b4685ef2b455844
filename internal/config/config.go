// Package config loads the service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/STEEP/internal/optimization/linesearch"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		Tolerance           float64 `env:"SOLVER_TOLERANCE" envDefault:"1e-5"`
		MaxIterations       int     `env:"SOLVER_MAX_ITERATIONS" envDefault:"10000"`
		NewtonMaxIterations int     `env:"SOLVER_NEWTON_MAX_ITERATIONS" envDefault:"100"`
		LineSearch          string  `env:"SOLVER_LINE_SEARCH" envDefault:"Wolfe"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Default to debug logging in development
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	// Reject an unknown default line search method up front rather
	// than on the first request.
	if _, err := linesearch.ParseMethod(cfg.Solver.LineSearch); err != nil {
		return nil, err
	}

	return cfg, nil
}
