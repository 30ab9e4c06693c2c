package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/simplex/internal/lp"
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
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		Tolerance       float64 `env:"SOLVER_TOLERANCE" envDefault:"1e-9"`
		MaxIterations   int     `env:"SOLVER_MAX_ITERATIONS" envDefault:"0"`
		IterationFactor int     `env:"SOLVER_ITERATION_FACTOR" envDefault:"50"`
		Strict          bool    `env:"SOLVER_STRICT" envDefault:"false"`
		Verify          bool    `env:"SOLVER_VERIFY" envDefault:"false"`
	}
	Sessions struct {
		Max int `env:"SESSION_MAX" envDefault:"256"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if cfg.Sessions.Max < 1 {
		cfg.Sessions.Max = 1
	}

	return cfg, nil
}

// SolverConfig translates the solver section into lp.SolverConfig. The
// logger is left for the caller to set.
func (c *Config) SolverConfig() lp.SolverConfig {
	return lp.SolverConfig{
		Tolerance:       c.Solver.Tolerance,
		MaxIterations:   c.Solver.MaxIterations,
		IterationFactor: c.Solver.IterationFactor,
		Strict:          c.Solver.Strict,
	}
}
