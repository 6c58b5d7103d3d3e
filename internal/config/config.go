// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT"        envDefault:"8083"`
	GRPCPort        string        `env:"GRPC_PORT"        envDefault:"9083"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"`
	// RedisURL is optional; empty disables event publishing and shared sweep claims.
	RedisURL string `env:"REDIS_URL"`

	Log   LogConfig   `envPrefix:"LOG_"`
	Match MatchConfig `envPrefix:"MATCH_"`
	Sweep SweepConfig `envPrefix:"SWEEP_"`
}

// LogConfig selects the logger encoding and level.
type LogConfig struct {
	JSON  bool `env:"JSON"  envDefault:"false"`
	Debug bool `env:"DEBUG" envDefault:"false"`
}

// MatchConfig holds the score thresholds.
type MatchConfig struct {
	ApplicantMinScore int `env:"APPLICANT_MIN_SCORE" envDefault:"30"`
	NotifyMinScore    int `env:"NOTIFY_MIN_SCORE"    envDefault:"50"`
	NotifyLimit       int `env:"NOTIFY_LIMIT"        envDefault:"10"`
	// TopLimit caps the applicant job list served over HTTP.
	TopLimit int `env:"TOP_LIMIT" envDefault:"20"`
}

// SweepConfig drives the periodic notification sweep.
type SweepConfig struct {
	Enabled         bool `env:"ENABLED"          envDefault:"true"`
	IntervalMinutes int  `env:"INTERVAL_MINUTES" envDefault:"15"`
	LookbackHours   int  `env:"LOOKBACK_HOURS"   envDefault:"24"`
}

// Interval is the time between sweeps.
func (s SweepConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// Lookback is how far back a sweep looks for newly posted jobs.
func (s SweepConfig) Lookback() time.Duration {
	return time.Duration(s.LookbackHours) * time.Hour
}

// Load reads .env (if present) and the environment, then validates the result.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", c.StoreDriver, DriverPostgres, DriverSQLite)
	}
	return nil
}

// Sanitize clamps thresholds to [0,100] and resets non-positive limits and
// intervals to their defaults.
func (c *Config) Sanitize() {
	c.Match.ApplicantMinScore = clampScore(c.Match.ApplicantMinScore)
	c.Match.NotifyMinScore = clampScore(c.Match.NotifyMinScore)
	if c.Match.NotifyLimit <= 0 {
		c.Match.NotifyLimit = 10
	}
	if c.Match.TopLimit <= 0 {
		c.Match.TopLimit = 20
	}
	if c.Sweep.IntervalMinutes <= 0 {
		c.Sweep.IntervalMinutes = 15
	}
	if c.Sweep.LookbackHours <= 0 {
		c.Sweep.LookbackHours = 24
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

func clampScore(v int) int {
	return max(0, min(v, 100))
}
