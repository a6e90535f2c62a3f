package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level
	RawLogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// ContentPath is the directory holding scenario files; Scenario names
	// the one to load.
	ContentPath string `env:"CONTENT_PATH" envDefault:"data/scenarios"`
	Scenario    string `env:"SCENARIO" envDefault:"altstadt.yaml"`
	Storyline   string `env:"STORYLINE"` // overrides the scenario's opening storyline

	// MutationRate limits POST requests per second, with bursts of
	// MutationBurst.
	MutationRate  float64 `env:"MUTATION_RATE" envDefault:"10"`
	MutationBurst int     `env:"MUTATION_BURST" envDefault:"20"`

	// RedisURL enables event broadcasting and the command queue when set.
	RedisURL string `env:"REDIS_URL"`

	// SessionID names the running map on redis. A random one is used when
	// unset.
	SessionID uuid.UUID `env:"SESSION_ID"`
	WorkerID  string    `env:"WORKER_ID"`

	// ConsoleLog is where cmd/console writes its log.
	ConsoleLog string `env:"CONSOLE_LOG" envDefault:"questmap-console.log"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	if cfg.SessionID == uuid.Nil {
		cfg.SessionID = uuid.New()
	}
	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
