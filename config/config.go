// Package config loads packlate settings from the environment and optional
// dotenv files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Backend names accepted by PACKLATE_BACKEND.
const (
	BackendOpenAI = "openai"
	BackendOra    = "ora"
)

// Config holds all runtime configuration.
type Config struct {
	Backend string `env:"PACKLATE_BACKEND" envDefault:"openai"`

	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIAccessToken string `env:"OPENAI_ACCESS_TOKEN"` // Older name for the key
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL"`
	OpenAIModel       string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIMaxTokens   int    `env:"OPENAI_MAX_TOKENS"`

	OraBaseURL string `env:"ORA_BASE_URL" envDefault:"https://ora.sh"`

	CharLimit         int    `env:"PACKLATE_CHAR_LIMIT"` // 0 keeps the backend's limit
	Concurrency       int    `env:"PACKLATE_CONCURRENCY" envDefault:"1"`
	MaxContinuations  int    `env:"PACKLATE_MAX_CONTINUATIONS" envDefault:"5"`
	RequestsPerMinute int    `env:"PACKLATE_RPM"` // 0 disables pacing
	OpenRetries       int    `env:"PACKLATE_OPEN_RETRIES" envDefault:"3"`
	Context           string `env:"PACKLATE_CONTEXT"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"PACKLATE_CACHE_TTL"`

	LogLevel string `env:"PACKLATE_LOG_LEVEL" envDefault:"info"`
}

// Load reads the given dotenv files, then parses the environment. Missing
// files are skipped and variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// APIKey returns the OpenAI credential, preferring OPENAI_API_KEY.
func (c *Config) APIKey() string {
	if c.OpenAIAPIKey != "" {
		return c.OpenAIAPIKey
	}
	return c.OpenAIAccessToken
}

// Level returns the parsed log level.
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

// Validate checks the configuration for the selected backend.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendOpenAI:
		if c.APIKey() == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai backend"))
		}
	case BackendOra:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendOpenAI, BackendOra))
	}

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.MaxContinuations < 0 {
		errs = append(errs, fmt.Errorf("max continuations must not be negative, got %d", c.MaxContinuations))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("requests per minute must not be negative, got %d", c.RequestsPerMinute))
	}
	if c.OpenRetries < 0 {
		errs = append(errs, fmt.Errorf("open retries must not be negative, got %d", c.OpenRetries))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	return errors.Join(errs...)
}
