package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// clearEnv blanks every variable Config reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PACKLATE_BACKEND", "OPENAI_API_KEY", "OPENAI_ACCESS_TOKEN", "OPENAI_BASE_URL",
		"OPENAI_MODEL", "OPENAI_MAX_TOKENS", "ORA_BASE_URL", "PACKLATE_CHAR_LIMIT",
		"PACKLATE_CONCURRENCY", "PACKLATE_MAX_CONTINUATIONS", "PACKLATE_RPM",
		"PACKLATE_OPEN_RETRIES", "PACKLATE_CONTEXT", "REDIS_URL", "PACKLATE_CACHE_TTL",
		"PACKLATE_LOG_LEVEL",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "https://ora.sh", cfg.OraBaseURL)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 5, cfg.MaxContinuations)
	assert.Zero(t, cfg.RequestsPerMinute)
	assert.Zero(t, cfg.CharLimit)
	assert.Equal(t, 3, cfg.OpenRetries)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PACKLATE_BACKEND", "ora")
	t.Setenv("PACKLATE_CONCURRENCY", "8")
	t.Setenv("PACKLATE_CACHE_TTL", "24h")
	t.Setenv("PACKLATE_CONTEXT", "Pathfinder homebrew class names")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendOra, cfg.Backend)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "Pathfinder homebrew class names", cfg.Context)
}

func TestLoad_InvalidNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("PACKLATE_RPM", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DotenvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-from-file\nOPENAI_MODEL=ignored\n"), 0o600))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.APIKey())
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel, "environment should win over the file")
}

func TestLoad_MalformedDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEY='unterminated\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_APIKeyFallback(t *testing.T) {
	cfg := &Config{OpenAIAccessToken: "legacy"}
	assert.Equal(t, "legacy", cfg.APIKey())

	cfg.OpenAIAPIKey = "current"
	assert.Equal(t, "current", cfg.APIKey())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{Backend: BackendOpenAI, OpenAIAPIKey: "sk", Concurrency: 1, MaxContinuations: 5, LogLevel: "info"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"ora needs no key", func(c *Config) { c.Backend = BackendOra; c.OpenAIAPIKey = "" }, ""},
		{"missing key", func(c *Config) { c.OpenAIAPIKey = "" }, "OPENAI_API_KEY"},
		{"unknown backend", func(c *Config) { c.Backend = "bard" }, "unknown backend"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"negative continuations", func(c *Config) { c.MaxContinuations = -1 }, "continuations"},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }, "requests per minute"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Level(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}
