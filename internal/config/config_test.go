package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/her-voice/companion/pkg/config"
	"github.com/her-voice/companion/pkg/logger"
)

func validConfig() AppConfig {
	return AppConfig{
		ServiceName:    "companion",
		Environment:    "development",
		Port:           8080,
		RequestTimeout: 60 * time.Second,
		LLM:            LLMConfig{Provider: ProviderOpenAI},
		OpenAI:         OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini"},
		Storage:        StorageConfig{Backend: StorageBackendLocal, LocalDir: "./data"},
		Memory:         MemoryConfig{ExtractionModel: "gpt-4o", ExtractionDelay: 30 * time.Second, BreakerMaxFailures: 3},
		Logging:        LoggingConfig{Level: "info", Format: "json"},
		Security:       SecurityConfig{MaxRequestSize: 1 << 20, RateLimitRPS: 20, RateLimitBurst: 40},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"bad log level", func(c *AppConfig) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *AppConfig) { c.Logging.Format = "xml" }},
		{"bad port", func(c *AppConfig) { c.Port = 0 }},
		{"unknown provider", func(c *AppConfig) { c.LLM.Provider = "llama" }},
		{"claude without key", func(c *AppConfig) { c.LLM.Provider = ProviderClaude }},
		{"missing openai key", func(c *AppConfig) { c.OpenAI.APIKey = "" }},
		{"unknown storage backend", func(c *AppConfig) { c.Storage.Backend = "redis" }},
		{"s3 without bucket", func(c *AppConfig) { c.Storage.Backend = StorageBackendS3 }},
		{"postgres without dsn", func(c *AppConfig) { c.Storage.Backend = StorageBackendPostgres }},
		{"zero extraction delay", func(c *AppConfig) { c.Memory.ExtractionDelay = 0 }},
		{"zero rate limit", func(c *AppConfig) { c.Security.RateLimitRPS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromEnvVars(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PORT", "9999")
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("MEMORY_EXTRACTION_DELAY", "10s")

	var cfg AppConfig
	require.NoError(t, pkgconfig.GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "gpt-4o", cfg.Memory.ExtractionModel)
	assert.Equal(t, 10*time.Second, cfg.Memory.ExtractionDelay)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Security.CORSAllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestGetLogLevel(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, logger.InfoLevel, cfg.GetLogLevel())
	cfg.Logging.Level = "debug"
	assert.Equal(t, logger.DebugLevel, cfg.GetLogLevel())
	cfg.Logging.Level = "warning"
	assert.Equal(t, logger.WarnLevel, cfg.GetLogLevel())
}

func TestChatModelName(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModelName())

	cfg.LLM.Provider = ProviderClaude
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.ChatModelName())
}
