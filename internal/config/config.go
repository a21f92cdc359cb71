// Package config defines the application configuration, loaded through
// pkg/config from environment variables and an optional YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/her-voice/companion/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"companion"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// Server configuration
	Port           int           `env:"PORT" yaml:"port" default:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"60s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" yaml:"idle_timeout" default:"60s"`

	// LLM provider selection
	LLM LLMConfig `yaml:"llm,inline"`

	// OpenAI configuration (chat, extraction, and TTS)
	OpenAI OpenAIConfig `yaml:"openai,inline"`

	// Anthropic configuration
	Anthropic AnthropicConfig `yaml:"anthropic,inline"`

	// ElevenLabs TTS configuration (optional)
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs,inline"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage,inline"`

	// Memory extraction configuration
	Memory MemoryConfig `yaml:"memory,inline"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,inline"`

	// Monitoring configuration
	Monitoring MonitoringConfig `yaml:"monitoring,inline"`

	// Health check configuration
	Health HealthConfig `yaml:"health,inline"`

	// Security configuration
	Security SecurityConfig `yaml:"security,inline"`
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	level := strings.ToLower(c.Logging.Level)
	valid := false
	for _, validLevel := range validLevels {
		if level == validLevel {
			valid = true
			break
		}
	}
	if !valid {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	// Validate log format
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	// Validate port range
	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}

	// Validate timeout values
	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be greater than 0"))
	}

	// Validate provider selection and credentials
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("openai_api_key is required when llm_provider is %q", ProviderOpenAI))
		}
	case ProviderClaude:
		if c.Anthropic.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("anthropic_api_key is required when llm_provider is %q", ProviderClaude))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("llm_provider must be one of [%s, %s], got %q", ProviderOpenAI, ProviderClaude, c.LLM.Provider))
	}

	// Extraction always runs on OpenAI
	if c.OpenAI.APIKey == "" {
		result = multierror.Append(result, fmt.Errorf("openai_api_key is required for memory extraction"))
	}

	// Validate storage backend
	switch c.Storage.Backend {
	case StorageBackendLocal:
		if c.Storage.LocalDir == "" {
			result = multierror.Append(result, fmt.Errorf("storage_local_dir is required for local storage"))
		}
	case StorageBackendS3:
		if c.Storage.S3Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("storage_s3_bucket is required for s3 storage"))
		}
	case StorageBackendPostgres:
		if c.Storage.PostgresDSN == "" {
			result = multierror.Append(result, fmt.Errorf("storage_postgres_dsn is required for postgres storage"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("storage_backend must be one of [local, s3, postgres], got %q", c.Storage.Backend))
	}

	// Validate extraction configuration
	if c.Memory.ExtractionDelay <= 0 {
		result = multierror.Append(result, fmt.Errorf("memory_extraction_delay must be greater than 0"))
	}
	if c.Memory.BreakerMaxFailures < 1 {
		result = multierror.Append(result, fmt.Errorf("memory_breaker_max_failures must be at least 1"))
	}

	// Validate security config
	if c.Security.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}
	if c.Security.RateLimitRPS <= 0 {
		result = multierror.Append(result, fmt.Errorf("rate_limit_rps must be greater than 0"))
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return logger.DebugLevel
	case "warn", "warning":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "dev"
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.Port),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.StringField("chat_model", c.ChatModelName()),
		logger.StringField("extraction_model", c.Memory.ExtractionModel),
		logger.StringField("storage_backend", c.Storage.Backend),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.BoolField("metrics_enabled", c.Monitoring.MetricsEnabled),
		logger.BoolField("elevenlabs_configured", c.ElevenLabs.APIKey != ""),
		logger.BoolField("rate_limit_enabled", c.Security.RateLimitEnabled),
		logger.IntField("rate_limit_rps", c.Security.RateLimitRPS),
	)
}

// ChatModelName returns the model name for the selected chat provider.
func (c *AppConfig) ChatModelName() string {
	if c.LLM.Provider == ProviderClaude {
		return c.Anthropic.Model
	}
	return c.OpenAI.Model
}
