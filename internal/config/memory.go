package config

import "time"

// MemoryConfig holds memory extraction configuration
type MemoryConfig struct {
	// ExtractionModel is the OpenAI model used for memory extraction.
	ExtractionModel string `env:"MEMORY_EXTRACTION_MODEL" yaml:"extraction_model" default:"gpt-4o"`

	// ExtractionDelay is the quiet period after an assistant reply before
	// debounced extraction runs.
	ExtractionDelay time.Duration `env:"MEMORY_EXTRACTION_DELAY" yaml:"extraction_delay" default:"30s"`

	// Circuit breaker settings for the extraction call path.
	BreakerMaxFailures int           `env:"MEMORY_BREAKER_MAX_FAILURES" yaml:"breaker_max_failures" default:"3"`
	BreakerTimeout     time.Duration `env:"MEMORY_BREAKER_TIMEOUT" yaml:"breaker_timeout" default:"30s"`
}
