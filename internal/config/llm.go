package config

// LLM provider constants
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// LLMConfig holds LLM provider selection configuration
type LLMConfig struct {
	// Provider specifies which chat provider to use: "openai" or "claude"
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"openai"`
}
