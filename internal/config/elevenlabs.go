package config

import "time"

// ElevenLabsConfig holds ElevenLabs TTS configuration. Optional: when no API
// key is set the "elevenlabs" TTS provider is unavailable.
type ElevenLabsConfig struct {
	APIKey     string        `env:"ELEVENLABS_API_KEY" yaml:"api_key"`
	VoiceID    string        `env:"ELEVENLABS_VOICE_ID" yaml:"voice_id" default:"21m00Tcm4TlvDq8ikWAM"`
	APIBaseURL string        `env:"ELEVENLABS_API_URL" yaml:"api_base_url" default:"https://api.elevenlabs.io"`
	Timeout    time.Duration `env:"ELEVENLABS_TIMEOUT" yaml:"timeout" default:"60s"`
}
