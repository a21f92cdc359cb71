// Package tts synthesizes assistant replies into audio. Two backends are
// supported: OpenAI speech and ElevenLabs. Both return MP3 bytes; playback is
// the client's concern.
package tts

import "context"

// Request describes one synthesis call. Zero-valued fields fall back to the
// backend's defaults.
type Request struct {
	Text string

	// Voice selects the backend voice: an OpenAI voice name or an ElevenLabs
	// voice id.
	Voice string

	// Speed is the OpenAI playback speed multiplier. Ignored by ElevenLabs.
	Speed float64
}

// Result is the synthesized audio.
type Result struct {
	Audio       []byte
	ContentType string
}

// Synthesizer converts text to speech.
type Synthesizer interface {
	// Provider returns the backend name, e.g. "openai" or "elevenlabs".
	Provider() string

	// Synthesize renders the request to audio.
	Synthesize(ctx context.Context, req Request) (Result, error)
}
