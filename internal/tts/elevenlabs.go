package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	defaultElevenLabsVoiceID = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModel   = "eleven_multilingual_v2"
	defaultElevenLabsTimeout = 60 * time.Second
)

// ElevenLabsConfig holds configuration for the ElevenLabs client.
type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string        // default: 21m00Tcm4TlvDq8ikWAM (Rachel)
	BaseURL string        // default: https://api.elevenlabs.io
	Timeout time.Duration // default: 60s
}

// ElevenLabsSynthesizer synthesizes speech through the ElevenLabs API. There
// is no official Go SDK, so the client speaks the REST API directly.
type ElevenLabsSynthesizer struct {
	cfg    ElevenLabsConfig
	client *http.Client
}

// NewElevenLabsSynthesizer creates an ElevenLabs speech backend.
func NewElevenLabsSynthesizer(cfg ElevenLabsConfig) (*ElevenLabsSynthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = defaultElevenLabsVoiceID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultElevenLabsBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultElevenLabsTimeout
	}

	return &ElevenLabsSynthesizer{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Provider returns "elevenlabs".
func (s *ElevenLabsSynthesizer) Provider() string { return "elevenlabs" }

// elevenLabsRequest is the request body for POST /v1/text-to-speech/{voice}.
type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize renders the text as MP3 audio.
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	if req.Text == "" {
		return Result{}, fmt.Errorf("text is required")
	}

	voiceID := req.Voice
	if voiceID == "" {
		voiceID = s.cfg.VoiceID
	}

	body := elevenLabsRequest{
		Text:    req.Text,
		ModelID: defaultElevenLabsModel,
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.3,
			UseSpeakerBoost: true,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.cfg.BaseURL + "/v1/text-to-speech/" + voiceID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("elevenlabs returned status %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read audio response: %w", err)
	}

	return Result{Audio: audio, ContentType: "audio/mpeg"}, nil
}

// Voice is one entry from the ElevenLabs voice catalog.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// elevenLabsVoicesResponse is the response body from GET /v1/voices.
type elevenLabsVoicesResponse struct {
	Voices []struct {
		VoiceID string            `json:"voice_id"`
		Name    string            `json:"name"`
		Labels  map[string]string `json:"labels"`
	} `json:"voices"`
}

// Voices lists the available voices. Failures yield an empty list, never an
// error; the voice picker is decorative.
func (s *ElevenLabsSynthesizer) Voices(ctx context.Context) []Voice {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return nil
	}
	httpReq.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var data elevenLabsVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil
	}

	voices := make([]Voice, 0, len(data.Voices))
	for _, v := range data.Voices {
		labels := make([]string, 0, len(v.Labels))
		for _, label := range v.Labels {
			labels = append(labels, label)
		}
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Description: strings.Join(labels, " · "),
		})
	}
	return voices
}
