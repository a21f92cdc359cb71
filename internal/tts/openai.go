package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultOpenAIModel = "tts-1"
	defaultOpenAIVoice = "shimmer"
	defaultOpenAISpeed = 0.9
)

// OpenAISynthesizer synthesizes speech through OpenAI's audio API.
type OpenAISynthesizer struct {
	client    *openai.Client
	modelName string
}

// NewOpenAISynthesizer creates an OpenAI speech backend. An empty model name
// selects tts-1.
func NewOpenAISynthesizer(apiKey, modelName string, opts ...option.RequestOption) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		modelName = defaultOpenAIModel
	}

	client := openai.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)

	return &OpenAISynthesizer{
		client:    &client,
		modelName: modelName,
	}, nil
}

// Provider returns "openai".
func (s *OpenAISynthesizer) Provider() string { return "openai" }

// Synthesize renders the text as MP3 audio.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	if req.Text == "" {
		return Result{}, fmt.Errorf("text is required")
	}

	voice := req.Voice
	if voice == "" {
		voice = defaultOpenAIVoice
	}
	speed := req.Speed
	if speed <= 0 {
		speed = defaultOpenAISpeed
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.modelName),
		Input:          req.Text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(speed),
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai TTS error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read audio response: %w", err)
	}

	return Result{Audio: audio, ContentType: "audio/mpeg"}, nil
}
