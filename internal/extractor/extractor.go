// Package extractor turns finished (or quiet) conversations into long-term
// memories. It makes one structured completion call per conversation, parses
// the typed memories and summary out of the response, and persists both.
// Extraction is strictly best-effort: every failure is logged and swallowed,
// never surfaced to the conversation.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/her-voice/companion/internal/memory_store"
	"github.com/her-voice/companion/internal/models"
	"github.com/her-voice/companion/pkg/logger"
	"github.com/her-voice/companion/pkg/metrics"
	"github.com/her-voice/companion/pkg/prefixed_uuid"
)

// MinMessages is the minimum conversation length worth extracting from.
// Shorter exchanges rarely contain anything durable.
const MinMessages = 4

const (
	extractionTemperature = 0.3
	extractionMaxTokens   = 1000
)

const memoryIDPrefix = "mem"

// Config holds the dependencies for the Extractor.
type Config struct {
	// Model performs the extraction completion. Usually a cheaper or more
	// deterministic model than the one driving conversations.
	Model models.ChatModel

	Store  *memory_store.Store
	Logger logger.Logger

	// Metrics is optional; when nil no counters are recorded.
	Metrics *metrics.Metrics

	// Breaker is optional; a default breaker is created when nil.
	Breaker *CircuitBreaker
}

// Extractor extracts memories from conversations.
type Extractor struct {
	model   models.ChatModel
	store   *memory_store.Store
	log     logger.Logger
	metrics *metrics.Metrics
	breaker *CircuitBreaker
}

// New creates an Extractor. Panics if required dependencies are missing.
func New(cfg Config) *Extractor {
	if cfg.Model == nil {
		panic("extractor: model is required")
	}
	if cfg.Store == nil {
		panic("extractor: store is required")
	}
	if cfg.Logger == nil {
		panic("extractor: logger is required")
	}

	breaker := cfg.Breaker
	if breaker == nil {
		breaker = NewCircuitBreaker()
	}

	return &Extractor{
		model:   cfg.Model,
		store:   cfg.Store,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		breaker: breaker,
	}
}

// extractionResult mirrors the JSON object the model is instructed to return.
type extractionResult struct {
	Memories []extractedMemory `json:"memories"`
	Summary  string            `json:"summary"`
}

type extractedMemory struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Importance float64 `json:"importance"`
}

// Extract runs one extraction pass over the given conversation and persists
// whatever it yields. Conversations below MinMessages are skipped; callers are
// expected to check the threshold too, but the guard here makes the contract
// hold regardless of the call site. Extract never returns an error: a failed
// completion or unparseable response is logged and the whole pass is
// abandoned, leaving the store untouched. A conversation record is only
// written when the model produced a non-empty summary.
func (e *Extractor) Extract(ctx context.Context, conv memory_store.ConversationRecord) {
	e.incrementCounter(metrics.ExtractionTotal)

	if len(conv.Messages) < MinMessages {
		e.incrementCounter(metrics.ExtractionTotalSkipped)
		e.log.Debug("skipping extraction, conversation too short",
			logger.StringField("conversation_id", conv.ID),
			logger.IntField("messages", len(conv.Messages)))
		return
	}

	result, err := e.runExtraction(ctx, conv)
	if err != nil {
		e.incrementCounter(metrics.ExtractionTotalFailed)
		e.log.Warn("memory extraction failed",
			logger.StringField("conversation_id", conv.ID),
			logger.ErrorField(err))
		return
	}

	entries := e.buildEntries(result.Memories)
	if len(entries) > 0 {
		e.store.AddMemories(ctx, entries)
	}
	if result.Summary != "" {
		e.saveConversation(ctx, conv, result.Summary)
	}

	e.incrementCounter(metrics.ExtractionTotalSuccess)
	e.log.Info("memory extraction completed",
		logger.StringField("conversation_id", conv.ID),
		logger.IntField("memories", len(entries)),
		logger.BoolField("has_summary", result.Summary != ""))
}

// runExtraction performs the completion call through the circuit breaker and
// parses the response.
func (e *Extractor) runExtraction(ctx context.Context, conv memory_store.ConversationRecord) (extractionResult, error) {
	req := models.Request{
		System: e.extractionPrompt(ctx),
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: conversationText(conv.Messages)},
		},
		Temperature:  models.Float(extractionTemperature),
		MaxTokens:    extractionMaxTokens,
		JSONResponse: true,
	}

	raw, err := e.breaker.Execute(ctx, func() (string, error) {
		return e.model.Complete(ctx, req)
	})
	if err != nil {
		return extractionResult{}, fmt.Errorf("extraction completion failed: %w", err)
	}

	return parseExtraction(raw)
}

// extractionPrompt builds the system prompt, addressing the user by name when
// a profile exists.
func (e *Extractor) extractionPrompt(ctx context.Context) string {
	userName := "the user"
	if profile := e.store.Profile(ctx); profile != nil && profile.Name != "" {
		userName = profile.Name
	}

	return fmt.Sprintf(`You are a memory extraction assistant. Analyze the following conversation and extract important information about %s that should be remembered for future conversations.

Extract the following types of information:
1. **facts**: Personal facts (job, location, family, age, etc.)
2. **preferences**: Likes, dislikes, preferences (food, music, hobbies, etc.)
3. **experiences**: Past experiences they shared (trips, events, achievements, etc.)
4. **opinions**: Strong opinions or viewpoints expressed
5. **summary**: A brief 1-2 sentence summary of what this conversation was about

Return a JSON object with this exact structure:
{
  "memories": [
    { "type": "fact"|"preference"|"experience"|"opinion", "content": "concise description", "importance": 1-5 }
  ],
  "summary": "Brief conversation summary"
}

Rules:
- Only extract genuinely meaningful information, not trivial details
- importance: 5=critical personal info, 3=useful context, 1=minor detail
- Keep each memory content concise (1 short sentence)
- If no meaningful information found, return empty memories array
- Return ONLY valid JSON, no markdown formatting`, userName)
}

// conversationText renders the transcript as "role: content" lines.
func conversationText(messages []memory_store.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

// parseExtraction parses the model response. Models occasionally wrap JSON in
// markdown fences despite instructions, so fences are stripped first. A
// response that still fails to parse fails the whole pass.
func parseExtraction(raw string) (extractionResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result extractionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return extractionResult{}, fmt.Errorf("unparseable extraction response: %w", err)
	}
	return result, nil
}

// buildEntries converts parsed memories into store entries, dropping unknown
// types and clamping importance into [1, 5].
func (e *Extractor) buildEntries(memories []extractedMemory) []memory_store.MemoryEntry {
	now := time.Now()
	source := "Conversation on " + now.Format("2006-01-02")

	entries := make([]memory_store.MemoryEntry, 0, len(memories))
	for _, m := range memories {
		memType := memory_store.MemoryType(m.Type)
		if !memory_store.ValidMemoryType(memType) || memType == memory_store.MemorySummary {
			e.log.Debug("dropping memory with unknown type", logger.StringField("type", m.Type))
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}

		importance := int(m.Importance)
		if importance < 1 {
			importance = 1
		}
		if importance > 5 {
			importance = 5
		}

		entries = append(entries, memory_store.MemoryEntry{
			ID:         prefixed_uuid.New(memoryIDPrefix).String(),
			Type:       memType,
			Content:    strings.TrimSpace(m.Content),
			Source:     source,
			CreatedAt:  now,
			Importance: importance,
		})
	}
	return entries
}

// saveConversation upserts the conversation record with the given summary,
// filling in missing timestamps.
func (e *Extractor) saveConversation(ctx context.Context, conv memory_store.ConversationRecord, summary string) {
	now := time.Now()
	if conv.StartedAt.IsZero() {
		if len(conv.Messages) > 0 && !conv.Messages[0].Timestamp.IsZero() {
			conv.StartedAt = conv.Messages[0].Timestamp
		} else {
			conv.StartedAt = now
		}
	}
	conv.EndedAt = now
	conv.Summary = summary

	e.store.SaveConversation(ctx, conv)
}

func (e *Extractor) incrementCounter(idx int) {
	if e.metrics != nil {
		e.metrics.IncrementExtractionCounter(idx)
	}
}
