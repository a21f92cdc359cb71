// Package orchestrator drives live conversations. A Session owns one
// transcript and serializes turns through it; quiet periods trigger debounced
// memory extraction so long sessions are captured without waiting for the end.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/her-voice/companion/internal/extractor"
	"github.com/her-voice/companion/internal/memory_store"
	"github.com/her-voice/companion/internal/models"
	"github.com/her-voice/companion/internal/prompt_manager"
	"github.com/her-voice/companion/pkg/logger"
	"github.com/her-voice/companion/pkg/prefixed_uuid"
	"github.com/her-voice/companion/pkg/scheduler"
)

// DefaultExtractionDelay is the quiet period after an assistant reply before
// memory extraction runs.
const DefaultExtractionDelay = 30 * time.Second

const (
	chatTemperature      = 0.8
	chatMaxTokens        = 300
	chatPresencePenalty  = 0.6
	chatFrequencyPenalty = 0.3
)

const (
	sessionIDPrefix = "sess"
	messageIDPrefix = "msg"
)

const fallbackReply = "I'm sorry, I couldn't generate a response."

// Session is the live state for one conversation. All methods are safe for
// concurrent use; only one chat call can be outstanding at a time.
type Session struct {
	id             string
	conversationID string
	topic          prompt_manager.Topic
	difficulty     prompt_manager.Difficulty
	startedAt      time.Time

	store     *memory_store.Store
	prompts   *prompt_manager.PromptManager
	model     models.ChatModel
	extractor *extractor.Extractor
	debouncer *scheduler.Debouncer
	log       logger.Logger

	mu       sync.Mutex
	messages []memory_store.Message
	inFlight bool
	ended    bool
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Topic returns the session's topic.
func (s *Session) Topic() prompt_manager.Topic { return s.topic }

// Difficulty returns the session's difficulty level.
func (s *Session) Difficulty() prompt_manager.Difficulty { return s.difficulty }

// Ended reports whether End has been called on this session.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []memory_store.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptLocked()
}

func (s *Session) transcriptLocked() []memory_store.Message {
	out := make([]memory_store.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Submit processes one user turn: the user message is appended immediately,
// the chat model is called with the full transcript, and the reply (or a
// synthetic error bubble on failure) is appended and returned. Returns false
// without side effects when text is blank, a reply is already in flight, or
// the session has ended. A session ended while the reply was in flight also
// returns false: the late reply is dropped so the final extraction stays the
// last word on the conversation.
func (s *Session) Submit(ctx context.Context, text string) (memory_store.Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return memory_store.Message{}, false
	}

	s.mu.Lock()
	if s.inFlight || s.ended {
		s.mu.Unlock()
		return memory_store.Message{}, false
	}
	s.inFlight = true
	s.messages = append(s.messages, memory_store.Message{
		ID:        prefixed_uuid.New(messageIDPrefix).String(),
		Role:      "user",
		Content:   text,
		Timestamp: time.Now(),
	})
	transcript := s.transcriptLocked()
	s.mu.Unlock()

	profile := s.store.Profile(ctx)
	system := s.prompts.BuildPrompt(ctx, s.topic.SystemPrompt, s.difficulty, profile)

	reply, err := s.model.Complete(ctx, models.Request{
		System:           system,
		Messages:         toChatMessages(transcript),
		Temperature:      models.Float(chatTemperature),
		MaxTokens:        chatMaxTokens,
		PresencePenalty:  models.Float(chatPresencePenalty),
		FrequencyPenalty: models.Float(chatFrequencyPenalty),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.ended {
		s.log.Debug("dropping reply for ended session",
			logger.StringField("session_id", s.id))
		return memory_store.Message{}, false
	}

	if err != nil {
		s.log.Warn("chat completion failed",
			logger.StringField("session_id", s.id),
			logger.ErrorField(err))
		bubble := s.appendAssistantLocked(errorBubbleText(err))
		return bubble, true
	}

	if reply == "" {
		reply = fallbackReply
	}
	msg := s.appendAssistantLocked(reply)
	s.scheduleExtractionLocked()
	return msg, true
}

// End closes the session. Any pending debounced extraction is cancelled; if
// the transcript reached the extraction threshold, one final extraction runs
// on a background goroutine so the caller never waits on it. Safe to call
// more than once.
func (s *Session) End(_ context.Context) {
	s.debouncer.Cancel()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	record := s.recordLocked()
	s.mu.Unlock()

	if len(record.Messages) < extractor.MinMessages {
		s.log.Debug("session ended below extraction threshold",
			logger.StringField("session_id", s.id),
			logger.IntField("messages", len(record.Messages)))
		return
	}

	// Detached from the request context: the response returns immediately
	// while extraction finishes on its own.
	go s.extractor.Extract(context.Background(), record)
}

func (s *Session) appendAssistantLocked(content string) memory_store.Message {
	msg := memory_store.Message{
		ID:        prefixed_uuid.New(messageIDPrefix).String(),
		Role:      "assistant",
		Content:   content,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// scheduleExtractionLocked re-arms the quiet-period timer with a snapshot of
// the transcript as of this reply.
func (s *Session) scheduleExtractionLocked() {
	record := s.recordLocked()
	s.debouncer.Reset(func() {
		s.extractor.Extract(context.Background(), record)
	})
}

func (s *Session) recordLocked() memory_store.ConversationRecord {
	return memory_store.ConversationRecord{
		ID:        s.conversationID,
		TopicID:   s.topic.ID,
		Messages:  s.transcriptLocked(),
		StartedAt: s.startedAt,
	}
}

func toChatMessages(messages []memory_store.Message) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, models.ChatMessage{Role: models.Role(m.Role), Content: m.Content})
	}
	return out
}

// errorBubbleText renders a chat-completion failure as a user-visible
// assistant message.
func errorBubbleText(err error) string {
	if msg := err.Error(); msg != "" {
		return "Sorry, there was an error: " + msg
	}
	return "Sorry, something went wrong. Please try again."
}

// conversationID derives the persistent conversation id from the session
// start time, so repeated extractions of the same session upsert one record.
func conversationID(startedAt time.Time) string {
	return fmt.Sprintf("conv_%d", startedAt.UnixMilli())
}
