package orchestrator

import (
	"context"
	"fmt"
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

// Config holds the dependencies for the Manager.
type Config struct {
	Store     *memory_store.Store
	Prompts   *prompt_manager.PromptManager
	Model     models.ChatModel
	Extractor *extractor.Extractor
	Logger    logger.Logger

	// ExtractionDelay overrides the quiet period before debounced extraction.
	// Zero means DefaultExtractionDelay.
	ExtractionDelay time.Duration
}

// Manager creates sessions and resolves them by id for the HTTP layer.
type Manager struct {
	store           *memory_store.Store
	prompts         *prompt_manager.PromptManager
	model           models.ChatModel
	extractor       *extractor.Extractor
	extractionDelay time.Duration
	log             logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Panics if required dependencies are missing.
func NewManager(cfg Config) *Manager {
	if cfg.Store == nil {
		panic("orchestrator: store is required")
	}
	if cfg.Prompts == nil {
		panic("orchestrator: prompt manager is required")
	}
	if cfg.Model == nil {
		panic("orchestrator: chat model is required")
	}
	if cfg.Extractor == nil {
		panic("orchestrator: extractor is required")
	}
	if cfg.Logger == nil {
		panic("orchestrator: logger is required")
	}

	delay := cfg.ExtractionDelay
	if delay <= 0 {
		delay = DefaultExtractionDelay
	}

	return &Manager{
		store:           cfg.Store,
		prompts:         cfg.Prompts,
		model:           cfg.Model,
		extractor:       cfg.Extractor,
		extractionDelay: delay,
		log:             cfg.Logger,
		sessions:        make(map[string]*Session),
	}
}

// Open starts a new session on the given topic and difficulty. An empty topic
// id selects the default topic; an empty difficulty defaults to intermediate.
func (m *Manager) Open(topicID string, difficulty prompt_manager.Difficulty) (*Session, error) {
	topic := m.prompts.DefaultTopic()
	if topicID != "" {
		t, ok := m.prompts.Topic(topicID)
		if !ok {
			return nil, fmt.Errorf("unknown topic: %s", topicID)
		}
		topic = t
	}

	if difficulty == "" {
		difficulty = prompt_manager.DifficultyIntermediate
	}
	if !prompt_manager.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("unknown difficulty: %s", difficulty)
	}

	now := time.Now()
	session := &Session{
		id:             prefixed_uuid.New(sessionIDPrefix).String(),
		conversationID: conversationID(now),
		topic:          topic,
		difficulty:     difficulty,
		startedAt:      now,
		store:          m.store,
		prompts:        m.prompts,
		model:          m.model,
		extractor:      m.extractor,
		debouncer:      scheduler.NewDebouncer(m.extractionDelay),
		log:            m.log,
	}

	m.mu.Lock()
	m.sessions[session.id] = session
	m.mu.Unlock()

	m.log.Info("session opened",
		logger.StringField("session_id", session.id),
		logger.StringField("topic", topic.ID),
		logger.StringField("difficulty", string(difficulty)))
	return session, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End closes and forgets the session with the given id. Returns false when no
// such session exists.
func (m *Manager) End(ctx context.Context, id string) bool {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	session.End(ctx)
	m.log.Info("session ended", logger.StringField("session_id", id))
	return true
}
