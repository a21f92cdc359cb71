// Package prompt_manager owns the conversation topic catalog and assembles
// the system prompt sent with every chat turn: topic instructions, difficulty
// modifier, then personalization sections pulled from the memory store.
package prompt_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/her-voice/companion/internal/memory_store"
	"github.com/her-voice/companion/internal/storage_manager"
	"github.com/her-voice/companion/pkg/logger"
)

const catalogPath = "topics.yaml"

// Config holds the dependencies for the PromptManager.
type Config struct {
	// Store supplies memory context and recent summaries.
	Store *memory_store.Store

	// Provider optionally supplies a topics.yaml overriding the compiled-in
	// catalog. May be nil.
	Provider storage_manager.FileProvider

	Logger logger.Logger
}

// PromptManager builds system prompts and serves the topic catalog.
type PromptManager struct {
	store  *memory_store.Store
	topics []Topic
	log    logger.Logger
}

// New creates a PromptManager. Panics if required dependencies are missing.
// When a provider is given and holds a topics.yaml, that catalog replaces the
// compiled-in defaults; a missing or unreadable file falls back silently.
func New(ctx context.Context, cfg Config) *PromptManager {
	if cfg.Store == nil {
		panic("prompt_manager: store is required")
	}
	if cfg.Logger == nil {
		panic("prompt_manager: logger is required")
	}

	m := &PromptManager{
		store:  cfg.Store,
		topics: defaultTopics(),
		log:    cfg.Logger,
	}

	if cfg.Provider != nil {
		if topics, err := loadCatalog(ctx, cfg.Provider); err == nil && len(topics) > 0 {
			m.topics = topics
			m.log.Info("loaded topic catalog from storage", logger.IntField("topics", len(topics)))
		}
	}

	return m
}

// loadCatalog reads a YAML topic catalog from the provider.
func loadCatalog(ctx context.Context, provider storage_manager.FileProvider) ([]Topic, error) {
	exists, err := provider.Exists(ctx, catalogPath)
	if err != nil || !exists {
		return nil, fmt.Errorf("topic catalog not available")
	}

	data, err := provider.Read(ctx, catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic catalog: %w", err)
	}

	var catalog struct {
		Topics []Topic `yaml:"topics"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse topic catalog: %w", err)
	}
	return catalog.Topics, nil
}

// Topics returns the catalog in display order.
func (m *PromptManager) Topics() []Topic {
	return m.topics
}

// Topic returns the catalog entry with the given id.
func (m *PromptManager) Topic(id string) (Topic, bool) {
	for _, t := range m.topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// DefaultTopic returns the first catalog entry.
func (m *PromptManager) DefaultTopic() Topic {
	return m.topics[0]
}

// BuildPrompt assembles the full system prompt for one turn. Layering order is
// fixed: topic instructions, difficulty suffix, then profile, long-term
// memory, and recent conversation sections, each omitted when empty. The
// result is a pure function of the arguments and current store state.
func (m *PromptManager) BuildPrompt(ctx context.Context, topicPrompt string, difficulty Difficulty, profile *memory_store.UserProfile) string {
	var sb strings.Builder
	sb.WriteString(topicPrompt)
	sb.WriteString(difficultySuffix(difficulty))

	if section := profileSection(profile); section != "" {
		sb.WriteString(section)
	}

	if memoryContext := m.store.MemoryContext(ctx, memory_store.DefaultContextEntries); memoryContext != "" {
		sb.WriteString("\n\nLONG-TERM MEMORY (things you know about the user from past conversations):\n")
		sb.WriteString(memoryContext)
		sb.WriteString("\nWeave these memories into conversation naturally, the way a close friend who remembers would. Never recite them back as a list.")
	}

	if summaries := m.store.RecentSummaries(ctx, 3); len(summaries) > 0 {
		sb.WriteString("\n\nRECENT CONVERSATIONS:\n")
		for i, summary := range summaries {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, summary))
		}
		sb.WriteString("Build on these when it feels natural, so conversations have continuity.")
	}

	return sb.String()
}

// profileSection renders the USER PROFILE block, or "" when the profile is
// nil or has no non-empty fields.
func profileSection(profile *memory_store.UserProfile) string {
	if profile == nil {
		return ""
	}

	var lines []string
	if profile.Name != "" {
		name := profile.Name
		if profile.Nickname != "" {
			name += fmt.Sprintf(" (goes by %q)", profile.Nickname)
		}
		lines = append(lines, "- Name: "+name)
	}
	if len(profile.Interests) > 0 {
		lines = append(lines, "- Interests: "+strings.Join(profile.Interests, ", "))
	}
	if profile.Bio != "" {
		lines = append(lines, "- About them: "+profile.Bio)
	}
	if profile.PersonalityNotes != "" {
		lines = append(lines, "- Communication style: "+profile.PersonalityNotes)
	}
	if len(lines) == 0 {
		return ""
	}

	return "\n\nUSER PROFILE:\n" + strings.Join(lines, "\n") +
		"\nUse this to personalize the conversation. Never mention you were given this information; let it surface implicitly."
}
