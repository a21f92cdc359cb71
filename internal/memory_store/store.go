// Package memory_store persists the companion's long-lived records: the user
// profile, extracted memories, archived conversations, and app settings. Each
// record is a JSON blob behind a FileProvider.
//
// Every operation is best-effort. Storage failures are logged and absorbed so
// a broken disk or bucket degrades the experience instead of breaking it;
// reads fall back to empty values and writes are dropped.
package memory_store //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/her-voice/companion/internal/storage_manager"
	"github.com/her-voice/companion/pkg/logger"
)

// Record keys within the store's namespace.
const (
	profileKey       = "profile.json"
	memoriesKey      = "memories.json"
	conversationsKey = "conversations.json"
	settingsKey      = "settings.json"
)

const (
	// MaxMemories caps the stored memory list. Lower-ranked entries fall off.
	MaxMemories = 200
	// MaxConversations caps the archived conversation list, oldest evicted first.
	MaxConversations = 50
	// DefaultContextEntries is how many memories feed the prompt context.
	DefaultContextEntries = 20
)

// Config holds the dependencies for the Store.
type Config struct {
	Provider storage_manager.FileProvider
	Logger   logger.Logger
}

// Store provides access to the user's persistent records.
type Store struct {
	provider storage_manager.FileProvider
	log      logger.Logger

	// Guards read-modify-write sequences against concurrent callers in this
	// process. Cross-process writers are last-write-wins.
	mu sync.Mutex
}

// New creates a Store. Panics if required dependencies are missing.
func New(cfg Config) *Store {
	if cfg.Provider == nil {
		panic("memory_store: provider is required")
	}
	if cfg.Logger == nil {
		panic("memory_store: logger is required")
	}
	return &Store{
		provider: cfg.Provider,
		log:      cfg.Logger,
	}
}

// readJSON loads a record into dest, leaving dest untouched on any failure.
// Returns false when the record is missing or unreadable.
func (s *Store) readJSON(ctx context.Context, key string, dest any) bool {
	exists, err := s.provider.Exists(ctx, key)
	if err != nil {
		s.log.Warn("failed to check record", logger.StringField("key", key), logger.ErrorField(err))
		return false
	}
	if !exists {
		return false
	}

	data, err := s.provider.Read(ctx, key)
	if err != nil {
		s.log.Warn("failed to read record", logger.StringField("key", key), logger.ErrorField(err))
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warn("failed to decode record", logger.StringField("key", key), logger.ErrorField(err))
		return false
	}
	return true
}

// writeJSON stores a record, logging and absorbing any failure.
func (s *Store) writeJSON(ctx context.Context, key string, value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		s.log.Error("failed to encode record", logger.StringField("key", key), logger.ErrorField(err))
		return
	}
	if err := s.provider.Write(ctx, key, data); err != nil {
		s.log.Error("failed to write record", logger.StringField("key", key), logger.ErrorField(err))
	}
}

// Profile returns the stored user profile, or nil when none exists.
func (s *Store) Profile(ctx context.Context) *UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	var profile UserProfile
	if !s.readJSON(ctx, profileKey, &profile) {
		return nil
	}
	return &profile
}

// SaveProfile stores the profile, stamping UpdatedAt.
func (s *Store) SaveProfile(ctx context.Context, profile UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now()
	s.writeJSON(ctx, profileKey, profile)
}

// HasProfile reports whether a profile has been saved.
func (s *Store) HasProfile(ctx context.Context) bool {
	return s.Profile(ctx) != nil
}

// Memories returns the stored memory list, most important first.
func (s *Store) Memories(ctx context.Context) []MemoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoriesLocked(ctx)
}

func (s *Store) memoriesLocked(ctx context.Context) []MemoryEntry {
	memories := []MemoryEntry{}
	s.readJSON(ctx, memoriesKey, &memories)
	return memories
}

// AddMemories merges new entries into the stored list, re-sorts by importance
// then recency, and truncates to MaxMemories. Duplicate content is kept;
// overlapping extraction windows may legitimately repeat themselves.
func (s *Store) AddMemories(ctx context.Context, entries []MemoryEntry) {
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := append(s.memoriesLocked(ctx), entries...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Importance != merged[j].Importance {
			return merged[i].Importance > merged[j].Importance
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > MaxMemories {
		merged = merged[:MaxMemories]
	}

	s.writeJSON(ctx, memoriesKey, merged)
}

// ClearMemories empties the stored memory list.
func (s *Store) ClearMemories(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeJSON(ctx, memoriesKey, []MemoryEntry{})
}

// MemoryContext renders the top maxEntries memories as grouped lines for the
// system prompt. Returns an empty string when no memories are stored.
func (s *Store) MemoryContext(ctx context.Context, maxEntries int) string {
	if maxEntries <= 0 {
		maxEntries = DefaultContextEntries
	}

	memories := s.Memories(ctx)
	if len(memories) > maxEntries {
		memories = memories[:maxEntries]
	}
	if len(memories) == 0 {
		return ""
	}

	grouped := make(map[MemoryType][]string)
	for _, m := range memories {
		grouped[m.Type] = append(grouped[m.Type], m.Content)
	}

	var sections []string
	appendSection := func(t MemoryType, label string) {
		if contents := grouped[t]; len(contents) > 0 {
			sections = append(sections, label+strings.Join(contents, "; "))
		}
	}
	appendSection(MemoryFact, "Facts about the user: ")
	appendSection(MemoryPreference, "User preferences: ")
	appendSection(MemoryExperience, "Past experiences shared: ")
	appendSection(MemoryOpinion, "Opinions expressed: ")
	appendSection(MemorySummary, "Recent conversation summaries: ")

	return strings.Join(sections, "\n")
}

// Conversations returns all archived conversations in insertion order.
func (s *Store) Conversations(ctx context.Context) []ConversationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationsLocked(ctx)
}

func (s *Store) conversationsLocked(ctx context.Context) []ConversationRecord {
	conversations := []ConversationRecord{}
	s.readJSON(ctx, conversationsKey, &conversations)
	return conversations
}

// SaveConversation upserts a record by id. New records append; the list is
// trimmed to the most recent MaxConversations by position.
func (s *Store) SaveConversation(ctx context.Context, record ConversationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations := s.conversationsLocked(ctx)
	replaced := false
	for i := range conversations {
		if conversations[i].ID == record.ID {
			conversations[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		conversations = append(conversations, record)
	}
	if len(conversations) > MaxConversations {
		conversations = conversations[len(conversations)-MaxConversations:]
	}

	s.writeJSON(ctx, conversationsKey, conversations)
}

// RecentSummaries returns the non-empty summaries of the most recent count
// conversations, oldest first.
func (s *Store) RecentSummaries(ctx context.Context, count int) []string {
	if count <= 0 {
		return nil
	}

	var summaries []string
	for _, c := range s.Conversations(ctx) {
		if c.Summary != "" {
			summaries = append(summaries, c.Summary)
		}
	}
	if len(summaries) > count {
		summaries = summaries[len(summaries)-count:]
	}
	return summaries
}

// Settings returns the stored settings. Missing fields stay nil.
func (s *Store) Settings(ctx context.Context) AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked(ctx)
}

func (s *Store) settingsLocked(ctx context.Context) AppSettings {
	var settings AppSettings
	s.readJSON(ctx, settingsKey, &settings)
	return settings
}

// SaveSettings shallow-merges the set fields of partial over the stored
// settings and persists the result.
func (s *Store) SaveSettings(ctx context.Context, partial AppSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.settingsLocked(ctx).Merge(partial)
	s.writeJSON(ctx, settingsKey, merged)
}
