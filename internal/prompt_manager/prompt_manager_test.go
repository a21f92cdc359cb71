package prompt_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/her-voice/companion/internal/memory_store"
	"github.com/her-voice/companion/internal/storage_manager"
	"github.com/her-voice/companion/pkg/logger"
)

func newTestLogger() logger.Logger {
	var buf bytes.Buffer
	return logger.NewLogger(logger.Config{Level: logger.DebugLevel, Format: "json", Output: &buf})
}

func newTestStore(t *testing.T) *memory_store.Store {
	t.Helper()
	return memory_store.New(memory_store.Config{
		Provider: storage_manager.NewLocalFileProvider(t.TempDir()),
		Logger:   newTestLogger(),
	})
}

func newTestManager(t *testing.T, store *memory_store.Store) *PromptManager {
	t.Helper()
	return New(context.Background(), Config{Store: store, Logger: newTestLogger()})
}

func TestTopicCatalog(t *testing.T) {
	m := newTestManager(t, newTestStore(t))

	topics := m.Topics()
	require.Len(t, topics, 6)
	assert.Equal(t, "free-talk", m.DefaultTopic().ID)

	topic, ok := m.Topic("crypto")
	require.True(t, ok)
	assert.Equal(t, "Crypto & Web3", topic.Label)
	assert.Contains(t, topic.SystemPrompt, "Cryptocurrency and Web3")
	assert.Contains(t, topic.SystemPrompt, "English conversation partner")

	_, ok = m.Topic("unknown")
	assert.False(t, ok)
}

func TestCatalogOverrideFromProvider(t *testing.T) {
	provider := storage_manager.NewLocalFileProvider(t.TempDir())
	ctx := context.Background()
	require.NoError(t, provider.Write(ctx, "topics.yaml", []byte(`
topics:
  - id: "books"
    label: "Books"
    labelKo: "책"
    icon: "📚"
    systemPrompt: "Talk about books."
`)))

	m := New(ctx, Config{Store: newTestStore(t), Provider: provider, Logger: newTestLogger()})

	topics := m.Topics()
	require.Len(t, topics, 1)
	assert.Equal(t, "books", topics[0].ID)
}

func TestCatalogOverrideFallsBackOnBadYAML(t *testing.T) {
	provider := storage_manager.NewLocalFileProvider(t.TempDir())
	ctx := context.Background()
	require.NoError(t, provider.Write(ctx, "topics.yaml", []byte("{not yaml")))

	m := New(ctx, Config{Store: newTestStore(t), Provider: provider, Logger: newTestLogger()})
	assert.Len(t, m.Topics(), 6)
}

func TestBuildPromptLayeringOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	store.AddMemories(ctx, []memory_store.MemoryEntry{
		{ID: "m1", Type: memory_store.MemoryFact, Content: "works as a teacher", Importance: 5, CreatedAt: now},
	})
	store.SaveConversation(ctx, memory_store.ConversationRecord{ID: "c1", Summary: "talked about hiking near Seoul"})

	m := newTestManager(t, store)
	profile := &memory_store.UserProfile{
		Name:      "Min-ji",
		Nickname:  "Minnie",
		Interests: []string{"hiking", "jazz"},
		Bio:       "Lives in Seoul",
	}

	prompt := m.BuildPrompt(ctx, "TOPIC BLOCK", DifficultyBeginner, profile)

	topicIdx := strings.Index(prompt, "TOPIC BLOCK")
	difficultyIdx := strings.Index(prompt, "User level: Beginner")
	profileIdx := strings.Index(prompt, "USER PROFILE:")
	memoryIdx := strings.Index(prompt, "LONG-TERM MEMORY")
	recentIdx := strings.Index(prompt, "RECENT CONVERSATIONS:")

	require.True(t, topicIdx >= 0 && difficultyIdx >= 0 && profileIdx >= 0 && memoryIdx >= 0 && recentIdx >= 0,
		"all sections present: %s", prompt)
	assert.Less(t, topicIdx, difficultyIdx)
	assert.Less(t, difficultyIdx, profileIdx)
	assert.Less(t, profileIdx, memoryIdx)
	assert.Less(t, memoryIdx, recentIdx)

	assert.Contains(t, prompt, `- Name: Min-ji (goes by "Minnie")`)
	assert.Contains(t, prompt, "- Interests: hiking, jazz")
	assert.Contains(t, prompt, "- About them: Lives in Seoul")
	assert.Contains(t, prompt, "Facts about the user: works as a teacher")
	assert.Contains(t, prompt, "1. talked about hiking near Seoul")
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	m := newTestManager(t, newTestStore(t))
	ctx := context.Background()

	prompt := m.BuildPrompt(ctx, "TOPIC BLOCK", DifficultyIntermediate, nil)

	assert.Equal(t, "TOPIC BLOCK"+difficultyPrompts[DifficultyIntermediate], prompt)
	assert.NotContains(t, prompt, "USER PROFILE:")
	assert.NotContains(t, prompt, "LONG-TERM MEMORY")
	assert.NotContains(t, prompt, "RECENT CONVERSATIONS:")
}

func TestBuildPromptEmptyProfileOmitted(t *testing.T) {
	m := newTestManager(t, newTestStore(t))
	prompt := m.BuildPrompt(context.Background(), "TOPIC", DifficultyAdvanced, &memory_store.UserProfile{})
	assert.NotContains(t, prompt, "USER PROFILE:")
}

func TestBuildPromptNumbersSummariesChronologically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.SaveConversation(ctx, memory_store.ConversationRecord{ID: "a", Summary: "first"})
	store.SaveConversation(ctx, memory_store.ConversationRecord{ID: "b", Summary: "second"})
	store.SaveConversation(ctx, memory_store.ConversationRecord{ID: "c", Summary: "third"})
	store.SaveConversation(ctx, memory_store.ConversationRecord{ID: "d", Summary: "fourth"})

	prompt := newTestManager(t, store).BuildPrompt(ctx, "T", DifficultyIntermediate, nil)

	// Only the 3 most recent, in chronological order
	assert.NotContains(t, prompt, "first")
	assert.Contains(t, prompt, "1. second\n2. third\n3. fourth")
}

func TestUnknownDifficultyPanics(t *testing.T) {
	m := newTestManager(t, newTestStore(t))
	assert.Panics(t, func() {
		m.BuildPrompt(context.Background(), "T", Difficulty("expert"), nil)
	})
}

func TestValidDifficulty(t *testing.T) {
	assert.True(t, ValidDifficulty(DifficultyBeginner))
	assert.True(t, ValidDifficulty(DifficultyIntermediate))
	assert.True(t, ValidDifficulty(DifficultyAdvanced))
	assert.False(t, ValidDifficulty("expert"))
}
