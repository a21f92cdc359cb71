package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/her-voice/companion/internal/extractor"
	"github.com/her-voice/companion/internal/memory_store"
	"github.com/her-voice/companion/internal/models"
	"github.com/her-voice/companion/internal/orchestrator"
	"github.com/her-voice/companion/internal/prompt_manager"
	"github.com/her-voice/companion/internal/storage_manager"
	"github.com/her-voice/companion/internal/tts"
	"github.com/her-voice/companion/pkg/logger"
)

type stubModel struct {
	response string
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Complete(context.Context, models.Request) (string, error) {
	return m.response, nil
}

type stubSynthesizer struct {
	lastReq tts.Request
}

func (s *stubSynthesizer) Provider() string { return "openai" }

func (s *stubSynthesizer) Synthesize(_ context.Context, req tts.Request) (tts.Result, error) {
	s.lastReq = req
	return tts.Result{Audio: []byte("mp3"), ContentType: "audio/mpeg"}, nil
}

type testEnv struct {
	router   chi.Router
	store    *memory_store.Store
	sessions *orchestrator.Manager
	synth    *stubSynthesizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: logger.DebugLevel, Format: "json", Output: &buf})

	store := memory_store.New(memory_store.Config{
		Provider: storage_manager.NewLocalFileProvider(t.TempDir()),
		Logger:   log,
	})
	prompts := prompt_manager.New(context.Background(), prompt_manager.Config{Store: store, Logger: log})

	chatModel := &stubModel{response: "Hi! How was your day?"}
	sessions := orchestrator.NewManager(orchestrator.Config{
		Store:   store,
		Prompts: prompts,
		Model:   chatModel,
		Extractor: extractor.New(extractor.Config{
			Model: &stubModel{response: `{"memories": [], "summary": ""}`}, Store: store, Logger: log,
		}),
		Logger:          log,
		ExtractionDelay: time.Hour,
	})

	synth := &stubSynthesizer{}
	router := chi.NewRouter()
	a := &api{
		store:        store,
		prompts:      prompts,
		sessions:     sessions,
		synthesizers: map[string]tts.Synthesizer{"openai": synth},
		log:          log,
	}
	a.routes(router)

	return &testEnv{router: router, store: store, sessions: sessions, synth: synth}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sessions", `{"topicId": "tech", "difficulty": "advanced"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	sessionID, _ := created["sessionId"].(string)
	require.NotEmpty(t, sessionID)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/messages", `{"content": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	reply := decode(t, rec)["message"].(map[string]any)
	assert.Equal(t, "assistant", reply["role"])
	assert.Equal(t, "Hi! How was your day?", reply["content"])

	rec = env.do(t, http.MethodDelete, "/api/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionRejectsUnknownTopic(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/sessions", `{"topicId": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sessions/unknown/messages", `{"content": "hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	created := decode(t, env.do(t, http.MethodPost, "/api/sessions", `{}`))
	sessionID := created["sessionId"].(string)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/messages", `{"content": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitToEndedSessionIsGone(t *testing.T) {
	env := newTestEnv(t)

	created := decode(t, env.do(t, http.MethodPost, "/api/sessions", `{}`))
	sessionID := created["sessionId"].(string)

	// End the session directly while the manager still knows it, as happens
	// when a delete races a message.
	session, ok := env.sessions.Get(sessionID)
	require.True(t, ok)
	session.End(context.Background())

	rec := env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/messages", `{"content": "hi"}`)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestTopicsEndpointHidesPrompts(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/topics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"free-talk"`)
	assert.NotContains(t, rec.Body.String(), "conversation partner", "system prompts must not leak")
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/profile", "").Code)
	exists := decode(t, env.do(t, http.MethodGet, "/api/profile/exists", ""))
	assert.Equal(t, false, exists["exists"])

	rec := env.do(t, http.MethodPut, "/api/profile", `{"name": "", "interests": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/profile", `{"name": "Min-ji", "interests": ["hiking"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode(t, env.do(t, http.MethodGet, "/api/profile", ""))
	assert.Equal(t, "Min-ji", got["name"])

	exists = decode(t, env.do(t, http.MethodGet, "/api/profile/exists", ""))
	assert.Equal(t, true, exists["exists"])
}

func TestMemoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	body := decode(t, env.do(t, http.MethodGet, "/api/memories", ""))
	assert.Empty(t, body["memories"])

	env.store.AddMemories(ctx, []memory_store.MemoryEntry{
		{ID: "m1", Type: memory_store.MemoryFact, Content: "teaches English", Importance: 5, CreatedAt: time.Now()},
	})

	body = decode(t, env.do(t, http.MethodGet, "/api/memories", ""))
	require.Len(t, body["memories"], 1)

	contextBody := decode(t, env.do(t, http.MethodGet, "/api/memories/context", ""))
	assert.Contains(t, contextBody["context"], "Facts about the user: teaches English")

	rec := env.do(t, http.MethodGet, "/api/memories/context?entries=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/memories", "").Code)
	body = decode(t, env.do(t, http.MethodGet, "/api/memories", ""))
	assert.Empty(t, body["memories"])
}

func TestSettingsPatchMerges(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPatch, "/api/settings", `{"difficulty": "advanced"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/settings", `{"autoSpeak": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	merged := decode(t, rec)

	// Earlier fields survive later partial updates.
	assert.Equal(t, "advanced", merged["difficulty"])
	assert.Equal(t, false, merged["autoSpeak"])
}

func TestSynthesizeEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/tts", `{"text": "Hello!", "voice": "shimmer", "speed": 1.1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("mp3"), rec.Body.Bytes())
	assert.Equal(t, "Hello!", env.synth.lastReq.Text)
	assert.Equal(t, "shimmer", env.synth.lastReq.Voice)

	rec = env.do(t, http.MethodPost, "/api/tts", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/tts", `{"text": "hi", "provider": "espeak"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
