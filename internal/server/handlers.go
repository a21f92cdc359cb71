package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/her-voice/companion/internal/memory_store"
	"github.com/her-voice/companion/internal/orchestrator"
	"github.com/her-voice/companion/internal/prompt_manager"
	"github.com/her-voice/companion/internal/tts"
	"github.com/her-voice/companion/pkg/logger"
)

// api holds the handler dependencies, separate from server lifecycle so tests
// can drive the routes with fakes.
type api struct {
	store        *memory_store.Store
	prompts      *prompt_manager.PromptManager
	sessions     *orchestrator.Manager
	synthesizers map[string]tts.Synthesizer
	log          logger.Logger
}

func (a *api) routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", a.createSession)
		r.Post("/sessions/{sessionID}/messages", a.submitMessage)
		r.Delete("/sessions/{sessionID}", a.endSession)

		r.Get("/topics", a.listTopics)

		r.Get("/profile", a.getProfile)
		r.Put("/profile", a.putProfile)
		r.Get("/profile/exists", a.profileExists)

		r.Get("/memories", a.listMemories)
		r.Delete("/memories", a.clearMemories)
		r.Get("/memories/context", a.memoryContext)

		r.Get("/conversations", a.listConversations)

		r.Get("/settings", a.getSettings)
		r.Patch("/settings", a.patchSettings)

		r.Post("/tts", a.synthesize)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type createSessionRequest struct {
	TopicID    string `json:"topicId"`
	Difficulty string `json:"difficulty"`
}

func (a *api) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := a.sessions.Open(req.TopicID, prompt_manager.Difficulty(req.Difficulty))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId":  session.ID(),
		"topic":      session.Topic(),
		"difficulty": session.Difficulty(),
	})
}

type submitMessageRequest struct {
	Content string `json:"content"`
}

func (a *api) submitMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req submitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	// Chat failures come back as a synthetic assistant message, so this is a
	// 200 either way. Only an overlapping call or an ended session is rejected.
	msg, ok := session.Submit(r.Context(), req.Content)
	if !ok {
		if session.Ended() {
			writeError(w, http.StatusGone, "session has ended")
			return
		}
		writeError(w, http.StatusConflict, "a reply is already being generated")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (a *api) endSession(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.End(r.Context(), chi.URLParam(r, "sessionID")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"topics": a.prompts.Topics()})
}

func (a *api) getProfile(w http.ResponseWriter, r *http.Request) {
	profile := a.store.Profile(r.Context())
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *api) putProfile(w http.ResponseWriter, r *http.Request) {
	var profile memory_store.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(profile.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	a.store.SaveProfile(r.Context(), profile)
	writeJSON(w, http.StatusOK, a.store.Profile(r.Context()))
}

func (a *api) profileExists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"exists": a.store.HasProfile(r.Context())})
}

func (a *api) listMemories(w http.ResponseWriter, r *http.Request) {
	memories := a.store.Memories(r.Context())
	if memories == nil {
		memories = []memory_store.MemoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories})
}

func (a *api) clearMemories(w http.ResponseWriter, r *http.Request) {
	a.store.ClearMemories(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) memoryContext(w http.ResponseWriter, r *http.Request) {
	entries := memory_store.DefaultContextEntries
	if raw := r.URL.Query().Get("entries"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "entries must be a positive integer")
			return
		}
		entries = parsed
	}
	writeJSON(w, http.StatusOK, map[string]string{"context": a.store.MemoryContext(r.Context(), entries)})
}

func (a *api) listConversations(w http.ResponseWriter, r *http.Request) {
	conversations := a.store.Conversations(r.Context())
	if conversations == nil {
		conversations = []memory_store.ConversationRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

func (a *api) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Settings(r.Context()))
}

func (a *api) patchSettings(w http.ResponseWriter, r *http.Request) {
	var partial memory_store.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a.store.SaveSettings(r.Context(), partial)
	writeJSON(w, http.StatusOK, a.store.Settings(r.Context()))
}

type synthesizeRequest struct {
	Text     string  `json:"text"`
	Voice    string  `json:"voice"`
	Speed    float64 `json:"speed"`
	Provider string  `json:"provider"`
}

func (a *api) synthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	provider := req.Provider
	if provider == "" {
		settings := a.store.Settings(r.Context())
		if settings.TTSProvider != nil {
			provider = *settings.TTSProvider
		}
	}
	if provider == "" {
		provider = "openai"
	}

	synth, ok := a.synthesizers[provider]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown or unconfigured TTS provider: "+provider)
		return
	}

	result, err := synth.Synthesize(r.Context(), tts.Request{
		Text:  req.Text,
		Voice: req.Voice,
		Speed: req.Speed,
	})
	if err != nil {
		a.log.Error("speech synthesis failed",
			logger.StringField("provider", provider),
			logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Audio)))
	_, _ = w.Write(result.Audio)
}
