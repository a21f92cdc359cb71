package memory_store //nolint:revive // var-naming: using underscores for domain clarity

import "time"

// MemoryType classifies a long-term memory entry.
type MemoryType string

// Memory types produced by extraction. Summary entries come from conversation
// summaries rather than individual statements.
const (
	MemoryFact       MemoryType = "fact"
	MemoryPreference MemoryType = "preference"
	MemoryExperience MemoryType = "experience"
	MemoryOpinion    MemoryType = "opinion"
	MemorySummary    MemoryType = "summary"
)

// ValidMemoryType reports whether t is one of the known memory types.
func ValidMemoryType(t MemoryType) bool {
	switch t {
	case MemoryFact, MemoryPreference, MemoryExperience, MemoryOpinion, MemorySummary:
		return true
	}
	return false
}

// UserProfile describes the practising user. Filled in once during onboarding
// and editable afterwards.
type UserProfile struct {
	Name             string    `json:"name"`
	Nickname         string    `json:"nickname,omitempty"`
	Interests        []string  `json:"interests,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	PreferredTopics  []string  `json:"preferredTopics,omitempty"`
	PersonalityNotes string    `json:"personalityNotes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// MemoryEntry is one long-lived memory about the user.
type MemoryEntry struct {
	ID         string     `json:"id"`
	Type       MemoryType `json:"type"`
	Content    string     `json:"content"`
	Source     string     `json:"source"`
	CreatedAt  time.Time  `json:"createdAt"`
	Importance int        `json:"importance"` // 1 (low) to 5 (high)
}

// Message is a single turn in a conversation transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRecord is an archived conversation with its extracted summary.
type ConversationRecord struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topicId"`
	Messages  []Message `json:"messages"`
	Summary   string    `json:"summary"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// AppSettings holds user-tunable settings. All fields are pointers so a
// partial update can distinguish "unset" from a zero value.
type AppSettings struct {
	Difficulty        *string  `json:"difficulty,omitempty"`
	AutoSpeak         *bool    `json:"autoSpeak,omitempty"`
	SelectedVoice     *string  `json:"selectedVoice,omitempty"`
	VoiceSpeed        *float64 `json:"voiceSpeed,omitempty"`
	VoicePitch        *float64 `json:"voicePitch,omitempty"`
	ShowTranslation   *bool    `json:"showTranslation,omitempty"`
	TTSProvider       *string  `json:"ttsProvider,omitempty"`
	ElevenLabsVoiceID *string  `json:"elevenlabsVoiceId,omitempty"`
}

// Merge overlays the set fields of other onto s and returns the result.
// Unset fields in other leave the existing value untouched.
func (s AppSettings) Merge(other AppSettings) AppSettings {
	if other.Difficulty != nil {
		s.Difficulty = other.Difficulty
	}
	if other.AutoSpeak != nil {
		s.AutoSpeak = other.AutoSpeak
	}
	if other.SelectedVoice != nil {
		s.SelectedVoice = other.SelectedVoice
	}
	if other.VoiceSpeed != nil {
		s.VoiceSpeed = other.VoiceSpeed
	}
	if other.VoicePitch != nil {
		s.VoicePitch = other.VoicePitch
	}
	if other.ShowTranslation != nil {
		s.ShowTranslation = other.ShowTranslation
	}
	if other.TTSProvider != nil {
		s.TTSProvider = other.TTSProvider
	}
	if other.ElevenLabsVoiceID != nil {
		s.ElevenLabsVoiceID = other.ElevenLabsVoiceID
	}
	return s
}
