// Package models defines the chat completion abstraction used by the
// conversation and extraction pipelines, with vendor adapters in subpackages.
package models

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn handed to a chat model.
type ChatMessage struct {
	Role    Role
	Content string
}

// Request describes a single completion call. Pointer fields are omitted from
// the vendor request when nil.
type Request struct {
	System           string
	Messages         []ChatMessage
	Temperature      *float64
	MaxTokens        int64
	PresencePenalty  *float64
	FrequencyPenalty *float64

	// JSONResponse asks the vendor for a JSON-object response where supported.
	JSONResponse bool
}

// ChatModel is a synchronous, non-streaming chat completion backend.
type ChatModel interface {
	// Name returns the vendor model name.
	Name() string

	// Complete runs one completion and returns the assistant text.
	Complete(ctx context.Context, req Request) (string, error)
}

// Float returns a pointer to v, for filling optional Request fields.
func Float(v float64) *float64 {
	return &v
}
