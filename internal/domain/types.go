package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultModel is used when a ChatRequest does not name a model.
const DefaultModel = "gpt-3.5-turbo"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// UnmarshalJSON rejects roles outside the supported set.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrValidation("role must be a string")
	}
	role := Role(s)
	if !role.Valid() {
		return ErrValidation(fmt.Sprintf("role %q must be one of user, assistant, system", s))
	}
	*r = role
	return nil
}

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	// Model is optional; the gateway's default model is used when empty.
	Model string `json:"model,omitempty"`
}

// ChatResponse is the successful reply of POST /chat.
type ChatResponse struct {
	Message Message `json:"message"`
	TraceID string  `json:"trace_id"`
}

// ErrorDetail is the body returned on failed requests.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// Usage represents token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	// Estimated is set when the counts were computed locally rather than
	// reported by the provider.
	Estimated bool `json:"estimated,omitempty"`
}

// Completion is the result of a single non-streaming provider call.
type Completion struct {
	ID      string
	Model   string
	Content string
	Usage   *Usage
}

// TraceRecord is the metadata of one provider call handed to the trace sink.
type TraceRecord struct {
	TraceID  string
	Model    string
	Messages []Message
	Response string
	Usage    *Usage
	Start    time.Time
	End      time.Time
}

// Prompt serializes the conversation the way trace sinks display it.
func (r TraceRecord) Prompt() (string, error) {
	msgs := r.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	b, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize prompt: %w", err)
	}
	return string(b), nil
}
