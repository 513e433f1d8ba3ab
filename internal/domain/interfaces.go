package domain

import (
	"context"
)

// Provider defines the interface for chat-completion providers.
type Provider interface {
	Name() string

	// Complete requests a single non-streaming completion for the ordered
	// conversation. Implementations return the first choice's text.
	Complete(ctx context.Context, model string, msgs []Message) (*Completion, error)
}
