package openai

import (
	"github.com/tracedchat/chat-gateway/internal/config"
)

// ProviderType is the provider name reported in logs and errors.
const ProviderType = "openai"

// CreateFromConfig creates a new OpenAI provider from configuration.
func CreateFromConfig(cfg config.OpenAIConfig, opts ...ProviderOption) *Provider {
	if cfg.BaseURL != "" {
		opts = append([]ProviderOption{WithBaseURL(cfg.BaseURL)}, opts...)
	}
	return New(cfg.APIKey, opts...)
}
