package openai

import (
	"context"
	"net/http"

	openaiapi "github.com/tracedchat/chat-gateway/internal/api/openai"
	"github.com/tracedchat/chat-gateway/internal/domain"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// Provider implements domain.Provider against the OpenAI Chat Completions API.
type Provider struct {
	client     *openaiapi.Client
	baseURL    string
	httpClient *http.Client
}

var _ domain.Provider = (*Provider)(nil)

// New creates a new OpenAI provider. The API key is fixed for the provider's lifetime.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{}

	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []openaiapi.ClientOption
	if p.baseURL != "" {
		clientOpts = append(clientOpts, openaiapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, openaiapi.WithHTTPClient(p.httpClient))
	}

	p.client = openaiapi.NewClient(apiKey, clientOpts...)
	return p
}

func (p *Provider) Name() string {
	return ProviderType
}

// Complete sends the conversation as one non-streaming request and returns the
// first choice. A response without choices is reported as malformed.
func (p *Provider) Complete(ctx context.Context, model string, msgs []domain.Message) (*domain.Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, toAPIRequest(model, msgs), nil)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, domain.ErrMalformedResponse("no choices in completion response")
	}

	return toCompletion(resp), nil
}

func toAPIRequest(model string, msgs []domain.Message) *openaiapi.ChatCompletionRequest {
	messages := make([]openaiapi.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		messages[i] = openaiapi.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	return &openaiapi.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
}

func toCompletion(resp *openaiapi.ChatCompletionResponse) *domain.Completion {
	c := &domain.Completion{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
	}
	if resp.Usage != nil {
		c.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return c
}
