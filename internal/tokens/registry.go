// Package tokens estimates token usage for traces when the provider does not report it.
package tokens

import (
	"strings"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

// Counter counts tokens for a family of models.
type Counter interface {
	// CountMessages counts the prompt tokens of a chat conversation.
	CountMessages(model string, msgs []domain.Message) (int, error)

	// CountText counts the tokens of a plain string.
	CountText(model, text string) (int, error)

	// SupportsModel returns true if this counter supports the given model.
	SupportsModel(model string) bool
}

// Registry picks a counter per model and falls back to a character estimator.
type Registry struct {
	counters []Counter
	fallback Counter
}

// NewRegistry creates a registry with the tiktoken counter registered.
func NewRegistry() *Registry {
	r := &Registry{fallback: NewEstimator()}
	r.Register(NewOpenAICounter())
	return r
}

// Register adds a token counter to the registry.
func (r *Registry) Register(counter Counter) {
	r.counters = append(r.counters, counter)
}

// GetCounter returns the appropriate counter for a model.
func (r *Registry) GetCounter(model string) Counter {
	for _, counter := range r.counters {
		if counter.SupportsModel(model) {
			return counter
		}
	}
	return r.fallback
}

// Usage estimates prompt and completion tokens for one exchange. It never fails:
// a counter error degrades to the character estimator.
func (r *Registry) Usage(model string, msgs []domain.Message, reply string) *domain.Usage {
	counter := r.GetCounter(model)

	prompt, err := counter.CountMessages(model, msgs)
	if err != nil {
		counter = r.fallback
		prompt, _ = counter.CountMessages(model, msgs)
	}
	completion, err := counter.CountText(model, reply)
	if err != nil {
		completion, _ = r.fallback.CountText(model, reply)
	}

	return &domain.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Estimated:        true,
	}
}

// Estimator provides token count estimation based on character counts.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4)
	CharsPerToken float64
}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{
		CharsPerToken: 4.0,
	}
}

func (e *Estimator) CountMessages(model string, msgs []domain.Message) (int, error) {
	totalChars := 0
	for _, msg := range msgs {
		totalChars += len(msg.Role)
		totalChars += len(msg.Content)
		totalChars += 4 // role tokens + separators
	}
	return int(float64(totalChars) / e.CharsPerToken), nil
}

func (e *Estimator) CountText(model, text string) (int, error) {
	return int(float64(len(text)) / e.CharsPerToken), nil
}

// SupportsModel returns true - estimator supports all models as a fallback.
func (e *Estimator) SupportsModel(model string) bool {
	return true
}

// ModelMatcher helps match model names to provider patterns.
type ModelMatcher struct {
	prefixes []string
	exact    []string
}

// NewModelMatcher creates a new model matcher.
func NewModelMatcher(prefixes, exact []string) *ModelMatcher {
	return &ModelMatcher{
		prefixes: prefixes,
		exact:    exact,
	}
}

// Matches returns true if the model matches any pattern.
func (m *ModelMatcher) Matches(model string) bool {
	for _, e := range m.exact {
		if model == e {
			return true
		}
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
