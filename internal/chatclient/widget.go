// Package chatclient holds the client-side conversation: an ordered message
// list, the gateway call, and the last trace id.
package chatclient

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

// FallbackMessage is shown in place of a reply when the gateway call fails.
const FallbackMessage = "Sorry, there was an error processing your request."

var (
	ErrEmptyInput = errors.New("chatclient: empty input")
	ErrBusy       = errors.New("chatclient: awaiting reply")
)

type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	StateErrorDisplayed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateErrorDisplayed:
		return "error-displayed"
	default:
		return "unknown"
	}
}

// Gateway sends a conversation to the chat gateway.
type Gateway interface {
	Send(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}

type Option func(*Widget)

// WithModel requests a specific model; empty leaves the choice to the gateway.
func WithModel(model string) Option {
	return func(w *Widget) {
		w.model = model
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Widget) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Widget is safe for concurrent use. Only one Submit may be in flight.
type Widget struct {
	gateway Gateway
	model   string
	logger  *slog.Logger

	mu          sync.Mutex
	messages    []domain.Message
	state       State
	lastTraceID string
}

func New(gateway Gateway, opts ...Option) *Widget {
	w := &Widget{
		gateway: gateway,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit appends input as a user message, sends the whole conversation and
// appends the reply. It returns the appended assistant message. When the
// gateway call fails the fallback message is appended and returned along with
// the error.
func (w *Widget) Submit(ctx context.Context, input string) (domain.Message, error) {
	content := strings.TrimSpace(input)
	if content == "" {
		return domain.Message{}, ErrEmptyInput
	}

	w.mu.Lock()
	if w.state == StateAwaitingReply {
		w.mu.Unlock()
		return domain.Message{}, ErrBusy
	}
	w.messages = append(w.messages, domain.Message{Role: domain.RoleUser, Content: content})
	w.state = StateAwaitingReply
	req := domain.ChatRequest{
		Messages: append([]domain.Message(nil), w.messages...),
		Model:    w.model,
	}
	w.mu.Unlock()

	resp, err := w.gateway.Send(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.logger.ErrorContext(ctx, "chat request failed", slog.String("error", err.Error()))
		reply := domain.Message{Role: domain.RoleAssistant, Content: FallbackMessage}
		w.messages = append(w.messages, reply)
		w.state = StateErrorDisplayed
		return reply, err
	}

	reply := domain.Message{Role: domain.RoleAssistant, Content: resp.Message.Content}
	w.messages = append(w.messages, reply)
	w.lastTraceID = resp.TraceID
	w.state = StateIdle
	return reply, nil
}

// Messages returns a copy of the conversation, oldest first.
func (w *Widget) Messages() []domain.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.Message(nil), w.messages...)
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Loading reports whether a reply is pending; input is disabled meanwhile.
func (w *Widget) Loading() bool {
	return w.State() == StateAwaitingReply
}

// LastTraceID is the trace id of the most recent successful reply.
func (w *Widget) LastTraceID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastTraceID
}
