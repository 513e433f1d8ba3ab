// Package chat runs one chat turn: a provider completion followed by a
// best-effort trace record.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tracedchat/chat-gateway/internal/domain"
	"github.com/tracedchat/chat-gateway/internal/tokens"
	"github.com/tracedchat/chat-gateway/internal/tracing"
)

// DefaultRecordTimeout bounds a single trace record.
const DefaultRecordTimeout = 5 * time.Second

// Service answers chat requests.
type Service struct {
	provider      domain.Provider
	recorder      tracing.Recorder
	tokens        *tokens.Registry
	logger        *slog.Logger
	defaultModel  string
	recordTimeout time.Duration
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithDefaultModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.defaultModel = model
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTokenRegistry(r *tokens.Registry) Option {
	return func(s *Service) {
		s.tokens = r
	}
}

func WithRecordTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.recordTimeout = d
	}
}

// NewService wires a provider and recorder. A nil recorder disables tracing.
func NewService(provider domain.Provider, recorder tracing.Recorder, opts ...Option) *Service {
	s := &Service{
		provider:      provider,
		recorder:      recorder,
		tokens:        tokens.NewRegistry(),
		logger:        slog.Default(),
		defaultModel:  domain.DefaultModel,
		recordTimeout: DefaultRecordTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = tracing.NewNoop(s.logger)
	}
	return s
}

// DefaultModel is the model used when a request names none.
func (s *Service) DefaultModel() string {
	return s.defaultModel
}

// Chat completes req. Provider failures are returned as *domain.ProviderError;
// trace failures are logged and never returned.
func (s *Service) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	traceID := uuid.New().String()

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	start := s.now()
	completion, err := s.provider.Complete(ctx, model, req.Messages)
	if err != nil {
		s.logger.ErrorContext(ctx, "provider call failed",
			slog.String("trace_id", traceID),
			slog.String("model", model),
			slog.String("error", err.Error()),
		)
		return nil, &domain.ProviderError{Provider: s.provider.Name(), Model: model, Err: err}
	}
	end := s.now()

	usage := completion.Usage
	if usage == nil {
		usage = s.tokens.Usage(model, req.Messages, completion.Content)
	}

	s.record(ctx, domain.TraceRecord{
		TraceID:  traceID,
		Model:    model,
		Messages: req.Messages,
		Response: completion.Content,
		Usage:    usage,
		Start:    start,
		End:      end,
	})

	return &domain.ChatResponse{
		Message: domain.Message{Role: domain.RoleAssistant, Content: completion.Content},
		TraceID: traceID,
	}, nil
}

func (s *Service) record(ctx context.Context, rec domain.TraceRecord) {
	recordCtx, cancel := buildRecordContext(ctx, s.recordTimeout)
	defer cancel()

	err := safeRecord(recordCtx, s.recorder, rec)
	if err == nil {
		return
	}

	traceErr := &domain.TraceError{TraceID: rec.TraceID, Err: err}
	s.logger.WarnContext(ctx, "failed to record trace",
		slog.String("trace_id", rec.TraceID),
		slog.String("error", traceErr.Error()),
	)
}

// safeRecord converts a recorder panic into an error.
func safeRecord(ctx context.Context, r tracing.Recorder, rec domain.TraceRecord) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New("recorder panicked")
		}
	}()
	return r.Record(ctx, rec)
}

// buildRecordContext keeps request values (request id, span context) but not
// the request's cancellation, so a client disconnect does not drop the trace.
func buildRecordContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, timeout)
}
