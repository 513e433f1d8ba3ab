// Package tracing forwards chat call metadata to an observability backend.
package tracing

import (
	"context"
	"log/slog"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

// Recorder receives one TraceRecord per completed chat call.
type Recorder interface {
	Record(ctx context.Context, rec domain.TraceRecord) error
	Enabled() bool
	Shutdown(ctx context.Context) error
}

// Noop is the recorder used when no exporter is configured.
type Noop struct {
	logger *slog.Logger
}

var _ Recorder = (*Noop)(nil)

func NewNoop(logger *slog.Logger) *Noop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Noop{logger: logger}
}

func (n *Noop) Record(ctx context.Context, rec domain.TraceRecord) error {
	n.logger.DebugContext(ctx, "tracing disabled",
		slog.String("trace_id", rec.TraceID),
		slog.String("model", rec.Model),
	)
	return nil
}

func (n *Noop) Enabled() bool { return false }

func (n *Noop) Shutdown(context.Context) error { return nil }
