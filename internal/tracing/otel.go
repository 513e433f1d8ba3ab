package tracing

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

const instrumentationName = "github.com/tracedchat/chat-gateway/internal/tracing"

// OpenInference attribute keys understood by Arize.
const (
	attrSpanKind        = "openinference.span.kind"
	attrProjectName     = "openinference.project.name"
	attrModelName       = "llm.model_name"
	attrInputValue      = "input.value"
	attrInputMimeType   = "input.mime_type"
	attrOutputValue     = "output.value"
	attrPromptTokens    = "llm.token_count.prompt"
	attrCompletionToks  = "llm.token_count.completion"
	attrTotalTokens     = "llm.token_count.total"
	attrTokensEstimated = "chat.token_count.estimated"
	attrChatTraceID     = "chat.trace_id"
)

// OTel records each chat call as a root span whose trace id is the chat trace id.
type OTel struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	logger   *slog.Logger
}

var _ Recorder = (*OTel)(nil)

// NewOTel builds a tracer provider for serviceName. Callers supply the span
// pipeline, e.g. sdktrace.WithBatcher(exporter).
func NewOTel(serviceName, project string, logger *slog.Logger, opts ...sdktrace.TracerProviderOption) (*OTel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if project != "" {
		attrs = append(attrs, attribute.String(attrProjectName, project))
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attrs...),
	)
	if err != nil {
		return nil, err
	}

	opts = append(opts,
		sdktrace.WithResource(res),
		sdktrace.WithIDGenerator(idGenerator{}),
	)
	tp := sdktrace.NewTracerProvider(opts...)

	return &OTel{
		provider: tp,
		tracer:   tp.Tracer(instrumentationName),
		logger:   logger,
	}, nil
}

// TracerProvider exposes the provider so HTTP instrumentation shares the pipeline.
func (o *OTel) TracerProvider() *sdktrace.TracerProvider {
	return o.provider
}

func (o *OTel) Enabled() bool { return true }

func (o *OTel) Record(ctx context.Context, rec domain.TraceRecord) error {
	tid, err := TraceIDFromUUID(rec.TraceID)
	if err != nil {
		return err
	}
	prompt, err := rec.Prompt()
	if err != nil {
		return err
	}

	start, end := rec.Start, rec.End
	if start.IsZero() {
		start = time.Now()
	}
	if end.Before(start) {
		end = start
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrSpanKind, "LLM"),
		attribute.String(attrModelName, rec.Model),
		attribute.String(attrInputValue, prompt),
		attribute.String(attrInputMimeType, "application/json"),
		attribute.String(attrOutputValue, rec.Response),
		attribute.String(attrChatTraceID, rec.TraceID),
	}
	if u := rec.Usage; u != nil {
		attrs = append(attrs,
			attribute.Int(attrPromptTokens, u.PromptTokens),
			attribute.Int(attrCompletionToks, u.CompletionTokens),
			attribute.Int(attrTotalTokens, u.TotalTokens),
			attribute.Bool(attrTokensEstimated, u.Estimated),
		)
	}

	startOpts := []trace.SpanStartOption{
		trace.WithNewRoot(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(start),
		trace.WithAttributes(attrs...),
	}
	if parent := trace.SpanContextFromContext(ctx); parent.IsValid() {
		startOpts = append(startOpts, trace.WithLinks(trace.LinkFromContext(ctx)))
	}

	_, span := o.tracer.Start(contextWithTraceID(ctx, tid), "LLM Call - "+rec.Model, startOpts...)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(end))

	o.logger.DebugContext(ctx, "trace recorded",
		slog.String("trace_id", rec.TraceID),
		slog.String("span_id", span.SpanContext().SpanID().String()),
	)
	return nil
}

// Shutdown flushes pending spans.
func (o *OTel) Shutdown(ctx context.Context) error {
	return o.provider.Shutdown(ctx)
}
