package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tracedchat/chat-gateway/internal/config"
	"github.com/tracedchat/chat-gateway/internal/tracing/sqlite"
)

// ArizeTracesPath is the OTLP/HTTP path Arize accepts spans on.
const ArizeTracesPath = "/v1/traces"

// New selects the recorder for cfg. It never fails: when the configured
// exporter cannot be built a warning is logged and the Noop recorder is used.
// An enabled recorder is also installed as the global tracer provider.
func New(ctx context.Context, cfg config.TracingConfig, logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		logger.Warn("tracing unavailable, continuing without it",
			slog.String("exporter", cfg.Exporter),
			slog.String("error", err.Error()),
		)
		return NewNoop(logger)
	}
	if exporter == nil {
		logger.Info("tracing disabled", slog.String("exporter", cfg.Exporter))
		return NewNoop(logger)
	}

	rec, err := NewOTel(cfg.ServiceName, cfg.Arize.Project, logger, sdktrace.WithBatcher(exporter))
	if err != nil {
		logger.Warn("tracing unavailable, continuing without it", slog.String("error", err.Error()))
		_ = exporter.Shutdown(ctx)
		return NewNoop(logger)
	}

	otel.SetTracerProvider(rec.TracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("exporter", resolveExporter(cfg)),
	)
	return rec
}

func resolveExporter(cfg config.TracingConfig) string {
	if cfg.Exporter == config.ExporterAuto || cfg.Exporter == "" {
		if cfg.Arize.Configured() {
			return config.ExporterArize
		}
		return config.ExporterNone
	}
	return cfg.Exporter
}

// newExporter returns (nil, nil) when tracing is switched off.
func newExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch name := resolveExporter(cfg); name {
	case config.ExporterArize:
		return newArizeExporter(ctx, cfg.Arize)
	case config.ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case config.ExporterSQLite:
		return sqlite.NewExporter(cfg.SQLite.Path)
	case config.ExporterNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", name)
	}
}

func newArizeExporter(ctx context.Context, cfg config.ArizeConfig) (sdktrace.SpanExporter, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("arize exporter requires ARIZE_API_KEY and ARIZE_SPACE_KEY")
	}
	return otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithURLPath(ArizeTracesPath),
		otlptracehttp.WithHeaders(map[string]string{
			"api_key":  cfg.APIKey,
			"space_id": cfg.SpaceKey,
		}),
	)
}
