package tracing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tracedchat/chat-gateway/internal/config"
)

func TestResolveExporter(t *testing.T) {
	arize := config.ArizeConfig{APIKey: "k", SpaceKey: "s"}

	tests := []struct {
		name string
		cfg  config.TracingConfig
		want string
	}{
		{"auto with arize keys", config.TracingConfig{Exporter: config.ExporterAuto, Arize: arize}, config.ExporterArize},
		{"auto without keys", config.TracingConfig{Exporter: config.ExporterAuto}, config.ExporterNone},
		{"auto with one key", config.TracingConfig{Exporter: config.ExporterAuto, Arize: config.ArizeConfig{APIKey: "k"}}, config.ExporterNone},
		{"empty behaves as auto", config.TracingConfig{Arize: arize}, config.ExporterArize},
		{"explicit stdout", config.TracingConfig{Exporter: config.ExporterStdout, Arize: arize}, config.ExporterStdout},
		{"explicit none", config.TracingConfig{Exporter: config.ExporterNone, Arize: arize}, config.ExporterNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveExporter(tt.cfg); got != tt.want {
				t.Errorf("resolveExporter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		cfg         config.TracingConfig
		wantEnabled bool
	}{
		{
			name: "none",
			cfg:  config.TracingConfig{Exporter: config.ExporterNone},
		},
		{
			name: "auto without keys",
			cfg:  config.TracingConfig{Exporter: config.ExporterAuto},
		},
		{
			name: "arize without keys falls back",
			cfg:  config.TracingConfig{Exporter: config.ExporterArize},
		},
		{
			name: "unknown exporter falls back",
			cfg:  config.TracingConfig{Exporter: "zipkin"},
		},
		{
			name:        "arize with keys",
			cfg:         config.TracingConfig{Exporter: config.ExporterArize, ServiceName: "test", Arize: config.ArizeConfig{APIKey: "k", SpaceKey: "s", Endpoint: "localhost:4318"}},
			wantEnabled: true,
		},
		{
			name:        "sqlite",
			cfg:         config.TracingConfig{Exporter: config.ExporterSQLite, ServiceName: "test", SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "traces.db")}},
			wantEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := New(ctx, tt.cfg, nil)
			defer rec.Shutdown(ctx)

			if rec.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", rec.Enabled(), tt.wantEnabled)
			}
		})
	}
}
