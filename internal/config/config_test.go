package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for name := range wellKnownEnv {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	for _, name := range []string{"CHAT_SERVER__PORT", "CHAT_TRACING__EXPORTER", "CHAT_CHAT__DEFAULT_MODEL"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadFile(missing)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 8000 {
			t.Errorf("port = %v, want 8000", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 0 {
			t.Errorf("request timeout = %v, want 0", cfg.Server.RequestTimeout)
		}
		if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
			t.Errorf("cors origins = %v, want [*]", cfg.Server.CORSOrigins)
		}
		if cfg.Chat.DefaultModel != domain.DefaultModel {
			t.Errorf("default model = %q, want %q", cfg.Chat.DefaultModel, domain.DefaultModel)
		}
		if cfg.Tracing.Exporter != ExporterAuto {
			t.Errorf("exporter = %q, want auto", cfg.Tracing.Exporter)
		}
		if cfg.Tracing.Arize.Configured() {
			t.Error("expected arize to be unconfigured")
		}
	})

	t.Run("well known env vars", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-env")
		t.Setenv("ARIZE_API_KEY", "arize-key")
		t.Setenv("ARIZE_SPACE_KEY", "space-key")

		cfg, err := LoadFile(missing)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.OpenAI.APIKey != "sk-env" {
			t.Errorf("openai key = %q, want sk-env", cfg.OpenAI.APIKey)
		}
		if !cfg.Tracing.Arize.Configured() {
			t.Errorf("arize = %+v, want configured", cfg.Tracing.Arize)
		}
	})

	t.Run("prefixed env overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CHAT_SERVER__PORT", "9000")
		t.Setenv("CHAT_TRACING__EXPORTER", "STDOUT")
		t.Setenv("CHAT_CHAT__DEFAULT_MODEL", "gpt-4o-mini")

		cfg, err := LoadFile(missing)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("port = %v, want 9000", cfg.Server.Port)
		}
		if cfg.Tracing.Exporter != ExporterStdout {
			t.Errorf("exporter = %q, want stdout", cfg.Tracing.Exporter)
		}
		if cfg.Chat.DefaultModel != "gpt-4o-mini" {
			t.Errorf("default model = %q", cfg.Chat.DefaultModel)
		}
	})

	t.Run("yaml file with substitution", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEST_OPENAI_SECRET", "sk-from-file")

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
server:
  port: 18080
  request_timeout: 45s
openai:
  api_key: ${TEST_OPENAI_SECRET}
tracing:
  exporter: sqlite
  sqlite:
    path: /tmp/traces.db
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 18080 {
			t.Errorf("port = %v, want 18080", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 45*time.Second {
			t.Errorf("request timeout = %v, want 45s", cfg.Server.RequestTimeout)
		}
		if cfg.OpenAI.APIKey != "sk-from-file" {
			t.Errorf("openai key = %q, want sk-from-file", cfg.OpenAI.APIKey)
		}
		if cfg.Tracing.Exporter != ExporterSQLite || cfg.Tracing.SQLite.Path != "/tmp/traces.db" {
			t.Errorf("tracing = %+v", cfg.Tracing)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
