// Package config loads gateway settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

// EnvPrefix prefixes gateway settings in the environment. Nested keys are
// separated by a double underscore, e.g. CHAT_SERVER__PORT.
const EnvPrefix = "CHAT_"

// DefaultConfigPath is read when CHAT_CONFIG is unset. A missing file is not an error.
const DefaultConfigPath = "config.yaml"

// Tracing exporters.
const (
	ExporterAuto   = "auto"
	ExporterArize  = "arize"
	ExporterStdout = "stdout"
	ExporterSQLite = "sqlite"
	ExporterNone   = "none"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Chat    ChatConfig    `koanf:"chat"`
	OpenAI  OpenAIConfig  `koanf:"openai"`
	Tracing TracingConfig `koanf:"tracing"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RequestTimeout bounds each request when non-zero.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`
}

type ChatConfig struct {
	DefaultModel string `koanf:"default_model"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type TracingConfig struct {
	Exporter    string       `koanf:"exporter"`
	ServiceName string       `koanf:"service_name"`
	Arize       ArizeConfig  `koanf:"arize"`
	SQLite      SQLiteConfig `koanf:"sqlite"`
}

type ArizeConfig struct {
	APIKey   string `koanf:"api_key"`
	SpaceKey string `koanf:"space_key"`
	Endpoint string `koanf:"endpoint"`
	Project  string `koanf:"project"`
}

// Configured reports whether both Arize credentials are present.
func (a ArizeConfig) Configured() bool {
	return a.APIKey != "" && a.SpaceKey != ""
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// wellKnownEnv maps the unprefixed variables the gateway has always honoured.
var wellKnownEnv = map[string]string{
	"OPENAI_API_KEY":  "openai.api_key",
	"OPENAI_BASE_URL": "openai.base_url",
	"ARIZE_API_KEY":   "tracing.arize.api_key",
	"ARIZE_SPACE_KEY": "tracing.arize.space_key",
}

var defaults = map[string]any{
	"server.port":            8000,
	"server.request_timeout": "0s",
	"server.cors_origins":    []string{"*"},
	"chat.default_model":     domain.DefaultModel,
	"tracing.exporter":       ExporterAuto,
	"tracing.service_name":   "chat-gateway",
	"tracing.arize.endpoint": "otlp.arize.com",
	"tracing.arize.project":  "chat-gateway",
	"tracing.sqlite.path":    "./data/traces.db",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the file named by CHAT_CONFIG (or config.yaml) and the environment.
func Load() (*Config, error) {
	path := os.Getenv("CHAT_CONFIG")
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadFile(path)
}

// LoadFile reads path (if it exists), then overlays environment variables.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return wellKnownEnv[s]
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.OpenAI.APIKey = substituteEnvVars(cfg.OpenAI.APIKey)
	cfg.Tracing.Arize.APIKey = substituteEnvVars(cfg.Tracing.Arize.APIKey)
	cfg.Tracing.Arize.SpaceKey = substituteEnvVars(cfg.Tracing.Arize.SpaceKey)
	cfg.Tracing.Exporter = strings.ToLower(cfg.Tracing.Exporter)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
