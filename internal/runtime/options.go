package runtime

import (
	"fmt"
	"log/slog"

	"github.com/tracedchat/chat-gateway/internal/config"
	"github.com/tracedchat/chat-gateway/internal/domain"
	"github.com/tracedchat/chat-gateway/internal/tracing"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithConfig uses an already loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(g *Gateway) error {
		g.config = cfg
		return nil
	}
}

// WithConfigFile loads configuration from path and the environment.
func WithConfigFile(path string) Option {
	return func(g *Gateway) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		g.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger != nil {
			g.logger = logger
		}
		return nil
	}
}

// WithProvider replaces the configured OpenAI provider.
func WithProvider(provider domain.Provider) Option {
	return func(g *Gateway) error {
		g.provider = provider
		return nil
	}
}

// WithRecorder replaces exporter selection from the config.
func WithRecorder(recorder tracing.Recorder) Option {
	return func(g *Gateway) error {
		g.recorder = recorder
		return nil
	}
}
