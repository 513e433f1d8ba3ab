// Package runtime assembles the chat gateway and manages its HTTP lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tracedchat/chat-gateway/internal/chat"
	"github.com/tracedchat/chat-gateway/internal/config"
	"github.com/tracedchat/chat-gateway/internal/domain"
	"github.com/tracedchat/chat-gateway/internal/frontdoor"
	"github.com/tracedchat/chat-gateway/internal/provider/openai"
	"github.com/tracedchat/chat-gateway/internal/server"
	"github.com/tracedchat/chat-gateway/internal/tokens"
	"github.com/tracedchat/chat-gateway/internal/tracing"
)

// Gateway is the main entry point for running the chat gateway.
// It can be embedded in larger applications or run standalone.
type Gateway struct {
	// Dependencies (injected via options)
	config   *config.Config
	provider domain.Provider
	recorder tracing.Recorder
	logger   *slog.Logger

	// Internal state
	chat     *chat.Service
	handlers []frontdoor.HandlerRegistration
	server   *server.Server
	errs     chan error

	mu      sync.Mutex
	started bool
}

// New creates a Gateway. Without WithProvider the OpenAI provider is built
// from the config; without WithRecorder the trace exporter is selected from
// the config once, here.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		logger: slog.Default(),
		errs:   make(chan error, 1),
	}

	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if gw.config == nil {
		return nil, errors.New("config required (use WithConfig or WithConfigFile)")
	}

	if gw.provider == nil {
		if gw.config.OpenAI.APIKey == "" {
			gw.logger.Warn("OPENAI_API_KEY is not set; chat requests will fail")
		}
		gw.provider = openai.CreateFromConfig(gw.config.OpenAI)
	}
	if gw.recorder == nil {
		gw.recorder = tracing.New(context.Background(), gw.config.Tracing, gw.logger)
	}

	gw.chat = chat.NewService(gw.provider, gw.recorder,
		chat.WithDefaultModel(gw.config.Chat.DefaultModel),
		chat.WithTokenRegistry(tokens.NewRegistry()),
		chat.WithLogger(gw.logger),
	)

	gw.handlers = frontdoor.NewHandler(gw.chat, gw.logger).Registrations()
	gw.server = server.New(gw.config.Server, gw.logger)
	for _, reg := range gw.handlers {
		gw.server.Handle(reg.Method, reg.Path, reg.Handler)
		gw.logger.Debug("registered route", slog.String("method", reg.Method), slog.String("path", reg.Path))
	}

	return gw, nil
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.server.Router
}

// Recorder returns the trace recorder chosen at construction.
func (g *Gateway) Recorder() tracing.Recorder {
	return g.recorder
}

// Start begins serving in the background. Serve failures are delivered on Errors.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return errors.New("gateway already started")
	}
	g.started = true

	go func() {
		if err := g.server.Start(); err != nil {
			g.errs <- err
		}
	}()

	g.logger.InfoContext(ctx, "gateway started",
		slog.Int("port", g.config.Server.Port),
		slog.String("provider", g.provider.Name()),
		slog.String("default_model", g.chat.DefaultModel()),
		slog.Bool("tracing", g.recorder.Enabled()),
	)
	return nil
}

// Errors reports a failure of the HTTP listener.
func (g *Gateway) Errors() <-chan error {
	return g.errs
}

// Shutdown stops the HTTP server and flushes pending traces.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.server.Shutdown(ctx); err != nil {
		g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := g.recorder.Shutdown(ctx); err != nil {
		g.logger.Error("failed to flush traces", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	g.logger.Info("gateway shutdown complete")
	return errors.Join(errs...)
}
