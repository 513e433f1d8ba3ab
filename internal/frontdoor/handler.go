// Package frontdoor exposes the chat service over HTTP.
package frontdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tracedchat/chat-gateway/internal/domain"
	"github.com/tracedchat/chat-gateway/internal/server"
)

// Chatter answers one chat turn.
type Chatter interface {
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}

// HandlerRegistration represents a registered HTTP handler.
type HandlerRegistration struct {
	Path    string
	Method  string
	Handler func(http.ResponseWriter, *http.Request)
}

type Handler struct {
	chat   Chatter
	logger *slog.Logger
}

func NewHandler(chat Chatter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chat: chat, logger: logger}
}

// Registrations lists the routes served by h.
func (h *Handler) Registrations() []HandlerRegistration {
	return []HandlerRegistration{
		{Path: "/chat", Method: http.MethodPost, Handler: h.HandleChat},
		{Path: "/health", Method: http.MethodGet, Handler: h.HandleHealth},
	}
}

// wire shapes keep absent fields distinguishable from empty ones.
type wireMessage struct {
	Role    *domain.Role `json:"role"`
	Content *string      `json:"content"`
}

type wireRequest struct {
	Messages *[]wireMessage `json:"messages"`
	Model    *string        `json:"model"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		server.AddError(r.Context(), err)
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	server.AddLogField(r.Context(), "model", req.Model)

	resp, err := h.chat.Chat(r.Context(), req)
	if err != nil {
		server.AddError(r.Context(), err)

		var perr *domain.ProviderError
		if errors.As(err, &perr) {
			server.AddLogField(r.Context(), "error_type", string(perr.Type()))
			writeDetail(w, perr.HTTPStatusCode(), perr.Error())
			return
		}
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	server.AddLogField(r.Context(), "trace_id", resp.TraceID)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func decodeChatRequest(r *http.Request) (domain.ChatRequest, error) {
	var body wireRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return domain.ChatRequest{}, verr
		}
		return domain.ChatRequest{}, domain.ErrValidation(fmt.Sprintf("invalid request body: %v", err))
	}

	if body.Messages == nil {
		return domain.ChatRequest{}, domain.ErrValidation("messages: field required")
	}

	req := domain.ChatRequest{Messages: make([]domain.Message, len(*body.Messages))}
	for i, m := range *body.Messages {
		if m.Role == nil {
			return domain.ChatRequest{}, domain.ErrValidation(fmt.Sprintf("messages.%d.role: field required", i))
		}
		if m.Content == nil {
			return domain.ChatRequest{}, domain.ErrValidation(fmt.Sprintf("messages.%d.content: field required", i))
		}
		req.Messages[i] = domain.Message{Role: *m.Role, Content: *m.Content}
	}
	if body.Model != nil {
		req.Model = *body.Model
	}
	return req, nil
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, domain.ErrorDetail{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
