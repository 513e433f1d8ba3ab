package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

// DefaultGatewayURL is where a locally started gateway listens.
const DefaultGatewayURL = "http://localhost:8000"

// StatusError is returned for non-2xx gateway responses.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("gateway error (status %d)", e.StatusCode)
}

type HTTPClientOption func(*HTTPClient)

func WithHTTPClient(httpClient *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = httpClient
	}
}

// HTTPClient talks to the gateway's HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Gateway = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, opts ...HTTPClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultGatewayURL
	}
	c := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts req to /chat.
func (c *HTTPClient) Send(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if req.Messages == nil {
		req.Messages = []domain.Message{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp domain.ChatResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks GET /health.
func (c *HTTPClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := c.do(httpReq, &status); err != nil {
		return err
	}
	if status.Status != "healthy" {
		return fmt.Errorf("gateway reports status %q", status.Status)
	}
	return nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var detail domain.ErrorDetail
		if json.Unmarshal(body, &detail) != nil || detail.Detail == "" {
			detail.Detail = strings.TrimSpace(string(body))
		}
		return &StatusError{StatusCode: resp.StatusCode, Detail: detail.Detail}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
