package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

type fakeProvider struct {
	completion *domain.Completion
	err        error

	gotModel string
	gotMsgs  []domain.Message
	calls    int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, model string, msgs []domain.Message) (*domain.Completion, error) {
	p.calls++
	p.gotModel = model
	p.gotMsgs = msgs
	if p.err != nil {
		return nil, p.err
	}
	return p.completion, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []domain.TraceRecord
	err     error
	panics  bool
	ctxErr  error
}

func (r *fakeRecorder) Record(ctx context.Context, rec domain.TraceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panics {
		panic("boom")
	}
	r.ctxErr = ctx.Err()
	r.records = append(r.records, rec)
	return r.err
}

func (r *fakeRecorder) Enabled() bool { return true }

func (r *fakeRecorder) Shutdown(context.Context) error { return nil }

func TestService_Chat(t *testing.T) {
	provider := &fakeProvider{completion: &domain.Completion{
		Content: "Hello! How can I help?",
		Usage:   &domain.Usage{PromptTokens: 8, CompletionTokens: 6, TotalTokens: 14},
	}}
	recorder := &fakeRecorder{}
	svc := NewService(provider, recorder)

	msgs := []domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "Hello"},
	}
	resp, err := svc.Chat(context.Background(), domain.ChatRequest{Messages: msgs})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Message.Role != domain.RoleAssistant {
		t.Errorf("Role = %q, want assistant", resp.Message.Role)
	}
	if resp.Message.Content != "Hello! How can I help?" {
		t.Errorf("Content = %q", resp.Message.Content)
	}
	if _, err := uuid.Parse(resp.TraceID); err != nil {
		t.Errorf("TraceID %q is not a UUID: %v", resp.TraceID, err)
	}
	if provider.gotModel != domain.DefaultModel {
		t.Errorf("model = %q, want default %q", provider.gotModel, domain.DefaultModel)
	}
	if len(provider.gotMsgs) != 2 || provider.gotMsgs[0] != msgs[0] || provider.gotMsgs[1] != msgs[1] {
		t.Errorf("provider messages = %+v, want %+v", provider.gotMsgs, msgs)
	}

	if len(recorder.records) != 1 {
		t.Fatalf("got %d trace records, want 1", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.TraceID != resp.TraceID {
		t.Errorf("record trace id = %q, want %q", rec.TraceID, resp.TraceID)
	}
	if rec.Model != domain.DefaultModel || rec.Response != resp.Message.Content {
		t.Errorf("record = %+v", rec)
	}
	if rec.Usage == nil || rec.Usage.TotalTokens != 14 || rec.Usage.Estimated {
		t.Errorf("record usage = %+v, want provider usage", rec.Usage)
	}
	if rec.End.Before(rec.Start) {
		t.Errorf("End %v before Start %v", rec.End, rec.Start)
	}
}

func TestService_ChatUsesRequestedModel(t *testing.T) {
	provider := &fakeProvider{completion: &domain.Completion{Content: "ok"}}
	svc := NewService(provider, nil, WithDefaultModel("gpt-4o-mini"))

	if _, err := svc.Chat(context.Background(), domain.ChatRequest{Model: "some-unknown-model"}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if provider.gotModel != "some-unknown-model" {
		t.Errorf("model = %q, want passthrough", provider.gotModel)
	}

	if _, err := svc.Chat(context.Background(), domain.ChatRequest{}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if provider.gotModel != "gpt-4o-mini" {
		t.Errorf("model = %q, want configured default", provider.gotModel)
	}
}

func TestService_ChatEstimatesMissingUsage(t *testing.T) {
	provider := &fakeProvider{completion: &domain.Completion{Content: "Hi there"}}
	recorder := &fakeRecorder{}
	svc := NewService(provider, recorder)

	_, err := svc.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	usage := recorder.records[0].Usage
	if usage == nil || !usage.Estimated || usage.TotalTokens == 0 {
		t.Errorf("usage = %+v, want an estimate", usage)
	}
}

func TestService_ChatRecorderFailureDoesNotFailResponse(t *testing.T) {
	tests := []struct {
		name     string
		recorder *fakeRecorder
	}{
		{"recorder error", &fakeRecorder{err: errors.New("backend unreachable")}},
		{"recorder panic", &fakeRecorder{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{completion: &domain.Completion{Content: "still here"}}
			svc := NewService(provider, tt.recorder)

			resp, err := svc.Chat(context.Background(), domain.ChatRequest{
				Messages: []domain.Message{{Role: domain.RoleUser, Content: "Hello"}},
			})
			if err != nil {
				t.Fatalf("Chat() error = %v", err)
			}
			if resp.Message.Content != "still here" {
				t.Errorf("Content = %q", resp.Message.Content)
			}
		})
	}
}

func TestService_ChatProviderError(t *testing.T) {
	upstream := domain.NewAPIError(domain.ErrorTypeAuthentication, "Incorrect API key provided")
	provider := &fakeProvider{err: upstream}
	recorder := &fakeRecorder{}
	svc := NewService(provider, recorder)

	resp, err := svc.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "Hello"}},
	})
	if resp != nil {
		t.Errorf("expected no response, got %+v", resp)
	}

	var perr *domain.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Provider != "fake" || perr.Model != domain.DefaultModel {
		t.Errorf("ProviderError = %+v", perr)
	}
	if !errors.Is(err, upstream) {
		t.Error("ProviderError must wrap the upstream error")
	}
	if err.Error() != upstream.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), upstream.Error())
	}
	if len(recorder.records) != 0 {
		t.Error("no trace should be recorded for a failed call")
	}
}

func TestService_ChatRecordsAfterClientCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{completion: &domain.Completion{Content: "done"}}
	recorder := &fakeRecorder{}
	svc := NewService(provider, recorder)

	cancel()
	if _, err := svc.Chat(ctx, domain.ChatRequest{}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if len(recorder.records) != 1 {
		t.Fatalf("got %d records, want 1", len(recorder.records))
	}
	if recorder.ctxErr != nil {
		t.Errorf("record context error = %v, want nil", recorder.ctxErr)
	}
}

func TestService_TraceIDsAreUnique(t *testing.T) {
	provider := &fakeProvider{completion: &domain.Completion{Content: "ok"}}
	svc := NewService(provider, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		resp, err := svc.Chat(context.Background(), domain.ChatRequest{})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if seen[resp.TraceID] {
			t.Fatalf("duplicate trace id %s", resp.TraceID)
		}
		seen[resp.TraceID] = true
	}
}
