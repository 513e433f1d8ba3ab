package tracing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/tracedchat/chat-gateway/internal/domain"
)

func newTestOTel(t *testing.T) (*OTel, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	rec, err := NewOTel("chat-gateway-test", "test-project", nil, sdktrace.WithSyncer(exp))
	if err != nil {
		t.Fatalf("NewOTel() error = %v", err)
	}
	t.Cleanup(func() { rec.Shutdown(context.Background()) })
	return rec, exp
}

func attrMap(kvs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.Emit()
	}
	return m
}

func TestOTel_Record(t *testing.T) {
	rec, exp := newTestOTel(t)

	traceID := uuid.NewString()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)

	err := rec.Record(context.Background(), domain.TraceRecord{
		TraceID:  traceID,
		Model:    "gpt-3.5-turbo",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "Hello"}},
		Response: "Hi!",
		Usage:    &domain.Usage{PromptTokens: 8, CompletionTokens: 2, TotalTokens: 10},
		Start:    start,
		End:      end,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	span := spans[0]

	if span.Name != "LLM Call - gpt-3.5-turbo" {
		t.Errorf("Name = %q", span.Name)
	}
	wantTID, _ := TraceIDFromUUID(traceID)
	if span.SpanContext.TraceID() != wantTID {
		t.Errorf("TraceID = %s, want %s", span.SpanContext.TraceID(), wantTID)
	}
	if got := span.SpanContext.TraceID().String(); got != strings.ReplaceAll(traceID, "-", "") {
		t.Errorf("TraceID hex = %s, want %s", got, traceID)
	}
	if span.Parent.IsValid() {
		t.Error("expected a root span")
	}
	if !span.StartTime.Equal(start) || !span.EndTime.Equal(end) {
		t.Errorf("times = %v..%v, want %v..%v", span.StartTime, span.EndTime, start, end)
	}

	attrs := attrMap(span.Attributes)
	want := map[string]string{
		"openinference.span.kind":    "LLM",
		"llm.model_name":             "gpt-3.5-turbo",
		"input.value":                "[\n  {\n    \"role\": \"user\",\n    \"content\": \"Hello\"\n  }\n]",
		"input.mime_type":            "application/json",
		"output.value":               "Hi!",
		"llm.token_count.prompt":     "8",
		"llm.token_count.completion": "2",
		"llm.token_count.total":      "10",
		"chat.trace_id":              traceID,
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestOTel_RecordLinksIncomingSpan(t *testing.T) {
	rec, exp := newTestOTel(t)

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	traceID := uuid.NewString()
	if err := rec.Record(ctx, domain.TraceRecord{TraceID: traceID, Model: "gpt-4o"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	span := exp.GetSpans()[0]
	if span.Parent.IsValid() {
		t.Error("span must not be parented to the HTTP span")
	}
	if len(span.Links) != 1 || span.Links[0].SpanContext.SpanID() != parent.SpanID() {
		t.Errorf("links = %+v, want link to %s", span.Links, parent.SpanID())
	}
	wantTID, _ := TraceIDFromUUID(traceID)
	if span.SpanContext.TraceID() != wantTID {
		t.Errorf("TraceID = %s, want %s", span.SpanContext.TraceID(), wantTID)
	}
}

func TestOTel_RecordWithoutUsage(t *testing.T) {
	rec, exp := newTestOTel(t)

	if err := rec.Record(context.Background(), domain.TraceRecord{TraceID: uuid.NewString(), Model: "gpt-4o"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	attrs := attrMap(exp.GetSpans()[0].Attributes)
	if _, ok := attrs["llm.token_count.total"]; ok {
		t.Error("token counts must be omitted when usage is unknown")
	}
	if attrs["input.value"] != "[]" {
		t.Errorf("input.value = %q, want []", attrs["input.value"])
	}
}

func TestOTel_RecordInvalidTraceID(t *testing.T) {
	rec, exp := newTestOTel(t)

	if err := rec.Record(context.Background(), domain.TraceRecord{TraceID: "not-a-uuid"}); err == nil {
		t.Error("expected error for invalid trace id")
	}
	if len(exp.GetSpans()) != 0 {
		t.Error("no span should be exported")
	}
}

func TestIDGenerator_RandomWithoutPinnedID(t *testing.T) {
	var g idGenerator
	a, sa := g.NewIDs(context.Background())
	b, sb := g.NewIDs(context.Background())
	if !a.IsValid() || !sa.IsValid() || !b.IsValid() || !sb.IsValid() {
		t.Fatal("generated ids must be valid")
	}
	if a == b {
		t.Error("expected distinct trace ids")
	}
}

func TestNoop(t *testing.T) {
	n := NewNoop(nil)
	if n.Enabled() {
		t.Error("Noop must report disabled")
	}
	if err := n.Record(context.Background(), domain.TraceRecord{TraceID: "anything"}); err != nil {
		t.Errorf("Record() error = %v", err)
	}
	if err := n.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
