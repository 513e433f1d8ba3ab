package tracing

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type traceIDKey struct{}

func contextWithTraceID(ctx context.Context, id trace.TraceID) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromUUID converts a chat trace id into the OTel trace id that carries
// the same 16 bytes.
func TraceIDFromUUID(s string) (trace.TraceID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return trace.TraceID{}, fmt.Errorf("invalid trace id %q: %w", s, err)
	}
	tid := trace.TraceID(u)
	if !tid.IsValid() {
		return trace.TraceID{}, fmt.Errorf("invalid trace id %q: all zero", s)
	}
	return tid, nil
}

// idGenerator issues root trace ids from the context when one was pinned with
// contextWithTraceID, and random ids otherwise.
type idGenerator struct{}

func (idGenerator) NewIDs(ctx context.Context) (trace.TraceID, trace.SpanID) {
	tid, ok := ctx.Value(traceIDKey{}).(trace.TraceID)
	if !ok || !tid.IsValid() {
		for !tid.IsValid() {
			binary.BigEndian.PutUint64(tid[:8], rand.Uint64())
			binary.BigEndian.PutUint64(tid[8:], rand.Uint64())
		}
	}
	return tid, newSpanID()
}

func (idGenerator) NewSpanID(context.Context, trace.TraceID) trace.SpanID {
	return newSpanID()
}

func newSpanID() trace.SpanID {
	var sid trace.SpanID
	for !sid.IsValid() {
		binary.BigEndian.PutUint64(sid[:], rand.Uint64())
	}
	return sid
}
