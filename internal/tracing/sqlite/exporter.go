// Package sqlite stores exported spans in a local SQLite file for offline inspection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	_ "modernc.org/sqlite"
)

// Span is a stored span.
type Span struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Name         string
	Kind         string
	Start        time.Time
	End          time.Time
	StatusCode   string
	Attributes   map[string]string
}

// Exporter is an sdktrace.SpanExporter backed by SQLite.
type Exporter struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

var _ sdktrace.SpanExporter = (*Exporter)(nil)

// NewExporter opens (creating if needed) the database at dbPath.
func NewExporter(dbPath string) (*Exporter, error) {
	if dir := filepath.Dir(dbPath); dir != "." && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	e := &Exporter{db: db}
	if err := e.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return e, nil
}

func (e *Exporter) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS spans (
			span_id TEXT PRIMARY KEY,
			trace_id TEXT NOT NULL,
			parent_span_id TEXT,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			start_unix_nano INTEGER NOT NULL,
			end_unix_nano INTEGER NOT NULL,
			status_code TEXT NOT NULL,
			attributes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spans_trace ON spans(trace_id)`,
	}

	for _, stmt := range statements {
		if _, err := e.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ExportSpans writes spans in a single transaction.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO spans
		(span_id, trace_id, parent_span_id, name, kind, start_unix_nano, end_unix_nano, status_code, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range spans {
		attrs := make(map[string]string, len(s.Attributes()))
		for _, kv := range s.Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		attrJSON, err := json.Marshal(attrs)
		if err != nil {
			return err
		}

		var parent string
		if s.Parent().IsValid() {
			parent = s.Parent().SpanID().String()
		}

		_, err = stmt.ExecContext(ctx,
			s.SpanContext().SpanID().String(),
			s.SpanContext().TraceID().String(),
			parent,
			s.Name(),
			s.SpanKind().String(),
			s.StartTime().UnixNano(),
			s.EndTime().UnixNano(),
			s.Status().Code.String(),
			string(attrJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to store span %s: %w", s.Name(), err)
		}
	}

	return tx.Commit()
}

// Spans returns the stored spans of traceID (32 hex chars), oldest first.
func (e *Exporter) Spans(ctx context.Context, traceID string) ([]Span, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT span_id, trace_id, parent_span_id, name, kind, start_unix_nano, end_unix_nano, status_code, attributes
		FROM spans WHERE trace_id = ? ORDER BY start_unix_nano ASC
	`, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spans []Span
	for rows.Next() {
		var s Span
		var parent, attrJSON sql.NullString
		var start, end int64
		if err := rows.Scan(&s.SpanID, &s.TraceID, &parent, &s.Name, &s.Kind, &start, &end, &s.StatusCode, &attrJSON); err != nil {
			return nil, err
		}
		s.ParentSpanID = parent.String
		s.Start = time.Unix(0, start)
		s.End = time.Unix(0, end)
		if attrJSON.Valid && attrJSON.String != "" {
			if err := json.Unmarshal([]byte(attrJSON.String), &s.Attributes); err != nil {
				return nil, err
			}
		}
		spans = append(spans, s)
	}
	return spans, rows.Err()
}

// Shutdown closes the database. Later exports are dropped.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.db.Close()
}
