// Package audit persists one JSON line per decision to an append-only log.
//
// The log is the system's source of truth for "what did we answer and why":
// every /ask resolution and every ticket creation lands here with the
// redacted message, the decision path and the tool trace.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kotae-ai/kotae/internal/metrics"
	"github.com/kotae-ai/kotae/internal/model"
)

// Writer appends audit records to a JSONL file. Safe for concurrent use:
// each record is marshalled first and written with a single Write call under
// a mutex, so lines never interleave.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	logger *slog.Logger
}

// NewWriter opens (or creates) the audit log at path in append mode,
// creating parent directories as needed.
func NewWriter(path string, logger *slog.Logger) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("audit: create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	return &Writer{f: f, logger: logger}, nil
}

// Write appends one record as a single JSON line.
func (w *Writer) Write(rec model.AuditRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		return fmt.Errorf("audit: marshal record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(data); err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		return fmt.Errorf("audit: append record: %w", err)
	}
	return nil
}

// WriteBestEffort logs and counts a failed write instead of returning it.
// Used where an audit failure must not fail the request.
func (w *Writer) WriteBestEffort(rec model.AuditRecord) {
	if err := w.Write(rec); err != nil {
		w.logger.Warn("audit write failed", "error", err, "request_id", rec.RequestID)
	}
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
