package server

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// LogEntry is one captured log record of a research job.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// MemoryLogHandler is a slog.Handler that keeps records in memory so the API
// can expose a job's log trail. Jobs are not persisted and neither are their
// logs. Handlers derived via WithAttrs share the same record sink.
type MemoryLogHandler struct {
	records *logRecords
	preset  []slog.Attr
}

type logRecords struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewMemoryLogHandler() *MemoryLogHandler {
	return &MemoryLogHandler{records: &logRecords{}}
}

func (h *MemoryLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true // Log everything
}

func (h *MemoryLogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.preset))
	for _, attr := range h.preset {
		attrs[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.Any()
		return true
	})
	if len(attrs) == 0 {
		attrs = nil
	}

	h.records.mu.Lock()
	defer h.records.mu.Unlock()
	h.records.entries = append(h.records.entries, LogEntry{
		Timestamp: r.Time,
		Level:     r.Level.String(),
		Message:   r.Message,
		Attrs:     attrs,
	})
	return nil
}

func (h *MemoryLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.preset)+len(attrs))
	merged = append(merged, h.preset...)
	merged = append(merged, attrs...)
	return &MemoryLogHandler{records: h.records, preset: merged}
}

// WithGroup flattens groups; captured attrs keep their plain keys.
func (h *MemoryLogHandler) WithGroup(name string) slog.Handler {
	return h
}

// Entries returns a snapshot of the captured records.
func (h *MemoryLogHandler) Entries() []LogEntry {
	h.records.mu.Lock()
	defer h.records.mu.Unlock()
	return slices.Clone(h.records.entries)
}
