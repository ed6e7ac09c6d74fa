// Package logtest captures slog records so tests can assert on what was
// logged and at which level.
package logtest

import (
	"context"
	"log/slog"
	"sync"
)

type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Handler is an slog.Handler that keeps every record at or above Level.
type Handler struct {
	Level slog.Level

	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

func NewHandler(level slog.Level) *Handler {
	return &Handler{Level: level, mu: &sync.Mutex{}, records: &[]Record{}}
}

// NewLogger returns a logger writing into a new debug-level Handler.
func NewLogger() (*slog.Logger, *Handler) {
	h := NewHandler(slog.LevelDebug)
	return slog.New(h), h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Level
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Level: r.Level, Message: r.Message, Attrs: make(map[string]any)}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.records = append(*h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of everything captured so far.
func (h *Handler) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), *h.records...)
}

// Count returns how many records were logged at level.
func (h *Handler) Count(level slog.Level) int {
	n := 0
	for _, r := range h.Records() {
		if r.Level == level {
			n++
		}
	}
	return n
}

// Has reports whether a record with this level and message was logged.
func (h *Handler) Has(level slog.Level, message string) bool {
	for _, r := range h.Records() {
		if r.Level == level && r.Message == message {
			return true
		}
	}
	return false
}
