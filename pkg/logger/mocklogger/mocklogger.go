package mocklogger

import (
	"context"
	"log/slog"
	"sync"
)

// Entry is one recorded log call.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// MockHandler records every record it receives. Handlers derived through
// WithAttrs share the same record list.
type MockHandler struct {
	mu      *sync.Mutex
	entries *[]Entry
	attrs   []slog.Attr
}

func NewMockHandler() *MockHandler {
	return &MockHandler{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

func (h *MockHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *MockHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = append(*h.entries, Entry{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *MockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup is ignored; attribute keys are recorded flat.
func (h *MockHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *MockHandler) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(*h.entries))
	copy(out, *h.entries)
	return out
}

// Find returns the first entry with msg at level.
func (h *MockHandler) Find(level slog.Level, msg string) (Entry, bool) {
	for _, e := range h.Entries() {
		if e.Level == level && e.Message == msg {
			return e, true
		}
	}
	return Entry{}, false
}

// NewMockLogger creates a new logger with the mock handler
func NewMockLogger() *slog.Logger {
	return slog.New(NewMockHandler())
}

// NewRecordingLogger returns the logger together with its handler so tests
// can inspect what was logged.
func NewRecordingLogger() (*slog.Logger, *MockHandler) {
	h := NewMockHandler()
	return slog.New(h), h
}
