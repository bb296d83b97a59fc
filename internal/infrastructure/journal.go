package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// JournalEntry is one recorded log event.
type JournalEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Attrs holds flattened attributes; group names prefix keys with dots.
	Attrs []slog.Attr
}

// Get returns the string value of the attribute named key.
func (e JournalEntry) Get(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value.String(), true
		}
	}
	return "", false
}

// Details renders the attributes as space separated key=value pairs.
func (e JournalEntry) Details() string {
	parts := make([]string, 0, len(e.Attrs))
	for _, a := range e.Attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Key, a.Value.String()))
	}
	return strings.Join(parts, " ")
}

// Journal collects the log events of one unit of work so they can be
// persisted next to its output. It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	level   slog.Leveler
	entries []JournalEntry
}

// NewJournal creates a journal recording events at or above level.
func NewJournal(level slog.Leveler) *Journal {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Journal{level: level}
}

// Entries returns a copy of the recorded events in order.
func (j *Journal) Entries() []JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries := make([]JournalEntry, len(j.entries))
	copy(entries, j.entries)
	return entries
}

// Len returns the number of recorded events.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Journal) add(e JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

// Tee returns a logger that records into the journal and forwards every
// record to logger's handler.
func (j *Journal) Tee(logger *slog.Logger) *slog.Logger {
	var next slog.Handler
	if logger != nil {
		next = logger.Handler()
	}
	return slog.New(&journalHandler{journal: j, next: next})
}

// journalHandler records into a Journal and forwards to next
type journalHandler struct {
	journal *Journal
	next    slog.Handler
	attrs   []slog.Attr
	prefix  string
}

// Enabled implements slog.Handler
func (h *journalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.journal.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *journalHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.journal.level.Level() {
		attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
		attrs = append(attrs, h.attrs...)
		r.Attrs(func(a slog.Attr) bool {
			attrs = appendFlat(attrs, h.prefix, a)
			return true
		})
		h.journal.add(JournalEntry{
			Time:    r.Time,
			Level:   r.Level,
			Message: r.Message,
			Attrs:   attrs,
		})
	}

	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = appendFlat(clone.attrs, h.prefix, a)
	}
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup implements slog.Handler
func (h *journalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

func appendFlat(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = appendFlat(dst, p, ga)
		}
		return dst
	}
	if a.Equal(slog.Attr{}) {
		return dst
	}
	return append(dst, slog.Attr{Key: prefix + a.Key, Value: a.Value})
}
