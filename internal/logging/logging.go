// Package logging provides the console's slog handler. Every record is kept
// in a bounded in-memory buffer, which backs the dmesg command, and records at
// or above the configured level are forwarded to an optional text sink.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultBufferSize is used when Options.BufferSize is not positive.
const DefaultBufferSize = 256

// Entry is a single buffered log record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// String formats the entry as a single dmesg line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Format("2006-01-02T15:04:05.000"))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s", e.Level.String())
	b.WriteByte(' ')
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, e.Attrs[k])
	}
	return b.String()
}

// Options configures New.
type Options struct {
	// BufferSize bounds the number of retained entries.
	BufferSize int
	// Level is the minimum level forwarded to Sink.
	Level slog.Level
	// Sink receives text-formatted records. May be nil.
	Sink io.Writer
}

// Logger is a slog.Logger backed by a Handler.
type Logger struct {
	*slog.Logger
	buf *buffer
}

// New constructs a Logger.
func New(opts Options) *Logger {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	h := &Handler{
		buf: &buffer{
			entries: make([]Entry, 0, opts.BufferSize),
			maxSize: opts.BufferSize,
		},
	}
	if opts.Sink != nil {
		h.sink = slog.NewTextHandler(opts.Sink, &slog.HandlerOptions{Level: opts.Level})
	}
	return &Logger{Logger: slog.New(h), buf: h.buf}
}

// Discard returns a Logger that buffers records but writes nowhere.
func Discard() *Logger {
	return New(Options{})
}

// Entries returns a copy of all buffered entries, oldest first.
func (l *Logger) Entries() []Entry {
	return l.buf.recent(0)
}

// Recent returns the newest n entries, oldest first. n <= 0 means all.
func (l *Logger) Recent(n int) []Entry {
	return l.buf.recent(n)
}

// Search returns the entries whose message or attributes contain query,
// ignoring case.
func (l *Logger) Search(query string) []Entry {
	query = strings.ToLower(query)
	var matches []Entry
	for _, e := range l.buf.recent(0) {
		if strings.Contains(strings.ToLower(e.Message), query) {
			matches = append(matches, e)
			continue
		}
		for k, v := range e.Attrs {
			if strings.Contains(strings.ToLower(k), query) || strings.Contains(strings.ToLower(v), query) {
				matches = append(matches, e)
				break
			}
		}
	}
	return matches
}

// Clear drops all buffered entries.
func (l *Logger) Clear() {
	l.buf.mu.Lock()
	defer l.buf.mu.Unlock()
	l.buf.entries = l.buf.entries[:0]
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

type buffer struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

func (b *buffer) add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
	if len(b.entries) > b.maxSize {
		b.entries = b.entries[len(b.entries)-b.maxSize:]
	}
}

func (b *buffer) recent(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]Entry, n)
	copy(out, b.entries[len(b.entries)-n:])
	return out
}

// Handler implements slog.Handler. All levels are buffered; the sink applies
// its own level filter.
type Handler struct {
	buf    *buffer
	sink   slog.Handler
	attrs  []slog.Attr
	groups []string
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		attrs[key] = a.Value.String()
		return true
	})

	h.buf.add(Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})

	if h.sink != nil && h.sink.Enabled(ctx, record.Level) {
		return h.sink.Handle(ctx, record)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	prefix := strings.Join(h.groups, ".")
	c.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	if h.sink != nil {
		c.sink = h.sink.WithAttrs(attrs)
	}
	return &c
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(slices.Clone(h.groups), name)
	if h.sink != nil {
		c.sink = h.sink.WithGroup(name)
	}
	return &c
}
