package log

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder is an slog.Handler that keeps every record in memory. It backs
// the console status pane and lets tests assert on emitted diagnostics.
type Recorder struct {
	mu      sync.Mutex
	records []slog.Record
	attrs   []slog.Attr
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	rec = rec.Clone()
	rec.AddAttrs(r.attrs...)
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Records are shared with the parent so counts stay global.
	child := &childRecorder{parent: r, attrs: append(append([]slog.Attr{}, r.attrs...), attrs...)}
	return child
}

func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Count returns the number of records at exactly the given level.
func (r *Recorder) Count(level slog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// Messages returns the messages of all records at or above level.
func (r *Recorder) Messages(level slog.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var msgs []string
	for _, rec := range r.records {
		if rec.Level >= level {
			msgs = append(msgs, rec.Message)
		}
	}
	return msgs
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

type childRecorder struct {
	parent *Recorder
	attrs  []slog.Attr
}

func (c *childRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (c *childRecorder) Handle(ctx context.Context, rec slog.Record) error {
	rec = rec.Clone()
	rec.AddAttrs(c.attrs...)
	c.parent.mu.Lock()
	c.parent.records = append(c.parent.records, rec)
	c.parent.mu.Unlock()
	return nil
}

func (c *childRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childRecorder{parent: c.parent, attrs: append(append([]slog.Attr{}, c.attrs...), attrs...)}
}

func (c *childRecorder) WithGroup(string) slog.Handler { return c }
