// Package notify delivers short user-facing messages (toasts) from the state
// containers to whatever surface the storefront runs on.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notifier shows transient messages to the shopper. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Log writes notifications to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Notifier backed by l.
func NewLog(l *slog.Logger) *Log {
	return &Log{logger: l}
}

func (n *Log) Success(msg string) { n.log(LevelSuccess, msg) }
func (n *Log) Info(msg string)    { n.log(LevelInfo, msg) }
func (n *Log) Error(msg string)   { n.log(LevelError, msg) }

func (n *Log) log(level Level, msg string) {
	lvl := slog.LevelInfo
	if level == LevelError {
		lvl = slog.LevelWarn
	}
	n.logger.Log(context.Background(), lvl, msg, slog.String("notification", string(level)))
}

// Entry is one recorded notification.
type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Messages returns the messages recorded at level.
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Reset forgets recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Info(string)    {}
func (Discard) Error(string)   {}
