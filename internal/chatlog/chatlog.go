// Package chatlog records the conversation shown on the chat page.
package chatlog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultLimit = 100

type Type string

const (
	TypeUserMessage Type = "user_message"
	TypeAIResponse  Type = "ai_response"
	TypeError       Type = "error"
)

type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      Type           `json:"type"`
	Sender    string         `json:"sender"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Store persists entries. Load returns what a fresh Logger should start
// with; Replace overwrites it.
type Store interface {
	Append(Entry) error
	Load() ([]Entry, error)
	Replace([]Entry) error
}

// Archive is implemented by stores that can list their historical files.
type Archive interface {
	Files() ([]FileInfo, error)
	ReadFile(name string) ([]Entry, error)
}

type Logger struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger

	mu        sync.RWMutex
	entries   []Entry
	listeners []func(Entry)
}

type Option func(*Logger)

func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) { l.logger = logger }
}

// NewLogger loads existing entries from store.
func NewLogger(store Store, opts ...Option) (*Logger, error) {
	l := &Logger{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	entries, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load chat log: %w", err)
	}
	l.entries = entries
	l.logger.Debug("chat log loaded", slog.Int("entries", len(entries)))
	return l, nil
}

// OnLog registers fn to be called with every new entry.
func (l *Logger) OnLog(fn func(Entry)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

func (l *Logger) Log(typ Type, sender, message string, metadata map[string]any) (Entry, error) {
	e := Entry{
		Timestamp: l.now().UTC(),
		Type:      typ,
		Sender:    sender,
		Message:   message,
		Metadata:  metadata,
	}

	l.mu.Lock()
	if err := l.store.Append(e); err != nil {
		l.mu.Unlock()
		return Entry{}, fmt.Errorf("append chat log: %w", err)
	}
	l.entries = append(l.entries, e)
	listeners := append([]func(Entry){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
	return e, nil
}

// Messages returns the last limit entries, oldest first. limit <= 0 means
// DefaultLimit.
func (l *Logger) Messages(limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := max(len(l.entries)-limit, 0)
	out := make([]Entry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

func (l *Logger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Logger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Replace(nil); err != nil {
		return fmt.Errorf("clear chat log: %w", err)
	}
	l.entries = nil
	return nil
}
