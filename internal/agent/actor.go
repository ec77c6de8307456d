package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentdemos/orchestrator/internal/llm"
)

var ErrActorStopped = errors.New("agent: actor stopped")

const actorMaxTokens = 500

type HistoryEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Response  string         `json:"response"`
	Context   map[string]any `json:"context,omitempty"`
}

type envelope struct {
	ctx     context.Context
	message string
	context map[string]any
	reply   *Future[string]
}

// Actor processes messages one at a time from its mailbox and keeps a
// history of the exchanges it handled.
type Actor struct {
	id     int
	llm    llm.Completer
	logger *slog.Logger

	mailbox chan envelope
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once

	mu      sync.RWMutex
	history []HistoryEntry
}

func NewActor(id int, c llm.Completer, logger *slog.Logger) *Actor {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Actor{
		id:      id,
		llm:     c,
		logger:  logger.With(slog.Int("actor", id)),
		mailbox: make(chan envelope, 16),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Actor) ID() int { return a.id }

func (a *Actor) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			a.drain()
			return
		case env := <-a.mailbox:
			a.handle(env)
		}
	}
}

func (a *Actor) drain() {
	for {
		select {
		case env := <-a.mailbox:
			env.reply.resolve("", ErrActorStopped)
		default:
			return
		}
	}
}

func (a *Actor) handle(env envelope) {
	if err := env.ctx.Err(); err != nil {
		env.reply.resolve("", err)
		return
	}

	a.logger.Debug("processing message", slog.String("message", truncate(env.message, 50)))

	// Context is kept in history only; the model sees the bare message.
	text, err := llm.Ask(env.ctx, a.llm, env.message, actorMaxTokens)
	if err != nil {
		env.reply.resolve("", fmt.Errorf("actor %d: %w", a.id, err))
		return
	}

	a.mu.Lock()
	a.history = append(a.history, HistoryEntry{
		Timestamp: time.Now().UTC(),
		Message:   env.message,
		Response:  text,
		Context:   env.context,
	})
	a.mu.Unlock()

	env.reply.resolve(text, nil)
}

// Send queues a message and returns a future for the reply.
func (a *Actor) Send(ctx context.Context, message string, msgContext map[string]any) *Future[string] {
	f := newFuture[string]()
	env := envelope{ctx: ctx, message: message, context: msgContext, reply: f}
	select {
	case <-a.stop:
		f.resolve("", ErrActorStopped)
		return f
	default:
	}
	select {
	case a.mailbox <- env:
	case <-a.stop:
		f.resolve("", ErrActorStopped)
	case <-ctx.Done():
		f.resolve("", ctx.Err())
	}
	return f
}

func (a *Actor) Process(ctx context.Context, message string, msgContext map[string]any) (string, error) {
	return a.Send(ctx, message, msgContext).Wait(ctx)
}

// ProcessBatch sends every message before waiting on any reply.
func (a *Actor) ProcessBatch(ctx context.Context, messages []string) ([]string, error) {
	futures := make([]*Future[string], len(messages))
	for i, m := range messages {
		futures[i] = a.Send(ctx, m, nil)
	}
	out := make([]string, len(messages))
	for i, f := range futures {
		text, err := f.Wait(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = text
	}
	return out, nil
}

func (a *Actor) History() []HistoryEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]HistoryEntry, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Actor) HistoryLen() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.history)
}

func (a *Actor) ClearHistory() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

// Stop terminates the mailbox loop. Queued messages fail with ErrActorStopped.
func (a *Actor) Stop() {
	a.once.Do(func() { close(a.stop) })
	<-a.done
}
