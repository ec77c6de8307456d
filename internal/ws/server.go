// Package ws streams job transitions and chat log entries to browsers.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/job"
)

const (
	subscriberBuffer = 64
	writeTimeout     = 5 * time.Second
)

// Hub fans events out to every connected subscriber. A subscriber that
// falls behind loses events rather than blocking the publisher.
type Hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]chan any
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, subs: make(map[string]chan any)}
}

// JobUpdated satisfies scheduler.Observer.
func (h *Hub) JobUpdated(j job.Job) {
	h.Broadcast(JobEvent{Type: "job", Job: j})
}

// ChatLogged is meant for chatlog.Logger.OnLog.
func (h *Hub) ChatLogged(e chatlog.Entry) {
	h.Broadcast(MessageEvent{Type: "message", Entry: e})
}

func (h *Hub) Broadcast(msg any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Debug("dropping event for slow subscriber", slog.String("subscriber", id))
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe() (string, <-chan any) {
	id := uuid.NewString()
	ch := make(chan any, subscriberBuffer)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (h *Hub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "goodbye")

	id, events := h.subscribe()
	defer h.unsubscribe(id)
	log := h.logger.With(slog.String("subscriber", id))
	log.Info("event subscriber connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ack := AckMessage{Type: "ack", SubscriberID: id, Message: "Welcome!"}
	if err := h.write(ctx, conn, ack); err != nil {
		log.Warn("failed to send ack", slog.String("error", err.Error()))
		return
	}

	go func() {
		defer cancel()
		h.handleMessages(ctx, conn, log)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("event subscriber disconnected")
			return
		case ev := <-events:
			if err := h.write(ctx, conn, ev); err != nil {
				log.Debug("event write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

func (h *Hub) handleMessages(ctx context.Context, conn *websocket.Conn, log *slog.Logger) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				log.Debug("websocket read error", slog.String("error", err.Error()))
			}
			return
		}

		var msg BaseMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug("invalid message format", slog.String("error", err.Error()))
			continue
		}

		switch msg.Type {
		case "heartbeat":
			hb := HeartbeatMessage{Type: "heartbeat", Timestamp: time.Now().UTC()}
			if err := h.write(ctx, conn, hb); err != nil {
				return
			}
		case "quit":
			return
		default:
			log.Debug("unknown message type", slog.String("type", msg.Type))
		}
	}
}
