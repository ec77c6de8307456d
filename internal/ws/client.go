package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Handler receives decoded events. Exactly one of the two arguments is
// non-nil.
type Handler func(job *JobEvent, msg *MessageEvent)

// Client follows an event stream and reconnects when it drops.
type Client struct {
	url       string
	handler   Handler
	logger    *slog.Logger
	retry     time.Duration
	heartbeat time.Duration
}

func NewClient(url string, handler Handler, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:       url,
		handler:   handler,
		logger:    logger,
		retry:     5 * time.Second,
		heartbeat: 30 * time.Second,
	}
}

// Run blocks until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connect(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("event stream lost, reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("retry", c.retry))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retry):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "goodbye")

	var ack AckMessage
	if err := wsjson.Read(ctx, conn, &ack); err != nil {
		return fmt.Errorf("read ack: %w", err)
	}
	c.logger.Info("subscribed to events", slog.String("subscriber", ack.SubscriberID))

	go c.keepAlive(ctx, conn)
	return c.readLoop(ctx, conn)
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var base BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			c.logger.Debug("invalid message", slog.String("error", err.Error()))
			continue
		}

		switch base.Type {
		case "job":
			var ev JobEvent
			if err := json.Unmarshal(data, &ev); err == nil {
				c.handler(&ev, nil)
			}
		case "message":
			var ev MessageEvent
			if err := json.Unmarshal(data, &ev); err == nil {
				c.handler(nil, &ev)
			}
		case "heartbeat":
		default:
			c.logger.Debug("unknown message type", slog.String("type", base.Type))
		}
	}
}

func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wsjson.Write(ctx, conn, HeartbeatMessage{Type: "heartbeat"}); err != nil {
				return
			}
		}
	}
}
