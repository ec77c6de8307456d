package ws

import (
	"time"

	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/job"
)

type BaseMessage struct {
	Type string `json:"type"`
}

// Client → Server: "heartbeat" or "quit".

type HeartbeatMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Server → Client

type AckMessage struct {
	Type         string `json:"type"`
	SubscriberID string `json:"subscriber_id"`
	Message      string `json:"message"`
}

type JobEvent struct {
	Type string  `json:"type"`
	Job  job.Job `json:"job"`
}

type MessageEvent struct {
	Type  string        `json:"type"`
	Entry chatlog.Entry `json:"entry"`
}
