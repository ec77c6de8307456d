package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/job"
)

func dial(t *testing.T, h *Hub) (*websocket.Conn, AckMessage) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleEvents))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	var ack AckMessage
	require.NoError(t, wsjson.Read(ctx, conn, &ack))
	return conn, ack
}

func TestHubStreamsEvents(t *testing.T) {
	h := NewHub(nil)
	conn, ack := dial(t, h)
	assert.Equal(t, "ack", ack.Type)
	assert.NotEmpty(t, ack.SubscriberID)
	assert.Equal(t, 1, h.Subscribers())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.JobUpdated(job.Job{ID: "job-1", TaskType: "summarize", Status: job.StatusCompleted})
	var jobEv JobEvent
	require.NoError(t, wsjson.Read(ctx, conn, &jobEv))
	assert.Equal(t, "job", jobEv.Type)
	assert.Equal(t, "job-1", jobEv.Job.ID)
	assert.Equal(t, job.StatusCompleted, jobEv.Job.Status)

	h.ChatLogged(chatlog.Entry{Type: chatlog.TypeUserMessage, Sender: "User", Message: "hi"})
	var msgEv MessageEvent
	require.NoError(t, wsjson.Read(ctx, conn, &msgEv))
	assert.Equal(t, "message", msgEv.Type)
	assert.Equal(t, "hi", msgEv.Entry.Message)
}

func TestHubHeartbeatAndQuit(t *testing.T) {
	h := NewHub(nil)
	conn, _ := dial(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, wsjson.Write(ctx, conn, BaseMessage{Type: "heartbeat"}))
	var hb HeartbeatMessage
	require.NoError(t, wsjson.Read(ctx, conn, &hb))
	assert.Equal(t, "heartbeat", hb.Type)
	assert.False(t, hb.Timestamp.IsZero())

	require.NoError(t, wsjson.Write(ctx, conn, BaseMessage{Type: "quit"}))
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	h := NewHub(nil)
	h.Broadcast(BaseMessage{Type: "noop"})
	assert.Equal(t, 0, h.Subscribers())
}

func TestClientReceivesEvents(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleEvents))
	defer srv.Close()

	jobs := make(chan JobEvent, 1)
	msgs := make(chan MessageEvent, 1)
	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), func(j *JobEvent, m *MessageEvent) {
		if j != nil {
			jobs <- *j
		}
		if m != nil {
			msgs <- *m
		}
	}, nil)
	c.heartbeat = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.JobUpdated(job.Job{ID: "j", Status: job.StatusRunning})
	h.ChatLogged(chatlog.Entry{Message: "hello"})

	select {
	case ev := <-jobs:
		assert.Equal(t, job.StatusRunning, ev.Job.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no job event")
	}
	select {
	case ev := <-msgs:
		assert.Equal(t, "hello", ev.Entry.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no message event")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}
