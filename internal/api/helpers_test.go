package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/config"
	"github.com/agentdemos/orchestrator/internal/job"
	"github.com/agentdemos/orchestrator/internal/scheduler"
)

type testEnv struct {
	router http.Handler
	sched  *scheduler.Scheduler
	chat   *chatlog.Logger
	files  *chatlog.FileStore
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := quietLogger()

	worker := scheduler.WorkerFunc(func(ctx context.Context, taskType string, payload map[string]any) (any, error) {
		if taskType == "explode" {
			return nil, errors.New("kaboom")
		}
		return "done: " + taskType, nil
	})
	sched := scheduler.New(job.NewStore(), worker, scheduler.WithLogger(logger))

	files, err := chatlog.NewFileStore(t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}
	chat, err := chatlog.NewLogger(files, chatlog.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	agents := map[string]Responder{
		AgentConcurrent: ResponderFunc(func(ctx context.Context, msg string) (string, error) {
			return "concurrent says " + msg, nil
		}),
		AgentBackground: ResponderFunc(func(ctx context.Context, msg string) (string, error) {
			return "", errors.New("model unavailable")
		}),
	}

	router := NewRouter(Deps{
		Config:    &config.Config{NodeID: "test-node"},
		Scheduler: sched,
		Chat:      chat,
		Archive:   files,
		Agents:    agents,
		Logger:    logger,
	})
	return &testEnv{router: router, sched: sched, chat: chat, files: files}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}
