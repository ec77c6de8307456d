package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestIndex(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("GET", "/", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("expected html, got %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "/api/send_message") {
		t.Error("expected chat page")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("GET", "/health", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	resp := decode[map[string]any](t, rec)
	if resp["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", resp["status"])
	}
	if resp["timestamp"] == nil {
		t.Error("expected timestamp")
	}
}

func TestInfo(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("GET", "/info", "")

	resp := decode[map[string]any](t, rec)
	if resp["node_id"] != "test-node" {
		t.Errorf("expected test-node, got %v", resp["node_id"])
	}
	agents := resp["agent_types"].([]any)
	if len(agents) != 2 || agents[0] != "concurrent" || agents[1] != "background" {
		t.Errorf("unexpected agent types %v", agents)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.sched.ScheduleJob("summarize", nil, 0)

	rec := env.do("GET", "/stats", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	resp := decode[map[string]any](t, rec)
	jobs := resp["jobs"].(map[string]any)
	if jobs["pending"].(float64) != 1 {
		t.Errorf("expected 1 pending, got %v", jobs["pending"])
	}
	if resp["messages"].(float64) != 0 {
		t.Errorf("expected 0 messages, got %v", resp["messages"])
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("GET", "/metrics", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected prometheus exposition")
	}
}
