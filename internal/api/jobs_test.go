package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/agentdemos/orchestrator/internal/job"
)

func TestSubmitJob(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("POST", "/api/jobs", `{"task_type":"summarize","payload":{"text":"x"},"delay_seconds":30}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	j := decode[job.Job](t, rec)
	if j.ID == "" {
		t.Error("expected job id in response")
	}
	if j.Status != job.StatusPending {
		t.Errorf("expected pending, got %v", j.Status)
	}
	if j.Payload["text"] != "x" {
		t.Errorf("unexpected payload %v", j.Payload)
	}
}

func TestSubmitJob_InvalidBody(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{"invalid", `{"payload":{}}`, `{"task_type":"x","delay_seconds":-1}`, `{"task_type":"later","delay_seconds":1e12}`} {
		rec := env.do("POST", "/api/jobs", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestSubmitJob_TooLargeDelayNotScheduled(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("POST", "/api/jobs", `{"task_type":"later","delay_seconds":1e12}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if n := len(env.sched.ListJobs()); n != 0 {
		t.Errorf("expected no jobs, got %d", n)
	}
}

func TestGetJob(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.sched.ScheduleJob("summarize", nil, 0)

	rec := env.do("GET", "/api/jobs/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if j := decode[job.Job](t, rec); j.ID != id {
		t.Errorf("expected %s, got %s", id, j.ID)
	}

	rec = env.do("GET", "/api/jobs/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t)
	for range 5 {
		env.sched.ScheduleJob("summarize", nil, 0)
	}

	rec := env.do("GET", "/api/jobs?limit=2&offset=1", "")
	resp := decode[struct {
		Jobs  []job.Job `json:"jobs"`
		Total int       `json:"total"`
		Limit int       `json:"limit"`
	}](t, rec)
	if resp.Total != 5 || len(resp.Jobs) != 2 || resp.Limit != 2 {
		t.Errorf("unexpected page total=%d len=%d limit=%d", resp.Total, len(resp.Jobs), resp.Limit)
	}
}

func TestExecuteJobs(t *testing.T) {
	env := newTestEnv(t)
	okID, _ := env.sched.ScheduleJob("summarize", nil, 0)
	badID, _ := env.sched.ScheduleJob("explode", nil, 0)
	env.sched.ScheduleJob("later", nil, time.Hour)

	rec := env.do("POST", "/api/jobs/execute", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[struct {
		Processed int       `json:"processed"`
		Jobs      []job.Job `json:"jobs"`
	}](t, rec)
	if resp.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", resp.Processed)
	}
	if resp.Jobs[0].ID != okID || resp.Jobs[0].Status != job.StatusCompleted || resp.Jobs[0].Result != "done: summarize" {
		t.Errorf("unexpected first job %+v", resp.Jobs[0])
	}
	if resp.Jobs[1].ID != badID || resp.Jobs[1].Status != job.StatusFailed || resp.Jobs[1].Error != "kaboom" {
		t.Errorf("unexpected second job %+v", resp.Jobs[1])
	}

	rec = env.do("GET", "/api/jobs?status=pending", "")
	pending := decode[struct {
		Total int `json:"total"`
	}](t, rec)
	if pending.Total != 1 {
		t.Errorf("expected 1 pending, got %d", pending.Total)
	}
}

func TestClearJobs(t *testing.T) {
	env := newTestEnv(t)
	env.sched.ScheduleJob("summarize", nil, 0)

	rec := env.do("DELETE", "/api/jobs", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if n := len(env.sched.ListJobs()); n != 0 {
		t.Errorf("expected no jobs, got %d", n)
	}
}
