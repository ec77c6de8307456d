package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentdemos/orchestrator/internal/job"
)

type JobRequest struct {
	TaskType     string         `json:"task_type"`
	Payload      map[string]any `json:"payload,omitempty"`
	DelaySeconds float64        `json:"delay_seconds"`
}

func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TaskType == "" {
		writeError(w, http.StatusBadRequest, "task_type is required")
		return
	}
	if req.DelaySeconds < 0 {
		writeError(w, http.StatusBadRequest, "delay_seconds must not be negative")
		return
	}
	if !job.ValidDelaySeconds(req.DelaySeconds) {
		writeError(w, http.StatusBadRequest, "delay_seconds is too large")
		return
	}
	if req.Payload == nil {
		req.Payload = map[string]any{}
	}

	delay := time.Duration(req.DelaySeconds * float64(time.Second))
	id, err := h.Scheduler.ScheduleJob(req.TaskType, req.Payload, delay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	j, _ := h.Scheduler.JobStatus(id)
	writeJSON(w, http.StatusCreated, j)
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, ok := h.Scheduler.JobStatus(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	if limit <= 0 {
		limit = 20
	}

	jobs, total := h.Scheduler.Jobs(limit, offset, status)
	if jobs == nil {
		jobs = []job.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":   jobs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handlers) ExecuteJobs(w http.ResponseWriter, r *http.Request) {
	processed := h.Scheduler.ExecutePendingJobs(r.Context())
	if processed == nil {
		processed = []job.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"processed": len(processed),
		"jobs":      processed,
	})
}

func (h *Handlers) ClearJobs(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
