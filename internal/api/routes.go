package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	h := NewHandlers(d)

	// Chat page
	r.Get("/", h.Index)

	// Health & Info
	r.Get("/health", h.Health)
	r.Get("/info", h.Info)
	r.Get("/stats", h.Stats)

	// Chat API
	r.Post("/api/send_message", h.SendMessage)
	r.Get("/api/messages", h.Messages)
	r.Post("/api/clear_messages", h.ClearMessages)
	r.Get("/api/logs", h.LogFiles)
	r.Get("/api/log/{filename}", h.LogFile)

	// Jobs API
	r.Post("/api/jobs", h.SubmitJob)
	r.Get("/api/jobs", h.ListJobs)
	r.Delete("/api/jobs", h.ClearJobs)
	r.Post("/api/jobs/execute", h.ExecuteJobs)
	r.Get("/api/jobs/{id}", h.GetJob)

	// WebSocket
	if d.Hub != nil {
		r.Get("/ws/events", d.Hub.HandleEvents)
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
