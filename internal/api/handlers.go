package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentdemos/orchestrator/internal/agent"
	"github.com/agentdemos/orchestrator/internal/chatlog"
	"github.com/agentdemos/orchestrator/internal/config"
	"github.com/agentdemos/orchestrator/internal/scheduler"
	"github.com/agentdemos/orchestrator/internal/ws"
)

const version = "0.1.0"

var startTime = time.Now()

//go:embed static/index.html
var indexHTML []byte

// Responder answers one chat message.
type Responder interface {
	Respond(ctx context.Context, message string) (string, error)
}

type ResponderFunc func(ctx context.Context, message string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

// Deps wires the router. Chat, Archive, Hub and Actors are optional.
type Deps struct {
	Config    *config.Config
	Scheduler *scheduler.Scheduler
	Chat      *chatlog.Logger
	Archive   chatlog.Archive
	Agents    map[string]Responder
	Actors    *agent.Supervisor
	Hub       *ws.Hub
	Logger    *slog.Logger
}

type Handlers struct {
	Deps
}

func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Config == nil {
		d.Config = &config.Config{}
	}
	return &Handlers{Deps: d}
}

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexHTML)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	agents := make([]string, 0, len(h.Agents))
	for _, name := range agentOrder {
		if _, ok := h.Agents[name]; ok {
			agents = append(agents, name)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"node_id":        h.Config.NodeID,
		"version":        version,
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"model":          h.Config.AnthropicModel,
		"agent_types":    agents,
		"task_types":     agent.TaskTypes,
	})
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"node_id":        h.Config.NodeID,
		"uptime_seconds": int(time.Since(startTime).Seconds()),
	}
	if h.Scheduler != nil {
		st := h.Scheduler.Stats()
		resp["jobs"] = map[string]int{
			"pending":         st.Pending,
			"running":         st.Running,
			"completed_total": st.Completed,
			"failed_total":    st.Failed,
		}
	}
	if h.Chat != nil {
		resp["messages"] = h.Chat.Len()
	}
	if h.Actors != nil {
		resp["actors"] = h.Actors.Status()
	}
	if h.Hub != nil {
		resp["subscribers"] = h.Hub.Subscribers()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
