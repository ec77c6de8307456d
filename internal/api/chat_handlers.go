package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentdemos/orchestrator/internal/chatlog"
)

const (
	AgentConcurrent = "concurrent"
	AgentBackground = "background"
	AgentActor      = "actor"
)

var agentOrder = []string{AgentConcurrent, AgentBackground, AgentActor}

type SendMessageRequest struct {
	Message   string `json:"message"`
	AgentType string `json:"agent_type"`
}

type SendMessageResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

func senderName(agentType string) string {
	return strings.ToUpper(agentType[:1]) + agentType[1:] + " Agent"
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, SendMessageResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, SendMessageResponse{Error: "message is required"})
		return
	}
	if req.AgentType == "" {
		req.AgentType = AgentConcurrent
	}
	responder, ok := h.Agents[req.AgentType]
	if !ok {
		writeJSON(w, http.StatusBadRequest, SendMessageResponse{Error: "unknown agent type: " + req.AgentType})
		return
	}

	h.logChat(chatlog.TypeUserMessage, "User", req.Message, map[string]any{"agent": req.AgentType})

	reply, err := responder.Respond(r.Context(), req.Message)
	if err != nil {
		h.Logger.Warn("agent failed",
			slog.String("agent_type", req.AgentType),
			slog.String("error", err.Error()))
		h.logChat(chatlog.TypeError, "System", err.Error(), map[string]any{"user_message": req.Message})
		writeJSON(w, http.StatusOK, SendMessageResponse{Error: err.Error()})
		return
	}

	h.logChat(chatlog.TypeAIResponse, senderName(req.AgentType), reply, map[string]any{"user_message": req.Message})
	writeJSON(w, http.StatusOK, SendMessageResponse{Success: true, Response: reply})
}

func (h *Handlers) logChat(typ chatlog.Type, sender, message string, metadata map[string]any) {
	if h.Chat == nil {
		return
	}
	if _, err := h.Chat.Log(typ, sender, message, metadata); err != nil {
		h.Logger.Error("chat log write failed", slog.String("error", err.Error()))
	}
}

func (h *Handlers) Messages(w http.ResponseWriter, r *http.Request) {
	if h.Chat == nil {
		writeJSON(w, http.StatusOK, []chatlog.Entry{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, h.Chat.Messages(limit))
}

func (h *Handlers) ClearMessages(w http.ResponseWriter, r *http.Request) {
	if h.Chat != nil {
		if err := h.Chat.Clear(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Messages cleared"})
}

func (h *Handlers) LogFiles(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		writeJSON(w, http.StatusOK, []chatlog.FileInfo{})
		return
	}
	files, err := h.Archive.Files()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handlers) LogFile(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	entries, err := h.Archive.ReadFile(chi.URLParam(r, "filename"))
	if errors.Is(err, chatlog.ErrFileNotFound) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []chatlog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
