package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/budgetpilot/finassist/pkg/log"
)

type chatRequest struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Response        string   `json:"response"`
	AgentsConsulted []string `json:"agents_consulted"`
	Iterations      int      `json:"iterations"`
}

func decodeChatRequest(r *http.Request, needMessage bool) (chatRequest, string) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, "invalid request body"
	}
	if req.UserID <= 0 {
		return req, "user_id is required"
	}
	if needMessage && strings.TrimSpace(req.Message) == "" {
		return req, "message is required"
	}
	return req, ""
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, problem := decodeChatRequest(r, true)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	orch, err := s.newOrchestrator(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	orch.SetHistory(s.conversations.History(req.UserID))

	result, err := orch.Chat(r.Context(), req.Message)
	if err != nil {
		log.Error("chat for user %d failed: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.conversations.Append(req.UserID, "user", req.Message)
	s.conversations.Append(req.UserID, "assistant", result.Response)

	writeJSON(w, http.StatusOK, chatResponse{
		Response:        result.Response,
		AgentsConsulted: result.AgentsConsulted,
		Iterations:      result.Iterations,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, problem := decodeChatRequest(r, false)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	s.conversations.Clear(req.UserID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Conversation history cleared successfully",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "Multi-Agent Financial Chat",
		"agents":  []string{"Orchestrator", "Data Analyst", "Financial Advisor", "Financial Information Specialist"},
		"features": []string{
			"Conversation Memory",
			"User Context Awareness",
			"Streaming Responses",
			"Web Search",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
