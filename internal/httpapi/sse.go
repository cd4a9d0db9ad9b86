package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/budgetpilot/finassist/internal/agent"
	"github.com/budgetpilot/finassist/internal/stream"
	"github.com/budgetpilot/finassist/pkg/log"
)

// handleStream answers a chat request over Server-Sent Events: a start
// frame, agent-activity frames as delegations complete, then response and
// done, or a single error frame. Closing the connection cancels the request
// context, which aborts the in-flight orchestration.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, problem := decodeChatRequest(r, true)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	frames := stream.Run(r.Context(), func(ctx context.Context, sink agent.EventSink) (*agent.Result, error) {
		orch, err := s.newOrchestrator(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		orch.SetHistory(s.conversations.History(req.UserID))
		orch.SetEventSink(sink)

		result, err := orch.Chat(ctx, req.Message)
		if err != nil {
			return nil, err
		}
		s.conversations.Append(req.UserID, "user", req.Message)
		s.conversations.Append(req.UserID, "assistant", result.Response)
		return result, nil
	})

	for frame := range frames {
		payload, err := json.Marshal(frame)
		if err != nil {
			log.Error("marshal stream frame: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			// Client went away; the cancelled context unwinds the
			// orchestration and the remaining frames are dropped.
			for range frames {
			}
			return
		}
		flusher.Flush()
	}
}
