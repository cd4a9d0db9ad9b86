// Package httpapi exposes the chat endpoints: synchronous messages, the SSE
// streaming variant, session reset, and a health endpoint.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/budgetpilot/finassist/internal/agent"
	"github.com/budgetpilot/finassist/internal/conversation"
)

// OrchestratorFactory builds a fresh per-request orchestrator for one user.
// A new instance is needed per request because instructions embed the
// current date in the user's timezone.
type OrchestratorFactory func(ctx context.Context, userID int64) (*agent.Orchestrator, error)

type Server struct {
	newOrchestrator OrchestratorFactory
	conversations   *conversation.Store

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func NewServer(factory OrchestratorFactory, conversations *conversation.Store, opts ...Option) *Server {
	s := &Server{
		newOrchestrator: factory,
		conversations:   conversations,
		mux:             http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/chat/message", s.handleMessage)
	s.mux.HandleFunc("/api/chat/stream", s.handleStream)
	s.mux.HandleFunc("/api/chat/clear", s.handleClear)
	s.mux.HandleFunc("/api/chat/health", s.handleHealth)
}
