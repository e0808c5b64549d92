// Package api exposes a read-only status endpoint for a running batch. It
// never mutates run state; everything it serves comes from the orchestrator's
// snapshot and the dead-letter log on disk.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/filinglab/riskseg/internal/batch"
	"github.com/filinglab/riskseg/internal/store"
)

// Server is the HTTP status server for a batch run.
type Server struct {
	router     chi.Router
	run        *batch.RunState
	deadLetter string
	log        *slog.Logger
}

// NewServer wires routes over the given run state. deadLetter is the path of
// the JSONL quarantine log; it is re-read per request so the endpoint always
// reflects disk.
func NewServer(run *batch.RunState, deadLetter string, log *slog.Logger) *Server {
	s := &Server{
		run:        run,
		deadLetter: deadLetter,
		log:        log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/deadletters", s.handleDeadLetters)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.run.Snapshot())
}

func (s *Server) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := store.ReadDeadLetters(s.deadLetter)
	if err != nil {
		jsonError(w, "failed to read dead-letter log", http.StatusInternalServerError)
		return
	}
	if letters == nil {
		letters = []store.DeadLetter{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"count":   len(letters),
		"letters": letters,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
