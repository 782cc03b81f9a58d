package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tasklist/pkg/changefeed"
	"tasklist/pkg/task"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP API server.
type Server struct {
	repo    *task.Repository
	changes *changefeed.Bus[task.Change]
	log     *slog.Logger
	now     func() time.Time
	static  string
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for validation and due-date labels.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithStaticDir serves the UI bundle in dir under "/".
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.static = dir }
}

// New creates a new Server. changes may be nil, in which case the change
// stream endpoint reports 503.
func New(repo *task.Repository, changes *changefeed.Bus[task.Change], log *slog.Logger, opts ...Option) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		repo:    repo,
		changes: changes,
		log:     log,
		now:     time.Now,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Tasks
	s.mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	s.mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	s.mux.HandleFunc("POST /api/tasks/clear-completed", s.handleClearCompleted)
	s.mux.HandleFunc("GET /api/tasks/{id}", s.handleTaskGet)
	s.mux.HandleFunc("PATCH /api/tasks/{id}", s.handleTaskUpdate)
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleTaskToggle)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/changes", s.handleChanges)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Static files (Gio WASM UI)
	if s.static != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.static)))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write json", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
