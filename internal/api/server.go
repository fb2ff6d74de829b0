// Package api is the HTTP presentation layer over the task library. It is
// glue: every mutation goes through store commands, every read is a store
// snapshot or a pure projection.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"taskpulse/pkg/blocked"
	"taskpulse/pkg/category"
	"taskpulse/pkg/clock"
	"taskpulse/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	store   *store.Store
	cats    category.Store
	blocked blocked.Store
	clock   clock.Clock
	userID  string
	mux     *http.ServeMux
}

// New creates a new Server. cats and blocked may be nil; the matching
// routes then answer 404.
func New(st *store.Store, cats category.Store, blockedStore blocked.Store, c clock.Clock, userID string) *Server {
	s := &Server{
		store:   st,
		cats:    cats,
		blocked: blockedStore,
		clock:   c,
		userID:  userID,
		mux:     http.NewServeMux(),
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
	s.mux.HandleFunc("GET /api/tasks/{id}", s.handleTaskGet)
	s.mux.HandleFunc("PATCH /api/tasks/{id}", s.handleTaskUpdate)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleTaskToggle)

	// Timer commands
	s.mux.HandleFunc("POST /api/tasks/{id}/timer/start", s.handleTimerStart)
	s.mux.HandleFunc("POST /api/tasks/{id}/timer/pause", s.handleTimerPause)
	s.mux.HandleFunc("POST /api/tasks/{id}/timer/stop", s.handleTimerStop)
	s.mux.HandleFunc("GET /api/tasks/{id}/timer", s.handleTimerGet)

	// Dashboard projections
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/stats/daily", s.handleStatsDaily)
	s.mux.HandleFunc("GET /api/stats/weekly", s.handleStatsWeekly)

	// Categories and blocked resources
	s.mux.HandleFunc("GET /api/categories", s.handleCategoryList)
	s.mux.HandleFunc("POST /api/categories", s.handleCategoryCreate)
	s.mux.HandleFunc("DELETE /api/categories/{id}", s.handleCategoryDelete)
	s.mux.HandleFunc("GET /api/blocked", s.handleBlockedList)
	s.mux.HandleFunc("POST /api/blocked", s.handleBlockedAdd)
	s.mux.HandleFunc("DELETE /api/blocked/{id}", s.handleBlockedRemove)
	s.mux.HandleFunc("GET /api/blocked/active", s.handleBlockedActive)

	// Live updates
	s.mux.HandleFunc("GET /api/stream", s.handleStream)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{
		"tasks":   s.store.Len(),
		"running": len(s.store.Running()),
		"user":    s.userID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
