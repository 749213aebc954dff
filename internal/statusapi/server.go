// Package statusapi exposes the engine's session state to the dashboard
// frontend: read-only projections plus start/stop control. It carries no
// business workflow; rendering and client CRUD live elsewhere.
package statusapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/veralis-app/salesdesk/go-engine/internal/history"
	"github.com/veralis-app/salesdesk/go-engine/internal/poller"
)

// #region server

// Server wires the session manager and history store to HTTP handlers.
type Server struct {
	manager *poller.Manager
	store   *history.Store // nil disables the history routes
}

// NewServer creates a status API server. store may be nil.
func NewServer(manager *poller.Manager, store *history.Store) *Server {
	return &Server{manager: manager, store: store}
}

// Router builds the chi router for the status API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/sessions", s.handleListSessions)
	r.Get("/api/sessions/{subjectID}", s.handleGetSession)
	r.Post("/api/sessions/{subjectID}/start", s.handleStart)
	r.Post("/api/sessions/{subjectID}/stop", s.handleStop)

	if s.store != nil {
		r.Get("/api/history/recent", s.handleRecentHistory)
	}

	return r
}

// #endregion server

// #region handlers

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Views())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	view, ok := s.manager.View(subjectID)
	if !ok {
		writeError(w, http.StatusNotFound, "no session for subject")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	session, err := s.manager.Start(subjectID)
	if err != nil {
		if errors.Is(err, poller.ErrEmptySubject) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("[HTTP] start polling subject=%s session=%s", subjectID, session.ID())
	writeJSON(w, http.StatusAccepted, session.View())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	if !s.manager.Stop(subjectID) {
		writeError(w, http.StatusNotFound, "no session for subject")
		return
	}
	log.Printf("[HTTP] stop polling subject=%s", subjectID)
	view, _ := s.manager.View(subjectID)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRecentHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	sessions, err := s.store.RecentSessions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// #endregion handlers

// #region helpers

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// #endregion helpers
