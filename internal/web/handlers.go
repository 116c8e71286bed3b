package web

import (
	"net/http"

	"github.com/JonMunkholm/merger/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleHealth reports liveness along with parsing-slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"sessions":        s.service.SessionCount(),
		"uploads":         s.service.Limiter().Status(),
		"database_export": s.service.DatabaseExportEnabled(),
	})
}

// handleCreateSession opens a new merge session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.CreateSession(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// handleSnapshot returns the session's sources, merge state and step log.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(chi.URLParam(r, "sessionID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.SessionSummary(snap))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDeleteSession discards the session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReset returns the merge to its empty state, keeping the sources.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.service.ResetMerge(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, id, http.StatusOK)
}

// respondSnapshot answers a state-changing request with the new snapshot.
func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request, sessionID string, status int) {
	snap, err := s.service.Snapshot(sessionID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if isHTMX(r) {
		render(w, r, status, templates.SessionSummary(snap))
		return
	}
	writeJSON(w, status, snap)
}
