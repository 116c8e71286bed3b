package web

import (
	"net/http"

	"github.com/JonMunkholm/merger/internal/core"
	"github.com/JonMunkholm/merger/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// stepResponse reports a committed merge step.
type stepResponse struct {
	Message string           `json:"message"`
	Step    *core.StepRecord `json:"step"`
	Session *core.Snapshot   `json:"session"`
}

// handleInitiateMerge joins the primary and secondary sources into the
// session's first working table.
func (s *Server) handleInitiateMerge(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	req, join, err := parseMergeRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rec, err := s.service.InitiateMerge(r.Context(), sessionID, req.Primary, req.Secondary, join)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.respondStep(w, r, sessionID, rec)
}

// handleAddToMerge joins one more source onto the working table.
func (s *Server) handleAddToMerge(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	_, join, err := parseMergeRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rec, err := s.service.AddToMerge(r.Context(), sessionID, chi.URLParam(r, "sourceID"), join)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.respondStep(w, r, sessionID, rec)
}

func (s *Server) respondStep(w http.ResponseWriter, r *http.Request, sessionID string, rec *core.StepRecord) {
	snap, err := s.service.Snapshot(sessionID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.SessionSummary(snap))
		return
	}
	writeJSON(w, http.StatusOK, stepResponse{
		Message: rec.Message(),
		Step:    rec,
		Session: snap,
	})
}
