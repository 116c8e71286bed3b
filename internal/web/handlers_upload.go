package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/merger/internal/core"
	"github.com/JonMunkholm/merger/internal/logging"
	"github.com/go-chi/chi/v5"
)

var (
	errNoFile        = errors.New("no file provided")
	errFileTooLarge  = errors.New("file too large")
	maxBytesErrorMsg = (&http.MaxBytesError{}).Error()
)

// readUpload reads the multipart "file" field, bounded by the configured
// maximum size. It returns the client's file name and the file's bytes.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := int64(s.cfg.Upload.MaxFileSize)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		// multipart does not always wrap the reader's error.
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), maxBytesErrorMsg) {
			return "", nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
		}
		return "", nil, fmt.Errorf("invalid form data: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return header.Filename, data, nil
}

// handleAddSource parses an uploaded CSV or workbook sheet into the session.
func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	name, data, err := s.readUpload(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	sheet := strings.TrimSpace(r.FormValue("sheet"))

	info, err := s.service.AddSource(r.Context(), sessionID, name, data, sheet)
	if err != nil {
		fail(w, r, err)
		return
	}
	if isHTMX(r) {
		s.respondSnapshot(w, r, sessionID, http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// handleSheets lists the sheets of an uploaded workbook so the client can
// pick one before adding it as a source.
func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	sheets, err := s.service.SheetNames(r.Context(), data)
	if err != nil {
		fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Debug("workbook sheets listed", "file", name, "sheets", len(sheets))
	writeJSON(w, http.StatusOK, map[string]any{"file_name": name, "sheets": sheets})
}

// handleListSources lists the session's sources in upload order.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.service.Sources(chi.URLParam(r, "sessionID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if sources == nil {
		sources = []core.SourceInfo{}
	}
	writeJSON(w, http.StatusOK, sources)
}

// handleRemoveSource drops a source; the merge resets if it depended on it.
func (s *Server) handleRemoveSource(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.service.RemoveSource(r.Context(), sessionID, chi.URLParam(r, "sourceID")); err != nil {
		fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, sessionID, http.StatusOK)
}

// handlePreviewSource shows the first rows of an uploaded source.
func (s *Server) handlePreviewSource(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.PreviewSource(
		chi.URLParam(r, "sessionID"),
		chi.URLParam(r, "sourceID"),
		parseIntParam(r, "limit", 0),
	)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondPreview(w, r, p)
}
