package web

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/merger/internal/core"
	"github.com/JonMunkholm/merger/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handlePreview shows the first rows of the working table, optionally
// restricted to the "columns" query parameters.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Preview(
		chi.URLParam(r, "sessionID"),
		cleanColumns(r.URL.Query()["columns"]),
		parseIntParam(r, "limit", 0),
	)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondPreview(w, r, p)
}

func respondPreview(w http.ResponseWriter, r *http.Request, p *core.Preview) {
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.PreviewTable(p))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleExport downloads the chosen working-table columns as CSV or XLSX.
// The file is produced in full before any byte is sent, so a failed export
// is still answered with a proper error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := core.ParseExportFormat(q.Get("format"))
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.service.Export(r.Context(), chi.URLParam(r, "sessionID"), &buf, format, cleanColumns(q["columns"])); err != nil {
		fail(w, r, err)
		return
	}

	name := core.ExportFileName(q.Get("filename"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// handleExportDB copies the chosen columns into a new PostgreSQL table.
func (s *Server) handleExportDB(w http.ResponseWriter, r *http.Request) {
	req, err := parseExportDBRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	n, err := s.service.ExportToDatabase(r.Context(), chi.URLParam(r, "sessionID"), req.Table, req.Columns)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"table": req.Table,
		"rows":  n,
	})
}
