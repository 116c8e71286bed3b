package web

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
)

// render writes an HTML fragment for HTMX requests.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.ErrorContext(r.Context(), "render fragment", "error", err)
	}
}
