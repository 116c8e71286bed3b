package web

import (
	"net/http"

	"github.com/JonMunkholm/merger/internal/logging"
	"github.com/go-chi/chi/v5"
)

// sessionContext tags the request context with the session in the URL, so
// every log line written while serving it carries session_id.
func sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithSessionID(r.Context(), chi.URLParam(r, "sessionID"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
