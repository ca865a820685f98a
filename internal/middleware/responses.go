package middleware

import (
	"net/http"
	"strings"

	"lifescientific.com/web/internal/platform/httpx"
)

// writeError answers htmx and /api callers with the JSON envelope and browsers with text.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) || strings.HasPrefix(r.URL.Path, "/api/") {
		httpx.WriteError(r.Context(), w, httpx.ErrorFromStatus(code).WithDetails(map[string]any{"message": msg}))
		return
	}
	http.Error(w, msg, code)
}

// LimitQuery rejects requests whose raw query string exceeds max bytes. Facet URLs are
// short; anything larger is not a browser building a catalog link.
func LimitQuery(max int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max > 0 && len(r.URL.RawQuery) > max {
				writeError(w, r, http.StatusRequestURITooLong, "query string too long")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
