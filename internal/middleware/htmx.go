package middleware

import (
	"context"
	"net/http"
	"strings"
)

// HTMX marks requests coming from htmx so handlers can answer with fragments.
// Responses vary on HX-Request because the same URL serves both shapes.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		// history restores want the full page
		if r.Header.Get("HX-History-Restore-Request") == "true" {
			is = false
		}
		w.Header().Add("Vary", "HX-Request")
		ctx := WithHTMX(r.Context(), is)
		if target := strings.TrimSpace(r.Header.Get("HX-Target")); target != "" {
			ctx = context.WithValue(ctx, ctxKeyHXTarget, target)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PushURL asks htmx to push url onto the browser history after the swap.
func PushURL(w http.ResponseWriter, url string) {
	if url != "" {
		w.Header().Set("HX-Push-Url", url)
	}
}
