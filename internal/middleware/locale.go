package middleware

import (
	"net/http"
	"time"

	"lifescientific.com/web/internal/i18n"
	"lifescientific.com/web/internal/platform/requestctx"
)

const (
	langCookieName = "hl"
	langQueryParam = "hl"
	langCookieAge  = 365 * 24 * time.Hour
)

// VaryLocale sets Vary header for Accept-Language on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		w.Header().Add("Vary", "Cookie")
		next.ServeHTTP(w, r)
	})
}

// Locale resolves the UI language from ?hl, then the hl cookie, then Accept-Language.
// An explicit supported ?hl is remembered in the cookie.
func Locale(bundle *i18n.Bundle, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q, ok := bundle.Normalize(r.URL.Query().Get(langQueryParam)); ok {
				lang = q
				http.SetCookie(w, &http.Cookie{
					Name:     langCookieName,
					Value:    q,
					Path:     "/",
					MaxAge:   int(langCookieAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			} else if c, err := r.Cookie(langCookieName); err == nil {
				if v, ok := bundle.Normalize(c.Value); ok {
					lang = v
				}
			}
			if lang == "" {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLang(r.Context(), lang)))
		})
	}
}

// Lang returns the language chosen by Locale, defaulting to "en" outside it.
func Lang(r *http.Request) string {
	if lang := requestctx.Lang(r.Context()); lang != "" {
		return lang
	}
	return "en"
}
