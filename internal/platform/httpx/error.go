// Package httpx writes JSON responses and the shared error envelope for the /api routes.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"

	"lifescientific.com/web/internal/platform/requestctx"
)

const (
	maxCodeLen    = 80
	maxMessageLen = 512
	maxIDLen      = 80
)

// Error is an API failure. WriteError renders it as
// {"error","message","status","request_id","trace_id"} plus any Details keys.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

// NewError returns an Error with code and message flattened to one bounded line. A
// zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    oneLine(code, maxCodeLen),
		Message: oneLine(message, maxMessageLen),
		Status:  status,
	}
}

// ErrorFromStatus derives code and message from the status text, e.g. 404 gives
// "not_found" / "not found".
func ErrorFromStatus(status int) Error {
	text := strings.ToLower(http.StatusText(status))
	return NewError(strings.ReplaceAll(text, " ", "_"), text, status)
}

// WithDetails returns a copy of e carrying extra top-level keys. Details may override the
// standard keys.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	e.Details = merged
	return e
}

func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

// WriteError renders e, stamping the chi request id and the trace id found in ctx.
func WriteError(ctx context.Context, w http.ResponseWriter, e Error) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	body := map[string]any{
		"error":   e.Code,
		"message": e.Message,
		"status":  e.Status,
	}
	if id := oneLine(middleware.GetReqID(ctx), maxIDLen); id != "" {
		body["request_id"] = id
	}
	if id := oneLine(requestctx.TraceID(ctx), maxIDLen); id != "" {
		body["trace_id"] = id
	}
	for k, v := range e.Details {
		body[k] = v
	}
	WriteJSON(w, e.Status, body)
}

// WriteJSON encodes v with the given status. HTML characters are left unescaped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// oneLine collapses line breaks and trims s to at most limit bytes without splitting a rune.
func oneLine(s string, limit int) string {
	s = strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s))
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
