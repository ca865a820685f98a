package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"lifescientific.com/web/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := requestctx.WithTrace(context.Background(), requestctx.TraceInfo{TraceID: "abc123"})
	rec := httptest.NewRecorder()

	WriteError(ctx, rec, NewError("invalid_filter", "unknown view\nmode", http.StatusBadRequest).
		WithDetails(map[string]any{"param": "view"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_filter", body["error"])
	require.Equal(t, "unknown view mode", body["message"])
	require.EqualValues(t, 400, body["status"])
	require.Equal(t, "abc123", body["trace_id"])
	require.Equal(t, "view", body["param"])
}

func TestErrorFromStatus(t *testing.T) {
	e := ErrorFromStatus(http.StatusNotFound)
	require.Equal(t, "not_found", e.Code)
	require.Equal(t, "not found", e.Message)
	require.Equal(t, "not_found: not found", e.Error())
}

func TestWriteErrorStampsRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	rec := httptest.NewRecorder()

	WriteError(ctx, rec, Error{Code: "boom"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "req-1", body["request_id"])
	require.NotContains(t, body, "trace_id")
}

func TestWithDetailsDoesNotShareMaps(t *testing.T) {
	base := ErrorFromStatus(http.StatusBadRequest).WithDetails(map[string]any{"param": "category"})
	extended := base.WithDetails(map[string]any{"categories": []string{"herbicide"}})

	require.Len(t, base.Details, 1)
	require.Equal(t, "category", extended.Details["param"])
	require.Contains(t, extended.Details, "categories")
}

func TestNewErrorTruncatesOnRuneBoundary(t *testing.T) {
	e := NewError("code", strings.Repeat("é", 300), http.StatusBadRequest)
	require.True(t, utf8.ValidString(e.Message))
	require.LessOrEqual(t, len(e.Message), maxMessageLen)
}
