package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/services"
	"sitepulse/internal/stats"
	"sitepulse/internal/store"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "sitepulse-test", Version: "0.0.1"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://example.com"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600,
		},
	}
}

func newTestServer(t *testing.T, pinger services.Pinger) http.Handler {
	t.Helper()
	conn, err := database.Open(&config.DatabaseConfig{
		URL: "sqlite:///" + filepath.Join(t.TempDir(), "server.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(conn) })

	st := store.NewGormStore(conn)
	svc, err := services.NewInteractionService(st, stats.NewEngine(st, stats.WithLocation(time.UTC)), services.Options{
		Timeout:  2 * time.Second,
		Location: time.UTC,
	})
	require.NoError(t, err)

	if pinger == nil {
		pinger = st
	}
	cfg := testConfig()
	return New(cfg, svc, services.NewHealthService(pinger, cfg.App.Name, cfg.App.Version)).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestContactRoundTrip(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodPost, "/api/v1/contacts",
		`{"name":"Ada","email":"ada@example.com","message":"Need a site","budget":"5k-10k"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])
	id := body["data"].(map[string]any)["id"].(string)

	rec, body = do(t, h, http.MethodGet, "/api/v1/contacts/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new", body["data"].(map[string]any)["status"])

	rec, body = do(t, h, http.MethodPatch, "/api/v1/contacts/"+id, `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "in_progress", body["data"].(map[string]any)["status"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/contacts?status=in_progress&page=1&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 1, body["totalPages"])
	assert.Len(t, body["data"], 1)

	rec, body = do(t, h, http.MethodDelete, "/api/v1/contacts/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["data"].(map[string]any)["deleted"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/contacts/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NOT_FOUND", body["error"])
}

func TestValidationFailures(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing contact fields", http.MethodPost, "/api/v1/contacts", `{"email":"nope"}`},
		{"malformed json", http.MethodPost, "/api/v1/contacts", `{"name":`},
		{"empty body", http.MethodPost, "/api/v1/feedback", ""},
		{"rating out of range", http.MethodPost, "/api/v1/feedback", `{"rating":11}`},
		{"bad sender", http.MethodPost, "/api/v1/messages", `{"sessionId":"s1","sender":"robot","content":"hi"}`},
		{"non numeric page", http.MethodGet, "/api/v1/contacts?page=abc", ""},
		{"bad date", http.MethodGet, "/api/v1/conversations?dateFrom=yesterday", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "VALIDATION_ERROR", body["error"])
			assert.NotEmpty(t, body["fields"])
		})
	}
}

func TestChatFlow(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodPost, "/api/v1/messages",
		`{"sessionId":"sess-1","sender":"user","content":"hello","userEmail":"Bob@Example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, body["messageCount"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/conversations", `{"sessionId":"sess-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["existing"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/messages", `{"sessionId":"sess-1","sender":"bot","content":"hi there"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 2, body["messageCount"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/conversations/sess-1/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/conversations/sess-1/end", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["data"].(map[string]any)["status"])

	rec, _ = do(t, h, http.MethodPost, "/api/v1/conversations/missing/end", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/api/v1/conversations?userEmail=bob@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = do(t, h, http.MethodDelete, "/api/v1/conversations/sess-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["data"].(map[string]any)["deleted"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/conversations/sess-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedbackEventsAndDashboard(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodPost, "/api/v1/feedback", `{"rating":9,"feedbackText":"great"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "positive", body["feedbackType"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/feedback?minRating=8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, _ = do(t, h, http.MethodPost, "/api/v1/analytics/events", `{"eventType":"page_view","eventData":{"page":"/pricing"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body = do(t, h, http.MethodGet, "/api/v1/analytics/events?eventType=page_view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/dashboard/stats", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["feedback"].(map[string]any)["total"])
	assert.EqualValues(t, 0, data["contacts"].(map[string]any)["total"])
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	rec, body = do(t, newTestServer(t, down), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", body["database"])
}

func TestMiddleware(t *testing.T) {
	h := newTestServer(t, nil)

	t.Run("security headers and request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/contacts", nil)
		req.Header.Set("Origin", "https://example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin refused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("metrics exposed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "http_requests_total")
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperrors.InvalidField("x", "bad")))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperrors.NotFound("gone")))
	assert.Equal(t, http.StatusConflict, StatusFor(apperrors.New(apperrors.ErrCodeConflict, "dup")))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(apperrors.Storage("op", errors.New("disk"))))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
