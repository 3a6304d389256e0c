package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LogsRequests(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/enhance", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}

	entry := logs.All()[0]
	if entry.Message != "HTTP request" {
		t.Errorf("expected message 'HTTP request', got %q", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["method"] != http.MethodPost {
		t.Errorf("expected method POST, got %v", fields["method"])
	}
	if fields["path"] != "/api/enhance" {
		t.Errorf("expected path /api/enhance, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", fields["status"])
	}
	if fields["request_id"] == "" {
		t.Error("expected a request_id field")
	}
}

func TestRequestLogger_SetsRequestIDHeader(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestLogger_NilLogger_PassesThrough(t *testing.T) {
	called := false
	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Error("expected the wrapped handler to be called")
	}
	if rec.Header().Get("X-Request-ID") != "" {
		t.Error("nil logger must not add headers")
	}
}
