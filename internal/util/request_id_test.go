package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDEchoesBrowserSuppliedID(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/home", nil)
	req.Header.Set("X-Request-Id", "page-action-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "page-action-7" {
		t.Fatalf("handler saw id %q, want the browser-supplied one", seen)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "page-action-7" {
		t.Fatalf("response id = %q, want echo", got)
	}
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))

	if seen == "" {
		t.Fatalf("expected a generated request id")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("response id = %q, handler saw %q", got, seen)
	}
}

func TestRequestIDEmptyOutsideMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/home", nil)
	if got := RequestID(r); got != "" {
		t.Fatalf("RequestID without middleware = %q, want empty", got)
	}
}
