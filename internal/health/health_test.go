package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/rangebet/internal/logger"
)

func newTestServer() *Server {
	return NewServer(0, "v1.2.3", logger.New(io.Discard, logger.LevelError, "test", nil))
}

func TestServer_HealthAllPassing(t *testing.T) {
	s := newTestServer()
	s.RegisterCheck("feed", func(ctx context.Context) (bool, string) { return true, "fresh" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Status != "ok" || st.Version != "v1.2.3" {
		t.Errorf("status = %+v", st)
	}
	if !st.Checks["feed"].Healthy || st.Checks["feed"].Message != "fresh" {
		t.Errorf("feed check = %+v", st.Checks["feed"])
	}
}

func TestServer_Degraded(t *testing.T) {
	s := newTestServer()
	s.RegisterCheck("feed", func(ctx context.Context) (bool, string) { return true, "" })
	s.RegisterCheck("journal", func(ctx context.Context) (bool, string) { return false, "locked" })

	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
}

func TestServer_Mount(t *testing.T) {
	s := newTestServer()
	s.Mount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("up 1"))
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if body := rec.Body.String(); body != "up 1" {
		t.Errorf("body = %q, want mounted handler output", body)
	}
}
