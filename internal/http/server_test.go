package http

import (
	"context"
	"net/http/httptest"
	"testing"

	httpH "github.com/hakmun-app/hakmun-backend/internal/http/handlers"
)

func TestNewServer_ServesConfiguredRoutes(t *testing.T) {
	s := NewServer(RouterConfig{HealthHandler: httpH.NewHealthHandler()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthcheck", nil)
	s.Engine.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("healthcheck: got %d, want 200", w.Code)
	}
}

func TestServer_StartAfterShutdownReturnsNil(t *testing.T) {
	s := NewServer(RouterConfig{})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	// The underlying server is already draining, so Start never binds and
	// reports a clean close.
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("start after shutdown: %v", err)
	}
}
