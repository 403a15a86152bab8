package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"venue-recommender/internal/services/health"
	"venue-recommender/internal/shared/config"
)

func TestAddr(t *testing.T) {
	tests := map[string]string{"": ":8080", "9090": ":9090", ":7000": ":7000"}
	for in, want := range tests {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProbeAndHealthRoutes(t *testing.T) {
	r := NewRouter(RouterDeps{Config: config.Defaults(), Health: health.NewService(nil, nil)})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/status/am-i-up", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"message":"Service is running"`) {
		t.Fatalf("unexpected probe response %d %q", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"database":"memory"`) {
		t.Fatalf("unexpected health response %d %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestMetricsRoute(t *testing.T) {
	r := NewRouter(RouterDeps{Config: config.Defaults()})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "go_goroutines") {
		t.Fatalf("unexpected metrics response %d", resp.Code)
	}
}
