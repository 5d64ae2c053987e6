package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestLivenessHandler(t *testing.T) {
	rec := serve(t, LivenessHandler(), http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		status   Status
		wantCode int
		wantBody string
	}{
		{StatusHealthy, http.StatusOK, "OK"},
		{StatusDegraded, http.StatusOK, "DEGRADED"},
		{StatusUnhealthy, http.StatusServiceUnavailable, "UNHEALTHY"},
	}
	for _, tt := range tests {
		agg := NewAggregator(time.Second)
		agg.Register(fixed("upstream", tt.status))

		rec := serve(t, ReadinessHandler(agg), http.MethodGet, "/readyz")
		if rec.Code != tt.wantCode || rec.Body.String() != tt.wantBody {
			t.Errorf("%v: got %d %q, want %d %q", tt.status, rec.Code, rec.Body.String(), tt.wantCode, tt.wantBody)
		}
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator(time.Second)
	up := NewUpstreamChecker(2)
	up.Record(false, "timeout: read timeout")
	up.Record(false, "timeout: read timeout")
	agg.Register(up)
	agg.Register(fixed("memory", StatusHealthy))

	rec := serve(t, DetailedHandler(agg), http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %q", resp.Status)
	}
	if got := resp.Checks["upstream"]; got.Error != ErrCheckFailed.Error() || got.Details["last_error"] != "timeout: read timeout" {
		t.Errorf("upstream check = %+v", got)
	}
	if resp.Checks["memory"].Status != "healthy" {
		t.Errorf("memory check = %+v", resp.Checks["memory"])
	}
}

func TestNewAdminMux(t *testing.T) {
	agg := NewAggregator(time.Second)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("taostats_fetch_total 1\n"))
	})

	mux := NewAdminMux(agg, metrics)
	for _, path := range []string{"/healthz", "/readyz", "/health", "/metrics"} {
		if rec := serve(t, mux, http.MethodGet, path); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
	if rec := serve(t, mux, http.MethodPost, "/healthz"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz = %d, want 405", rec.Code)
	}

	bare := NewAdminMux(agg, nil)
	if rec := serve(t, bare, http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics without handler = %d, want 404", rec.Code)
	}
}
