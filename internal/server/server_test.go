package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nholik/zksave/internal/healthcheck"
	"github.com/nholik/zksave/internal/metrics"
)

func TestPlanSharedPort(t *testing.T) {
	tracker := healthcheck.NewTracker()
	tracker.RecordCheck()
	m := metrics.New()
	m.IncSaves(true, "")

	listeners := plan(Options{HealthPort: 8080, MetricsPort: 8080, AutosaveInterval: time.Minute, Tracker: tracker, Metrics: m})
	if len(listeners) != 1 {
		t.Fatalf("expected one shared listener, got %d", len(listeners))
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		listeners[0].handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if path == "/metrics" && !strings.Contains(rec.Body.String(), "zksave_saves_total") {
			t.Fatalf("expected save counter in metrics output")
		}
	}
}

func TestPlanSeparatePorts(t *testing.T) {
	listeners := plan(Options{HealthPort: 8080, MetricsPort: 9090, AutosaveInterval: time.Minute, Tracker: healthcheck.NewTracker(), Metrics: metrics.New()})
	if len(listeners) != 2 {
		t.Fatalf("expected two listeners, got %d", len(listeners))
	}

	health := listeners[0]
	if health.label != "health" || health.port != 8080 {
		t.Fatalf("unexpected first listener %+v", health)
	}
	rec := httptest.NewRecorder()
	health.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected metrics to be absent from the health listener, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	health.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before the first check, got %d", rec.Code)
	}

	if listeners[1].label != "metrics" || listeners[1].port != 9090 {
		t.Fatalf("unexpected second listener %+v", listeners[1])
	}
}

func TestPlanDisabled(t *testing.T) {
	if listeners := plan(Options{}); len(listeners) != 0 {
		t.Fatalf("expected no listeners, got %d", len(listeners))
	}
}
