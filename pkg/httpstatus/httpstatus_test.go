package httpstatus

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mirrorkit/photomirror/pkg/metrics"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/scheduler"
)

type stubReporter struct {
	status scheduler.Status
}

func (s stubReporter) Status() scheduler.Status { return s.status }

func TestHealthzReturnsOK(t *testing.T) {
	r := NewRouter(stubReporter{}, metrics.New())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStatusReportsSchedulerSnapshot(t *testing.T) {
	stub := stubReporter{status: scheduler.Status{
		State:          scheduler.StateRunning,
		LastRunID:      "abc-123",
		PendingExports: 2,
		Stage:          model.StageExportingFiles,
	}}
	r := NewRouter(stub, metrics.New())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var view statusView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "running" {
		t.Fatalf("state = %q, want running", view.State)
	}
	if view.PendingExports != 2 {
		t.Fatalf("pending_exports = %d, want 2", view.PendingExports)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	m := metrics.New()
	m.FilesExported.Inc()
	r := NewRouter(stubReporter{}, m)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected metrics body")
	}
}
