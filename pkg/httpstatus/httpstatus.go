// Package httpstatus serves a small HTTP surface over a running
// Scheduler: a JSON status endpoint, the Prometheus scrape endpoint,
// and a liveness probe. Grounded on the chi.NewRouter/middleware setup
// in internal/server/server.go, trimmed to three routes.
package httpstatus

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mirrorkit/photomirror/pkg/metrics"
	"github.com/mirrorkit/photomirror/pkg/scheduler"
)

// StatusReporter is the subset of *scheduler.Scheduler the HTTP surface
// depends on, so handlers can be tested against a stub.
type StatusReporter interface {
	Status() scheduler.Status
}

// NewRouter builds the chi.Router serving /status, /metrics, /healthz.
func NewRouter(sched StatusReporter, m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		status := sched.Status()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusView{
			State:          status.State.String(),
			LastRunID:      status.LastRunID,
			LastError:      status.LastError,
			PendingExports: status.PendingExports,
			Stage:          status.Stage.String(),
		})
	})

	if m != nil {
		r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

type statusView struct {
	State          string `json:"state"`
	LastRunID      string `json:"last_run_id"`
	LastError      string `json:"last_error,omitempty"`
	PendingExports int    `json:"pending_exports"`
	Stage          string `json:"stage"`
}
