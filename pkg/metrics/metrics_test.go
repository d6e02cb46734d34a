package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestFilesExportedIncrements(t *testing.T) {
	m := New()
	m.FilesExported.Inc()
	m.FilesExported.Inc()
	if got := counterValue(t, m.FilesExported); got != 2 {
		t.Fatalf("files_exported_total = %v, want 2", got)
	}
}

func TestSetStageActivatesOnlyOne(t *testing.T) {
	m := New()
	stages := []string{"renamed", "trashed_files", "exported_files", "trashed_collections"}
	m.SetStage(stages, "exported_files")

	for _, s := range stages {
		want := 0.0
		if s == "exported_files" {
			want = 1.0
		}
		got := counterValue(t, m.CurrentStage.WithLabelValues(s))
		if got != want {
			t.Fatalf("stage %q = %v, want %v", s, got, want)
		}
	}
}

func TestPendingExportsGauge(t *testing.T) {
	m := New()
	m.PendingExports.Set(3)
	if got := counterValue(t, m.PendingExports); got != 3 {
		t.Fatalf("pending_exports = %v, want 3", got)
	}
}
