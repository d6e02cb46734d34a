// Package output renders a materialization run's progress and final
// summary for the CLI, in three interchangeable styles: an interactive
// progress bar, a line-oriented human log, and a single JSON document
// for scripting. Grounded on the teacher's pkg/output package shape
// (Formatter interface, Human/JSON/Progress implementations), adapted
// from sync's copy/compare events to the export engine's four phases.
package output

import (
	"fmt"
	"io"

	"github.com/mirrorkit/photomirror/pkg/materializer"
)

// Summary is the final report handed to Formatter.Complete once a
// materialization run finishes (or fails).
type Summary struct {
	RunID              string
	Stage              string
	Duration           string
	DurationMillis     int64
	CollectionsRenamed int
	FilesTrashed       int
	FilesExported      int
	CollectionsTrashed int
	Status             string
	Errors             []string
}

// Formatter renders a run's progress and final summary. Implementations
// include a human-readable stream, a progress-bar stream, and a single
// JSON document.
type Formatter interface {
	// Start announces the run and the total number of files the
	// ExportFiles phase expects to process.
	Start(writer io.Writer, totalFiles int) error

	// Progress reports one materializer.ProgressUpdate.
	Progress(update materializer.ProgressUpdate) error

	// Complete finalizes output and displays the run summary.
	Complete(summary Summary) error

	// Error reports a fatal error that stopped the run.
	Error(err error) error

	// Name returns the formatter name, as selected by --output (-o).
	Name() string
}

// formatBytes formats a byte count in human-readable units.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
