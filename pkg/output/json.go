package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/mirrorkit/photomirror/pkg/materializer"
)

// JSONFormatter accumulates events and writes the final report as a
// single JSON document, grounded on pkg/output/json.go's
// accumulate-then-encode-on-Complete design (kept deliberately quiet
// during Progress so scripted consumers only see one parseable object).
type JSONFormatter struct {
	writer     io.Writer
	totalFiles int
	events     []jsonEvent
}

type jsonEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

type jsonFileData struct {
	Phase string `json:"phase"`
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

type jsonReport struct {
	RunID              string   `json:"run_id"`
	Stage              string   `json:"stage"`
	Status             string   `json:"status"`
	Duration           string   `json:"duration"`
	DurationMs         int64    `json:"duration_ms"`
	CollectionsRenamed int      `json:"collections_renamed"`
	FilesTrashed       int      `json:"files_trashed"`
	FilesExported      int      `json:"files_exported"`
	CollectionsTrashed int      `json:"collections_trashed"`
	Errors             []string `json:"errors,omitempty"`
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Start(writer io.Writer, totalFiles int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalFiles = totalFiles
	f.events = append(f.events, jsonEvent{Timestamp: time.Now(), Type: "start", Data: map[string]int{"total_files": totalFiles}})
	return nil
}

func (f *JSONFormatter) Progress(update materializer.ProgressUpdate) error {
	errStr := ""
	if update.Err != nil {
		errStr = update.Err.Error()
	}
	f.events = append(f.events, jsonEvent{
		Timestamp: time.Now(),
		Type:      "progress",
		Data:      jsonFileData{Phase: update.Phase, Path: update.Path, Error: errStr},
	})
	return nil
}

func (f *JSONFormatter) Complete(summary Summary) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	report := jsonReport{
		RunID:              summary.RunID,
		Stage:              summary.Stage,
		Status:             summary.Status,
		Duration:           summary.Duration,
		DurationMs:         summary.DurationMillis,
		CollectionsRenamed: summary.CollectionsRenamed,
		FilesTrashed:       summary.FilesTrashed,
		FilesExported:      summary.FilesExported,
		CollectionsTrashed: summary.CollectionsTrashed,
		Errors:             summary.Errors,
	}

	f.events = append(f.events, jsonEvent{Timestamp: time.Now(), Type: "complete", Data: report})

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (f *JSONFormatter) Error(err error) error {
	f.events = append(f.events, jsonEvent{Timestamp: time.Now(), Type: "error", Data: map[string]string{"error": err.Error()}})
	return nil
}

func (f *JSONFormatter) Name() string {
	return "json"
}
