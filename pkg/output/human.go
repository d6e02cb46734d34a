package output

import (
	"fmt"
	"io"

	"github.com/mirrorkit/photomirror/pkg/materializer"
)

// HumanFormatter prints one line per phase item, grounded on
// pkg/output/human.go's line-per-file style.
type HumanFormatter struct {
	writer     io.Writer
	totalFiles int
}

// NewHumanFormatter creates a human-readable formatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

func (f *HumanFormatter) Start(writer io.Writer, totalFiles int) error {
	f.writer = writer
	f.totalFiles = totalFiles
	if writer != nil {
		fmt.Fprintf(writer, "Starting export: %d files to process\n", totalFiles)
	}
	return nil
}

func (f *HumanFormatter) Progress(update materializer.ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}
	if update.Err != nil {
		fmt.Fprintf(f.writer, "[%s %d/%d] ✗ %s: %v\n", update.Phase, update.Current, update.Total, update.Path, update.Err)
		return nil
	}
	fmt.Fprintf(f.writer, "[%s %d/%d] ✓ %s\n", update.Phase, update.Current, update.Total, update.Path)
	return nil
}

func (f *HumanFormatter) Complete(summary Summary) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Export completed in %s\n", summary.Duration)
	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Summary:\n")
	fmt.Fprintf(f.writer, "  Collections renamed: %d\n", summary.CollectionsRenamed)
	fmt.Fprintf(f.writer, "  Files trashed:       %d\n", summary.FilesTrashed)
	fmt.Fprintf(f.writer, "  Files exported:      %d\n", summary.FilesExported)
	fmt.Fprintf(f.writer, "  Collections trashed: %d\n", summary.CollectionsTrashed)
	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Stage: %s\n", summary.Stage)
	fmt.Fprintf(f.writer, "Status: %s\n", summary.Status)

	if len(summary.Errors) > 0 {
		fmt.Fprintf(f.writer, "\nErrors:\n")
		for _, e := range summary.Errors {
			fmt.Fprintf(f.writer, "  %s\n", e)
		}
	}

	return nil
}

func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

func (f *HumanFormatter) Name() string {
	return "human"
}
