package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/mirrorkit/photomirror/pkg/materializer"
)

// BarFormatter renders a single live progress bar over the
// ExportFiles phase using cheggaaa/pb/v3, falling back to the
// teacher's manual terminal-width detection (golang.org/x/term) to size
// it. Grounded on pkg/output/progress.go's ProgressFormatter, replacing
// its hand-rolled ANSI rendering with the pack's progress-bar library.
type BarFormatter struct {
	mu    sync.Mutex
	bar   *pb.ProgressBar
	w     io.Writer
	start time.Time
}

// NewBarFormatter creates a progress-bar formatter.
func NewBarFormatter() *BarFormatter {
	return &BarFormatter{}
}

func (f *BarFormatter) Start(writer io.Writer, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.w = writer
	f.start = time.Now()

	bar := pb.New(totalFiles)
	bar.SetWriter(writer)
	if width := terminalWidth(writer); width > 0 {
		bar.SetWidth(width)
	}
	bar.Start()
	f.bar = bar
	return nil
}

func (f *BarFormatter) Progress(update materializer.ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}
	if update.Err != nil {
		fmt.Fprintf(f.w, "\n%s: %s: %v\n", update.Phase, update.Path, update.Err)
	}
	f.bar.SetCurrent(int64(update.Current))
	return nil
}

func (f *BarFormatter) Complete(summary Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Finish()
	}
	fmt.Fprintf(f.w, "\nExport completed in %s\n", summary.Duration)
	fmt.Fprintf(f.w, "Exported %d, trashed %d, renamed %d collections, trashed %d collections\n",
		summary.FilesExported, summary.FilesTrashed, summary.CollectionsRenamed, summary.CollectionsTrashed)
	if len(summary.Errors) > 0 {
		fmt.Fprintf(f.w, "Errors:\n")
		for _, e := range summary.Errors {
			fmt.Fprintf(f.w, "  %s\n", e)
		}
	}
	return nil
}

func (f *BarFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w != nil {
		fmt.Fprintf(f.w, "\nError: %v\n", err)
	}
	return nil
}

func (f *BarFormatter) Name() string {
	return "progress"
}

// terminalWidth detects the terminal width from writer when it is a
// file descriptor attached to a terminal, falling back to 0 (let pb
// pick its own default) otherwise.
func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}
