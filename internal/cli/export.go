package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrorkit/photomirror/pkg/config"
	"github.com/mirrorkit/photomirror/pkg/fsgateway"
	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/logging"
	"github.com/mirrorkit/photomirror/pkg/materializer"
	"github.com/mirrorkit/photomirror/pkg/metrics"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/namealloc"
	"github.com/mirrorkit/photomirror/pkg/output"
	"github.com/mirrorkit/photomirror/pkg/planner"
	"github.com/mirrorkit/photomirror/pkg/ratelimit"
	"github.com/mirrorkit/photomirror/pkg/remote"
	"github.com/mirrorkit/photomirror/pkg/remote/fake"
	"github.com/mirrorkit/photomirror/pkg/scheduler"
)

// ExportFlags holds export command flags
type ExportFlags struct {
	RootDir   string
	Demo      bool
	Workers   int
	Bandwidth int64
	Output    string
	LogFile   string
	LogFormat string
	LogLevel  string
}

var exportFlags ExportFlags

// NewExportCommand creates the export command: one reconciliation pass
// against the remote inventory, grounded on the teacher's sync.go RunE
// wiring (load config, build collaborators, run, report).
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one reconciliation pass against the remote library",
		Long: `export fetches the remote inventory, plans the difference against the
local journal, and materializes it to disk: renaming collections, trashing
removed files, exporting new ones, and trashing emptied collections.`,
		RunE: runExport,
	}

	cmd.Flags().StringVar(&exportFlags.RootDir, "root-dir", "", "export root directory (overrides config)")
	cmd.Flags().BoolVar(&exportFlags.Demo, "demo", false, "use an in-memory fake remote library instead of a real backend")
	cmd.Flags().IntVar(&exportFlags.Workers, "workers", 0, "override the configured worker count (currently informational; export runs in-process)")
	cmd.Flags().Int64Var(&exportFlags.Bandwidth, "bandwidth", 0, "bandwidth limit in bytes/sec (0 = unlimited, overrides config)")
	cmd.Flags().StringVarP(&exportFlags.Output, "output", "o", "human", "output format: human, json, progress")
	cmd.Flags().StringVar(&exportFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&exportFlags.LogFormat, "log-format", "", "log format: text, json (overrides config)")
	cmd.Flags().StringVar(&exportFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyExportFlagsToConfig(cfg)

	if !exportFlags.Demo {
		return fmt.Errorf("export: no remote backend wired yet; pass --demo to exercise the pipeline against an in-memory fixture")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	gw := fsgateway.NewLocalGateway()
	if _, err := gw.CheckExistsAndCreateDir(ctx, cfg.Export.RootDir); err != nil {
		return fmt.Errorf("failed to prepare export root: %w", err)
	}

	j, err := journal.Open(ctx, gw, cfg.Export.RootDir)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	alloc := namealloc.New()
	materializer.Seed(j, alloc)
	inv, exif, live := demoCollaborators()

	mz := materializer.New(gw, j, alloc, inv, exif, live, cfg.Export.RootDir)
	mz.Logger = logger
	if cfg.Export.BandwidthLimitBytesPerSec > 0 {
		mz.Bandwidth = ratelimit.NewLimiter(cfg.Export.BandwidthLimitBytesPerSec)
	}

	m := metrics.New()

	formatter := selectFormatter(exportFlags.Output)
	bus := fake.NewEventBus()
	sched := scheduler.New(inv, planner.New(), mz, j, bus, logger)

	totalFiles := countPendingFiles(ctx, inv, j, alloc)
	if err := formatter.Start(os.Stdout, totalFiles); err != nil {
		return fmt.Errorf("failed to start output: %w", err)
	}

	mz.OnProgress = func(u materializer.ProgressUpdate) {
		m.SetStage([]string{"rename", "trash_files", "export_files", "trash_collections"}, u.Phase)
		if u.Err != nil {
			m.FilesFailed.Inc()
		} else if u.Phase == "export_files" {
			m.FilesExported.Inc()
		}
		_ = formatter.Progress(u)
	}

	start := time.Now()
	if err := sched.TriggerRun(ctx); err != nil {
		return fmt.Errorf("failed to trigger export run: %w", err)
	}
	waitForIdle(sched)

	status := sched.Status()
	duration := time.Since(start)
	m.RunDuration.Observe(duration.Seconds())

	summary := output.Summary{
		RunID:    status.LastRunID,
		Stage:    status.Stage.String(),
		Duration: duration.Round(time.Millisecond).String(),
		Status:   "ok",
	}
	if status.LastError != "" {
		summary.Status = "error"
		summary.Errors = []string{status.LastError}
	}
	if err := formatter.Complete(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if status.LastError != "" {
		return fmt.Errorf("export run failed: %s", status.LastError)
	}
	return nil
}

// waitForIdle polls the scheduler's state, since TriggerRun runs the
// reconciliation on its own goroutine (single-flight, cancellable) and
// the CLI needs to block for one pass to finish before reporting.
func waitForIdle(sched *scheduler.Scheduler) {
	for sched.Status().State != scheduler.StateIdle {
		time.Sleep(20 * time.Millisecond)
	}
}

func countPendingFiles(ctx context.Context, inv remote.InventoryProvider, j *journal.Journal, alloc *namealloc.NameAllocator) int {
	collections, err := inv.ListCollections(ctx)
	if err != nil {
		return 0
	}
	total := 0
	for _, c := range collections {
		files, err := inv.ListFiles(ctx, c.ID)
		if err != nil {
			continue
		}
		for _, f := range files {
			uid := model.NewFileUID(f, c.ID)
			if _, known := j.FileRecord(uid); !known {
				total++
			}
		}
	}
	return total
}

func selectFormatter(name string) output.Formatter {
	switch name {
	case "json":
		return output.NewJSONFormatter()
	case "progress":
		return output.NewBarFormatter()
	default:
		return output.NewHumanFormatter()
	}
}

// demoCollaborators builds a small in-memory library so `export --demo`
// exercises the full pipeline (including one live photo pair) without a
// real remote client.
func demoCollaborators() (*fake.Inventory, remote.ExifUpdater, remote.LivePhotoDecoder) {
	inv := fake.NewInventory()
	inv.AddCollection(1, 1, "Camera Roll")
	inv.AddFile(model.File{ID: 100, CollectionID: 1, OwnerID: 1, Type: model.FileTypeImage, Title: "sunset.jpg", UpdationTime: 1}, "sunset-bytes")
	inv.AddFile(model.File{ID: 101, CollectionID: 1, OwnerID: 1, Type: model.FileTypeLivePhoto, Title: "portrait", UpdationTime: 1},
		"portrait-image"+fake.LiveSeparator+"portrait-video")
	return inv, &fake.ExifUpdater{}, fake.LivePhotoDecoder{}
}

func applyExportFlagsToConfig(cfg *config.Config) {
	if exportFlags.RootDir != "" {
		cfg.Export.RootDir = exportFlags.RootDir
	}
	if exportFlags.Workers > 0 {
		cfg.Export.Workers = exportFlags.Workers
	}
	if exportFlags.Bandwidth > 0 {
		cfg.Export.BandwidthLimitBytesPerSec = exportFlags.Bandwidth
	}
	if exportFlags.LogFile != "" {
		cfg.Logging.File = exportFlags.LogFile
	}
	if exportFlags.LogFormat != "" {
		cfg.Logging.Format = exportFlags.LogFormat
	}
	if exportFlags.LogLevel != "" {
		cfg.Logging.Level = exportFlags.LogLevel
	}
}

// createLogger builds a Logger from the resolved configuration: a null
// logger when no log file is configured, otherwise a rotating zerolog
// file logger. Grounded on the teacher's sync.go createLogger.
func createLogger(cfg *config.Config) (logging.Logger, error) {
	if cfg.Logging.File == "" {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatJSON
	if cfg.Logging.Format == "text" {
		format = logging.FormatText
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      cfg.ResolveLogLevel(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}
