package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrorkit/photomirror/pkg/fsgateway"
	"github.com/mirrorkit/photomirror/pkg/httpstatus"
	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/materializer"
	"github.com/mirrorkit/photomirror/pkg/metrics"
	"github.com/mirrorkit/photomirror/pkg/namealloc"
	"github.com/mirrorkit/photomirror/pkg/planner"
	"github.com/mirrorkit/photomirror/pkg/ratelimit"
	"github.com/mirrorkit/photomirror/pkg/remote/fake"
	"github.com/mirrorkit/photomirror/pkg/scheduler"
	"github.com/mirrorkit/photomirror/pkg/watch"

	"net/http"
)

// WatchFlags holds watch command flags
type WatchFlags struct {
	RootDir string
	Demo    bool
	Addr    string
}

var watchFlags WatchFlags

// NewWatchCommand creates the watch command: continuous export driven by
// local filesystem events, with a small HTTP surface for status and
// metrics. Grounded on pkg/scheduler.StartContinuous + pkg/watch.Watcher.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run continuous export, reconciling on every local change",
		Long: `watch starts the scheduler in continuous mode: a local filesystem
watcher on the export root publishes a debounced "files changed" event on
every write, which the scheduler picks up to trigger another reconciliation
pass. An HTTP server exposes /healthz, /status and /metrics alongside it.`,
		RunE: runWatch,
	}

	cmd.Flags().StringVar(&watchFlags.RootDir, "root-dir", "", "export root directory (overrides config)")
	cmd.Flags().BoolVar(&watchFlags.Demo, "demo", false, "use an in-memory fake remote library instead of a real backend")
	cmd.Flags().StringVar(&watchFlags.Addr, "addr", ":8080", "address the status/metrics HTTP server listens on")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if watchFlags.RootDir != "" {
		cfg.Export.RootDir = watchFlags.RootDir
	}
	if !watchFlags.Demo {
		return fmt.Errorf("watch: no remote backend wired yet; pass --demo to exercise continuous export against an in-memory fixture")
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

	bus := fake.NewEventBus()
	sched := scheduler.New(inv, planner.New(), mz, j, bus, logger)

	debounce := time.Duration(cfg.Continuous.DebounceMillis) * time.Millisecond
	w, err := watch.New(bus, debounce)
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := w.Start(cfg.Export.RootDir); err != nil {
		return fmt.Errorf("failed to start filesystem watcher: %w", err)
	}
	defer w.Stop()

	m := metrics.New()
	router := httpstatus.NewRouter(sched, m)
	srv := &http.Server{Addr: watchFlags.Addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "status server stopped", err, nil)
		}
	}()

	sched.StartContinuous(ctx)
	defer sched.StopContinuous()

	// Resume a run a prior process left mid-stage, if any, then trigger
	// one pass regardless so the export root is populated before waiting
	// on the next filesystem event. If the resumed run is still going,
	// that trigger coalesces into one follow-up pass.
	if err := sched.ResumeIfNeeded(ctx); err != nil {
		logger.Error(ctx, "resume check failed", err, nil)
	}
	_ = sched.TriggerRun(ctx)

	fmt.Printf("watching %s, status server on %s\n", cfg.Export.RootDir, watchFlags.Addr)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
