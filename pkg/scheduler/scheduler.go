// Package scheduler owns the single entry point that runs one
// reconciliation pass end to end: fetch the remote inventory, plan
// against the journal, materialize the plan. It enforces single-flight
// execution (a run already in progress absorbs further trigger requests
// as one coalesced rerun instead of running concurrently), exposes
// cancellation, and can subscribe to a remote.EventBus to drive
// continuous export.
//
// Grounded on pkg/sync/engine.go's single Run entry point, generalized
// into the explicit Idle/Running state machine the spec requires, with
// cancellation modeled the way pkg/sync/pipeline.go uses
// context.WithCancel.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/logging"
	"github.com/mirrorkit/photomirror/pkg/materializer"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/planner"
	"github.com/mirrorkit/photomirror/pkg/remote"
)

// State is the scheduler's run state.
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Status is a snapshot of the scheduler suitable for the CLI's `status`
// command and the /status HTTP endpoint.
type Status struct {
	State          State
	LastRunID      string
	LastError      string
	PendingExports int
	Stage          model.ExportStage
	LastRunAt      time.Time
}

// Scheduler runs the Planner and Materializer against a remote
// inventory, one flight at a time.
type Scheduler struct {
	Inventory    remote.InventoryProvider
	Planner      *planner.Planner
	Materializer *materializer.Materializer
	Journal      *journal.Journal
	Bus          remote.EventBus
	Logger       logging.Logger

	mu             sync.Mutex
	state          State
	cancel         context.CancelFunc
	rerunRequested bool
	lastRunID      uuid.UUID
	lastErr        error
	pendingExports int
	lastRunAt      time.Time
	unsubscribe    func()
}

// New builds a Scheduler. Logger defaults to a NullLogger if nil.
func New(inv remote.InventoryProvider, p *planner.Planner, mz *materializer.Materializer, j *journal.Journal, bus remote.EventBus, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Scheduler{
		Inventory:    inv,
		Planner:      p,
		Materializer: mz,
		Journal:      j,
		Bus:          bus,
		Logger:       logger,
	}
}

// StartContinuous subscribes to the EventBus's local-files-updated event
// so every external change triggers a reconciliation run, implementing
// continuous export. Call StopContinuous to unsubscribe.
func (s *Scheduler) StartContinuous(ctx context.Context) {
	if s.Bus == nil {
		return
	}
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.unsubscribe = s.Bus.Subscribe(remote.EventLocalFilesUpdated, func() {
		s.TriggerRun(ctx)
	})
	s.mu.Unlock()
}

// StopContinuous cancels any in-flight run and unsubscribes from the
// EventBus.
func (s *Scheduler) StopContinuous() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	cancel := s.cancel
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
}

// Status returns a snapshot of the scheduler's current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	errStr := ""
	if s.lastErr != nil {
		errStr = s.lastErr.Error()
	}
	return Status{
		State:          s.state,
		LastRunID:      s.lastRunID.String(),
		LastError:      errStr,
		PendingExports: s.pendingExports,
		Stage:          s.Journal.Stage(),
		LastRunAt:      s.lastRunAt,
	}
}

// TriggerRun starts a reconciliation run. If one is already running, this
// request is coalesced: the in-flight run will be followed by exactly
// one more run once it completes, absorbing any number of additional
// TriggerRun calls made in the meantime.
func (s *Scheduler) TriggerRun(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning {
		s.rerunRequested = true
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.state = StateRunning
	s.cancel = cancel
	s.mu.Unlock()

	go s.runLoop(runCtx)
	return nil
}

// Cancel stops the in-flight run, if any. The scheduler returns to Idle
// once the cancellation propagates through the current phase.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Scheduler) runLoop(ctx context.Context) {
	for {
		s.runOnce(ctx)

		s.mu.Lock()
		rerun := s.rerunRequested
		s.rerunRequested = false
		if !rerun {
			s.state = StateIdle
			s.cancel = nil
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// ResumeIfNeeded triggers a run if the journal was left mid-stage by a
// prior process that crashed or was restarted. Per §4.6, INIT < stage <
// FINISHED means an interrupted run that should pick up where it left
// off rather than wait for the next external trigger.
func (s *Scheduler) ResumeIfNeeded(ctx context.Context) error {
	if s.Journal.Stage().InProgress() {
		return s.TriggerRun(ctx)
	}
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runID := uuid.New()
	s.mu.Lock()
	s.lastRunID = runID
	s.lastRunAt = time.Now()
	s.mu.Unlock()

	log := s.Logger.WithFields(logging.Fields{"run_id": runID.String()})
	log.Info(ctx, "reconciliation run starting", nil)

	if err := s.preExport(ctx); err != nil {
		s.recordError(err)
		log.Error(ctx, "pre-export check failed", err, nil)
		return
	}

	plan, err := s.buildPlan(ctx)
	if err != nil {
		s.recordError(err)
		log.Error(ctx, "failed to build plan", err, nil)
		return
	}

	if plan.IsEmpty() {
		log.Info(ctx, "nothing to do", nil)
	} else if err := s.Materializer.Run(ctx, plan, runID); err != nil {
		s.recordError(err)
		log.Error(ctx, "materialization failed", err, nil)
		return
	}

	s.recordError(nil)
	s.postExport(ctx)
	log.Info(ctx, "reconciliation run complete", nil)
}

// preExport verifies the export root still exists before any work
// begins and advances the stage MIGRATION -> STARTING, per §4.6.
func (s *Scheduler) preExport(ctx context.Context) error {
	exists, err := s.Materializer.Gateway.Exists(ctx, s.Materializer.ExportRoot)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewError("Scheduler.preExport", model.ErrExportFolderDoesNotExist, nil)
	}
	if err := s.Journal.SetStage(model.StageMigration); err != nil {
		return err
	}
	return s.Journal.SetStage(model.StageStarting)
}

// postExport closes out a run: if the export root vanished mid-run it
// resets the journal to INIT so the next trigger re-validates from
// scratch, otherwise it marks the run FINISHED, stamps
// last_attempt_timestamp, recomputes pending exports, and broadcasts
// completion.
func (s *Scheduler) postExport(ctx context.Context) {
	exists, err := s.Materializer.Gateway.Exists(ctx, s.Materializer.ExportRoot)
	if err == nil && !exists {
		_ = s.Journal.SetStage(model.StageInit)
		return
	}

	_ = s.Journal.SetStage(model.StageFinished)
	_ = s.Journal.SetLastAttemptTimestamp(time.Now())
	s.refreshPendingExports(ctx)

	if s.Bus != nil {
		s.Bus.Publish(remote.EventRemoteSyncDone)
	}
}

func (s *Scheduler) buildPlan(ctx context.Context) (*planner.Plan, error) {
	collections, err := s.Inventory.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	live := make([]model.Collection, 0, len(collections))
	filesByCollection := make(map[int64][]model.File, len(collections))
	for _, c := range collections {
		if c.IsDeleted {
			continue
		}
		live = append(live, c)
		files, err := s.Inventory.ListFiles(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		kept := files[:0]
		for _, f := range files {
			if !f.IsDeleted {
				kept = append(kept, f)
			}
		}
		filesByCollection[c.ID] = kept
	}

	return s.Planner.Plan(s.Journal, live, filesByCollection), nil
}

// refreshPendingExports recomputes the plan once more after
// materialization and records how many files would still need export —
// normally zero, but nonzero if the remote changed again mid-run.
func (s *Scheduler) refreshPendingExports(ctx context.Context) {
	plan, err := s.buildPlan(ctx)
	if err != nil {
		return
	}
	s.setPendingExports(len(plan.FilesToExport))
}

func (s *Scheduler) setPendingExports(n int) {
	s.mu.Lock()
	s.pendingExports = n
	s.mu.Unlock()
}

func (s *Scheduler) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
