package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"echonexus/internal/config"
	"echonexus/internal/creative"
	"echonexus/internal/dispatch"
	"echonexus/internal/logging"
	"echonexus/internal/memory"
	"echonexus/internal/pipeline"
	"echonexus/internal/staging"
	"echonexus/internal/status"
	"echonexus/internal/workqueue"
)

// Daemon owns the background services and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	events     *memory.Log
	runner     *pipeline.Runner
	conductor  *creative.Conductor
	dispatcher *dispatch.Dispatcher
	reporter   *status.Reporter
	pool       *workqueue.Pool
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	Workers      int    `json:"workers"`
	EventDBPath  string `json:"event_db_path"`
	LockFilePath string `json:"lock_file_path"`
	APIAddress   string `json:"api_address,omitempty"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, events *memory.Log, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || events == nil {
		return nil, errors.New("daemon requires config and event log")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "echonexusd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		events:     events,
		runner:     pipeline.NewRunner(cfg, events, logger),
		conductor:  creative.NewConductor(cfg, events, logger),
		dispatcher: dispatch.NewDispatcher(events, logger),
		reporter:   status.NewReporter(events),
		pool:       workqueue.NewPool(cfg, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the instance lock, launches the worker pool, and begins
// serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another echonexus daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.pool.Start(d.ctx)
	if err := d.api.start(d.ctx); err != nil {
		d.pool.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.Args(logging.String("lock", d.lockPath))...)
	return nil
}

// Stop shuts the API down, drains the worker pool, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	d.pool.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Args(logging.Error(err))...)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.events.Close()
}

// APIAddress returns the bound API address, empty until Start succeeds.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// SubmitDocument stages the document synchronously, then queues the pipeline
// run. Ingestion faults surface to the caller immediately; a full queue
// quarantines the staged file so nothing lingers in staging.
func (d *Daemon) SubmitDocument(ctx context.Context, filename string, r io.Reader, meta staging.Metadata) (string, error) {
	item, err := d.runner.Ingest(ctx, filename, r, meta)
	if err != nil {
		return "", err
	}

	job := func(runCtx context.Context) {
		if runErr := d.runner.Run(runCtx, item); runErr != nil {
			d.logger.Warn("pipeline run ended in quarantine", logging.Args(
				logging.String(logging.FieldCorrelationID, item.CorrelationID),
				logging.Error(runErr),
			)...)
		}
	}
	if err := d.pool.Submit(job); err != nil {
		if _, qErr := staging.Quarantine(d.cfg, item, err.Error()); qErr != nil {
			d.logger.Error("failed to quarantine unqueued item", logging.Args(logging.Error(qErr))...)
		}
		return "", fmt.Errorf("queue pipeline run: %w", err)
	}
	return item.CorrelationID, nil
}

// CreateConstruct queues a creative cycle and returns its correlation id.
func (d *Daemon) CreateConstruct(_ context.Context, input creative.Input) (string, error) {
	correlationID := uuid.New().String()
	job := func(runCtx context.Context) {
		if _, err := d.conductor.RunAs(runCtx, correlationID, input); err != nil {
			d.logger.Warn("creative cycle failed", logging.Args(
				logging.String(logging.FieldCorrelationID, correlationID),
				logging.Error(err),
			)...)
		}
	}
	if err := d.pool.Submit(job); err != nil {
		return "", fmt.Errorf("queue creative cycle: %w", err)
	}
	return correlationID, nil
}

// Chat dispatches a chat reasoning task synchronously, handing the caller's
// memory context through to the handler.
func (d *Daemon) Chat(ctx context.Context, message string, memoryContext map[string]any) (*dispatch.Result, error) {
	return d.dispatcher.Dispatch(ctx, dispatch.Task{
		Type:    dispatch.TaskChatReasoning,
		Input:   message,
		Context: memoryContext,
	})
}

// DocumentStatus derives the document pipeline status for a correlation id.
func (d *Daemon) DocumentStatus(ctx context.Context, correlationID string) (*status.DocumentStatus, error) {
	return d.reporter.Document(ctx, correlationID)
}

// CreativeStatus derives the creative cycle status for a correlation id.
func (d *Daemon) CreativeStatus(ctx context.Context, correlationID string) (*status.CreativeStatus, error) {
	return d.reporter.Creative(ctx, correlationID)
}

// Events returns recent events, system-wide when correlationID is empty.
func (d *Daemon) Events(ctx context.Context, correlationID string, limit int) ([]memory.Event, error) {
	return d.reporter.Recent(ctx, correlationID, limit)
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Workers:      d.cfg.Workflow.Workers,
		EventDBPath:  d.events.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.APIAddress(),
	}
}
