package pipeline

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"echonexus/internal/classify"
	"echonexus/internal/config"
	"echonexus/internal/logging"
	"echonexus/internal/memory"
	"echonexus/internal/registry"
	"echonexus/internal/services"
	"echonexus/internal/staging"
)

// LearningHook produces the payload for the agi_learning_cycle event recorded
// after each successful run. Implementations may fold run facts into a
// knowledge layer; the default hook only reports the re-theorizing status.
type LearningHook func(ctx context.Context, item *staging.Item) memory.Payload

func defaultLearningHook(_ context.Context, _ *staging.Item) memory.Payload {
	return memory.Payload{"status": "re-theorizing completed"}
}

// Runner executes the document processing state machine, one run per
// correlation id. Safe for concurrent use across items.
type Runner struct {
	cfg      *config.Config
	events   *memory.Log
	executor ModuleExecutor
	learning LearningHook
	logger   *slog.Logger
}

// Option customizes runner construction.
type Option func(*Runner)

// WithExecutor overrides the module executor.
func WithExecutor(exec ModuleExecutor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.executor = exec
		}
	}
}

// WithLearningHook overrides the post-completion learning payload.
func WithLearningHook(hook LearningHook) Option {
	return func(r *Runner) {
		if hook != nil {
			r.learning = hook
		}
	}
}

// NewRunner builds a runner over the event log.
func NewRunner(cfg *config.Config, events *memory.Log, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		events:   events,
		executor: NewSimulatedExecutor(cfg),
		learning: defaultLearningHook,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ingest assigns a correlation id, stages the document bytes, and records the
// document_ingestion_start event. Failures here never start a run: they are
// reported synchronously to the submitter with a document_ingestion_error
// record for the audit trail.
func (r *Runner) Ingest(ctx context.Context, filename string, reader io.Reader, meta staging.Metadata) (*staging.Item, error) {
	correlationID := uuid.New().String()
	ctx = services.WithCorrelationID(ctx, correlationID)

	item, err := staging.Stage(r.cfg, correlationID, filename, reader, meta)
	if err != nil {
		r.recordIngestionError(ctx, correlationID, filename, err)
		return nil, err
	}

	payload := memory.Payload{
		"file_path": item.SourcePath,
		"metadata":  metadataPayload(item.Metadata),
	}
	if _, err := r.events.Append(ctx, memory.EventIngestionStart, correlationID, payload); err != nil {
		wrapped := services.Wrap(services.ErrIngestion, "pipeline", "ingest", "record ingestion event", err)
		r.cleanupFailedIngest(ctx, item, wrapped)
		return nil, wrapped
	}

	logging.WithContext(ctx, r.logger).Info("document staged",
		logging.Args(
			logging.String("file_path", item.SourcePath),
			logging.Int("priority", item.Metadata.Priority),
		)...)
	return item, nil
}

// Run drives a staged item through classification, workflow assembly, and
// module execution to exactly one terminal event. The staged file is always
// relocated out of staging, to its category destination on success or to
// quarantine on fault.
func (r *Runner) Run(ctx context.Context, item *staging.Item) error {
	ctx = services.WithCorrelationID(ctx, item.CorrelationID)
	logger := logging.WithContext(ctx, r.logger)

	category := classify.Classify(item.Signals())
	item.InferredCategory = category
	if err := r.append(ctx, item, memory.EventClassification, memory.Payload{
		"agi_determined_type": string(category),
	}); err != nil {
		return err
	}
	logger.Info("document classified", logging.Args(logging.String(logging.FieldCategory, string(category)))...)

	item.Plan = registry.Resolve(category)
	if err := r.append(ctx, item, memory.EventWorkflowAssembly, memory.Payload{
		"workflow":     registry.Names(item.Plan),
		"module_count": len(item.Plan),
	}); err != nil {
		return err
	}

	for idx, stage := range item.Plan {
		item.StageIndex = idx
		stageCtx := services.WithStage(ctx, string(stage))
		if err := r.executor.Execute(stageCtx, item, stage); err != nil {
			fault := services.Wrap(services.ErrStage, "pipeline", "execute module", string(stage), err)
			return r.quarantine(ctx, item, fault)
		}
		if err := r.append(ctx, item, memory.EventModuleExecution, memory.Payload{
			"module":      string(stage),
			"status":      "completed",
			"stage_index": idx,
		}); err != nil {
			return err
		}
		logging.WithContext(stageCtx, r.logger).Info("module completed",
			logging.Args(logging.Int("stage_index", idx))...)
	}

	finalPath, err := staging.Relocate(item, r.cfg.DestinationFor(string(category)))
	if err != nil {
		fault := services.Wrap(services.ErrStage, "pipeline", "relocate", "move to destination", err)
		return r.quarantine(ctx, item, fault)
	}
	if err := r.append(ctx, item, memory.EventProcessingComplete, memory.Payload{
		"final_path":          finalPath,
		"agi_determined_type": string(category),
	}); err != nil {
		return err
	}

	if _, err := r.events.Append(ctx, memory.EventLearningCycle, item.CorrelationID, r.learning(ctx, item)); err != nil {
		logger.Warn("learning cycle record failed", logging.Args(logging.Error(err))...)
	}

	logger.Info("document processing complete", logging.Args(logging.String("final_path", finalPath))...)
	return nil
}

// Process is the single-call form used by synchronous callers and tests.
func (r *Runner) Process(ctx context.Context, filename string, reader io.Reader, meta staging.Metadata) (*staging.Item, error) {
	item, err := r.Ingest(ctx, filename, reader, meta)
	if err != nil {
		return nil, err
	}
	if err := r.Run(ctx, item); err != nil {
		return item, err
	}
	return item, nil
}

// quarantine relocates the item's file and records the single terminal error
// event for the run. The original fault is always returned, even when the
// quarantine move itself degrades.
func (r *Runner) quarantine(ctx context.Context, item *staging.Item, fault error) error {
	logger := logging.WithContext(ctx, r.logger)
	reason := services.FaultMessage(fault)

	quarantinedPath, moveErr := staging.Quarantine(r.cfg, item, reason)
	if moveErr != nil {
		logger.Error("quarantine move failed", logging.Args(logging.Error(moveErr))...)
	}

	payload := memory.Payload{"error": reason}
	if quarantinedPath != "" {
		payload["quarantined_path"] = quarantinedPath
	}
	if _, err := r.events.Append(ctx, memory.EventProcessingError, item.CorrelationID, payload); err != nil {
		logger.Error("terminal error record failed", logging.Args(logging.Error(err))...)
	}

	logger.Error("document quarantined", logging.Args(
		logging.String("reason", reason),
		logging.String("quarantined_path", quarantinedPath),
	)...)
	return fault
}

// append records a non-terminal transition; a storage fault mid-run is a
// stage fault and quarantines the item like any module failure.
func (r *Runner) append(ctx context.Context, item *staging.Item, eventType memory.EventType, payload memory.Payload) error {
	if _, err := r.events.Append(ctx, eventType, item.CorrelationID, payload); err != nil {
		fault := services.Wrap(services.ErrStage, "pipeline", "record event", string(eventType), err)
		return r.quarantine(ctx, item, fault)
	}
	return nil
}

func (r *Runner) recordIngestionError(ctx context.Context, correlationID, filename string, cause error) {
	payload := memory.Payload{
		"error":     services.FaultMessage(cause),
		"file_path": filename,
	}
	if _, err := r.events.Append(ctx, memory.EventIngestionError, correlationID, payload); err != nil {
		logging.WithContext(ctx, r.logger).Error("ingestion error record failed", logging.Args(logging.Error(err))...)
	}
}

func (r *Runner) cleanupFailedIngest(ctx context.Context, item *staging.Item, cause error) {
	r.recordIngestionError(ctx, item.CorrelationID, item.OriginalName, cause)
	if _, err := staging.Quarantine(r.cfg, item, services.FaultMessage(cause)); err != nil {
		logging.WithContext(ctx, r.logger).Error("cleanup of staged file failed", logging.Args(logging.Error(err))...)
	}
}

func metadataPayload(meta staging.Metadata) memory.Payload {
	payload := memory.Payload{"priority": meta.Priority}
	if meta.CategoryHint != "" {
		payload["document_type"] = meta.CategoryHint
	}
	if len(meta.Tags) > 0 {
		payload["tags"] = meta.Tags
	}
	if len(meta.CustomOptions) > 0 {
		payload["custom_options"] = meta.CustomOptions
	}
	return payload
}
