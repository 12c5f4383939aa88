package pipeline

import (
	"context"
	"time"

	"echonexus/internal/config"
	"echonexus/internal/registry"
	"echonexus/internal/staging"
)

// ModuleExecutor runs a single named stage against a staged item. Execution
// must honor ctx cancellation; a returned error quarantines the item.
type ModuleExecutor interface {
	Execute(ctx context.Context, item *staging.Item, stage registry.StageName) error
}

// ModuleExecutorFunc adapts a function to the ModuleExecutor interface.
type ModuleExecutorFunc func(ctx context.Context, item *staging.Item, stage registry.StageName) error

func (f ModuleExecutorFunc) Execute(ctx context.Context, item *staging.Item, stage registry.StageName) error {
	return f(ctx, item, stage)
}

// SimulatedExecutor models module work as a sleep proportional to the item's
// declared priority. Higher priority costs more, mirroring the heavier
// processing a rush job receives.
type SimulatedExecutor struct {
	BaseLatency   time.Duration
	PriorityScale time.Duration
}

// NewSimulatedExecutor builds the executor from workflow tuning config.
func NewSimulatedExecutor(cfg *config.Config) *SimulatedExecutor {
	return &SimulatedExecutor{
		BaseLatency:   time.Duration(cfg.Workflow.ModuleLatencyMS) * time.Millisecond,
		PriorityScale: time.Duration(cfg.Workflow.PriorityLatencyMS) * time.Millisecond,
	}
}

func (e *SimulatedExecutor) Execute(ctx context.Context, item *staging.Item, stage registry.StageName) error {
	delay := e.BaseLatency + time.Duration(item.Metadata.Priority)*e.PriorityScale
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
