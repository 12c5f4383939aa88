package services

import "context"

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	stageKey         contextKey = "stage"
	taskTypeKey      contextKey = "task_type"
)

// WithCorrelationID annotates context with the correlation identifier that
// threads one ingress request through the system.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation identifier if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(correlationIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the processing stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTaskType annotates context with the dispatch task type.
func WithTaskType(ctx context.Context, task string) context.Context {
	if task == "" {
		return ctx
	}
	return context.WithValue(ctx, taskTypeKey, task)
}

// TaskTypeFromContext returns the dispatch task type if present.
func TaskTypeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskTypeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
