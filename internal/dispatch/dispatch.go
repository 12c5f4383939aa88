// Package dispatch routes interactive tasks to their handlers by task type.
// Chat reasoning is the only fully wired handler today; the remaining task
// types are registered with placeholder handlers so the routing surface and
// event trail stay uniform as real backends land.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"echonexus/internal/logging"
	"echonexus/internal/memory"
	"echonexus/internal/services"
)

// TaskType identifies a dispatchable unit of interactive work.
type TaskType string

const (
	TaskChatReasoning   TaskType = "chat_reasoning"
	TaskCodeAnalysis    TaskType = "code_analysis"
	TaskVision          TaskType = "vision"
	TaskDocumentSubtask TaskType = "document_processing_subtask"
)

// ErrUnhandledTask is returned when no handler is registered for a task type.
var ErrUnhandledTask = errors.New("unhandled task type")

// ParseTaskType converts a string into a known TaskType.
func ParseTaskType(value string) (TaskType, bool) {
	normalized := TaskType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TaskChatReasoning, TaskCodeAnalysis, TaskVision, TaskDocumentSubtask:
		return normalized, true
	}
	return "", false
}

// Task is one unit of interactive work. Context carries the caller's memory
// cues and is handed to the handler alongside the input.
type Task struct {
	Type          TaskType
	CorrelationID string
	Input         string
	Context       map[string]any
}

// Result is the handler's reply to a task.
type Result struct {
	CorrelationID string `json:"correlation_id"`
	TaskType      string `json:"task_type"`
	Output        string `json:"output"`
}

// Handler processes one task.
type Handler func(ctx context.Context, task Task) (*Result, error)

// Dispatcher routes tasks to registered handlers.
type Dispatcher struct {
	events   *memory.Log
	logger   *slog.Logger
	handlers map[TaskType]Handler
}

// NewDispatcher builds a dispatcher with the default handler set.
func NewDispatcher(events *memory.Log, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		events:   events,
		logger:   logging.NewComponentLogger(logger, "dispatch"),
		handlers: make(map[TaskType]Handler),
	}
	d.Register(TaskChatReasoning, d.chatReasoning)
	d.Register(TaskCodeAnalysis, placeholder(TaskCodeAnalysis))
	d.Register(TaskVision, placeholder(TaskVision))
	d.Register(TaskDocumentSubtask, placeholder(TaskDocumentSubtask))
	return d
}

// Register installs or replaces the handler for a task type.
func (d *Dispatcher) Register(taskType TaskType, handler Handler) {
	d.handlers[taskType] = handler
}

// Dispatch routes the task to its handler. A fresh correlation id is
// assigned when the task does not carry one.
func (d *Dispatcher) Dispatch(ctx context.Context, task Task) (*Result, error) {
	handler, ok := d.handlers[task.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnhandledTask, task.Type)
	}
	if task.CorrelationID == "" {
		task.CorrelationID = uuid.New().String()
	}
	ctx = services.WithCorrelationID(ctx, task.CorrelationID)
	ctx = services.WithTaskType(ctx, string(task.Type))

	result, err := handler(ctx, task)
	if err != nil {
		logging.WithContext(ctx, d.logger).Error("task failed", logging.Args(logging.Error(err))...)
		return nil, err
	}
	return result, nil
}

// chatReasoning records the user message with its memory context, produces
// the canned reasoning reply, and records the response under the same
// correlation id.
func (d *Dispatcher) chatReasoning(ctx context.Context, task Task) (*Result, error) {
	message := strings.TrimSpace(task.Input)
	if message == "" {
		return nil, services.Wrap(services.ErrValidation, "dispatch", "chat", "message is required", nil)
	}
	messagePayload := memory.Payload{"message": message}
	if len(task.Context) > 0 {
		messagePayload["context"] = task.Context
	}
	if _, err := d.events.Append(ctx, memory.EventUserChatMessage, task.CorrelationID, messagePayload); err != nil {
		return nil, services.Wrap(services.ErrStage, "dispatch", "chat", "record user message", err)
	}

	reply := fmt.Sprintf("Acknowledged. I have integrated %q into my current reasoning context.", message)
	if len(task.Context) > 0 {
		reply = fmt.Sprintf("Acknowledged. I have integrated %q (context: %s) into my current reasoning context.",
			message, formatContext(task.Context))
	}
	if _, err := d.events.Append(ctx, memory.EventChatResponse, task.CorrelationID, memory.Payload{
		"response": reply,
	}); err != nil {
		return nil, services.Wrap(services.ErrStage, "dispatch", "chat", "record response", err)
	}

	logging.WithContext(ctx, d.logger).Info("chat exchange recorded")
	return &Result{CorrelationID: task.CorrelationID, TaskType: string(task.Type), Output: reply}, nil
}

// formatContext renders memory cues as sorted key=value pairs so replies and
// logs stay deterministic.
func formatContext(cues map[string]any) string {
	keys := make([]string, 0, len(cues))
	for key := range cues {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, cues[key]))
	}
	return strings.Join(parts, ", ")
}

func placeholder(taskType TaskType) Handler {
	return func(_ context.Context, task Task) (*Result, error) {
		return &Result{
			CorrelationID: task.CorrelationID,
			TaskType:      string(taskType),
			Output:        fmt.Sprintf("task type %s accepted; backend not yet provisioned", taskType),
		}, nil
	}
}
