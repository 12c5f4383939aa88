// Package status derives correlation-scoped progress views by replaying the
// event log. Derivation is pure: repeated queries over an unchanged log yield
// identical results, and an id with no events reports StateUnknown rather
// than an error.
package status

import (
	"context"
	"time"

	"echonexus/internal/memory"
)

// State summarizes where a correlation id's run currently stands.
type State string

const (
	StateUnknown     State = "unknown"
	StateInProgress  State = "in_progress"
	StateCompleted   State = "completed"
	StateQuarantined State = "quarantined"
	StateFailed      State = "failed"
)

// DocumentStatus is the derived view of one document pipeline run.
type DocumentStatus struct {
	CorrelationID    string    `json:"correlation_id"`
	State            State     `json:"state"`
	Category         string    `json:"category,omitempty"`
	Workflow         []string  `json:"workflow,omitempty"`
	CompletedModules int       `json:"completed_modules"`
	CurrentModule    string    `json:"current_module,omitempty"`
	FinalPath        string    `json:"final_path,omitempty"`
	QuarantinedPath  string    `json:"quarantined_path,omitempty"`
	Error            string    `json:"error,omitempty"`
	LastUpdated      time.Time `json:"last_updated,omitzero"`
	EventCount       int       `json:"event_count"`
}

// CreativeStatus is the derived view of one creative cycle run. Input carries
// the text modality of the initiating stimulus; Modalities lists everything
// the cycle perceived.
type CreativeStatus struct {
	CorrelationID string    `json:"correlation_id"`
	State         State     `json:"state"`
	Input         string    `json:"input,omitempty"`
	Modalities    []string  `json:"modalities,omitempty"`
	FinalOutput   string    `json:"final_output,omitempty"`
	Iterations    int       `json:"iterations,omitempty"`
	Error         string    `json:"error,omitempty"`
	LastUpdated   time.Time `json:"last_updated,omitzero"`
}

// Reporter answers status queries against the event log.
type Reporter struct {
	events *memory.Log
}

// NewReporter builds a reporter over the event log.
func NewReporter(events *memory.Log) *Reporter {
	return &Reporter{events: events}
}

// Document replays the correlation id's events newest-first and derives the
// document pipeline status.
func (r *Reporter) Document(ctx context.Context, correlationID string) (*DocumentStatus, error) {
	events, err := r.events.Query(ctx, correlationID, memory.DefaultQueryLimit)
	if err != nil {
		return nil, err
	}

	st := &DocumentStatus{
		CorrelationID: correlationID,
		State:         StateUnknown,
		EventCount:    len(events),
	}
	if len(events) == 0 {
		return st, nil
	}
	st.LastUpdated = events[0].Timestamp
	st.State = StateInProgress

	// Newest-first walk: the first terminal event decides the state, the
	// first module_execution seen is the most recent one.
	for _, event := range events {
		switch event.Type {
		case memory.EventProcessingComplete:
			if st.State == StateInProgress {
				st.State = StateCompleted
			}
			st.FinalPath = stringField(event.Payload, "final_path")
		case memory.EventProcessingError:
			if st.State == StateInProgress {
				st.State = StateQuarantined
			}
			st.Error = stringField(event.Payload, "error")
			st.QuarantinedPath = stringField(event.Payload, "quarantined_path")
		case memory.EventIngestionError:
			if st.State == StateInProgress {
				st.State = StateFailed
			}
			if st.Error == "" {
				st.Error = stringField(event.Payload, "error")
			}
		case memory.EventModuleExecution:
			if st.CurrentModule == "" {
				st.CurrentModule = stringField(event.Payload, "module")
			}
			st.CompletedModules++
		case memory.EventWorkflowAssembly:
			if st.Workflow == nil {
				st.Workflow = stringSliceField(event.Payload, "workflow")
			}
		case memory.EventClassification:
			if st.Category == "" {
				st.Category = stringField(event.Payload, "agi_determined_type")
			}
		}
	}
	return st, nil
}

// Creative replays the correlation id's events and derives the creative
// cycle status, surfacing the rendered output once the cycle completes.
func (r *Reporter) Creative(ctx context.Context, correlationID string) (*CreativeStatus, error) {
	events, err := r.events.Query(ctx, correlationID, memory.DefaultQueryLimit)
	if err != nil {
		return nil, err
	}

	st := &CreativeStatus{
		CorrelationID: correlationID,
		State:         StateUnknown,
	}
	if len(events) == 0 {
		return st, nil
	}
	st.LastUpdated = events[0].Timestamp
	st.State = StateInProgress

	for _, event := range events {
		switch event.Type {
		case memory.EventCreativeCompletion:
			if st.State == StateInProgress {
				st.State = StateCompleted
			}
			st.FinalOutput = stringField(event.Payload, "final_output")
			if n, ok := intField(event.Payload, "iterations"); ok {
				st.Iterations = n
			}
		case memory.EventCreativeError:
			if st.State == StateInProgress {
				st.State = StateFailed
			}
			st.Error = stringField(event.Payload, "error")
		case memory.EventCreativeInitiation:
			if st.Input == "" {
				st.Input = stringField(mapField(event.Payload, "input"), "text")
			}
			if st.Modalities == nil {
				st.Modalities = stringSliceField(event.Payload, "modalities")
			}
		}
	}
	return st, nil
}

// Recent returns the newest events, system-wide when correlationID is empty.
func (r *Reporter) Recent(ctx context.Context, correlationID string, limit int) ([]memory.Event, error) {
	return r.events.Query(ctx, correlationID, limit)
}

func stringField(payload memory.Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, _ := payload[key].(string)
	return value
}

func mapField(payload memory.Payload, key string) memory.Payload {
	if payload == nil {
		return nil
	}
	value, _ := payload[key].(map[string]any)
	return memory.Payload(value)
}

func stringSliceField(payload memory.Payload, key string) []string {
	if payload == nil {
		return nil
	}
	switch raw := payload[key].(type) {
	case []string:
		cp := make([]string, len(raw))
		copy(cp, raw)
		return cp
	case []any:
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func intField(payload memory.Payload, key string) (int, bool) {
	if payload == nil {
		return 0, false
	}
	switch v := payload[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
