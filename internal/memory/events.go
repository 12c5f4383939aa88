package memory

import (
	"strings"
	"time"
)

// EventType tags an event record with its place in the fixed vocabulary.
type EventType string

const (
	EventIngestionStart     EventType = "document_ingestion_start"
	EventClassification     EventType = "document_classification"
	EventWorkflowAssembly   EventType = "workflow_assembly"
	EventModuleExecution    EventType = "module_execution"
	EventProcessingComplete EventType = "document_processing_complete"
	EventLearningCycle      EventType = "agi_learning_cycle"
	EventProcessingError    EventType = "document_processing_error"
	EventIngestionError     EventType = "document_ingestion_error"
	EventUserChatMessage    EventType = "user_chat_message"
	EventChatResponse       EventType = "agi_chat_response"
	EventCreativeInitiation EventType = "creative_cycle_initiation"
	EventCreativeCompletion EventType = "creative_cycle_completion"
	EventCreativeError      EventType = "creative_cycle_error"
)

var allEventTypes = []EventType{
	EventIngestionStart,
	EventClassification,
	EventWorkflowAssembly,
	EventModuleExecution,
	EventProcessingComplete,
	EventLearningCycle,
	EventProcessingError,
	EventIngestionError,
	EventUserChatMessage,
	EventChatResponse,
	EventCreativeInitiation,
	EventCreativeCompletion,
	EventCreativeError,
}

var eventTypeSet = func() map[EventType]struct{} {
	set := make(map[EventType]struct{}, len(allEventTypes))
	for _, t := range allEventTypes {
		set[t] = struct{}{}
	}
	return set
}()

// AllEventTypes returns the ordered fixed vocabulary of event tags.
func AllEventTypes() []EventType {
	cp := make([]EventType, len(allEventTypes))
	copy(cp, allEventTypes)
	return cp
}

// ParseEventType converts a string into a known EventType.
func ParseEventType(value string) (EventType, bool) {
	normalized := EventType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := eventTypeSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether an event type ends a correlation id's run.
// Status derivation treats any *_complete or *_error tag as terminal.
func (t EventType) IsTerminal() bool {
	s := string(t)
	return strings.HasSuffix(s, "_complete") ||
		strings.HasSuffix(s, "_completion") ||
		strings.HasSuffix(s, "_error")
}

// IsError reports whether a terminal event type represents a failure.
func (t EventType) IsError() bool {
	return strings.HasSuffix(string(t), "_error")
}

// Payload carries the structured data attached to an event. Values are
// anything JSON-representable.
type Payload map[string]any

// Event is one immutable record in the log. Events are never mutated or
// deleted during the process lifetime.
type Event struct {
	ID            string
	Timestamp     time.Time
	Type          EventType
	CorrelationID string
	Payload       Payload
}
