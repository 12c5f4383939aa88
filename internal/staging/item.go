package staging

import (
	"echonexus/internal/classify"
	"echonexus/internal/registry"
)

// Metadata carries the human-supplied hints submitted with a document.
type Metadata struct {
	CategoryHint  string         `json:"document_type,omitempty"`
	Priority      int            `json:"priority"`
	Tags          []string       `json:"tags,omitempty"`
	CustomOptions map[string]any `json:"custom_options,omitempty"`
}

// DefaultPriority is applied when the caller omits a priority hint.
const DefaultPriority = 5

// Normalize clamps priority into the 1-10 contract range, defaulting when unset.
func (m *Metadata) Normalize() {
	if m.Priority == 0 {
		m.Priority = DefaultPriority
	}
	if m.Priority < 1 {
		m.Priority = 1
	}
	if m.Priority > 10 {
		m.Priority = 10
	}
}

// OutcomeState is the terminal disposition of a pipeline run.
type OutcomeState string

const (
	OutcomeCompleted   OutcomeState = "completed"
	OutcomeQuarantined OutcomeState = "quarantined"
)

// Outcome records where an item ended up. Set exactly once per item.
type Outcome struct {
	State     OutcomeState
	FinalPath string
	Reason    string
}

// Item represents an inbound document while in flight through the pipeline.
// CorrelationID is generated at ingress and immutable for the item's
// lifetime; InferredCategory and Plan are assigned once by the runner.
type Item struct {
	CorrelationID string
	SourcePath    string
	OriginalName  string
	Metadata      Metadata

	InferredCategory classify.Category
	Plan             []registry.StageName
	StageIndex       int

	Outcome *Outcome
}

// Signals derives the classifier input from the staged item.
func (i *Item) Signals() classify.Signals {
	return classify.Signals{
		Filename:     i.SourcePath,
		CategoryHint: i.Metadata.CategoryHint,
		Tags:         i.Metadata.Tags,
	}
}

// Terminal reports whether the item has reached its final disposition.
func (i *Item) Terminal() bool {
	return i.Outcome != nil
}
