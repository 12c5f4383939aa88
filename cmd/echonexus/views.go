package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

type acceptedView struct {
	CorrelationID string `json:"correlation_id"`
	State         string `json:"state"`
}

type documentStatusView struct {
	CorrelationID    string    `json:"correlation_id"`
	State            string    `json:"state"`
	Category         string    `json:"category"`
	Workflow         []string  `json:"workflow"`
	CompletedModules int       `json:"completed_modules"`
	CurrentModule    string    `json:"current_module"`
	FinalPath        string    `json:"final_path"`
	QuarantinedPath  string    `json:"quarantined_path"`
	Error            string    `json:"error"`
	LastUpdated      time.Time `json:"last_updated"`
	EventCount       int       `json:"event_count"`
}

type creativeStatusView struct {
	CorrelationID string   `json:"correlation_id"`
	State         string   `json:"state"`
	Input         string   `json:"input"`
	Modalities    []string `json:"modalities"`
	FinalOutput   string   `json:"final_output"`
	Iterations    int      `json:"iterations"`
	Error         string   `json:"error"`
}

type chatResultView struct {
	CorrelationID string `json:"correlation_id"`
	TaskType      string `json:"task_type"`
	Output        string `json:"output"`
}

type eventView struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	CorrelationID string         `json:"correlation_id"`
	Payload       map[string]any `json:"payload"`
}

type eventsView struct {
	Events []eventView `json:"events"`
}

type healthView struct {
	Running      bool   `json:"running"`
	Workers      int    `json:"workers"`
	EventDBPath  string `json:"event_db_path"`
	LockFilePath string `json:"lock_file_path"`
	APIAddress   string `json:"api_address"`
}

// writeJSON encodes a view as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
