// Package pipeline drives staged documents through classification, workflow
// assembly, and module execution, emitting one event per state transition.
//
// The runner is a straight-line state machine per item: ingestion start,
// classification, workflow assembly, one module_execution event per stage,
// then exactly one terminal event. Successful runs finish with
// document_processing_complete followed by an agi_learning_cycle record; any
// stage fault quarantines the file and finishes with
// document_processing_error instead. Faults raised before the run starts are
// ingestion faults and surface synchronously to the submitter.
package pipeline
