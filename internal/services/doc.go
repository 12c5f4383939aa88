// Package services defines shared utilities consumed by the pipeline runner,
// the creative conductor, and the HTTP boundary.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     reporting consistent across components.
//
// Use these helpers when wiring new processing logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
