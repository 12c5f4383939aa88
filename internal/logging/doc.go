// Package logging configures slog-based structured logging for echonexus.
//
// New builds a logger with either the console (pretty) handler or the JSON
// handler, writing to stdout/stderr and an optional log file. Attr helpers
// and standardized field keys keep log output uniform; WithContext derives
// correlation and stage fields from a request context.
package logging
