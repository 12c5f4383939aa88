// Package memory persists the append-only event log in SQLite.
//
// The Log is the sole source of truth for status queries: every pipeline
// transition, chat exchange, and creative cycle records one immutable,
// timestamped, typed event, optionally keyed by correlation id. The package
// exposes exactly two operations, Append and Query; no update or delete
// statements exist anywhere in it.
//
// Schema changes bump the version in schema.go; the database is transient
// operational state, so adopting a new schema means clearing the old file.
package memory
