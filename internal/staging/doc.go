// Package staging writes inbound document bytes into the staging directory
// and tracks each item while it is in flight.
//
// Every staged file is named <correlation_id>_<sanitized original name>, so
// concurrently processed items can never collide on disk. Relocation out of
// staging (to a category destination or quarantine) is the pipeline's
// terminal responsibility; an item is never left behind in the staging
// directory regardless of outcome.
package staging
