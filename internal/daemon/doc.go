// Package daemon coordinates the long-running services: the worker pool
// driving document pipeline runs, the creative conductor, the chat
// dispatcher, and the HTTP API. A file lock enforces single-instance
// execution per log directory.
package daemon
