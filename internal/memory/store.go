package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	_ "modernc.org/sqlite"

	"echonexus/internal/config"
)

// DefaultQueryLimit bounds event replay when callers pass a non-positive limit.
const DefaultQueryLimit = 50

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const eventIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const eventIDLength = 12

// Log manages event persistence backed by SQLite.
type Log struct {
	db   *sql.DB
	path string
}

// The sqlite busy_timeout pragma only binds to the connection it ran on, and
// database/sql pools connections, so concurrent appends can still surface
// SQLITE_BUSY. Lock contention is retried here with backoff instead.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the event log database.
func Open(cfg *config.Config) (*Log, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "events.db")
	return OpenPath(dbPath)
}

// OpenPath opens the event log at an explicit database path.
func OpenPath(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	log := &Log{db: db, path: dbPath}
	if err := log.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return log, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Path returns the database file location.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append durably records one event. Each append is a single atomic INSERT;
// concurrent appends from in-flight pipelines cannot interleave within a
// record, and lock contention between them is retried with backoff. Only a
// genuine storage fault surfaces as an error.
func (l *Log) Append(ctx context.Context, eventType EventType, correlationID string, payload Payload) (*Event, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("event log is not open")
	}
	if eventType == "" {
		return nil, errors.New("event type is required")
	}
	if payload == nil {
		payload = Payload{}
	}

	id, err := nanoid.Generate(eventIDAlphabet, eventIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now().UTC()
	err = retryOnBusy(ctx, func() error {
		_, execErr := l.db.ExecContext(
			ctx,
			`INSERT INTO events (id, timestamp, event_type, correlation_id, payload_json)
             VALUES (?, ?, ?, ?, ?)`,
			id,
			now.Format(time.RFC3339Nano),
			string(eventType),
			nullableString(correlationID),
			string(payloadJSON),
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	return &Event{
		ID:            id,
		Timestamp:     now,
		Type:          eventType,
		CorrelationID: correlationID,
		Payload:       payload,
	}, nil
}

// Query returns events newest-first, truncated to limit. An empty
// correlationID returns the most recent events system-wide. An id with no
// events yields an empty slice, not an error.
func (l *Log) Query(ctx context.Context, correlationID string, limit int) ([]Event, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("event log is not open")
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT id, timestamp, event_type, correlation_id, payload_json FROM events`
	order := ` ORDER BY timestamp DESC, seq DESC LIMIT ?`
	err = retryOnBusy(ctx, func() error {
		var queryErr error
		if strings.TrimSpace(correlationID) == "" {
			rows, queryErr = l.db.QueryContext(ctx, base+order, limit)
		} else {
			rows, queryErr = l.db.QueryContext(ctx, base+` WHERE correlation_id = ?`+order, correlationID, limit)
		}
		return queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		event       Event
		timestamp   string
		eventType   string
		correlation sql.NullString
		payloadJSON string
	)
	if err := rows.Scan(&event.ID, &timestamp, &eventType, &correlation, &payloadJSON); err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("parse event timestamp %q: %w", timestamp, err)
	}
	event.Timestamp = parsed
	event.Type = EventType(eventType)
	if correlation.Valid {
		event.CorrelationID = correlation.String
	}

	payload := Payload{}
	if payloadJSON != "" {
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return Event{}, fmt.Errorf("parse event payload: %w", err)
		}
	}
	event.Payload = payload
	return event, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
