// ABOUTME: Database operations for load_log and load_state tables
// ABOUTME: Journal records every dashboard load so history and status survive restarts
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/salesdash/loader"
)

// DashboardScope is the load_state row the dashboard writes.
const DashboardScope = "dashboard"

// DefaultMaxRows bounds load_log.
const DefaultMaxRows = 1000

// LoadEntry is one load_log row.
type LoadEntry struct {
	ID           string
	Trigger      string
	Outcome      string
	Filters      string
	StartedAt    time.Time
	Duration     time.Duration
	Attempt      int
	ErrorKind    *string
	ErrorMessage *string
}

// LoadState summarizes the most recent loads for a scope.
type LoadState struct {
	Scope         string
	Status        string
	LastAttemptAt time.Time
	LastSuccessAt *time.Time
	LastFilters   *string
	ErrorMessage  *string
	UpdatedAt     time.Time
}

// CreateLoadEntry inserts a load_log row. An empty ID gets a new UUID.
func CreateLoadEntry(db *sql.DB, entry *LoadEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	_, err := db.Exec(`
		INSERT INTO load_log (id, load_trigger, outcome, filters, started_at, duration_ms, attempt, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Trigger, entry.Outcome, entry.Filters, entry.StartedAt.UTC(),
		entry.Duration.Milliseconds(), entry.Attempt, nullString(entry.ErrorKind), nullString(entry.ErrorMessage))

	if err != nil {
		return fmt.Errorf("failed to create load entry: %w", err)
	}

	return nil
}

// RecentLoads returns up to limit load_log rows, newest first.
func RecentLoads(db *sql.DB, limit int) ([]LoadEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, load_trigger, outcome, filters, started_at, duration_ms, attempt, error_kind, error_message
		FROM load_log
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []LoadEntry
	for rows.Next() {
		var entry LoadEntry
		var durationMS int64
		var errorKind sql.NullString
		var errorMessage sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.Trigger,
			&entry.Outcome,
			&entry.Filters,
			&entry.StartedAt,
			&durationMS,
			&entry.Attempt,
			&errorKind,
			&errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load entry: %w", err)
		}

		entry.Duration = time.Duration(durationMS) * time.Millisecond
		if errorKind.Valid {
			entry.ErrorKind = &errorKind.String
		}
		if errorMessage.Valid {
			entry.ErrorMessage = &errorMessage.String
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loads: %w", err)
	}

	return entries, nil
}

// PruneLoads keeps only the newest keep rows.
func PruneLoads(db *sql.DB, keep int) (int64, error) {
	res, err := db.Exec(`
		DELETE FROM load_log
		WHERE id NOT IN (
			SELECT id FROM load_log ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune loads: %w", err)
	}
	return res.RowsAffected()
}

// GetLoadState retrieves the load state for a scope, or nil if none was written.
func GetLoadState(db *sql.DB, scope string) (*LoadState, error) {
	var state LoadState
	var lastSuccess sql.NullTime
	var lastFilters sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT scope, status, last_attempt_at, last_success_at, last_filters, error_message, updated_at
		FROM load_state
		WHERE scope = ?
	`, scope).Scan(
		&state.Scope,
		&state.Status,
		&state.LastAttemptAt,
		&lastSuccess,
		&lastFilters,
		&errorMessage,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get load state: %w", err)
	}

	if lastSuccess.Valid {
		state.LastSuccessAt = &lastSuccess.Time
	}
	if lastFilters.Valid {
		state.LastFilters = &lastFilters.String
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateLoadState upserts the state for a scope. A successful load also
// moves last_success_at and clears the error.
func UpdateLoadState(db *sql.DB, scope, status string, at time.Time, filters string, errorMsg *string) error {
	var lastSuccess sql.NullTime
	if status == "ok" {
		lastSuccess = sql.NullTime{Time: at.UTC(), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO load_state (scope, status, last_attempt_at, last_success_at, last_filters, error_message, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scope) DO UPDATE SET
			status = excluded.status,
			last_attempt_at = excluded.last_attempt_at,
			last_success_at = COALESCE(excluded.last_success_at, load_state.last_success_at),
			last_filters = excluded.last_filters,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, scope, status, at.UTC(), lastSuccess, filters, nullString(errorMsg))

	if err != nil {
		return fmt.Errorf("failed to update load state: %w", err)
	}

	return nil
}

// Journal adapts the load tables to loader.Recorder.
type Journal struct {
	db      *sql.DB
	maxRows int
}

// NewJournal wraps an open database. maxRows <= 0 uses DefaultMaxRows.
func NewJournal(db *sql.DB, maxRows int) *Journal {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Journal{db: db, maxRows: maxRows}
}

// RecordLoad writes rec to load_log and folds it into the dashboard state.
// Dropped triggers never reached the network and only go to load_log.
func (j *Journal) RecordLoad(ctx context.Context, rec loader.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := &LoadEntry{
		Trigger:   rec.Trigger.String(),
		Outcome:   rec.Outcome.String(),
		Filters:   rec.Filters,
		StartedAt: rec.StartedAt,
		Duration:  rec.Duration,
		Attempt:   rec.Attempt,
	}
	if rec.ErrorKind != "" && rec.Error != "" {
		entry.ErrorKind = &rec.ErrorKind
	}
	if rec.Error != "" {
		entry.ErrorMessage = &rec.Error
	}
	if err := CreateLoadEntry(j.db, entry); err != nil {
		return err
	}

	if status, ok := stateFor(rec.Outcome); ok {
		if err := UpdateLoadState(j.db, DashboardScope, status, rec.StartedAt, rec.Filters, entry.ErrorMessage); err != nil {
			return err
		}
	}

	if _, err := PruneLoads(j.db, j.maxRows); err != nil {
		return err
	}
	return nil
}

// Recent returns the newest journal rows.
func (j *Journal) Recent(limit int) ([]LoadEntry, error) {
	return RecentLoads(j.db, limit)
}

// State returns the dashboard load state, or nil before the first load.
func (j *Journal) State() (*LoadState, error) {
	return GetLoadState(j.db, DashboardScope)
}

func stateFor(o loader.Outcome) (string, bool) {
	switch o {
	case loader.OutcomeSuccess:
		return "ok", true
	case loader.OutcomeCached:
		return "cached", true
	case loader.OutcomeFailed, loader.OutcomeFallback, loader.OutcomeRetryScheduled:
		return "error", true
	default:
		return "", false
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
