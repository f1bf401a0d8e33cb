// ABOUTME: Database schema for the load journal
// ABOUTME: load_log keeps one row per load attempt, load_state the latest summary per scope
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS load_log (
	id TEXT PRIMARY KEY,
	load_trigger TEXT NOT NULL,
	outcome TEXT NOT NULL,
	filters TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	attempt INTEGER NOT NULL DEFAULT 0,
	error_kind TEXT,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_load_log_started_at ON load_log(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_load_log_outcome ON load_log(outcome);

CREATE TABLE IF NOT EXISTS load_state (
	scope TEXT PRIMARY KEY,
	status TEXT NOT NULL CHECK(status IN ('ok', 'cached', 'error')),
	last_attempt_at DATETIME NOT NULL,
	last_success_at DATETIME,
	last_filters TEXT,
	error_message TEXT,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
