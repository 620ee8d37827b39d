// Package spool persists watched task events in a local SQLite database.
//
// The spool lets watch sessions survive restarts without refetching whole
// logs: events are appended with a per-task sequence number, and resuming
// asks the executor only for events past the highest spooled sequence.
package spool

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS tasks (
	task_id    TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'pending',
	last_seq   INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS task_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id      TEXT NOT NULL,
	seq_no       INTEGER NOT NULL,
	event_id     TEXT NOT NULL,
	event_type   TEXT NOT NULL,
	timestamp    INTEGER NOT NULL,
	payload_json TEXT NOT NULL DEFAULT '{}',
	UNIQUE(task_id, seq_no),
	UNIQUE(task_id, event_id)
);
CREATE INDEX IF NOT EXISTS idx_task_events_task_seq ON task_events(task_id, seq_no);
`

// Spool is a handle to the local event database.
type Spool struct {
	db *sql.DB
}

// Open opens (or creates) the spool database at path with WAL pragmas and
// runs the schema migration.
func Open(path string) (*Spool, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}

	// WAL allows concurrent readers but a single writer; one connection
	// keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schemaV1); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate spool schema: %w", err)
	}
	return &Spool{db: db}, nil
}

// Close releases the database handle.
func (s *Spool) Close() error {
	return s.db.Close()
}
