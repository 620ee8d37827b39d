package spool

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"taskline/internal/event"
)

// Append stores one event and returns its sequence number. Appending an
// event id the spool already holds is a no-op returning the original
// sequence, so replaying an overlapping stream is safe.
func (s *Spool) Append(ctx context.Context, ev event.TaskEvent) (int64, error) {
	if ev.TaskID == "" || ev.ID == "" {
		return 0, fmt.Errorf("spool: event needs task id and event id")
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (task_id, updated_at) VALUES (?, ?) ON CONFLICT(task_id) DO NOTHING`,
		ev.TaskID, ev.Timestamp/1000); err != nil {
		return 0, fmt.Errorf("ensure task row: %w", err)
	}

	var lastSeq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT last_seq FROM tasks WHERE task_id = ?`, ev.TaskID).Scan(&lastSeq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	next := lastSeq + 1

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO task_events (task_id, seq_no, event_id, event_type, timestamp, payload_json)
VALUES (?, ?, ?, ?, ?, ?)`,
		ev.TaskID, next, ev.ID, string(ev.Type), ev.Timestamp, string(payload))
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	if inserted == 0 {
		var seq int64
		if err := tx.QueryRowContext(ctx,
			`SELECT seq_no FROM task_events WHERE task_id = ? AND event_id = ?`,
			ev.TaskID, ev.ID).Scan(&seq); err != nil {
			return 0, fmt.Errorf("read duplicate seq: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit append: %w", err)
		}
		return seq, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET last_seq = ?, updated_at = ? WHERE task_id = ?`,
		next, ev.Timestamp/1000, ev.TaskID); err != nil {
		return 0, fmt.Errorf("advance last seq: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return next, nil
}

// Events returns a task's spooled events with sequence numbers greater
// than sinceSeq, in sequence order.
func (s *Spool) Events(ctx context.Context, taskID string, sinceSeq int64) ([]event.TaskEvent, error) {
	const q = `SELECT event_id, event_type, timestamp, payload_json
FROM task_events
WHERE task_id = ? AND seq_no > ?
ORDER BY seq_no ASC`

	rows, err := s.db.QueryContext(ctx, q, taskID, sinceSeq)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.TaskEvent
	for rows.Next() {
		var (
			ev      event.TaskEvent
			kind    string
			payload string
		)
		if err := rows.Scan(&ev.ID, &kind, &ev.Timestamp, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.TaskID = taskID
		ev.Type = event.Type(kind)
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode payload for %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LastSeq returns the highest sequence number spooled for a task, or 0
// when the task is unknown.
func (s *Spool) LastSeq(ctx context.Context, taskID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_seq FROM tasks WHERE task_id = ?`, taskID).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}
