package spool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskline/internal/event"
)

// ErrNotFound reports a task id with no spool record.
var ErrNotFound = errors.New("spool: task not found")

// TaskInfo is the spool's record of one watched task.
type TaskInfo struct {
	TaskID    string
	Title     string
	Status    event.Status
	LastSeq   int64
	UpdatedAt time.Time
}

// SetTask upserts a task's metadata. Empty title or status leave the
// stored values alone so partial updates are cheap.
func (s *Spool) SetTask(ctx context.Context, taskID, title string, status event.Status) error {
	const q = `INSERT INTO tasks (task_id, title, status, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(task_id) DO UPDATE SET
	title      = CASE WHEN excluded.title  = '' THEN tasks.title  ELSE excluded.title  END,
	status     = CASE WHEN excluded.status = '' THEN tasks.status ELSE excluded.status END,
	updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, q, taskID, title, string(status), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// Task returns one task's metadata.
func (s *Spool) Task(ctx context.Context, taskID string) (TaskInfo, error) {
	const q = `SELECT task_id, title, status, last_seq, updated_at FROM tasks WHERE task_id = ?`
	info, err := scanTask(s.db.QueryRowContext(ctx, q, taskID))
	if err == sql.ErrNoRows {
		return TaskInfo{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return TaskInfo{}, fmt.Errorf("read task: %w", err)
	}
	return info, nil
}

// Tasks lists every spooled task, most recently updated first.
func (s *Spool) Tasks(ctx context.Context) ([]TaskInfo, error) {
	const q = `SELECT task_id, title, status, last_seq, updated_at FROM tasks ORDER BY updated_at DESC, task_id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var infos []TaskInfo
	for rows.Next() {
		info, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (TaskInfo, error) {
	var (
		info   TaskInfo
		status string
		at     int64
	)
	if err := row.Scan(&info.TaskID, &info.Title, &status, &info.LastSeq, &at); err != nil {
		return TaskInfo{}, err
	}
	info.Status = event.Status(status)
	info.UpdatedAt = time.Unix(at, 0)
	return info, nil
}
