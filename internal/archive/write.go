package archive

import (
	"context"
	"database/sql"
	"fmt"
)

// Store writes a rollup, replacing any earlier archive of the same task.
// Re-archiving after more events arrive refreshes the stored run.
func Store(ctx context.Context, db *sql.DB, r Rollup) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM tool_usage WHERE task_id = ?`,
		`DELETE FROM task_steps WHERE task_id = ?`,
		`DELETE FROM task_runs WHERE task_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, r.TaskID); err != nil {
			return fmt.Errorf("clear previous archive: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO task_runs
(run_id, task_id, title, status, started_at_ms, finished_at_ms, elapsed_ms, event_count, visible_count, blocked_count, last_error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.TaskID, r.Title, string(r.Status),
		r.StartedAtMS, r.FinishedAtMS, r.ElapsedMS,
		r.EventCount, r.VisibleCount, r.BlockedCount, r.LastError,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, step := range r.Steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_steps (task_id, step_id, description, started_at_ms, duration_ms, outcome)
VALUES (?, ?, ?, ?, ?, ?)`,
			r.TaskID, step.StepID, step.Description, step.StartedAtMS, step.DurationMS, step.Outcome,
		); err != nil {
			return fmt.Errorf("insert step %s: %w", step.StepID, err)
		}
	}

	for _, tool := range r.Tools {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tool_usage (task_id, tool, calls, blocked, duration_ms)
VALUES (?, ?, ?, ?, ?)`,
			r.TaskID, tool.Tool, tool.Calls, tool.Blocked, tool.DurationMS,
		); err != nil {
			return fmt.Errorf("insert tool %s: %w", tool.Tool, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	return nil
}
