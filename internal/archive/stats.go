package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskline/internal/event"
)

// Totals are the headline archive counters.
type Totals struct {
	Tasks        int
	Completed    int
	Failed       int
	ElapsedMS    int64
	BlockedCalls int
}

// RunSummary is one archived run as listed by the stats command.
type RunSummary struct {
	TaskID       string
	Title        string
	Status       event.Status
	ElapsedMS    int64
	BlockedCount int
	ArchivedAt   time.Time
}

// ToolStat aggregates one tool across every archived run.
type ToolStat struct {
	Tool       string
	Calls      int
	Blocked    int
	DurationMS int64
}

// StepStat is one step duration, used for the slowest-steps listing.
type StepStat struct {
	TaskID      string
	StepID      string
	Description string
	DurationMS  int64
	Outcome     string
}

// QueryTotals reads the headline counters.
func QueryTotals(ctx context.Context, db *sql.DB) (Totals, error) {
	const q = `
SELECT count(*),
       coalesce(sum(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
       coalesce(sum(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
       coalesce(sum(elapsed_ms), 0),
       coalesce(sum(blocked_count), 0)
FROM task_runs`
	var t Totals
	if err := db.QueryRowContext(ctx, q).Scan(&t.Tasks, &t.Completed, &t.Failed, &t.ElapsedMS, &t.BlockedCalls); err != nil {
		return Totals{}, fmt.Errorf("query totals: %w", err)
	}
	return t, nil
}

// RecentRuns lists archived runs, newest first.
func RecentRuns(ctx context.Context, db *sql.DB, limit int) ([]RunSummary, error) {
	const q = `
SELECT task_id, title, status, elapsed_ms, blocked_count, archived_at
FROM task_runs
ORDER BY archived_at DESC, task_id
LIMIT ?`
	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r      RunSummary
			status string
		)
		if err := rows.Scan(&r.TaskID, &r.Title, &status, &r.ElapsedMS, &r.BlockedCount, &r.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = event.Status(status)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TopTools lists tools by call volume across the whole archive.
func TopTools(ctx context.Context, db *sql.DB, limit int) ([]ToolStat, error) {
	const q = `
SELECT tool, sum(calls), sum(blocked), sum(duration_ms)
FROM tool_usage
GROUP BY tool
ORDER BY sum(calls) DESC, tool
LIMIT ?`
	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query tools: %w", err)
	}
	defer rows.Close()

	var tools []ToolStat
	for rows.Next() {
		var t ToolStat
		if err := rows.Scan(&t.Tool, &t.Calls, &t.Blocked, &t.DurationMS); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}

// SlowestSteps lists the longest completed or failed steps.
func SlowestSteps(ctx context.Context, db *sql.DB, limit int) ([]StepStat, error) {
	const q = `
SELECT task_id, step_id, description, duration_ms, outcome
FROM task_steps
WHERE outcome IN (?, ?)
ORDER BY duration_ms DESC, task_id, step_id
LIMIT ?`
	rows, err := db.QueryContext(ctx, q, OutcomeCompleted, OutcomeFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []StepStat
	for rows.Next() {
		var s StepStat
		if err := rows.Scan(&s.TaskID, &s.StepID, &s.Description, &s.DurationMS, &s.Outcome); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
