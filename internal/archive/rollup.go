package archive

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"taskline/internal/event"
	"taskline/internal/timeline"
)

// Step outcomes recorded in the archive. Abandoned marks a step that was
// started but never reported a terminal event.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeAbandoned = "abandoned"
)

// Rollup is the archived form of one task run.
type Rollup struct {
	RunID        string
	TaskID       string
	Title        string
	Status       event.Status
	StartedAtMS  int64
	FinishedAtMS int64
	ElapsedMS    int64
	EventCount   int
	VisibleCount int
	BlockedCount int
	LastError    string
	Steps        []StepRollup
	Tools        []ToolRollup
}

// StepRollup is one step's lifecycle summary.
type StepRollup struct {
	StepID      string
	Description string
	StartedAtMS int64
	DurationMS  int64
	Outcome     string
}

// ToolRollup aggregates one tool's activity over the run.
type ToolRollup struct {
	Tool       string
	Calls      int
	Blocked    int
	DurationMS int64
}

// BuildRollup folds a task's event log into its archive form. The headline
// numbers come from the same derivations the live view uses, so the
// archive never disagrees with what the watcher displayed.
func BuildRollup(taskID string, log []event.TaskEvent, status event.Status, now time.Time) Rollup {
	snap := timeline.Derive(taskID, log, status, now)

	r := Rollup{
		RunID:        uuid.NewString(),
		TaskID:       taskID,
		Title:        snap.Title,
		Status:       snap.Status,
		ElapsedMS:    snap.Elapsed.Milliseconds(),
		EventCount:   len(log),
		VisibleCount: len(snap.Visible),
		BlockedCount: snap.BlockedCount,
		LastError:    snap.LastError,
		Steps:        stepRollups(snap.Visible),
		Tools:        toolRollups(log),
	}
	if len(snap.Visible) > 0 {
		r.StartedAtMS = snap.Visible[0].Timestamp
		r.FinishedAtMS = snap.Visible[len(snap.Visible)-1].Timestamp
	}
	return r
}

// stepRollups pairs step starts with their terminal events. A restart of
// the same step id resets its start; a terminal event without a live start
// is ignored, matching the tracker's correlation rules.
func stepRollups(events []event.TaskEvent) []StepRollup {
	byID := map[string]*StepRollup{}
	var order []string

	for _, ev := range events {
		step, ok := ev.Step()
		if !ok || step.ID == "" {
			continue
		}
		switch ev.Type {
		case event.StepStarted:
			r, seen := byID[step.ID]
			if !seen {
				r = &StepRollup{StepID: step.ID, Outcome: OutcomeAbandoned}
				byID[step.ID] = r
				order = append(order, step.ID)
			}
			r.StartedAtMS = ev.Timestamp
			r.Outcome = OutcomeAbandoned
			if step.Description != "" {
				r.Description = step.Description
			}
		case event.StepCompleted, event.StepFailed, event.StepSkipped:
			r, seen := byID[step.ID]
			if !seen {
				continue
			}
			r.DurationMS = ev.Timestamp - r.StartedAtMS
			switch ev.Type {
			case event.StepCompleted:
				r.Outcome = OutcomeCompleted
			case event.StepFailed:
				r.Outcome = OutcomeFailed
			case event.StepSkipped:
				r.Outcome = OutcomeSkipped
			}
			if r.Description == "" && step.Description != "" {
				r.Description = step.Description
			}
		}
	}

	out := make([]StepRollup, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// toolRollups aggregates tool calls, results and blocks over the raw log.
func toolRollups(log []event.TaskEvent) []ToolRollup {
	byTool := map[string]*ToolRollup{}
	get := func(tool string) *ToolRollup {
		r, ok := byTool[tool]
		if !ok {
			r = &ToolRollup{Tool: tool}
			byTool[tool] = r
		}
		return r
	}

	for _, ev := range log {
		tool := ev.Payload.Tool
		if tool == "" {
			continue
		}
		switch ev.Type {
		case event.ToolCall:
			get(tool).Calls++
		case event.ToolResult:
			get(tool).DurationMS += ev.Payload.DurationMS
		case event.ToolBlocked:
			get(tool).Blocked++
		}
	}

	out := make([]ToolRollup, 0, len(byTool))
	for _, r := range byTool {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out
}
