package timeline

import (
	"time"

	"taskline/internal/event"
)

// Snapshot is the full derived state of one task at one instant. It is a
// value: deriving twice from the same inputs yields equal snapshots, and a
// snapshot derived from a prefix never contradicts one derived later.
type Snapshot struct {
	TaskID       string            `json:"taskId"`
	Title        string            `json:"title,omitempty"`
	Status       event.Status      `json:"status"`
	Visible      []event.TaskEvent `json:"visible"`
	ActiveStepID string            `json:"activeStepId,omitempty"`
	BlockedCount int               `json:"blockedCount"`
	BlockedTools []string          `json:"blockedTools,omitempty"`
	Elapsed      time.Duration     `json:"-"`
	ElapsedMS    int64             `json:"elapsedMs"`
	ShowElapsed  bool              `json:"showElapsed"`
	Summaries    []string          `json:"summaries,omitempty"`
	LastError    string            `json:"lastError,omitempty"`
	LastHint     *event.ActionHint `json:"lastHint,omitempty"`
}

// Derive recomputes a Snapshot from the raw log. status may be the value
// reported by the executor; pass "" to reconstruct it from the log instead.
func Derive(taskID string, log []event.TaskEvent, status event.Status, now time.Time) Snapshot {
	if status == "" {
		status = StatusFromLog(log)
	}
	visible := FilterVisible(log)
	elapsed, show := Elapsed(visible, status, now)

	snap := Snapshot{
		TaskID:       taskID,
		Status:       status,
		Visible:      visible,
		ActiveStepID: ActiveStep(visible),
		BlockedCount: CountBlocked(log),
		BlockedTools: BlockedTools(log),
		Elapsed:      elapsed,
		ElapsedMS:    elapsed.Milliseconds(),
		ShowElapsed:  show,
	}
	for _, ev := range log {
		switch ev.Type {
		case event.TaskCreated:
			if ev.Payload.Title != "" {
				snap.Title = ev.Payload.Title
			}
		case event.ContextSummarized:
			if ev.Payload.Summary != "" {
				snap.Summaries = append(snap.Summaries, ev.Payload.Summary)
			}
		case event.Error, event.TaskFailed:
			if ev.Payload.Message != "" {
				snap.LastError = ev.Payload.Message
				snap.LastHint = ev.Payload.ActionHint
			}
		}
	}
	return snap
}
