package live

import (
	"taskline/internal/event"
	"taskline/internal/timeline"
)

// State captures the live UI state for one watched task. The event log is
// the source of truth; Snapshot is re-derived from it on every change and
// never mutated directly.
type State struct {
	TaskID   string
	Title    string
	Reported event.Status // status last reported by the executor
	Log      []event.TaskEvent
	Snapshot timeline.Snapshot

	StreamErr string // transient transport notice for the footer
	Done      bool   // source exhausted (replay reached end of file)
}

// Status returns the effective task status: the lifecycle events win once
// any have arrived, otherwise the executor's reported status stands.
func (s State) Status() event.Status {
	if folded := timeline.StatusFromLog(s.Log); folded != event.StatusPending {
		return folded
	}
	if s.Reported != "" {
		return s.Reported
	}
	return event.StatusPending
}

// Active reports whether the task is still running and the elapsed clock
// should tick.
func (s State) Active() bool {
	return s.Status().Active()
}
