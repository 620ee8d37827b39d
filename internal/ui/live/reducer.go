package live

import (
	"time"

	"taskline/internal/event"
	"taskline/internal/timeline"
)

// Reduce folds one UI event into the state and re-derives the snapshot.
// It never mutates the input state, so replaying the same events always
// yields the same result.
func Reduce(state State, ev Event, now time.Time) State {
	switch ev.Kind {
	case EventTask:
		if ev.TaskID != "" {
			state.TaskID = ev.TaskID
		}
		if ev.Title != "" {
			state.Title = ev.Title
		}
		if ev.Status != "" {
			state.Reported = ev.Status
		}
	case EventBacklog:
		state.Log = appendEvents(state.Log, ev.Batch...)
	case EventAppend:
		state.Log = appendEvents(state.Log, ev.TaskEvent)
		state.StreamErr = ""
	case EventStreamError:
		state.StreamErr = ev.Err
	case EventDone:
		state.Done = true
	}
	// File tails have no metadata endpoint; the events themselves carry
	// the task id.
	if state.TaskID == "" {
		for _, logged := range state.Log {
			if logged.TaskID != "" {
				state.TaskID = logged.TaskID
				break
			}
		}
	}
	return Refresh(state, now)
}

// Refresh re-derives the snapshot for the current log at the given time.
// The clock calls this between events so the elapsed display keeps moving.
func Refresh(state State, now time.Time) State {
	state.Snapshot = timeline.Derive(state.TaskID, state.Log, state.Status(), now)
	if state.Title == "" {
		state.Title = state.Snapshot.Title
	}
	return state
}

// appendEvents copies the log before appending so earlier states stay valid.
func appendEvents(log []event.TaskEvent, events ...event.TaskEvent) []event.TaskEvent {
	next := make([]event.TaskEvent, 0, len(log)+len(events))
	next = append(next, log...)
	next = append(next, events...)
	return next
}
