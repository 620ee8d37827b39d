package live

import "taskline/internal/event"

// EventKind identifies the kind of update delivered to the live UI.
type EventKind int

const (
	// EventTask carries task metadata fetched from the executor.
	EventTask EventKind = iota
	// EventBacklog carries the events replayed before the live tail.
	EventBacklog
	// EventAppend carries a single newly observed task event.
	EventAppend
	// EventStreamError reports a transport problem without ending the UI.
	EventStreamError
	// EventDone marks the end of a finite source, such as a replayed file.
	EventDone
)

// Event is one update pushed from the watch loop into the UI.
type Event struct {
	Kind EventKind

	TaskID string
	Title  string
	Status event.Status

	Batch     []event.TaskEvent
	TaskEvent event.TaskEvent

	Err string
}
