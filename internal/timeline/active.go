package timeline

import "taskline/internal/event"

// ActiveStep folds the filtered event sequence into the id of the step
// currently executing, or "" when none is.
//
// A step_started always takes over as the active step, even if a previous
// step never reported a terminal event. Concurrent steps therefore collapse
// to whichever started last; the executor runs steps sequentially, so in
// practice this only papers over a lost terminal event. A terminal event
// clears the active step only when its id matches, so stale completions
// for already-superseded steps are ignored.
func ActiveStep(events []event.TaskEvent) string {
	var active string
	for _, ev := range events {
		switch ev.Type {
		case event.StepStarted:
			if step, ok := ev.Step(); ok && step.ID != "" {
				active = step.ID
			}
		case event.StepCompleted, event.StepFailed, event.StepSkipped:
			if step, ok := ev.Step(); ok && step.ID == active {
				active = ""
			}
		}
	}
	return active
}
