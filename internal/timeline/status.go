package timeline

import "taskline/internal/event"

// StatusFromLog folds lifecycle events into a task status. Live views
// prefer the status reported by the executor API; replay and file tailing
// have only the log, so the status is reconstructed here.
//
// Events that carry an explicit status in their payload win over the
// per-type defaults, which keeps this fold forward-compatible with
// lifecycle refinements on the executor side.
func StatusFromLog(events []event.TaskEvent) event.Status {
	status := event.StatusPending
	for _, ev := range events {
		if s := ev.Payload.Status; s != "" {
			status = s
			continue
		}
		switch ev.Type {
		case event.TaskCreated:
			status = event.StatusPlanning
		case event.PlanCreated, event.StepStarted, event.TaskResumed,
			event.ApprovalGranted, event.ApprovalDenied, event.StepFeedback:
			status = event.StatusExecuting
		case event.TaskPaused:
			status = event.StatusPaused
		case event.ApprovalRequested:
			status = event.StatusInterrupted
		case event.TaskCompleted:
			status = event.StatusCompleted
		case event.TaskFailed:
			status = event.StatusFailed
		case event.TaskCancelled:
			status = event.StatusCancelled
		}
	}
	return status
}
