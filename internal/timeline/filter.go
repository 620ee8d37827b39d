// Package timeline reconstructs display state from a task's event log.
//
// Every derivation here is a pure left fold over a prefix of the log,
// recomputed whenever the log, the task status, or the wall clock changes.
// Folding a longer prefix must never contradict a shorter one.
package timeline

import (
	"regexp"

	"taskline/internal/event"
)

// internalTypes is the fixed denylist of event types that never reach the
// timeline. These carry executor bookkeeping, not user-visible activity.
var internalTypes = map[event.Type]struct{}{
	event.TokenUsage: {},
	event.DebugLog:   {},
	event.Checkpoint: {},
}

// verificationStep matches step descriptions of the executor's internal
// verification passes, which pollute the timeline when shown.
var verificationStep = regexp.MustCompile(`(?i)^\s*verif(y|ied|ying|ication)\b`)

// FilterVisible returns the events worth presenting, preserving order.
// It drops the internal denylist plus verification noise. The predicate
// depends only on each event, so filtering is idempotent.
func FilterVisible(events []event.TaskEvent) []event.TaskEvent {
	visible := make([]event.TaskEvent, 0, len(events))
	for _, ev := range events {
		if Visible(ev) {
			visible = append(visible, ev)
		}
	}
	return visible
}

// Visible reports whether a single event belongs on the timeline. It is
// total: any event, however malformed, yields a decision without panicking.
func Visible(ev event.TaskEvent) bool {
	if _, internal := internalTypes[ev.Type]; internal {
		return false
	}
	return !isNoise(ev)
}

// isNoise flags internal/verification chatter by type and payload content.
func isNoise(ev event.TaskEvent) bool {
	switch ev.Type {
	case event.VerificationStarted, event.VerificationPassed, event.VerificationFailed:
		return true
	case event.AssistantMessage:
		return ev.Payload.Internal
	case event.StepStarted, event.StepCompleted, event.StepFailed, event.StepSkipped:
		step, ok := ev.Step()
		return ok && verificationStep.MatchString(step.Description)
	default:
		return false
	}
}
