// Package event defines the task event log consumed from the executor.
//
// Events are produced externally and appended in creation order. Consumers
// never mutate, reorder, or compact the log; everything shown in the
// timeline is derived from a prefix of it.
package event

import "time"

// Type identifies the kind of a task event on the wire.
type Type string

const (
	// TaskCreated marks the creation of a task.
	TaskCreated Type = "task_created"
	// TaskCompleted marks successful completion of a task.
	TaskCompleted Type = "task_completed"
	// TaskFailed marks terminal failure of a task.
	TaskFailed Type = "task_failed"
	// TaskCancelled marks user cancellation of a task.
	TaskCancelled Type = "task_cancelled"
	// TaskPaused marks a task paused by the user or executor.
	TaskPaused Type = "task_paused"
	// TaskResumed marks a paused task resuming.
	TaskResumed Type = "task_resumed"
	// PlanCreated delivers the planned step list.
	PlanCreated Type = "plan_created"
	// StepStarted marks the start of a planned step.
	StepStarted Type = "step_started"
	// StepCompleted marks successful completion of a step.
	StepCompleted Type = "step_completed"
	// StepFailed marks terminal failure of a step.
	StepFailed Type = "step_failed"
	// StepSkipped marks a step skipped by the executor or the user.
	StepSkipped Type = "step_skipped"
	// ToolCall marks a tool invocation.
	ToolCall Type = "tool_call"
	// ToolResult delivers the outcome of a tool invocation.
	ToolResult Type = "tool_result"
	// ToolBlocked marks a tool invocation suppressed by deduplication.
	ToolBlocked Type = "tool_blocked"
	// FileCreated marks a file created in the workspace.
	FileCreated Type = "file_created"
	// FileModified marks a file modified in the workspace.
	FileModified Type = "file_modified"
	// FileDeleted marks a file deleted from the workspace.
	FileDeleted Type = "file_deleted"
	// ApprovalRequested marks a pending human approval.
	ApprovalRequested Type = "approval_requested"
	// ApprovalGranted marks an approval granted by the user.
	ApprovalGranted Type = "approval_granted"
	// ApprovalDenied marks an approval denied by the user.
	ApprovalDenied Type = "approval_denied"
	// Error delivers a diagnostic from the executor.
	Error Type = "error"
	// ContextSummarized annotates the log with a compacted context summary.
	ContextSummarized Type = "context_summarized"
	// WorktreeCreated marks an isolation worktree being created.
	WorktreeCreated Type = "worktree_created"
	// WorktreeMerged marks a worktree merged back.
	WorktreeMerged Type = "worktree_merged"
	// WorktreeRemoved marks a worktree discarded.
	WorktreeRemoved Type = "worktree_removed"
	// ComparisonStarted marks the start of a multi-agent comparison.
	ComparisonStarted Type = "comparison_started"
	// ComparisonCompleted marks the end of a multi-agent comparison.
	ComparisonCompleted Type = "comparison_completed"
	// StepFeedback records human feedback injected into a running step.
	StepFeedback Type = "step_feedback"
	// AssistantMessage delivers assistant prose.
	AssistantMessage Type = "assistant_message"
	// VerificationStarted marks the start of an internal verification pass.
	VerificationStarted Type = "verification_started"
	// VerificationPassed marks a successful internal verification pass.
	VerificationPassed Type = "verification_passed"
	// VerificationFailed marks a failed internal verification pass.
	VerificationFailed Type = "verification_failed"
	// TokenUsage carries internal token accounting.
	TokenUsage Type = "token_usage"
	// DebugLog carries internal executor diagnostics.
	DebugLog Type = "debug_log"
	// Checkpoint carries internal executor state snapshots.
	Checkpoint Type = "checkpoint"
)

// TaskEvent is one immutable entry of a task's append-only log.
type TaskEvent struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"taskId"`
	Timestamp int64   `json:"timestamp"`
	Type      Type    `json:"type"`
	Payload   Payload `json:"payload,omitempty"`
}

// Time converts the millisecond wire timestamp to a time.Time.
func (e TaskEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// IsStep reports whether the event is part of the step lifecycle.
func (e TaskEvent) IsStep() bool {
	switch e.Type {
	case StepStarted, StepCompleted, StepFailed, StepSkipped:
		return true
	default:
		return false
	}
}

// IsStepTerminal reports whether the event ends a step.
func (e TaskEvent) IsStepTerminal() bool {
	switch e.Type {
	case StepCompleted, StepFailed, StepSkipped:
		return true
	default:
		return false
	}
}

// Step returns the step descriptor for step lifecycle events.
func (e TaskEvent) Step() (StepDescriptor, bool) {
	if !e.IsStep() || e.Payload.Step == nil {
		return StepDescriptor{}, false
	}
	return *e.Payload.Step, true
}

// Status is the executor-reported lifecycle status of a task.
type Status string

const (
	// StatusPending marks a task created but not yet planned.
	StatusPending Status = "pending"
	// StatusPlanning marks a task whose plan is being generated.
	StatusPlanning Status = "planning"
	// StatusExecuting marks a task with steps in flight.
	StatusExecuting Status = "executing"
	// StatusPaused marks a task paused by the user.
	StatusPaused Status = "paused"
	// StatusInterrupted marks a task stopped mid-step and waiting for input.
	StatusInterrupted Status = "interrupted"
	// StatusCompleted marks a task finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed marks a task finished in error.
	StatusFailed Status = "failed"
	// StatusCancelled marks a task cancelled by the user.
	StatusCancelled Status = "cancelled"
)

// Active reports whether the task is still advancing, which drives the
// live duration clock and the feedback affordance.
func (s Status) Active() bool {
	switch s {
	case StatusExecuting, StatusPlanning, StatusInterrupted:
		return true
	default:
		return false
	}
}

// FeedbackAction is a human instruction injected into a running step.
type FeedbackAction string

const (
	// ActionRetry asks the executor to retry the current step.
	ActionRetry FeedbackAction = "retry"
	// ActionSkip asks the executor to skip the current step.
	ActionSkip FeedbackAction = "skip"
	// ActionStop asks the executor to stop the task.
	ActionStop FeedbackAction = "stop"
	// ActionDrift redirects the current step with free-text instructions.
	ActionDrift FeedbackAction = "drift"
)

// Valid reports whether the action is one of the known feedback verbs.
func (a FeedbackAction) Valid() bool {
	switch a {
	case ActionRetry, ActionSkip, ActionStop, ActionDrift:
		return true
	default:
		return false
	}
}

// RequiresMessage reports whether the action must carry instructions.
func (a FeedbackAction) RequiresMessage() bool {
	return a == ActionDrift
}
