package event

// StepDescriptor identifies one planned unit of work. The id is the
// correlation key pairing a step_started with its terminal event.
type StepDescriptor struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// ActionHintType selects the remediation affordance attached to an error.
type ActionHintType string

const (
	// HintOpenSettings points the user at the settings surface.
	HintOpenSettings ActionHintType = "open_settings"
	// HintContinueTask offers to resume a failed task.
	HintContinueTask ActionHintType = "continue_task"
)

// ActionHint is an optional remediation control carried by error payloads.
type ActionHint struct {
	Type  ActionHintType `json:"type"`
	Label string         `json:"label,omitempty"`
}

// Payload carries the variant-specific fields of an event. The executor
// owns this contract; fields not used by a given type stay zero and
// unknown wire fields are ignored on decode.
type Payload struct {
	// Step lifecycle and plans.
	Step  *StepDescriptor  `json:"step,omitempty"`
	Steps []StepDescriptor `json:"steps,omitempty"`

	// Tool activity.
	Tool       string `json:"tool,omitempty"`
	DurationMS int64  `json:"durationMs,omitempty"`
	ToolError  string `json:"toolError,omitempty"`
	Reason     string `json:"reason,omitempty"`

	// Diagnostics.
	Message    string      `json:"message,omitempty"`
	ActionHint *ActionHint `json:"actionHint,omitempty"`

	// Conversation.
	Text     string `json:"text,omitempty"`
	Internal bool   `json:"internal,omitempty"`

	// Context management.
	Summary string `json:"summary,omitempty"`

	// Filesystem.
	Path string `json:"path,omitempty"`

	// Branch isolation.
	Branch string `json:"branch,omitempty"`

	// Task lifecycle.
	Title  string `json:"title,omitempty"`
	Status Status `json:"status,omitempty"`

	// Feedback channel.
	StepID   string         `json:"stepId,omitempty"`
	Action   FeedbackAction `json:"action,omitempty"`
	Feedback string         `json:"feedback,omitempty"`

	// Multi-agent comparison.
	Agents []string `json:"agents,omitempty"`
}
