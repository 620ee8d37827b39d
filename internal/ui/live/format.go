package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskline/internal/classify"
	"taskline/internal/event"
)

const textLimit = 160

// PlainLine renders one visible event as an uncolored timeline row. The
// plain console output and the HTML status page share it with the live view
// so every surface words events identically.
func PlainLine(ev event.TaskEvent) (string, bool) {
	return timelineLine(ev, true)
}

// timelineLine renders one visible event as a timeline row. It returns
// false for events that are folded into an aggregate elsewhere, such as
// blocked tool calls.
func timelineLine(ev event.TaskEvent, noColor bool) (string, bool) {
	if ev.Type == event.ToolBlocked {
		return "", false
	}
	label, color := eventLabel(ev.Type)
	text := linkify(collapse(eventText(ev)), noColor)
	clock := ev.Time().Format("15:04:05")
	row := clock + "  " + stylize(pad(label, 9), noColor, color) + "  " + text
	return row, true
}

// eventLabel maps an event type to its timeline label and color.
func eventLabel(t event.Type) (string, lipgloss.Color) {
	switch t {
	case event.TaskCreated:
		return "created", lipgloss.Color("33")
	case event.TaskCompleted:
		return "completed", lipgloss.Color("42")
	case event.TaskFailed:
		return "failed", lipgloss.Color("196")
	case event.TaskCancelled:
		return "cancelled", lipgloss.Color("246")
	case event.TaskPaused:
		return "paused", lipgloss.Color("39")
	case event.TaskResumed:
		return "resumed", lipgloss.Color("39")
	case event.PlanCreated:
		return "plan", lipgloss.Color("33")
	case event.StepStarted:
		return "step", lipgloss.Color("33")
	case event.StepCompleted:
		return "done", lipgloss.Color("42")
	case event.StepFailed:
		return "failed", lipgloss.Color("196")
	case event.StepSkipped:
		return "skipped", lipgloss.Color("246")
	case event.ToolCall, event.ToolResult:
		return "tool", lipgloss.Color("244")
	case event.FileCreated, event.FileModified, event.FileDeleted:
		return "file", lipgloss.Color("246")
	case event.ApprovalRequested, event.ApprovalGranted, event.ApprovalDenied:
		return "approval", lipgloss.Color("220")
	case event.Error:
		return "error", lipgloss.Color("196")
	case event.ContextSummarized:
		return "summary", lipgloss.Color("201")
	case event.WorktreeCreated, event.WorktreeMerged, event.WorktreeRemoved:
		return "worktree", lipgloss.Color("246")
	case event.ComparisonStarted, event.ComparisonCompleted:
		return "compare", lipgloss.Color("201")
	case event.StepFeedback:
		return "feedback", lipgloss.Color("39")
	case event.AssistantMessage:
		return "note", lipgloss.Color("244")
	default:
		return string(t), lipgloss.Color("244")
	}
}

// eventText renders the body of a timeline row for one event.
func eventText(ev event.TaskEvent) string {
	p := ev.Payload
	switch ev.Type {
	case event.TaskCreated:
		return fallback(p.Title, "task created")
	case event.TaskCompleted:
		return fallback(p.Message, "task completed")
	case event.TaskFailed:
		return classify.Classify(fallback(p.Message, "task failed"))
	case event.TaskCancelled:
		return fallback(p.Message, "task cancelled")
	case event.TaskPaused:
		return fallback(p.Reason, "paused")
	case event.TaskResumed:
		return fallback(p.Message, "resumed")
	case event.PlanCreated:
		return formatPlan(p.Steps)
	case event.StepStarted:
		return stepText(ev)
	case event.StepCompleted:
		text := stepText(ev)
		if p.DurationMS > 0 {
			text += " (" + formatMillis(p.DurationMS) + ")"
		}
		return text
	case event.StepFailed:
		text := stepText(ev)
		if reason := fallback(p.Message, p.ToolError); reason != "" {
			text += ": " + reason
		}
		return text
	case event.StepSkipped:
		text := stepText(ev)
		if p.Reason != "" {
			text += " (" + p.Reason + ")"
		}
		return text
	case event.ToolCall:
		return fallback(p.Tool, "tool call")
	case event.ToolResult:
		if p.ToolError != "" {
			return fallback(p.Tool, "tool") + " error: " + p.ToolError
		}
		text := fallback(p.Tool, "tool") + " done"
		if p.DurationMS > 0 {
			text += " (" + formatMillis(p.DurationMS) + ")"
		}
		return text
	case event.FileCreated:
		return "created " + fallback(p.Path, "file")
	case event.FileModified:
		return "modified " + fallback(p.Path, "file")
	case event.FileDeleted:
		return "deleted " + fallback(p.Path, "file")
	case event.ApprovalRequested:
		return fallback(p.Reason, fallback(p.Message, "waiting for approval"))
	case event.ApprovalGranted:
		return fallback(p.Message, "granted")
	case event.ApprovalDenied:
		return fallback(p.Reason, fallback(p.Message, "denied"))
	case event.Error:
		return classify.Classify(p.Message)
	case event.ContextSummarized:
		return "conversation compacted"
	case event.WorktreeCreated:
		return "created " + fallback(p.Branch, p.Path)
	case event.WorktreeMerged:
		return "merged " + fallback(p.Branch, p.Path)
	case event.WorktreeRemoved:
		return "removed " + fallback(p.Branch, p.Path)
	case event.ComparisonStarted:
		return formatComparison(p.Agents)
	case event.ComparisonCompleted:
		return fallback(p.Message, "comparison finished")
	case event.StepFeedback:
		text := string(p.Action)
		if body := fallback(p.Feedback, p.Message); body != "" {
			text += ": " + body
		}
		return text
	case event.AssistantMessage:
		return p.Text
	default:
		return string(ev.Type)
	}
}

// stepText returns the step description, falling back to its id.
func stepText(ev event.TaskEvent) string {
	step, ok := ev.Step()
	if !ok {
		return "step"
	}
	return fallback(step.Description, step.ID)
}

// formatPlan summarizes a planned step list.
func formatPlan(steps []event.StepDescriptor) string {
	switch len(steps) {
	case 0:
		return "plan updated"
	case 1:
		return "1 step planned"
	default:
		return fmt.Sprintf("%d steps planned", len(steps))
	}
}

// formatComparison summarizes a multi-agent comparison start.
func formatComparison(agents []string) string {
	if len(agents) == 0 {
		return "comparing approaches"
	}
	return fmt.Sprintf("comparing %d approaches (%s)", len(agents), strings.Join(agents, ", "))
}

// BlockedLine renders the aggregate line for suppressed tool calls, shared
// with the plain output and the HTML status page.
func BlockedLine(count int, tools []string) string {
	return formatBlocked(count, tools)
}

// formatBlocked renders the aggregate line for suppressed tool calls.
func formatBlocked(count int, tools []string) string {
	if count <= 0 {
		return ""
	}
	noun := "calls"
	if count == 1 {
		noun = "call"
	}
	line := fmt.Sprintf("%d blocked %s", count, noun)
	if len(tools) > 0 {
		line += " (" + strings.Join(tools, ", ") + ")"
	}
	return line
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(100 * time.Millisecond).String()
}

// formatElapsed renders the header clock, rounded to whole seconds.
func formatElapsed(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}
	return duration.Round(time.Second).String()
}

// formatMillis renders a millisecond count from the wire as a duration.
func formatMillis(ms int64) string {
	return formatDuration(time.Duration(ms) * time.Millisecond)
}

// collapse folds whitespace and truncates long text to one display row.
func collapse(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if len(normalized) <= textLimit {
		return normalized
	}
	return normalized[:textLimit-3] + "..."
}

// fallback returns the first non-empty string.
func fallback(value, alt string) string {
	if value != "" {
		return value
	}
	return alt
}

// pad right-pads text to the given width.
func pad(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return text + strings.Repeat(" ", width-len(text))
}

// linkify underlines URL substrings so they stand out as destinations.
func linkify(text string, noColor bool) string {
	if noColor {
		return text
	}
	links := classify.Linkify(text)
	if len(links) == 0 {
		return text
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	var b strings.Builder
	last := 0
	for _, l := range links {
		b.WriteString(text[last:l.Start])
		b.WriteString(style.Render(l.URL))
		last = l.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// stylize applies a foreground color when color is enabled.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
