package live

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskline/internal/classify"
	"taskline/internal/event"
	"taskline/internal/summary"
)

// renderHeader renders the task header line with status and elapsed time.
func renderHeader(state State, noColor bool) string {
	line := "Task " + state.TaskID
	if state.Title != "" {
		line += " | " + state.Title
	}
	status := state.Status()
	line = stylize(line, noColor, lipgloss.Color("33"))
	line += " | " + stylize(string(status), noColor, statusColor(status))
	if state.Snapshot.ShowElapsed {
		line += " | " + stylize(formatElapsed(state.Snapshot.Elapsed), noColor, lipgloss.Color("242"))
	}
	return line
}

// renderNotice renders the most recent error with its remediation hint, or
// nothing when the task is healthy.
func renderNotice(state State, noColor bool) string {
	raw := state.Snapshot.LastError
	if raw == "" {
		return ""
	}
	line := classify.Classify(raw)
	if hint, ok := classify.Hint(raw, state.Snapshot.LastHint); ok {
		switch hint.Type {
		case event.HintContinueTask:
			line += "  [c] " + hint.Label
		default:
			line += "  (" + hint.Label + ")"
		}
	} else if state.Status() == event.StatusFailed {
		line += "  [c] continue task"
	}
	return noticeLine(line, noColor)
}

// noticeLine colors the error line, keeping any URLs in it underlined.
// Styled segment by segment so the link reset does not strip the color
// from the rest of the line.
func noticeLine(text string, noColor bool) string {
	if noColor {
		return text
	}
	base := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	links := classify.Linkify(text)
	if len(links) == 0 {
		return base.Render(text)
	}
	url := base.Underline(true)
	var b strings.Builder
	last := 0
	for _, l := range links {
		if seg := text[last:l.Start]; seg != "" {
			b.WriteString(base.Render(seg))
		}
		b.WriteString(url.Render(l.URL))
		last = l.End
	}
	if seg := text[last:]; seg != "" {
		b.WriteString(base.Render(seg))
	}
	return b.String()
}

// renderBlocked renders the aggregate blocked-call line.
func renderBlocked(state State, noColor bool) string {
	line := formatBlocked(state.Snapshot.BlockedCount, state.Snapshot.BlockedTools)
	if line == "" {
		return ""
	}
	return stylize(line, noColor, lipgloss.Color("220"))
}

// renderTimeline renders all visible events as rows for the viewport.
func renderTimeline(state State, noColor bool) string {
	rows := make([]string, 0, len(state.Snapshot.Visible))
	for _, ev := range state.Snapshot.Visible {
		if row, ok := timelineLine(ev, noColor); ok {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return stylize("waiting for events...", noColor, lipgloss.Color("244"))
	}
	return strings.Join(rows, "\n")
}

// renderSummaryView renders the latest context summary with collapsible
// sections. Collapsed sections show only their heading.
func renderSummaryView(state State, expanded func(int) bool, noColor bool) string {
	texts := state.Snapshot.Summaries
	if len(texts) == 0 {
		return stylize("no summary yet", noColor, lipgloss.Color("244"))
	}
	doc := summary.Parse(texts[len(texts)-1])
	if !doc.Structured() {
		return doc.Text()
	}
	var b strings.Builder
	if doc.Preamble != "" {
		b.WriteString(doc.Preamble)
		b.WriteString("\n\n")
	}
	for i, section := range doc.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		open := expanded(section.Number)
		marker := "+"
		if open {
			marker = "-"
		}
		heading := "[" + marker + "] " + section.Heading
		b.WriteString(stylize(heading, noColor, lipgloss.Color("33")))
		b.WriteString("\n")
		if open && section.Body != "" {
			b.WriteString(section.Body)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderFeedback renders the feedback panel for the open step. The input
// view is the rendered text input, shown only while drafting a redirect.
func renderFeedback(stepID, inputView string, sending, drafting, noColor bool) string {
	title := "feedback for step " + stepID
	if sending {
		title += " (sending...)"
	}
	keys := "[r] retry  [s] skip  [x] stop  [d] redirect  [esc] close"
	if drafting {
		keys = inputView + "  (enter to send, esc to cancel)"
	}
	border := strings.Repeat("-", 40)
	lines := []string{
		stylize(border, noColor, lipgloss.Color("240")),
		stylize(title, noColor, lipgloss.Color("39")),
		keys,
		stylize(border, noColor, lipgloss.Color("240")),
	}
	return strings.Join(lines, "\n")
}

// renderFooter renders the key hints and any transport notice.
func renderFooter(state State, view viewMode, noColor bool) string {
	var hints string
	switch view {
	case viewSummary:
		hints = "1-9 toggle section | esc back | q quit"
	default:
		hints = "f feedback | v summary | q quit"
		if state.Done {
			hints = "end of log | v summary | q quit"
		}
	}
	line := stylize(hints, noColor, lipgloss.Color("244"))
	if state.StreamErr != "" {
		line += "\n" + stylize("stream: "+state.StreamErr+" (reconnecting)", noColor, lipgloss.Color("220"))
	}
	return line
}

// statusColor selects the header color for a task status.
func statusColor(status event.Status) lipgloss.Color {
	switch status {
	case event.StatusCompleted:
		return lipgloss.Color("42")
	case event.StatusFailed:
		return lipgloss.Color("196")
	case event.StatusCancelled:
		return lipgloss.Color("246")
	case event.StatusPaused, event.StatusInterrupted:
		return lipgloss.Color("220")
	case event.StatusExecuting, event.StatusPlanning:
		return lipgloss.Color("33")
	default:
		return lipgloss.Color("244")
	}
}
