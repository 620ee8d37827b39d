package timeline

import "taskline/internal/event"

// CountBlocked counts tool_blocked events in the raw log. The count is the
// only aggregate kept for blocked calls; individual tool_blocked events are
// summarized on the timeline rather than listed.
func CountBlocked(events []event.TaskEvent) int {
	n := 0
	for _, ev := range events {
		if ev.Type == event.ToolBlocked {
			n++
		}
	}
	return n
}

// BlockedTools returns the distinct tool names seen in tool_blocked events,
// in first-seen order. Used for the "N blocked calls (tool, tool)" line.
func BlockedTools(events []event.TaskEvent) []string {
	var tools []string
	seen := map[string]struct{}{}
	for _, ev := range events {
		if ev.Type != event.ToolBlocked || ev.Payload.Tool == "" {
			continue
		}
		if _, dup := seen[ev.Payload.Tool]; dup {
			continue
		}
		seen[ev.Payload.Tool] = struct{}{}
		tools = append(tools, ev.Payload.Tool)
	}
	return tools
}
