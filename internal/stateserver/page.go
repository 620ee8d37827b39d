package stateserver

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"taskline/internal/classify"
	"taskline/internal/spool"
	"taskline/internal/timeline"
	"taskline/internal/ui/live"
)

// indexPage renders the task list as an HTML page.
func indexPage(infos []spool.TaskInfo) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		writeHead(&b, "Taskline")
		b.WriteString("<h1>Tasks</h1>\n")
		if len(infos) == 0 {
			b.WriteString("<p>No tasks spooled yet.</p>\n")
		} else {
			b.WriteString("<table>\n<tr><th>Task</th><th>Title</th><th>Status</th><th>Events</th></tr>\n")
			for _, info := range infos {
				fmt.Fprintf(&b, "<tr><td><a href=\"/tasks/%s\">%s</a></td><td>%s</td><td>%s</td><td>%d</td></tr>\n",
					templ.EscapeString(info.TaskID),
					templ.EscapeString(info.TaskID),
					templ.EscapeString(info.Title),
					templ.EscapeString(string(info.Status)),
					info.LastSeq)
			}
			b.WriteString("</table>\n")
		}
		writeFoot(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// taskPage renders one task's derived snapshot as an HTML page.
func taskPage(snap timeline.Snapshot) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		writeHead(&b, "Task "+snap.TaskID)
		fmt.Fprintf(&b, "<h1>%s</h1>\n", templ.EscapeString(headline(snap)))
		fmt.Fprintf(&b, "<p>Status: <strong>%s</strong>", templ.EscapeString(string(snap.Status)))
		if snap.ShowElapsed {
			fmt.Fprintf(&b, " &middot; elapsed %s", templ.EscapeString(snap.Elapsed.Round(time.Second).String()))
		}
		b.WriteString("</p>\n")
		if snap.LastError != "" {
			b.WriteString("<p class=\"error\">")
			writeLinkified(&b, classify.Classify(snap.LastError))
			if hint, ok := classify.Hint(snap.LastError, snap.LastHint); ok {
				fmt.Fprintf(&b, " <em>(%s)</em>", templ.EscapeString(hint.Label))
			}
			b.WriteString("</p>\n")
		}
		if snap.BlockedCount > 0 {
			fmt.Fprintf(&b, "<p class=\"blocked\">%s</p>\n",
				templ.EscapeString(live.BlockedLine(snap.BlockedCount, snap.BlockedTools)))
		}
		b.WriteString("<pre>\n")
		for _, ev := range snap.Visible {
			if line, ok := live.PlainLine(ev); ok {
				b.WriteString(templ.EscapeString(line))
				b.WriteString("\n")
			}
		}
		b.WriteString("</pre>\n")
		writeFoot(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// headline prefers the task title over the bare id.
func headline(snap timeline.Snapshot) string {
	if snap.Title != "" {
		return snap.Title
	}
	return "Task " + snap.TaskID
}

// writeLinkified writes text HTML-escaped, with bare URLs as anchors.
func writeLinkified(b *strings.Builder, text string) {
	last := 0
	for _, l := range classify.Linkify(text) {
		b.WriteString(templ.EscapeString(text[last:l.Start]))
		fmt.Fprintf(b, "<a href=\"%s\">%s</a>", templ.EscapeString(l.URL), templ.EscapeString(l.URL))
		last = l.End
	}
	b.WriteString(templ.EscapeString(text[last:]))
}

// writeHead writes the shared HTML shell opening.
func writeHead(b *strings.Builder, title string) {
	b.WriteString("<!doctype html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\" />\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\" />\n")
	fmt.Fprintf(b, "<title>%s</title>\n", templ.EscapeString(title))
	b.WriteString("<style>body{font-family:monospace;margin:2rem}table{border-collapse:collapse}td,th{padding:.2rem .8rem;text-align:left}.error{color:#b00}.blocked{color:#a60}</style>\n")
	b.WriteString("</head>\n<body>\n")
}

// writeFoot closes the shared HTML shell.
func writeFoot(b *strings.Builder) {
	b.WriteString("</body>\n</html>\n")
}
