package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"taskline/internal/classify"
	"taskline/internal/event"
	"taskline/internal/timeline"
	"taskline/internal/ui/live"
)

// plainSink prints one line per visible event, the output path for non-TTY
// sessions and --ui plain. The lines are worded exactly like the live view's
// timeline rows. When the task settles it prints the derived summary and
// releases Done so the caller stops following.
type plainSink struct {
	out      io.Writer
	errw     io.Writer
	taskID   string
	reported event.Status
	log      []event.TaskEvent
	done     chan struct{}

	// once guards both finish and Close; whichever runs first decides
	// whether the summary is printed.
	once sync.Once
}

func newPlainSink(out, errw io.Writer) *plainSink {
	return &plainSink{out: out, errw: errw, done: make(chan struct{})}
}

func (p *plainSink) OnTask(taskID, title string, status event.Status) {
	p.taskID = taskID
	p.reported = status
	line := "task " + taskID
	if title != "" {
		line += ": " + title
	}
	if status != "" {
		line += " [" + string(status) + "]"
	}
	fmt.Fprintln(p.out, line)
}

func (p *plainSink) OnBacklog(events []event.TaskEvent) {
	for _, ev := range events {
		p.OnTaskEvent(ev)
	}
}

func (p *plainSink) OnTaskEvent(ev event.TaskEvent) {
	p.log = append(p.log, ev)
	if p.taskID == "" {
		p.taskID = ev.TaskID
	}
	if !timeline.Visible(ev) {
		return
	}
	if line, ok := live.PlainLine(ev); ok {
		fmt.Fprintln(p.out, line)
	}
}

func (p *plainSink) OnStreamError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(p.errw, "warning: event stream dropped: %v\n", err)
}

func (p *plainSink) OnDone() {
	p.finish()
}

// Close releases Done without printing; used when the session is torn down
// before the task settles.
func (p *plainSink) Close() {
	p.once.Do(func() { close(p.done) })
}

// Wait implements uiSink; plain output is synchronous.
func (p *plainSink) Wait() {}

func (p *plainSink) Done() <-chan struct{} {
	return p.done
}

// finish prints the derived summary once and releases Done.
func (p *plainSink) finish() {
	p.once.Do(func() {
		defer close(p.done)

		status := timeline.StatusFromLog(p.log)
		if status == event.StatusPending && p.reported != "" {
			status = p.reported
		}
		snap := timeline.Derive(p.taskID, p.log, status, time.Now())

		if snap.BlockedCount > 0 {
			fmt.Fprintln(p.out, live.BlockedLine(snap.BlockedCount, snap.BlockedTools))
		}
		if snap.LastError != "" {
			line := "error: " + classify.Classify(snap.LastError)
			if hint, ok := classify.Hint(snap.LastError, snap.LastHint); ok {
				line += " (" + hint.Label + ")"
			}
			fmt.Fprintln(p.out, line)
		}
		line := "status: " + string(snap.Status)
		if snap.ShowElapsed {
			line += " (" + snap.Elapsed.Round(time.Second).String() + ")"
		}
		fmt.Fprintln(p.out, line)
	})
}
