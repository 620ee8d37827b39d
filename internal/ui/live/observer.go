package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"taskline/internal/event"
)

// Controller runs the live UI and forwards task updates into it. Events are
// delivered in order and never dropped while the UI is running: losing one
// would skew every count derived from the log.
type Controller struct {
	events    chan Event
	program   *tea.Program
	done      chan struct{}
	closeOnce sync.Once
}

// Start launches a live UI controller that writes to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	events := make(chan Event, 256)
	model := NewModel(events, opts)
	program := tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen())
	controller := &Controller{
		events:  events,
		program: program,
		done:    make(chan struct{}),
	}
	go func() {
		_, _ = program.Run()
		close(controller.done)
	}()
	return controller
}

// Close signals the UI to stop once the source is drained.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.events)
	})
}

// Wait blocks until the UI has exited.
func (c *Controller) Wait() {
	if c == nil {
		return
	}
	<-c.done
}

// Done is closed when the UI exits, letting the feeding loop stop early
// when the user quits.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// OnTask forwards task metadata to the UI.
func (c *Controller) OnTask(taskID, title string, status event.Status) {
	c.send(Event{Kind: EventTask, TaskID: taskID, Title: title, Status: status})
}

// OnBacklog forwards the events that precede the live tail.
func (c *Controller) OnBacklog(events []event.TaskEvent) {
	c.send(Event{Kind: EventBacklog, Batch: events})
}

// OnTaskEvent forwards one newly observed task event.
func (c *Controller) OnTaskEvent(ev event.TaskEvent) {
	c.send(Event{Kind: EventAppend, TaskEvent: ev})
}

// OnStreamError surfaces a transport problem in the footer.
func (c *Controller) OnStreamError(err error) {
	if err == nil {
		return
	}
	c.send(Event{Kind: EventStreamError, Err: err.Error()})
}

// OnDone marks the end of a finite source, such as a replayed file.
func (c *Controller) OnDone() {
	c.send(Event{Kind: EventDone})
}

// send enqueues an event, giving up only when the UI has already exited.
func (c *Controller) send(ev Event) {
	if c == nil {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}
