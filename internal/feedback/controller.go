// Package feedback drives the per-step feedback panel and its submission
// protocol.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskline/internal/event"
)

var (
	// ErrInFlight reports a submit attempted while another one is still
	// running. The second call is dropped, never queued.
	ErrInFlight = errors.New("feedback: submission already in flight")
	// ErrNoTask reports that the controller has no task id to address.
	ErrNoTask = errors.New("feedback: task id unknown")
	// ErrEmptyMessage reports a drift redirect without any text.
	ErrEmptyMessage = errors.New("feedback: drift requires a message")
)

// Sender delivers one feedback action to the executor.
type Sender interface {
	SendFeedback(ctx context.Context, taskID, stepID string, action event.FeedbackAction, message string) error
}

// Controller holds the ephemeral panel state for one watched task: which
// step's panel is open, the draft text, and whether a submission is in
// flight. All methods are safe for concurrent use; the UI reads state on
// every render while submissions run on their own goroutine.
type Controller struct {
	mu     sync.Mutex
	taskID string
	sender Sender
	log    *zap.Logger

	openStepID  string
	draft       string
	draftStepID string // step the draft was typed for
	sending     bool
}

// NewController binds a controller to a task and a sender. A nil logger
// disables submission-failure logging.
func NewController(taskID string, sender Sender, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{taskID: taskID, sender: sender, log: log}
}

// Open shows the feedback panel for a step. A draft typed for a different
// step is discarded; reopening the same step keeps it.
func (c *Controller) Open(stepID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draftStepID != stepID {
		c.draft = ""
		c.draftStepID = stepID
	}
	c.openStepID = stepID
}

// Close hides the panel without submitting. The draft is kept so an
// accidental Escape does not lose typed text.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openStepID = ""
}

// SetDraft mirrors the panel's input text into the controller.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
	c.draftStepID = c.openStepID
}

// State returns one consistent view of the panel for rendering.
func (c *Controller) State() (openStepID, draft string, sending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openStepID, c.draft, c.sending
}

// Submit sends one feedback action for a step. At most one submission runs
// at a time: a call while another is in flight returns ErrInFlight and does
// nothing. On success the panel closes and the draft is cleared; on failure
// both stay so the user can retry, and the error is logged and returned.
func (c *Controller) Submit(ctx context.Context, stepID string, action event.FeedbackAction, message string) error {
	if !action.Valid() {
		return fmt.Errorf("feedback: unknown action %q", action)
	}
	message = strings.TrimSpace(message)
	if action.RequiresMessage() && message == "" {
		return ErrEmptyMessage
	}
	if !action.RequiresMessage() {
		message = ""
	}

	c.mu.Lock()
	if c.taskID == "" {
		c.mu.Unlock()
		return ErrNoTask
	}
	if c.sending {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.sending = true
	taskID := c.taskID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	if err := c.sender.SendFeedback(ctx, taskID, stepID, action, message); err != nil {
		c.log.Warn("feedback submission failed",
			zap.String("task", taskID),
			zap.String("step", stepID),
			zap.String("action", string(action)),
			zap.Error(err))
		return fmt.Errorf("send %s feedback: %w", action, err)
	}

	c.mu.Lock()
	c.openStepID = ""
	c.draft = ""
	c.draftStepID = ""
	c.mu.Unlock()
	return nil
}
