package live

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskline/internal/event"
	"taskline/internal/feedback"
	"taskline/internal/summary"
	"taskline/internal/timeline"
)

const submitTimeout = 10 * time.Second

// viewMode selects which main view fills the viewport.
type viewMode int

const (
	viewTimeline viewMode = iota
	viewSummary
)

// panelMode tracks the feedback panel lifecycle.
type panelMode int

const (
	panelClosed panelMode = iota
	panelActions
	panelDraft
)

// Model renders the live task timeline using Bubble Tea.
type Model struct {
	state    State
	viewport viewport.Model
	input    textinput.Model
	events   <-chan Event

	feedback    *feedback.Controller
	continueRun func(context.Context) error

	view      viewMode
	panel     panelMode
	overrides map[int]bool // per-section expansion overrides in the summary view
	flash     string

	tickInterval time.Duration
	now          time.Time
	clock        func() time.Time
	ticking      bool
	noColor      bool
}

// Options configures the live UI model.
type Options struct {
	NoColor      bool
	TickInterval time.Duration
	// Feedback drives the step feedback panel; nil disables it (replay).
	Feedback *feedback.Controller
	// Continue resumes a failed task; nil disables the binding.
	Continue func(context.Context) error
	// Clock overrides time.Now, used by tests.
	Clock func() time.Time
}

// NewModel constructs a live UI model for an event stream.
func NewModel(events <-chan Event, opts Options) Model {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = timeline.TickInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	vp := viewport.New(80, 20)
	input := textinput.New()
	input.Placeholder = "redirect instructions"
	input.Prompt = "redirect> "
	input.CharLimit = 500
	return Model{
		state:        State{},
		viewport:     vp,
		input:        input,
		events:       events,
		feedback:     opts.Feedback,
		continueRun:  opts.Continue,
		overrides:    map[int]bool{},
		tickInterval: tickInterval,
		now:          clock(),
		clock:        clock,
		noColor:      opts.NoColor,
	}
}

// Init waits for the first event. The elapsed clock starts only once the
// task is seen active, so settled tasks never wake the terminal.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update consumes UI events, key presses, and timer ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = typed.Width
		m.viewport.Height = max(typed.Height-6, 3)
		m.input.Width = max(typed.Width-24, 20)
		m = m.syncViewport()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	case EventMsg:
		m = m.applyEvent(typed.Event)
		cmds := []tea.Cmd{waitForEvent(m.events)}
		if cmd := m.armTick(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	case tickMsg:
		m.ticking = false
		m.now = time.Time(typed)
		m.state = Refresh(m.state, m.now)
		m = m.syncViewport()
		cmd := m.armTick()
		return m, cmd
	case feedbackSentMsg:
		m = m.refreshPanel()
		if typed.err != nil {
			m.flash = "feedback failed: " + typed.err.Error()
		} else {
			m.flash = "feedback sent"
		}
		return m, nil
	case continueDoneMsg:
		if typed.err != nil {
			m.flash = "continue failed: " + typed.err.Error()
		} else {
			m.flash = "task resumed"
		}
		return m, nil
	}
	return m, nil
}

// View renders the live UI.
func (m Model) View() string {
	sections := []string{renderHeader(m.state, m.noColor)}
	if notice := renderNotice(m.state, m.noColor); notice != "" {
		sections = append(sections, notice)
	}
	if blocked := renderBlocked(m.state, m.noColor); blocked != "" {
		sections = append(sections, blocked)
	}
	sections = append(sections, m.viewport.View())
	if m.panel != panelClosed {
		sections = append(sections, m.renderPanel())
	}
	if m.flash != "" {
		sections = append(sections, stylize(m.flash, m.noColor, lipgloss.Color("244")))
	}
	sections = append(sections, renderFooter(m.state, m.view, m.noColor))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// handleKey routes a key press by view and panel mode.
func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	if m.panel == panelDraft {
		return m.handleDraftKey(key)
	}
	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	if m.view == viewSummary {
		return m.handleSummaryKey(key)
	}
	if m.panel == panelActions {
		return m.handleActionKey(key)
	}
	switch key.String() {
	case "f":
		return m.openPanel(), nil
	case "v":
		m.view = viewSummary
		m = m.syncViewport()
		return m, nil
	case "c":
		return m.startContinue()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

// handleSummaryKey handles keys in the summary view. Digits toggle the
// matching section open or closed.
func (m Model) handleSummaryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := key.String()
	switch s {
	case "esc", "v":
		m.view = viewTimeline
		m = m.syncViewport()
		return m, nil
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		n := int(s[0] - '0')
		m.overrides[n] = !m.expanded(n)
		m = m.syncViewport()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

// handleActionKey handles keys while the feedback panel shows its actions.
func (m Model) handleActionKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		return m.closePanel(), nil
	case "r":
		return m.submit(event.ActionRetry)
	case "s":
		return m.submit(event.ActionSkip)
	case "x":
		return m.submit(event.ActionStop)
	case "d":
		m.panel = panelDraft
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

// handleDraftKey handles keys while typing redirect instructions. All
// printable keys go to the input, so quit is not reachable here.
func (m Model) handleDraftKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.panel = panelActions
		m.input.Blur()
		return m, nil
	case "enter":
		if m.feedback != nil {
			m.feedback.SetDraft(m.input.Value())
		}
		return m.submit(event.ActionDrift)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

// openPanel opens the feedback panel for the active step, if any.
func (m Model) openPanel() Model {
	if m.feedback == nil {
		m.flash = "feedback not available here"
		return m
	}
	stepID := m.state.Snapshot.ActiveStepID
	if stepID == "" {
		m.flash = "no step is running"
		return m
	}
	m.feedback.Open(stepID)
	m.panel = panelActions
	return m
}

// closePanel closes the feedback panel, keeping any typed draft.
func (m Model) closePanel() Model {
	if m.feedback != nil {
		m.feedback.Close()
	}
	m.panel = panelClosed
	m.input.Blur()
	return m
}

// submit sends the chosen feedback action in the background.
func (m Model) submit(action event.FeedbackAction) (tea.Model, tea.Cmd) {
	if m.feedback == nil {
		return m, nil
	}
	fb := m.feedback
	stepID, draft, _ := fb.State()
	if stepID == "" {
		return m, nil
	}
	m.input.Blur()
	m.panel = panelActions
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return feedbackSentMsg{err: fb.Submit(ctx, stepID, action, draft)}
	}
}

// startContinue asks the executor to resume a failed task.
func (m Model) startContinue() (tea.Model, tea.Cmd) {
	if m.continueRun == nil || m.state.Status() != event.StatusFailed {
		return m, nil
	}
	run := m.continueRun
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return continueDoneMsg{err: run(ctx)}
	}
}

// refreshPanel re-reads the feedback controller after a submit attempt. A
// successful submit closes the panel on the controller side.
func (m Model) refreshPanel() Model {
	if m.feedback == nil {
		return m
	}
	openStepID, _, _ := m.feedback.State()
	if openStepID == "" {
		m.panel = panelClosed
		m.input.Blur()
	}
	return m
}

// renderPanel renders the feedback panel from the controller state.
func (m Model) renderPanel() string {
	if m.feedback == nil {
		return ""
	}
	openStepID, _, sending := m.feedback.State()
	return renderFeedback(openStepID, m.input.View(), sending, m.panel == panelDraft, m.noColor)
}

// applyEvent folds a UI event into the state and refreshes the viewport.
// An open panel closes when its step stops being the active one.
func (m Model) applyEvent(ev Event) Model {
	m.now = m.clock()
	m.state = Reduce(m.state, ev, m.now)
	if m.panel != panelClosed && m.feedback != nil {
		openStep, _, _ := m.feedback.State()
		if openStep == "" || openStep != m.state.Snapshot.ActiveStepID {
			m = m.closePanel()
		}
	}
	return m.syncViewport()
}

// armTick schedules the next clock tick while the task is active. At most
// one tick is in flight; settled tasks stop the clock entirely.
func (m *Model) armTick() tea.Cmd {
	if m.ticking || !m.state.Active() {
		return nil
	}
	m.ticking = true
	return tick(m.tickInterval)
}

// expanded reports whether a summary section is currently open.
func (m Model) expanded(number int) bool {
	if override, ok := m.overrides[number]; ok {
		return override
	}
	return summary.DefaultExpanded(number)
}

// syncViewport refills the viewport for the current view, keeping the tail
// in sight when it was already at the bottom.
func (m Model) syncViewport() Model {
	atBottom := m.viewport.AtBottom()
	switch m.view {
	case viewSummary:
		m.viewport.SetContent(renderSummaryView(m.state, m.expanded, m.noColor))
	default:
		m.viewport.SetContent(renderTimeline(m.state, m.noColor))
	}
	if atBottom && m.view == viewTimeline {
		m.viewport.GotoBottom()
	}
	return m
}

// EventMsg wraps a UI event for Bubble Tea.
type EventMsg struct {
	Event Event
}

// tickMsg carries a clock tick for elapsed-time updates.
type tickMsg time.Time

// feedbackSentMsg reports the outcome of a feedback submission.
type feedbackSentMsg struct {
	err error
}

// continueDoneMsg reports the outcome of a continue request.
type continueDoneMsg struct {
	err error
}

// waitForEvent blocks until a UI event is available.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		ev, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: ev}
	}
}

// tick emits a periodic tick message.
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
