package timeline

import (
	"reflect"
	"testing"
	"time"

	"taskline/internal/event"
)

// TestFilterVisibleDropsInternalTypes verifies the denylist is applied.
func TestFilterVisibleDropsInternalTypes(t *testing.T) {
	log := []event.TaskEvent{
		at(1000, event.TaskCreated),
		at(2000, event.TokenUsage),
		at(3000, event.ToolCall),
		at(4000, event.DebugLog),
		at(5000, event.Checkpoint),
		at(6000, event.TaskCompleted),
	}
	visible := FilterVisible(log)
	if len(visible) != 3 {
		t.Fatalf("expected 3 visible events, got %d", len(visible))
	}
	for _, ev := range visible {
		if ev.Type == event.TokenUsage || ev.Type == event.DebugLog || ev.Type == event.Checkpoint {
			t.Fatalf("internal event leaked through filter: %s", ev.Type)
		}
	}
}

// TestFilterVisibleDropsVerificationNoise verifies content-based filtering.
func TestFilterVisibleDropsVerificationNoise(t *testing.T) {
	internal := at(2000, event.AssistantMessage)
	internal.Payload.Internal = true
	spoken := at(3000, event.AssistantMessage)
	spoken.Payload.Text = "done with the refactor"

	log := []event.TaskEvent{
		at(1000, event.VerificationStarted),
		internal,
		spoken,
		step(4000, event.StepStarted, "s1", "Verify the fix compiles"),
		step(5000, event.StepStarted, "s2", "Write the migration"),
		at(6000, event.VerificationPassed),
	}
	visible := FilterVisible(log)
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible events, got %d: %+v", len(visible), visible)
	}
	if visible[0].Payload.Text != "done with the refactor" {
		t.Fatalf("expected spoken message kept, got %+v", visible[0])
	}
	if s, _ := visible[1].Step(); s.ID != "s2" {
		t.Fatalf("expected verification step dropped, kept %s", s.ID)
	}
}

// TestFilterVisibleIsIdempotent verifies filter(filter(x)) == filter(x).
func TestFilterVisibleIsIdempotent(t *testing.T) {
	log := []event.TaskEvent{
		at(1000, event.TaskCreated),
		at(2000, event.TokenUsage),
		step(3000, event.StepStarted, "s1", "Verify output"),
		at(4000, event.ToolBlocked),
		at(5000, event.VerificationFailed),
	}
	once := FilterVisible(log)
	twice := FilterVisible(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter is not idempotent: %+v vs %+v", once, twice)
	}
}

// TestActiveStepLastStartWins verifies overlapping starts collapse to the
// most recent one and stale completions are ignored.
func TestActiveStepLastStartWins(t *testing.T) {
	log := []event.TaskEvent{
		step(1000, event.StepStarted, "a", "First"),
		step(2000, event.StepStarted, "b", "Second"),
	}
	if got := ActiveStep(log); got != "b" {
		t.Fatalf("expected b active, got %q", got)
	}

	log = append(log, step(3000, event.StepCompleted, "a", ""))
	if got := ActiveStep(log); got != "b" {
		t.Fatalf("expected stale completion ignored, got %q", got)
	}

	log = append(log, step(4000, event.StepCompleted, "b", ""))
	if got := ActiveStep(log); got != "" {
		t.Fatalf("expected no active step, got %q", got)
	}
}

// TestActiveStepTerminalVariants verifies failed and skipped also clear.
func TestActiveStepTerminalVariants(t *testing.T) {
	for _, terminal := range []event.Type{event.StepCompleted, event.StepFailed, event.StepSkipped} {
		log := []event.TaskEvent{
			step(1000, event.StepStarted, "s1", "Work"),
			step(2000, terminal, "s1", ""),
		}
		if got := ActiveStep(log); got != "" {
			t.Fatalf("%s: expected cleared active step, got %q", terminal, got)
		}
	}
}

// TestActiveStepIgnoresUnmatchedTerminal verifies a terminal event with no
// prior start is a no-op.
func TestActiveStepIgnoresUnmatchedTerminal(t *testing.T) {
	log := []event.TaskEvent{step(1000, event.StepCompleted, "ghost", "")}
	if got := ActiveStep(log); got != "" {
		t.Fatalf("expected no active step, got %q", got)
	}
}

// TestCountBlocked verifies the aggregate over repeated blocks.
func TestCountBlocked(t *testing.T) {
	deploy := at(2000, event.ToolBlocked)
	deploy.Payload.Tool = "deploy"
	log := []event.TaskEvent{
		at(1000, event.ToolCall),
		deploy, deploy,
		at(5000, event.ToolBlocked),
	}
	log[3].Payload.Tool = "network"
	if got := CountBlocked(log); got != 3 {
		t.Fatalf("expected 3 blocked calls, got %d", got)
	}
	tools := BlockedTools(log)
	if !reflect.DeepEqual(tools, []string{"deploy", "network"}) {
		t.Fatalf("unexpected blocked tools: %v", tools)
	}
}

// TestElapsedActiveTracksNow verifies live tasks measure up to the clock.
func TestElapsedActiveTracksNow(t *testing.T) {
	visible := []event.TaskEvent{
		at(10_000, event.TaskCreated),
		at(20_000, event.ToolCall),
	}
	now := time.UnixMilli(55_000)
	d, show := Elapsed(visible, event.StatusExecuting, now)
	if d != 45*time.Second || !show {
		t.Fatalf("expected 45s shown, got %v show=%v", d, show)
	}
}

// TestElapsedSettledUsesLastEvent verifies finished tasks are stable.
func TestElapsedSettledUsesLastEvent(t *testing.T) {
	visible := []event.TaskEvent{
		at(10_000, event.TaskCreated),
		at(32_500, event.TaskCompleted),
	}
	later := time.UnixMilli(99_999_999)
	d, show := Elapsed(visible, event.StatusCompleted, later)
	if d != 22500*time.Millisecond || !show {
		t.Fatalf("expected 22.5s shown, got %v show=%v", d, show)
	}
}

// TestElapsedHidesSubSecond verifies the render threshold.
func TestElapsedHidesSubSecond(t *testing.T) {
	visible := []event.TaskEvent{
		at(10_000, event.TaskCreated),
		at(10_900, event.TaskCompleted),
	}
	d, show := Elapsed(visible, event.StatusCompleted, time.UnixMilli(10_900))
	if show {
		t.Fatalf("expected sub-second duration hidden, got %v", d)
	}
	if _, show := Elapsed(nil, event.StatusExecuting, time.Now()); show {
		t.Fatalf("expected empty timeline to hide elapsed")
	}
}

// TestStatusFromLog verifies lifecycle reconstruction for replay mode.
func TestStatusFromLog(t *testing.T) {
	cases := []struct {
		name string
		log  []event.TaskEvent
		want event.Status
	}{
		{"empty", nil, event.StatusPending},
		{"created", []event.TaskEvent{at(1, event.TaskCreated)}, event.StatusPlanning},
		{"planned", []event.TaskEvent{at(1, event.TaskCreated), at(2, event.PlanCreated)}, event.StatusExecuting},
		{"paused", []event.TaskEvent{at(1, event.TaskCreated), at(2, event.TaskPaused)}, event.StatusPaused},
		{"waiting approval", []event.TaskEvent{at(1, event.PlanCreated), at(2, event.ApprovalRequested)}, event.StatusInterrupted},
		{"resumed", []event.TaskEvent{at(1, event.TaskPaused), at(2, event.TaskResumed)}, event.StatusExecuting},
		{"failed", []event.TaskEvent{at(1, event.PlanCreated), at(2, event.TaskFailed)}, event.StatusFailed},
		{"done", []event.TaskEvent{at(1, event.PlanCreated), at(2, event.TaskCompleted)}, event.StatusCompleted},
	}
	for _, tc := range cases {
		if got := StatusFromLog(tc.log); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

// TestStatusFromLogPrefersPayloadStatus verifies explicit statuses win.
func TestStatusFromLogPrefersPayloadStatus(t *testing.T) {
	ev := at(1, event.TaskPaused)
	ev.Payload.Status = event.StatusInterrupted
	if got := StatusFromLog([]event.TaskEvent{ev}); got != event.StatusInterrupted {
		t.Fatalf("expected payload status to win, got %s", got)
	}
}

// TestDeriveIsDeterministic verifies equal inputs yield equal snapshots.
func TestDeriveIsDeterministic(t *testing.T) {
	log := sampleLog()
	now := time.UnixMilli(60_000)
	a := Derive("t1", log, event.StatusExecuting, now)
	b := Derive("t1", log, event.StatusExecuting, now)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("snapshots differ for identical inputs")
	}
}

// TestDerivePrefixConsistency verifies a snapshot from a prefix agrees with
// the streaming result at the same point.
func TestDerivePrefixConsistency(t *testing.T) {
	log := sampleLog()
	now := time.UnixMilli(60_000)
	full := Derive("t1", log, "", now)
	for i := range log {
		prefix := Derive("t1", log[:i+1], "", now)
		if prefix.BlockedCount > full.BlockedCount {
			t.Fatalf("blocked count regressed at prefix %d", i)
		}
		if len(prefix.Visible) > len(full.Visible) {
			t.Fatalf("visible events regressed at prefix %d", i)
		}
	}
	if full.ActiveStepID != "" {
		t.Fatalf("expected no active step at end, got %q", full.ActiveStepID)
	}
	if full.Status != event.StatusCompleted {
		t.Fatalf("expected completed status, got %s", full.Status)
	}
}

// TestDeriveCollectsContext verifies title, summaries and last error.
func TestDeriveCollectsContext(t *testing.T) {
	created := at(1000, event.TaskCreated)
	created.Payload.Title = "Ship the feature"
	summarized := at(2000, event.ContextSummarized)
	summarized.Payload.Summary = "1. **Primary Request**\nDo the thing."
	failed := at(3000, event.Error)
	failed.Payload.Message = "Error: 429 Too Many Requests"

	snap := Derive("t1", []event.TaskEvent{created, summarized, failed}, "", time.UnixMilli(4000))
	if snap.Title != "Ship the feature" {
		t.Fatalf("expected title, got %q", snap.Title)
	}
	if len(snap.Summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(snap.Summaries))
	}
	if snap.LastError != "Error: 429 Too Many Requests" {
		t.Fatalf("expected raw last error, got %q", snap.LastError)
	}
}

// sampleLog builds a small realistic task history.
func sampleLog() []event.TaskEvent {
	blocked := at(4000, event.ToolBlocked)
	blocked.Payload.Tool = "deploy"
	return []event.TaskEvent{
		at(1000, event.TaskCreated),
		at(2000, event.PlanCreated),
		step(3000, event.StepStarted, "s1", "Implement"),
		blocked,
		at(5000, event.TokenUsage),
		step(6000, event.StepCompleted, "s1", ""),
		at(7000, event.TaskCompleted),
	}
}

// at builds a minimal event of the given type.
func at(ts int64, kind event.Type) event.TaskEvent {
	return event.TaskEvent{ID: "e", TaskID: "t1", Timestamp: ts, Type: kind}
}

// step builds a step lifecycle event.
func step(ts int64, kind event.Type, id, desc string) event.TaskEvent {
	ev := at(ts, kind)
	ev.Payload.Step = &event.StepDescriptor{ID: id, Description: desc}
	return ev
}
