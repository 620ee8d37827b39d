package tail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskline/internal/event"
	"taskline/internal/testutil"
)

// TestTailReplaysExistingLines verifies the current file contents stream
// before any appends.
func TestTailReplaysExistingLines(t *testing.T) {
	path := writeLog(t,
		`{"id":"e1","taskId":"t1","timestamp":1000,"type":"task_created","payload":{"title":"Build"}}`,
		`{"id":"e2","taskId":"t1","timestamp":2000,"type":"tool_call","payload":{"tool":"read_file"}}`,
	)
	ctx, cancel := context.WithCancel(testutil.Context(t, 0))
	defer cancel()

	events, err := New(path, nil).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ev := recvEvent(t, events); ev.ID != "e1" {
		t.Fatalf("first event = %s", ev.ID)
	}
	if ev := recvEvent(t, events); ev.ID != "e2" {
		t.Fatalf("second event = %s", ev.ID)
	}

	cancel()
	assertClosed(t, events)
}

// TestTailFollowsAppends verifies appended lines stream as they land.
func TestTailFollowsAppends(t *testing.T) {
	path := writeLog(t,
		`{"id":"e1","taskId":"t1","timestamp":1000,"type":"task_created"}`,
	)
	ctx, cancel := context.WithCancel(testutil.Context(t, 0))
	defer cancel()

	events, err := New(path, nil).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ev := recvEvent(t, events); ev.ID != "e1" {
		t.Fatalf("first event = %s", ev.ID)
	}

	appendLine(t, path, `{"id":"e2","taskId":"t1","timestamp":2000,"type":"task_completed"}`)
	if ev := recvEvent(t, events); ev.ID != "e2" {
		t.Fatalf("appended event = %s", ev.ID)
	}
}

// TestTailSkipsMalformedLines verifies a bad line never kills the stream.
func TestTailSkipsMalformedLines(t *testing.T) {
	path := writeLog(t,
		`{"id":"e1","taskId":"t1","timestamp":1000,"type":"task_created"}`,
	)
	ctx, cancel := context.WithCancel(testutil.Context(t, 0))
	defer cancel()

	events, err := New(path, nil).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ev := recvEvent(t, events); ev.ID != "e1" {
		t.Fatalf("first event = %s", ev.ID)
	}

	appendLine(t, path, `{not json`)
	appendLine(t, path, `{"id":"e3","taskId":"t1","timestamp":3000,"type":"error","payload":{"message":"boom"}}`)
	if ev := recvEvent(t, events); ev.ID != "e3" {
		t.Fatalf("expected the valid event after the bad line, got %s", ev.ID)
	}
}

// TestTailMissingFile verifies a missing path fails up front.
func TestTailMissingFile(t *testing.T) {
	ctx := testutil.Context(t, 0)
	if _, err := New(filepath.Join(t.TempDir(), "absent.jsonl"), nil).Run(ctx); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// writeLog creates a log file with the given lines.
func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task.jsonl")
	var body string
	for _, line := range lines {
		body += line + "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

// appendLine appends one line to the log file.
func appendLine(t *testing.T, path, line string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString(line + "\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
}

// recvEvent waits for the next streamed event.
func recvEvent(t *testing.T, events <-chan event.TaskEvent) event.TaskEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatalf("stream closed early")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event")
		return event.TaskEvent{}
	}
}

// assertClosed waits for the stream to close.
func assertClosed(t *testing.T, events <-chan event.TaskEvent) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("stream did not close")
		}
	}
}
