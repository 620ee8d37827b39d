package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"taskline/internal/event"
)

// fakeExecutor is an in-process stand-in for the agent executor API.
type fakeExecutor struct {
	mu     sync.Mutex
	taskID string
	title  string
	status event.Status
	events []event.TaskEvent
	calls  []feedbackCall
}

type feedbackCall struct {
	TaskID string
	StepID string
	Body   map[string]any
}

func newFakeExecutor(t *testing.T, taskID, title string, status event.Status, events []event.TaskEvent) (*fakeExecutor, *httptest.Server) {
	t.Helper()
	f := &fakeExecutor{taskID: taskID, title: title, status: status, events: events}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != f.taskID {
			http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
			return
		}
		respondJSON(w, map[string]any{"id": f.taskID, "title": f.title, "status": f.status})
	})
	mux.HandleFunc("GET /api/v1/tasks/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		since := int64(0)
		if raw := r.URL.Query().Get("since_seq"); raw != "" {
			since, _ = strconv.ParseInt(raw, 10, 64)
		}
		f.mu.Lock()
		var out []event.TaskEvent
		if since < int64(len(f.events)) {
			out = f.events[since:]
		}
		f.mu.Unlock()
		respondJSON(w, out)
	})
	mux.HandleFunc("POST /api/v1/tasks/{id}/steps/{step}/feedback", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.calls = append(f.calls, feedbackCall{
			TaskID: r.PathValue("id"),
			StepID: r.PathValue("step"),
			Body:   body,
		})
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeExecutor) feedbackCalls() []feedbackCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]feedbackCall(nil), f.calls...)
}

// writeTestConfig writes a .taskline config under root pointing at the
// given executor, with spool, archive and log paths defaulted inside root.
func writeTestConfig(t *testing.T, root, baseURL string) string {
	t.Helper()
	dir := filepath.Join(root, ".taskline")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	body := fmt.Sprintf(`version: 1
executor:
  base_url: %q
  token_env: "TASKLINE_TEST_TOKEN"
  timeout_seconds: 5
ui:
  mode: plain
`, baseURL)
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// writeLogFile writes events as a JSONL log and returns its path.
func writeLogFile(t *testing.T, dir string, events []event.TaskEvent) string {
	t.Helper()
	path := filepath.Join(dir, "events.jsonl")
	var buf []byte
	for _, ev := range events {
		line, err := event.Encode(ev)
		if err != nil {
			t.Fatalf("encode event %s: %v", ev.ID, err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
	return path
}

func taskEv(taskID string, ts int64, kind event.Type, fill func(*event.Payload)) event.TaskEvent {
	ev := event.TaskEvent{
		ID:        fmt.Sprintf("e%d", ts),
		TaskID:    taskID,
		Timestamp: ts,
		Type:      kind,
	}
	if fill != nil {
		fill(&ev.Payload)
	}
	return ev
}

// completedRunLog is a small finished run: one step, one blocked call and
// one internal event that must never reach the output.
func completedRunLog(taskID string) []event.TaskEvent {
	return []event.TaskEvent{
		taskEv(taskID, 1000, event.TaskCreated, func(p *event.Payload) { p.Title = "Import the data" }),
		taskEv(taskID, 2000, event.StepStarted, func(p *event.Payload) {
			p.Step = &event.StepDescriptor{ID: "s1", Description: "Fetch the source"}
		}),
		taskEv(taskID, 3000, event.TokenUsage, nil),
		taskEv(taskID, 4000, event.ToolBlocked, func(p *event.Payload) { p.Tool = "deploy" }),
		taskEv(taskID, 65000, event.StepCompleted, func(p *event.Payload) {
			p.Step = &event.StepDescriptor{ID: "s1"}
			p.DurationMS = 63000
		}),
		taskEv(taskID, 66000, event.TaskCompleted, nil),
	}
}

// failedRunLog ends in a rate-limit failure the classifier must rewrite.
func failedRunLog(taskID string) []event.TaskEvent {
	return []event.TaskEvent{
		taskEv(taskID, 1000, event.TaskCreated, func(p *event.Payload) { p.Title = "Deploy the service" }),
		taskEv(taskID, 2000, event.StepStarted, func(p *event.Payload) {
			p.Step = &event.StepDescriptor{ID: "s1", Description: "Push the image"}
		}),
		taskEv(taskID, 90000, event.TaskFailed, func(p *event.Payload) {
			p.Message = "Error: 429 Too Many Requests"
		}),
	}
}
