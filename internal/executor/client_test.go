package executor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskline/internal/event"
	"taskline/internal/testutil"
)

// newTestClient points a Client at a test server.
func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, token, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

// TestTaskFetchesMetadata verifies path, auth header and decoding.
func TestTaskFetchesMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tasks/t1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(Task{ID: "t1", Title: "Fix the build", Status: event.StatusExecuting})
	}))
	defer srv.Close()

	task, err := newTestClient(t, srv, "secret").Task(testutil.Context(t, 0), "t1")
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if task.Title != "Fix the build" || task.Status != event.StatusExecuting {
		t.Fatalf("unexpected task: %+v", task)
	}
}

// TestEventsPassesSinceSeq verifies the resume query parameter.
func TestEventsPassesSinceSeq(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tasks/t1/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("since_seq"); got != "42" {
			t.Errorf("expected since_seq=42, got %q", got)
		}
		json.NewEncoder(w).Encode([]event.TaskEvent{
			{ID: "e43", TaskID: "t1", Timestamp: 1000, Type: event.ToolCall},
		})
	}))
	defer srv.Close()

	events, err := newTestClient(t, srv, "").Events(testutil.Context(t, 0), "t1", 42)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e43" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestSendFeedbackPostsAction verifies the wire format of a submission.
func TestSendFeedbackPostsAction(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Action  string `json:"action"`
		Message string `json:"message"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("expected a request id on writes")
		}
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := newTestClient(t, srv, "").SendFeedback(testutil.Context(t, 0), "t1", "s1", event.ActionDrift, "focus on the CSV only")
	if err != nil {
		t.Fatalf("send feedback: %v", err)
	}
	if gotPath != "/api/v1/tasks/t1/steps/s1/feedback" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotBody.Action != "drift" || gotBody.Message != "focus on the CSV only" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
}

// TestContinueResumesTask verifies the resume endpoint.
func TestContinueResumesTask(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(t, srv, "").Continue(testutil.Context(t, 0), "t1"); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if gotPath != "/api/v1/tasks/t1/continue" {
		t.Fatalf("unexpected path %s", gotPath)
	}
}

// TestStatusErrorCarriesServerMessage verifies the error body surfaces.
func TestStatusErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "task not found"})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, "").Task(testutil.Context(t, 0), "missing")
	if err == nil || !strings.Contains(err.Error(), "task not found") {
		t.Fatalf("expected server message in error, got %v", err)
	}
}

// TestNewClientRejectsBadURL verifies constructor validation.
func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com", "", time.Second, nil); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}
