package cli

import (
	"bytes"
	"strings"
	"testing"

	"taskline/internal/event"
)

func TestSendDeliversDriftFeedback(t *testing.T) {
	root := t.TempDir()
	fake, srv := newFakeExecutor(t, "t1", "Import the data", event.StatusExecuting, nil)
	cfgPath := writeTestConfig(t, root, srv.URL)

	var out, errOut bytes.Buffer
	code := Run([]string{"send", "--config", cfgPath, "t1", "s1", "drift", "use", "the", "v2", "api"}, &out, &errOut)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitOK, code, errOut.String())
	}
	if !strings.Contains(out.String(), "Sent drift to step s1") {
		t.Errorf("expected confirmation, got: %s", out.String())
	}

	calls := fake.feedbackCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one feedback call, got %d", len(calls))
	}
	call := calls[0]
	if call.TaskID != "t1" || call.StepID != "s1" {
		t.Errorf("feedback addressed to %s/%s", call.TaskID, call.StepID)
	}
	if call.Body["action"] != "drift" {
		t.Errorf("expected drift action, got %v", call.Body["action"])
	}
	if call.Body["message"] != "use the v2 api" {
		t.Errorf("expected joined message, got %v", call.Body["message"])
	}
}

func TestSendRetryOmitsMessage(t *testing.T) {
	root := t.TempDir()
	fake, srv := newFakeExecutor(t, "t1", "Import the data", event.StatusExecuting, nil)
	cfgPath := writeTestConfig(t, root, srv.URL)

	var out, errOut bytes.Buffer
	code := Run([]string{"send", "--config", cfgPath, "t1", "s1", "retry"}, &out, &errOut)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitOK, code, errOut.String())
	}

	calls := fake.feedbackCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one feedback call, got %d", len(calls))
	}
	if calls[0].Body["action"] != "retry" {
		t.Errorf("expected retry action, got %v", calls[0].Body["action"])
	}
	if _, present := calls[0].Body["message"]; present {
		t.Errorf("retry must not carry a message, got %v", calls[0].Body)
	}
}
