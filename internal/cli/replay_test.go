package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskline/internal/event"
	"taskline/internal/spool"
)

func TestReplayFilePrintsTimeline(t *testing.T) {
	dir := t.TempDir()
	path := writeLogFile(t, dir, completedRunLog("t1"))

	var out, errOut bytes.Buffer
	code := Run([]string{"replay", path}, &out, &errOut)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitOK, code, errOut.String())
	}

	text := out.String()
	for _, want := range []string{
		"Fetch the source",
		"1 blocked call (deploy)",
		"status: completed (1m5s)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestReplayRejectsMalformedLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jsonl")
	if err := os.WriteFile(path, []byte("{bad\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var out, errOut bytes.Buffer
	code := Run([]string{"replay", path}, &out, &errOut)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.Contains(errOut.String(), "Failed to read log") {
		t.Errorf("expected read error, got: %s", errOut.String())
	}
}

func TestReplayReadsSpooledTask(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "http://127.0.0.1:8787")

	sp, err := spool.Open(filepath.Join(root, ".taskline", "spool.db"))
	if err != nil {
		t.Fatalf("open spool: %v", err)
	}
	ctx := context.Background()
	for _, ev := range completedRunLog("t1") {
		if _, err := sp.Append(ctx, ev); err != nil {
			t.Fatalf("seed spool: %v", err)
		}
	}
	if err := sp.SetTask(ctx, "t1", "Import the data", event.StatusCompleted); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	sp.Close()

	var out, errOut bytes.Buffer
	code := Run([]string{"replay", "--config", cfgPath, "t1"}, &out, &errOut)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitOK, code, errOut.String())
	}

	text := out.String()
	if !strings.Contains(text, "task t1: Import the data [completed]") {
		t.Errorf("expected task header, got:\n%s", text)
	}
	if !strings.Contains(text, "status: completed (1m5s)") {
		t.Errorf("expected derived summary, got:\n%s", text)
	}
}

func TestReplayUnknownTask(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "http://127.0.0.1:8787")

	var out, errOut bytes.Buffer
	code := Run([]string{"replay", "--config", cfgPath, "missing"}, &out, &errOut)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.Contains(errOut.String(), `No log file or spooled task named "missing"`) {
		t.Errorf("expected not-found message, got: %s", errOut.String())
	}
}
