package cucumber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"taskline/internal/cli"
	"taskline/internal/event"

	"github.com/cucumber/godog"
)

type featureState struct {
	projectDir  string
	previousWD  string
	stdout      bytes.Buffer
	stderr      bytes.Buffer
	exitCode    int
	initialized bool
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &featureState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		state.cleanup()
		return ctx, nil
	})

	ctx.Step(`^a taskline project$`, state.aTasklineProject)
	ctx.Step(`^a recorded log of a completed run$`, state.aCompletedRunLog)
	ctx.Step(`^a recorded log of a rate limited run$`, state.aRateLimitedRunLog)
	ctx.Step(`^I run "([^"]+)"$`, state.iRunCommand)
	ctx.Step(`^the exit code is zero$`, state.theExitCodeIsZero)
	ctx.Step(`^the exit code is non-zero$`, state.theExitCodeIsNonZero)
	ctx.Step(`^the output contains "([^"]+)"$`, state.theOutputContains)
	ctx.Step(`^the output does not contain "([^"]+)"$`, state.theOutputDoesNotContain)
	ctx.Step(`^the output lists these commands:$`, state.theOutputListsCommands)
}

func (s *featureState) reset() {
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = 0
	s.initialized = false
}

func (s *featureState) cleanup() {
	if s.previousWD != "" {
		_ = os.Chdir(s.previousWD)
		s.previousWD = ""
	}
	if s.projectDir != "" {
		_ = os.RemoveAll(s.projectDir)
		s.projectDir = ""
	}
}

func (s *featureState) aTasklineProject() error {
	if s.initialized {
		return nil
	}
	dir, err := os.MkdirTemp("", "taskline-feature-*")
	if err != nil {
		return fmt.Errorf("create temp project: %w", err)
	}
	s.projectDir = dir

	configPath := filepath.Join(dir, ".taskline", "config.yml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(projectConfigYAML()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}
	s.previousWD = wd
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *featureState) aCompletedRunLog() error {
	if err := s.aTasklineProject(); err != nil {
		return err
	}
	return s.writeLog(completedRunEvents())
}

func (s *featureState) aRateLimitedRunLog() error {
	if err := s.aTasklineProject(); err != nil {
		return err
	}
	return s.writeLog(rateLimitedRunEvents())
}

func (s *featureState) iRunCommand(command string) error {
	args := strings.Fields(command)
	if len(args) == 0 {
		return fmt.Errorf("command is empty")
	}
	if args[0] == "taskline" {
		args = args[1:]
	}
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = cli.Run(args, &s.stdout, &s.stderr)
	return nil
}

func (s *featureState) theExitCodeIsZero() error {
	if s.exitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d (stderr: %s)", s.exitCode, s.stderr.String())
	}
	return nil
}

func (s *featureState) theExitCodeIsNonZero() error {
	if s.exitCode == 0 {
		return fmt.Errorf("expected non-zero exit code")
	}
	return nil
}

func (s *featureState) theOutputContains(text string) error {
	if !strings.Contains(s.stdout.String(), text) {
		return fmt.Errorf("expected %q in output:\n%s", text, s.stdout.String())
	}
	return nil
}

func (s *featureState) theOutputDoesNotContain(text string) error {
	if strings.Contains(s.stdout.String(), text) {
		return fmt.Errorf("unexpected %q in output:\n%s", text, s.stdout.String())
	}
	return nil
}

func (s *featureState) theOutputListsCommands(table *godog.Table) error {
	output := s.stdout.String()
	for _, row := range table.Rows {
		for _, cell := range row.Cells {
			command := strings.TrimSpace(cell.Value)
			if command == "" {
				continue
			}
			if !strings.Contains(output, command) {
				return fmt.Errorf("expected command %q in output", command)
			}
		}
	}
	return nil
}

func (s *featureState) writeLog(events []event.TaskEvent) error {
	var buf bytes.Buffer
	for _, ev := range events {
		line, err := event.Encode(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
		buf.Write(line)
	}
	path := filepath.Join(s.projectDir, "events.jsonl")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func projectConfigYAML() string {
	return `version: 1

executor:
  base_url: "http://127.0.0.1:8787"
  token_env: "TASKLINE_TOKEN"
  timeout_seconds: 5

ui:
  mode: plain
`
}

func completedRunEvents() []event.TaskEvent {
	return []event.TaskEvent{
		logEvent("e1", 1000, event.TaskCreated, func(p *event.Payload) { p.Title = "Import the data" }),
		logEvent("e2", 2000, event.StepStarted, func(p *event.Payload) {
			p.Step = &event.StepDescriptor{ID: "s1", Description: "Fetch the source"}
		}),
		logEvent("e3", 3000, event.TokenUsage, nil),
		logEvent("e4", 4000, event.ToolBlocked, func(p *event.Payload) { p.Tool = "deploy" }),
		logEvent("e5", 65000, event.StepCompleted, func(p *event.Payload) {
			p.Step = &event.StepDescriptor{ID: "s1"}
			p.DurationMS = 63000
		}),
		logEvent("e6", 66000, event.TaskCompleted, nil),
	}
}

func rateLimitedRunEvents() []event.TaskEvent {
	return []event.TaskEvent{
		logEvent("e1", 1000, event.TaskCreated, func(p *event.Payload) { p.Title = "Deploy the service" }),
		logEvent("e2", 2000, event.StepStarted, func(p *event.Payload) {
			p.Step = &event.StepDescriptor{ID: "s1", Description: "Push the image"}
		}),
		logEvent("e3", 90000, event.TaskFailed, func(p *event.Payload) {
			p.Message = "Error: 429 Too Many Requests"
		}),
	}
}

func logEvent(id string, ts int64, kind event.Type, fill func(*event.Payload)) event.TaskEvent {
	ev := event.TaskEvent{ID: id, TaskID: "t1", Timestamp: ts, Type: kind}
	if fill != nil {
		fill(&ev.Payload)
	}
	return ev
}
