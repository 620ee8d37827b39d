// Command demolog writes a synthetic task event log for demoing tail and
// replay against a plausible run, without a live executor. With --delay the
// events are appended gradually so `taskline tail` has something to follow.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"taskline/internal/event"
)

func main() {
	outPath := flag.String("out", "demo.jsonl", "output log path")
	steps := flag.Int("steps", 3, "number of steps in the run")
	fail := flag.Bool("fail", false, "end the run in a rate limit failure")
	delay := flag.Duration("delay", 0, "pause between appended events")
	flag.Parse()
	if *steps < 1 {
		fmt.Fprintln(os.Stderr, "usage: demolog --out <file.jsonl> [--steps n] [--fail] [--delay 500ms]")
		os.Exit(2)
	}

	f, err := os.OpenFile(*outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := writeRun(f, *steps, *fail, *delay); err != nil {
		fmt.Fprintf(os.Stderr, "write log: %v\n", err)
		os.Exit(1)
	}
}

func writeRun(f *os.File, steps int, fail bool, delay time.Duration) error {
	g := &generator{taskID: "demo", ts: time.Now().Add(-time.Duration(steps) * time.Minute).UnixMilli()}

	events := []event.TaskEvent{
		g.next(event.TaskCreated, func(p *event.Payload) { p.Title = "Demo: refresh the search index" }),
		g.next(event.PlanCreated, func(p *event.Payload) { p.Steps = plan(steps) }),
	}
	for i := 1; i <= steps; i++ {
		id := fmt.Sprintf("s%d", i)
		events = append(events,
			g.next(event.StepStarted, func(p *event.Payload) {
				p.Step = &event.StepDescriptor{ID: id, Description: stepDescription(i)}
			}),
			g.next(event.ToolCall, func(p *event.Payload) { p.Tool = "shell" }),
			g.next(event.TokenUsage, nil),
			g.next(event.ToolResult, func(p *event.Payload) { p.Tool = "shell"; p.DurationMS = 1800 }),
		)
		if i == 1 {
			events = append(events, g.next(event.ToolBlocked, func(p *event.Payload) {
				p.Tool = "deploy"
				p.Reason = "duplicate invocation"
			}))
		}
		events = append(events, g.next(event.StepCompleted, func(p *event.Payload) {
			p.Step = &event.StepDescriptor{ID: id}
			p.DurationMS = 45000
		}))
	}
	if fail {
		events = append(events, g.next(event.TaskFailed, func(p *event.Payload) {
			p.Message = "Error: 429 Too Many Requests"
		}))
	} else {
		events = append(events, g.next(event.TaskCompleted, nil))
	}

	for _, ev := range events {
		line, err := event.Encode(ev)
		if err != nil {
			return err
		}
		if _, err := f.Write(line); err != nil {
			return err
		}
		if delay > 0 {
			if err := f.Sync(); err != nil {
				return err
			}
			time.Sleep(delay)
		}
	}
	return nil
}

type generator struct {
	taskID string
	ts     int64
	n      int
}

func (g *generator) next(kind event.Type, fill func(*event.Payload)) event.TaskEvent {
	g.n++
	g.ts += 15000
	ev := event.TaskEvent{
		ID:        fmt.Sprintf("demo-%04d", g.n),
		TaskID:    g.taskID,
		Timestamp: g.ts,
		Type:      kind,
	}
	if fill != nil {
		fill(&ev.Payload)
	}
	return ev
}

func plan(steps int) []event.StepDescriptor {
	out := make([]event.StepDescriptor, 0, steps)
	for i := 1; i <= steps; i++ {
		out = append(out, event.StepDescriptor{ID: fmt.Sprintf("s%d", i), Description: stepDescription(i)})
	}
	return out
}

func stepDescription(i int) string {
	descriptions := []string{
		"Crawl the content sources",
		"Normalize and dedupe records",
		"Rebuild the index shards",
		"Swap the alias to the new index",
		"Verify query latency",
	}
	return descriptions[(i-1)%len(descriptions)]
}
