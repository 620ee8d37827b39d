package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskline/internal/event"
	"taskline/internal/executor"
	"taskline/internal/feedback"
	"taskline/internal/logging"
	"taskline/internal/spool"
	"taskline/internal/timeline"
	"taskline/internal/ui/live"
)

// uiSink is where a follow session delivers its events. The live TUI
// controller and the plain printer both satisfy it. Methods are called
// from the follow goroutine in log order; Done reports that the sink
// stopped consuming, either because the viewer quit or the task settled.
type uiSink interface {
	OnTask(taskID, title string, status event.Status)
	OnBacklog(events []event.TaskEvent)
	OnTaskEvent(ev event.TaskEvent)
	OnStreamError(err error)
	OnDone()
	Close()
	Wait()
	Done() <-chan struct{}
}

// runWatch builds the handler for the watch command.
func runWatch(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		uiMode := fs.String("ui", "", "UI mode: auto, live or plain")
		configPath := fs.String("config", "", "Path to config file (default: discover)")
		noColor := fs.Bool("no-color", false, "Disable colors in live mode")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}

		taskID := fs.Arg(0)
		if taskID == "" {
			fmt.Fprintln(stderr, "Missing <task-id>")
			return ExitUsage
		}
		if fs.NArg() > 1 {
			fmt.Fprintln(stderr, "Too many arguments")
			return ExitUsage
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		decision, err := resolveUIMode(*uiMode, cfg.UI.Mode, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return ExitUsage
		}
		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}

		// The live view owns the terminal, so this command logs to a file.
		logger, err := logging.NewFile(cfg.Log.File, cfg.Log.Debug)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open log file: %v\n", err)
			return ExitError
		}
		defer logger.Sync()

		client, err := executor.NewClient(cfg.Executor.BaseURL, os.Getenv(cfg.Executor.TokenEnv),
			time.Duration(cfg.Executor.TimeoutSeconds)*time.Second, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to build executor client: %v\n", err)
			return ExitError
		}
		sp, err := spool.Open(cfg.Spool.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open spool: %v\n", err)
			return ExitError
		}
		defer sp.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var sink uiSink
		if decision.useLive {
			sink = live.Start(stdout, live.Options{
				NoColor:  *noColor,
				Feedback: feedback.NewController(taskID, client, logger),
				Continue: func(cctx context.Context) error { return client.Continue(cctx, taskID) },
			})
		} else {
			sink = newPlainSink(stdout, stderr)
		}

		err = followTask(ctx, client, sp, sink, taskID, logger)
		return finishFollow(ctx, sink, err, "Watch", stderr)
	}
}

// followTask drives one watch session: fetch the task, replay the spooled
// prefix plus whatever the executor holds beyond it, then follow the live
// stream. Fresh events are spooled before they reach the sink, so the next
// session resumes where this one stopped.
func followTask(ctx context.Context, client *executor.Client, sp *spool.Spool, sink uiSink, taskID string, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// Stop fetching the moment the sink stops consuming.
		select {
		case <-sink.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	task, err := client.Task(ctx, taskID)
	if err != nil {
		return fmt.Errorf("fetch task: %w", err)
	}
	sink.OnTask(taskID, task.Title, task.Status)
	if err := sp.SetTask(ctx, taskID, task.Title, task.Status); err != nil {
		return err
	}

	spooled, err := sp.Events(ctx, taskID, 0)
	if err != nil {
		return err
	}
	lastSeq, err := sp.LastSeq(ctx, taskID)
	if err != nil {
		return err
	}
	fresh, err := client.Events(ctx, taskID, lastSeq)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	for _, ev := range fresh {
		if _, err := sp.Append(ctx, ev); err != nil {
			return fmt.Errorf("spool event %s: %w", ev.ID, err)
		}
	}
	backlog := append(spooled, fresh...)
	sink.OnBacklog(backlog)

	if terminalStatus(task.Status) || terminalStatus(timeline.StatusFromLog(backlog)) {
		sink.OnDone()
		return nil
	}

	stream, err := client.Stream(ctx, taskID)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				sink.OnDone()
				return nil
			}
			if _, err := sp.Append(ctx, ev); err != nil && ctx.Err() == nil {
				log.Warn("spool append failed", zap.String("event", ev.ID), zap.Error(err))
			}
			sink.OnTaskEvent(ev)
			// Fold the one event; pending means it carried no lifecycle
			// signal.
			folded := timeline.StatusFromLog([]event.TaskEvent{ev})
			if folded == event.StatusPending {
				continue
			}
			if err := sp.SetTask(ctx, taskID, "", folded); err != nil && ctx.Err() == nil {
				log.Warn("spool status update failed", zap.Error(err))
			}
			if terminalStatus(folded) {
				sink.OnDone()
				return nil
			}
		}
	}
}

// finishFollow tears the sink down in the right order and converts the
// follow result into an exit code. On a real error the UI is dismissed
// first so the message lands on a readable terminal; after a clean end the
// final frame stays up until the viewer quits.
func finishFollow(ctx context.Context, sink uiSink, err error, verb string, stderr io.Writer) int {
	if err != nil && !errors.Is(err, context.Canceled) {
		sink.Close()
		sink.Wait()
		fmt.Fprintf(stderr, "%s failed: %v\n", verb, err)
		return ExitError
	}
	if ctx.Err() != nil {
		sink.Close()
		sink.Wait()
		return ExitOK
	}
	sink.Wait()
	sink.Close()
	return ExitOK
}

// terminalStatus reports a task that can produce no further events.
func terminalStatus(s event.Status) bool {
	switch s {
	case event.StatusCompleted, event.StatusFailed, event.StatusCancelled:
		return true
	default:
		return false
	}
}
