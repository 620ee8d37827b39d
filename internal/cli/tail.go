package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"taskline/internal/event"
	"taskline/internal/logging"
	"taskline/internal/tail"
	"taskline/internal/timeline"
	"taskline/internal/ui/live"
)

// runTail builds the handler for the tail command.
func runTail(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
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

		path := fs.Arg(0)
		if path == "" {
			fmt.Fprintln(stderr, "Missing <file.jsonl>")
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

		logger, err := logging.NewFile(cfg.Log.File, cfg.Log.Debug)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open log file: %v\n", err)
			return ExitError
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := tail.New(path, logger).Run(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open log: %v\n", err)
			return ExitError
		}

		var sink uiSink
		if decision.useLive {
			// No executor behind a file, so the feedback panel stays off.
			sink = live.Start(stdout, live.Options{NoColor: *noColor})
		} else {
			sink = newPlainSink(stdout, stderr)
		}

		err = followFile(ctx, events, sink)
		return finishFollow(ctx, sink, err, "Tail", stderr)
	}
}

// followFile forwards decoded file events to the sink. A file carries no
// metadata, so the task id and status come entirely from the log itself.
func followFile(ctx context.Context, events <-chan event.TaskEvent, sink uiSink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sink.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				sink.OnDone()
				return nil
			}
			sink.OnTaskEvent(ev)
			if terminalStatus(timeline.StatusFromLog([]event.TaskEvent{ev})) {
				sink.OnDone()
				return nil
			}
		}
	}
}
