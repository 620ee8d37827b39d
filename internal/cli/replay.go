package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"taskline/internal/event"
	"taskline/internal/spool"
)

// runReplay builds the handler for the replay command.
func runReplay(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: discover)")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}

		source := fs.Arg(0)
		if source == "" {
			fmt.Fprintln(stderr, "Missing <file.jsonl|task-id>")
			return ExitUsage
		}
		if fs.NArg() > 1 {
			fmt.Fprintln(stderr, "Too many arguments")
			return ExitUsage
		}

		sink := newPlainSink(stdout, stderr)

		// A path that exists on disk is a recorded log; anything else is
		// treated as a spooled task id.
		if f, err := os.Open(source); err == nil {
			events, readErr := event.ReadLog(f)
			f.Close()
			if readErr != nil {
				fmt.Fprintf(stderr, "Failed to read log: %v\n", readErr)
				return ExitError
			}
			sink.OnBacklog(events)
			sink.OnDone()
			return ExitOK
		} else if !os.IsNotExist(err) {
			fmt.Fprintf(stderr, "Failed to open %s: %v\n", source, err)
			return ExitError
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		sp, err := spool.Open(cfg.Spool.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open spool: %v\n", err)
			return ExitError
		}
		defer sp.Close()

		ctx := context.Background()
		info, err := sp.Task(ctx, source)
		if err != nil {
			if errors.Is(err, spool.ErrNotFound) {
				fmt.Fprintf(stderr, "No log file or spooled task named %q\n", source)
			} else {
				fmt.Fprintf(stderr, "Failed to read spool: %v\n", err)
			}
			return ExitError
		}
		events, err := sp.Events(ctx, source, 0)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read spool: %v\n", err)
			return ExitError
		}

		sink.OnTask(info.TaskID, info.Title, info.Status)
		sink.OnBacklog(events)
		sink.OnDone()
		return ExitOK
	}
}
