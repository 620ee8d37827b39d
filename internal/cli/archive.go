package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"taskline/internal/archive"
	"taskline/internal/event"
	"taskline/internal/spool"
	"taskline/internal/timeline"
)

// runArchive builds the handler for the archive command.
func runArchive(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: discover)")
		dbPath := fs.String("db", "", "Archive database path (default: from config)")
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

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		path := *dbPath
		if path == "" {
			path = cfg.Archive.Path
		}

		ctx := context.Background()
		taskID, status, events, code := loadRunLog(ctx, cfg.Spool.Path, source, stderr)
		if code != ExitOK {
			return code
		}

		db, err := archive.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open archive: %v\n", err)
			return ExitError
		}
		defer db.Close()

		rollup := archive.BuildRollup(taskID, events, status, time.Now())
		if err := archive.Store(ctx, db, rollup); err != nil {
			fmt.Fprintf(stderr, "Archive failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Archived task %s as run %s (%d events, %d steps)\n",
			taskID, rollup.RunID, rollup.EventCount, len(rollup.Steps))
		return ExitOK
	}
}

// loadRunLog resolves an archive source: an existing file is read as a
// recorded log, anything else is looked up in the spool. The returned
// status is empty for files, leaving the reconstruction to the fold.
func loadRunLog(ctx context.Context, spoolPath, source string, stderr io.Writer) (string, event.Status, []event.TaskEvent, int) {
	if f, err := os.Open(source); err == nil {
		events, readErr := event.ReadLog(f)
		f.Close()
		if readErr != nil {
			fmt.Fprintf(stderr, "Failed to read log: %v\n", readErr)
			return "", "", nil, ExitError
		}
		if len(events) == 0 {
			fmt.Fprintf(stderr, "Log %s holds no events\n", source)
			return "", "", nil, ExitError
		}
		return events[0].TaskID, "", events, ExitOK
	} else if !os.IsNotExist(err) {
		fmt.Fprintf(stderr, "Failed to open %s: %v\n", source, err)
		return "", "", nil, ExitError
	}

	sp, err := spool.Open(spoolPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open spool: %v\n", err)
		return "", "", nil, ExitError
	}
	defer sp.Close()

	info, err := sp.Task(ctx, source)
	if err != nil {
		if errors.Is(err, spool.ErrNotFound) {
			fmt.Fprintf(stderr, "No log file or spooled task named %q\n", source)
		} else {
			fmt.Fprintf(stderr, "Failed to read spool: %v\n", err)
		}
		return "", "", nil, ExitError
	}
	events, err := sp.Events(ctx, source, 0)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read spool: %v\n", err)
		return "", "", nil, ExitError
	}

	// The fold sees the whole log; the stored status only fills in when
	// the log carries no lifecycle signal at all.
	status := timeline.StatusFromLog(events)
	if status == event.StatusPending {
		status = info.Status
	}
	return info.TaskID, status, events, ExitOK
}
