package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"taskline/internal/archive"
)

// runStats builds the handler for the stats command.
func runStats(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: discover)")
		dbPath := fs.String("db", "", "Archive database path (default: from config)")
		limit := fs.Int("limit", 10, "Rows per listing")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		if fs.NArg() > 0 {
			fmt.Fprintln(stderr, "Too many arguments")
			return ExitUsage
		}
		if *limit <= 0 {
			fmt.Fprintln(stderr, "Limit must be positive")
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
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(stderr, "Archive not found: %v\n", err)
			return ExitError
		}

		db, err := archive.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open archive: %v\n", err)
			return ExitError
		}
		defer db.Close()

		ctx := context.Background()
		totals, err := archive.QueryTotals(ctx, db)
		if err != nil {
			fmt.Fprintf(stderr, "Stats failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Tasks archived: %d (%d completed, %d failed)\n",
			totals.Tasks, totals.Completed, totals.Failed)
		fmt.Fprintf(stdout, "Total time: %s\n", msDuration(totals.ElapsedMS).Round(time.Second))
		fmt.Fprintf(stdout, "Blocked calls: %d\n", totals.BlockedCalls)

		runs, err := archive.RecentRuns(ctx, db, *limit)
		if err != nil {
			fmt.Fprintf(stderr, "Stats failed: %v\n", err)
			return ExitError
		}
		if len(runs) > 0 {
			fmt.Fprintln(stdout, "\nRecent runs:")
			for _, r := range runs {
				title := r.Title
				if title == "" {
					title = r.TaskID
				}
				fmt.Fprintf(stdout, "  %-14s %-9s %8s  %s\n",
					r.TaskID, r.Status, msDuration(r.ElapsedMS).Round(time.Second), title)
			}
		}

		tools, err := archive.TopTools(ctx, db, *limit)
		if err != nil {
			fmt.Fprintf(stderr, "Stats failed: %v\n", err)
			return ExitError
		}
		if len(tools) > 0 {
			fmt.Fprintln(stdout, "\nTop tools:")
			for _, t := range tools {
				fmt.Fprintf(stdout, "  %-16s %4d calls  %3d blocked  %8s\n",
					t.Tool, t.Calls, t.Blocked, msDuration(t.DurationMS).Round(time.Millisecond))
			}
		}

		steps, err := archive.SlowestSteps(ctx, db, *limit)
		if err != nil {
			fmt.Fprintf(stderr, "Stats failed: %v\n", err)
			return ExitError
		}
		if len(steps) > 0 {
			fmt.Fprintln(stdout, "\nSlowest steps:")
			for _, s := range steps {
				desc := s.Description
				if desc == "" {
					desc = s.StepID
				}
				fmt.Fprintf(stdout, "  %8s  %-9s %s (%s)\n",
					msDuration(s.DurationMS).Round(time.Millisecond), s.Outcome, desc, s.TaskID)
			}
		}
		return ExitOK
	}
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
