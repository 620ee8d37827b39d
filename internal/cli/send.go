package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taskline/internal/event"
	"taskline/internal/executor"
	"taskline/internal/feedback"
	"taskline/internal/logging"
)

// runSend builds the handler for the send command, the scriptable way to
// deliver step feedback without opening the watch UI.
func runSend(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
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

		rest := fs.Args()
		if len(rest) < 3 {
			fmt.Fprintln(stderr, "Missing arguments: need <task-id> <step-id> <action>")
			return ExitUsage
		}
		taskID, stepID := rest[0], rest[1]
		action := event.FeedbackAction(rest[2])
		message := strings.Join(rest[3:], " ")
		if !action.Valid() {
			fmt.Fprintf(stderr, "Unknown action %q (expected retry, skip, stop or drift)\n", rest[2])
			return ExitUsage
		}
		if action.RequiresMessage() && strings.TrimSpace(message) == "" {
			fmt.Fprintln(stderr, "drift needs a message")
			return ExitUsage
		}
		if !action.RequiresMessage() && len(rest) > 3 {
			fmt.Fprintln(stderr, "Too many arguments")
			return ExitUsage
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		logger, err := logging.NewStderr(cfg.Log.Debug)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to build logger: %v\n", err)
			return ExitError
		}
		defer logger.Sync()

		client, err := executor.NewClient(cfg.Executor.BaseURL, os.Getenv(cfg.Executor.TokenEnv),
			time.Duration(cfg.Executor.TimeoutSeconds)*time.Second, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to build executor client: %v\n", err)
			return ExitError
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fb := feedback.NewController(taskID, client, logger)
		if err := fb.Submit(ctx, stepID, action, message); err != nil {
			fmt.Fprintf(stderr, "Send failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Sent %s to step %s\n", action, stepID)
		return ExitOK
	}
}
