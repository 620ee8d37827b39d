package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"taskline/internal/logging"
	"taskline/internal/stateserver"
)

// serveState is a test seam for running the state server.
var serveState = stateserver.Serve

// runServe builds the handler for the serve command.
func runServe(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		addr := fs.String("addr", "", "Address to listen on (default: from config)")
		configPath := fs.String("config", "", "Path to config file (default: discover)")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		if fs.NArg() > 0 {
			fmt.Fprintln(stderr, "Too many arguments")
			return ExitUsage
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		listen := *addr
		if listen == "" {
			listen = cfg.Serve.Listen
		}

		logger, err := logging.NewStderr(cfg.Log.Debug)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to build logger: %v\n", err)
			return ExitError
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(stdout, "Serving task state at http://%s\n", listen)
		if err := serveState(ctx, stateserver.Config{Addr: listen, SpoolPath: cfg.Spool.Path}, logger); err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}
