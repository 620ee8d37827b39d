package cli

import (
	"fmt"
	"io"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(args []string, stdout, stderr io.Writer) int
}

func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return ExitUsage
	}
	if isHelpArg(args[0]) {
		printUsage(stdout)
		return ExitOK
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}

	return cmd.Run(args[1:], stdout, stderr)
}

func findCommand(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskline <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w, "\nUse \"taskline <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

func command(name, summary string, usage []string, runner func(cmd *Command) func(args []string, stdout, stderr io.Writer) int) *Command {
	cmd := &Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
	}
	cmd.Run = runner(cmd)
	return cmd
}

var commands = []*Command{
	command("init", "Scaffold the .taskline config", []string{
		"taskline init [--config <path>]",
	}, runInit),
	command("watch", "Watch a running task's timeline", []string{
		"taskline watch <task-id> [--ui auto|live|plain]",
	}, runWatch),
	command("tail", "Follow a JSONL event log file", []string{
		"taskline tail <file.jsonl> [--ui auto|live|plain]",
	}, runTail),
	command("replay", "Print the timeline of a recorded log", []string{
		"taskline replay <file.jsonl>",
	}, runReplay),
	command("send", "Send step feedback to the executor", []string{
		"taskline send <task-id> <step-id> retry|skip|stop",
		"taskline send <task-id> <step-id> drift <message...>",
	}, runSend),
	command("archive", "Roll a finished task up into the archive", []string{
		"taskline archive <task-id> [--db <path>]",
	}, runArchive),
	command("stats", "Summarize archived task runs", []string{
		"taskline stats [--db <path>] [--limit <n>]",
	}, runStats),
	command("serve", "Serve spooled task state over HTTP", []string{
		"taskline serve [--addr <host:port>]",
	}, runServe),
}
