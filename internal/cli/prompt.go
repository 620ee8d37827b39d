package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// promptYesNo asks a yes/no question, taking the default on a bare return
// or on EOF so piped input can stop early.
func promptYesNo(reader *bufio.Reader, out io.Writer, label string, defaultYes bool) (bool, error) {
	suffix := "y/N"
	if defaultYes {
		suffix = "Y/n"
	}
	for {
		fmt.Fprintf(out, "%s [%s]: ", label, suffix)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			if err == io.EOF {
				return false, fmt.Errorf("invalid response %q", strings.TrimSpace(line))
			}
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}
