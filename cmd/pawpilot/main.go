// Command pawpilot is the PawPilot command-line client.
package main

import (
	"fmt"
	"os"

	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/commands"
)

// Build-time variables injected via ldflags
var (
	commit = "none"
	date   = "unknown"
)

func main() {
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
