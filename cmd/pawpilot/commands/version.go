package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
)

// Build information, set by main.
var (
	Commit = "none"
	Date   = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pawpilot version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(out(cmd), "pawpilot %s (commit %s, built %s)\n", sdk.Version, Commit, Date)
	},
}
