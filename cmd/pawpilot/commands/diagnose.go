package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/output"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Ask for an AI-assisted assessment of symptoms",
	Long: `Describe symptoms, or ask the assistant a question. Answers are
markdown and are not a substitute for a vet visit.`,
}

var diagnoseTextCmd = &cobra.Command{
	Use:   "text SYMPTOMS...",
	Short: "Diagnose from a symptom description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiagnosis(cmd, func(app *cmdutil.App) (sdk.Diagnosis, error) {
			return app.Client.Diagnosis.FromText(cmd.Context(), strings.Join(args, " "))
		})
	},
}

var diagnoseAskCmd = &cobra.Command{
	Use:   "ask QUESTION...",
	Short: "Ask the voice assistant a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiagnosis(cmd, func(app *cmdutil.App) (sdk.Diagnosis, error) {
			return app.Client.Diagnosis.Ask(cmd.Context(), strings.Join(args, " "))
		})
	},
}

func init() {
	diagnoseCmd.AddCommand(diagnoseTextCmd, diagnoseAskCmd)
}

func runDiagnosis(cmd *cobra.Command, call func(*cmdutil.App) (sdk.Diagnosis, error)) error {
	app, err := openApp(cmd, routes.AppDiagnosis)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.RequireSession(); err != nil {
		return err
	}

	d, err := call(app)
	if err != nil {
		return cmdutil.CommandError(err)
	}
	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.Print(out(cmd), format, d, nil)
	}
	fmt.Fprintln(out(cmd), strings.TrimSpace(d.Text))
	return nil
}
