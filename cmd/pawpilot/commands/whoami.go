package commands

import (
	"github.com/spf13/cobra"

	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/output"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

type whoami struct {
	UID         string `json:"uid" yaml:"uid"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Provider    string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Authorized  bool   `json:"authorized" yaml:"authorized"`
}

func (w whoami) Headers() []string { return []string{"UID", "EMAIL", "NAME", "PROVIDER", "AUTHORIZED"} }

func (w whoami) Rows() [][]string {
	authorized := "no"
	if w.Authorized {
		authorized = "yes"
	}
	return [][]string{{w.UID, w.Email, w.DisplayName, w.Provider, authorized}}
}

var _ output.TableRenderer = whoami{}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, routes.AppHome)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		s := app.Session.Snapshot()
		w := whoami{
			UID:         s.Identity.UID,
			Email:       s.Identity.Email,
			DisplayName: s.Identity.DisplayName,
			Provider:    s.Identity.Provider,
			Authorized:  s.Authorized(),
		}
		return cmdutil.Print(out(cmd), w, w)
	},
}
