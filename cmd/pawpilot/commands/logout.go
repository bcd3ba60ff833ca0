package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, routes.AppLogout)
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Session.Snapshot().Identity == nil {
			fmt.Fprintln(out(cmd), "Not signed in")
			return nil
		}
		if err := app.Session.SignOut(cmd.Context()); err != nil {
			// the local session is gone either way
			app.Logger.Warn().Err(err).Msg("sign out")
		}
		fmt.Fprintln(out(cmd), "Signed out")
		return nil
	},
}
