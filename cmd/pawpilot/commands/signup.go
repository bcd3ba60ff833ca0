package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

var (
	signupEmail    string
	signupPassword string
)

var signupCmd = &cobra.Command{
	Use:     "signup",
	Aliases: []string{"register"},
	Short:   "Create a PawPilot account",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, routes.AppSignup)
		if err != nil {
			return err
		}
		defer app.Close()

		if s := app.Session.Snapshot(); s.Identity != nil {
			return fmt.Errorf("already signed in as %s. Run 'pawpilot logout' first", displayName(s.Identity.Email, s.Identity.UID))
		}
		email, password, err := readCredentials(signupEmail, signupPassword)
		if err != nil {
			return err
		}
		id, err := app.Session.SignUp(cmd.Context(), email, password)
		if err != nil {
			return cmdutil.CommandError(err)
		}
		fmt.Fprintf(out(cmd), "Account created. Signed in as %s\n", displayName(id.Email, id.UID))
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "Email address")
	signupCmd.Flags().StringVarP(&signupPassword, "password", "p", "", "Password (at least 6 characters)")
}
