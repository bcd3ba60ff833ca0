package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/prompt"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

var (
	loginEmail    string
	loginPassword string
	loginProvider string
	loginIDToken  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to PawPilot",
	Long: `Sign in with email and password, or with a token from a federated
identity provider.

Examples:
  # Prompt for email and password
  pawpilot login

  # Non-interactive
  pawpilot login --email me@example.com --password secret1

  # Federated sign-in with a Google id token
  pawpilot login --provider google.com --id-token "$TOKEN"`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Email address")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
	loginCmd.Flags().StringVar(&loginProvider, "provider", "", "Federated identity provider id")
	loginCmd.Flags().StringVar(&loginIDToken, "id-token", "", "Token issued by the federated provider")
	loginCmd.MarkFlagsRequiredTogether("provider", "id-token")
	loginCmd.MarkFlagsMutuallyExclusive("email", "provider")
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd, routes.AppLogin)
	if err != nil {
		return err
	}
	defer app.Close()

	if s := app.Session.Snapshot(); s.Identity != nil {
		fmt.Fprintf(out(cmd), "Already signed in as %s\n", displayName(s.Identity.Email, s.Identity.UID))
		return nil
	}

	if loginProvider != "" {
		id, err := app.Session.SignInFederated(cmd.Context(), loginProvider, loginIDToken)
		if err != nil {
			return cmdutil.CommandError(err)
		}
		fmt.Fprintf(out(cmd), "Signed in as %s\n", displayName(id.Email, id.UID))
		return nil
	}

	email, password, err := readCredentials(loginEmail, loginPassword)
	if err != nil {
		return err
	}
	id, err := app.Session.SignIn(cmd.Context(), email, password)
	if err != nil {
		return cmdutil.CommandError(err)
	}
	fmt.Fprintf(out(cmd), "Signed in as %s\n", displayName(id.Email, id.UID))
	return nil
}

func readCredentials(email, password string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = prompt.InputRequired("Email"); err != nil {
			return "", "", abortOr(err)
		}
	}
	if password == "" {
		if password, err = prompt.Password("Password", 6); err != nil {
			return "", "", abortOr(err)
		}
	}
	return email, password, nil
}

func abortOr(err error) error {
	if prompt.IsAborted(err) {
		return fmt.Errorf("aborted")
	}
	return err
}

func displayName(email, uid string) string {
	if email != "" {
		return email
	}
	return uid
}
