// Package commands implements the pawpilot CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/internal/config"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pawpilot",
	Short: "PawPilot - pet care from the terminal",
	Long: `pawpilot manages your pets, asks for AI-assisted diagnoses, finds
nearby vets and gets nutrition advice from the PawPilot backend.

Sign in once with "pawpilot login"; the session is kept on disk and
refreshed automatically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cmdutil.Flags.ConfigPath, "config", "", "Config file (default $XDG_CONFIG_HOME/pawpilot/config.yaml)")
	pf.StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format (table|json|yaml)")
	pf.String("api-url", "", "Backend API origin")
	pf.String("identity-url", "", "Identity service origin")
	pf.String("data-dir", "", "Directory for the local session store")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (console|json)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(petsCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(vetsCmd)
	rootCmd.AddCommand(nutritionCmd)
	rootCmd.AddCommand(serveCmd)
}

var flagKeys = map[string]string{
	"api-url":      config.KeyAPIURL,
	"identity-url": config.KeyIdentityURL,
	"data-dir":     config.KeyDataDir,
	"log-level":    config.KeyLogLevel,
	"log-format":   config.KeyLogFormat,
	"listen":       config.KeyServeListen,
}

// bindFlags binds the flags that were actually set, so unset flags do not
// shadow file or environment values.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := cmdutil.Viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// openApp loads configuration and opens the SDK positioned on view.
func openApp(cmd *cobra.Command, view string) (*cmdutil.App, error) {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return nil, err
	}
	return cmdutil.Open(cmd.Context(), cfg, view, cmdutil.Options{LogOutput: cmd.ErrOrStderr()})
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
