package cmdutil

import (
	"io"

	"github.com/spf13/viper"

	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/output"
	"github.com/pawpilot/pawpilot/sdk/go/internal/config"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigPath string
	Output     string
}

// Viper holds settings bound to persistent flags by the root command.
var Viper = config.New()

// LoadConfig resolves the configuration for the running command.
func LoadConfig() (*config.Config, error) {
	return config.Load(Viper, Flags.ConfigPath)
}

// ResetViper replaces Viper with a fresh instance. Tests use it between runs.
func ResetViper() *viper.Viper {
	Viper = config.New()
	return Viper
}

// Print writes data in the selected output format; table is used for table output.
func Print(w io.Writer, data any, table output.TableRenderer) error {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return err
	}
	return output.Print(w, format, data, table)
}
