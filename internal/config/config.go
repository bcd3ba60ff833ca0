// Package config loads pawpilot CLI settings.
//
// Sources, highest precedence first: command-line flags bound by the caller,
// PAWPILOT_* environment variables, the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the resolved CLI configuration.
type Config struct {
	// APIURL is the backend origin every panel call goes to.
	APIURL string `mapstructure:"api_url" validate:"required,url"`

	Identity IdentityConfig `mapstructure:"identity"`

	// DataDir holds the persistent key-value store.
	DataDir string `mapstructure:"data_dir" validate:"required"`

	Log LogConfig `mapstructure:"log"`

	Serve ServeConfig `mapstructure:"serve"`

	// Timeout bounds each command's backend work.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// IdentityConfig points at the identity service.
type IdentityConfig struct {
	URL    string `mapstructure:"url" validate:"required,url"`
	APIKey string `mapstructure:"api_key"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// ServeConfig configures `pawpilot serve`.
type ServeConfig struct {
	Listen string `mapstructure:"listen" validate:"required,hostname_port"`
}

// Keys shared with flag bindings.
const (
	KeyAPIURL         = "api_url"
	KeyIdentityURL    = "identity.url"
	KeyIdentityAPIKey = "identity.api_key"
	KeyDataDir        = "data_dir"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyServeListen    = "serve.listen"
	KeyTimeout        = "timeout"
)

const envPrefix = "PAWPILOT"

var validate = validator.New(validator.WithRequiredStructEnabled())

// New returns a viper instance with defaults and environment lookups set up.
// Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAPIURL, "http://127.0.0.1:8000")
	v.SetDefault(KeyIdentityURL, "https://identity.pawpilot.app")
	v.SetDefault(KeyIdentityAPIKey, "")
	v.SetDefault(KeyDataDir, defaultDataDir())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyServeListen, "127.0.0.1:8080")
	v.SetDefault(KeyTimeout, 30*time.Second)
	return v
}

// Load reads configPath, or the default config file when empty, into v and
// returns the validated result. A missing config file is not an error.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Dir returns $XDG_CONFIG_HOME/pawpilot, falling back to ~/.config/pawpilot.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pawpilot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "pawpilot")
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pawpilot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".pawpilot")
	}
	return filepath.Join(home, ".local", "share", "pawpilot")
}
