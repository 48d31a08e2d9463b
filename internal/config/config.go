// Package config holds cuprism's user settings. Values come from, in order
// of precedence, command-line flags, CUPRISM_* environment variables, the
// config file and the defaults below.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. CUPRISM_OUTPUT_FORMAT for output.format.
const EnvPrefix = "CUPRISM"

// Config is the full set of user settings
type Config struct {
	Output  OutputConfig  `mapstructure:"output"`
	Parse   ParseConfig   `mapstructure:"parse"`
	Logging LoggingConfig `mapstructure:"logging"`
	TUI     TUIConfig     `mapstructure:"tui"`
	History HistoryConfig `mapstructure:"history"`
	Update  UpdateConfig  `mapstructure:"update"`
}

// OutputConfig controls what parse writes
type OutputConfig struct {
	Format      string `mapstructure:"format"`
	Postfix     string `mapstructure:"postfix"`
	Diagnostics bool   `mapstructure:"diagnostics"`
}

// ParseConfig controls batch parsing
type ParseConfig struct {
	// Workers is the number of files parsed at once. 0 means one per CPU.
	Workers int `mapstructure:"workers"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty means stderr
}

// TUIConfig controls the viewer
type TUIConfig struct {
	Theme string `mapstructure:"theme"`
}

// HistoryConfig controls the saved-input history
type HistoryConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	MaxFiles int  `mapstructure:"max_files"`
}

// UpdateConfig controls the release check
type UpdateConfig struct {
	SkipCheck    bool `mapstructure:"skip_check"`
	IntervalDays int  `mapstructure:"interval_days"`
}

// Default returns a Config with the built-in defaults
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:  "json",
			Postfix: "_parsed",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		TUI: TUIConfig{
			Theme: "dark",
		},
		History: HistoryConfig{
			Enabled:  true,
			MaxFiles: 100,
		},
		Update: UpdateConfig{
			IntervalDays: 1,
		},
	}
}

// SetDefaults registers the defaults with viper so that keys resolve even
// without a config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.postfix", defaults.Output.Postfix)
	viper.SetDefault("output.diagnostics", defaults.Output.Diagnostics)

	viper.SetDefault("parse.workers", defaults.Parse.Workers)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	viper.SetDefault("tui.theme", defaults.TUI.Theme)

	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.max_files", defaults.History.MaxFiles)

	viper.SetDefault("update.skip_check", defaults.Update.SkipCheck)
	viper.SetDefault("update.interval_days", defaults.Update.IntervalDays)
}

// Init wires viper to the config file and environment. An empty cfgFile
// searches the default locations. A missing config file is not an error.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// Load reads the configuration from viper into a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Workers returns the effective batch parallelism
func (c *Config) Workers() int {
	if c.Parse.Workers > 0 {
		return c.Parse.Workers
	}
	return runtime.NumCPU()
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cuprism")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cuprism"
	}
	return filepath.Join(home, ".config", "cuprism")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
