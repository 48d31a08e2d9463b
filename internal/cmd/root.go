package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CaptShanks/cuprism/internal/config"
	"github.com/CaptShanks/cuprism/internal/history"
	"github.com/CaptShanks/cuprism/internal/logging"
	"github.com/CaptShanks/cuprism/internal/tui"
	"github.com/CaptShanks/cuprism/internal/updater"
)

// version is overridden by Execute with the value stamped into the binary
var version = "dev"

var (
	cfgFile string
	initErr error

	cfg       *config.Config
	logger    = logging.Discard()
	logCloser io.Closer
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true)
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true)
)

var rootCmd = &cobra.Command{
	Use:   "cuprism",
	Short: "Compute unit profiler for Solana program logs",
	Long: `cuprism parses Solana program logs instrumented with named
"Program log: <name> {" / "Program log: } // <name>" blocks and
"Program consumption" readings, rebuilds the call tree and reports the
compute units spent in every block, with the cost of the instrumentation
itself subtracted.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/cuprism/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "write diagnostic logs to this file instead of stderr")
}

func initConfig() {
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
	initErr = config.Init(cfgFile)
}

// setup loads the configuration and opens the logger before any command runs
func setup(cmd *cobra.Command, _ []string) error {
	if initErr != nil {
		return fmt.Errorf("failed to read config: %w", initErr)
	}

	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}

	if err := teardown(cmd, nil); err != nil {
		return err
	}
	var l *slog.Logger
	if l, logCloser, err = logging.Open(cfg.Logging.File, cfg.Logging.Level); err != nil {
		return err
	}
	logger = l
	logger.Debug("config loaded", "file", viper.ConfigFileUsed(), "command", cmd.CommandPath())

	tui.SetTheme(cfg.TUI.Theme)
	return nil
}

func teardown(*cobra.Command, []string) error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// historyStore returns the store inputs are saved to, nil when history is
// disabled or its directory cannot be resolved.
func historyStore() *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	dir, err := history.DefaultDir()
	if err != nil {
		logger.Warn("history disabled", "error", err)
		return nil
	}
	return history.New(dir, cfg.History.MaxFiles)
}

// updateChecker returns the release checker, nil when checks are disabled
func updateChecker() *updater.Checker {
	if cfg.Update.SkipCheck {
		return nil
	}
	dir, err := updater.DefaultCacheDir()
	if err != nil {
		return nil
	}
	return updater.NewChecker(dir, cfg.Update.IntervalDays)
}
