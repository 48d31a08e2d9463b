package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/cuprism/internal/logfile"
	"github.com/CaptShanks/cuprism/internal/parser"
	"github.com/CaptShanks/cuprism/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [path|-]",
	Short: "Browse the call tree of a log",
	Long: `Open an interactive viewer over the call tree of a log, with the
corrected cost of every node. Without a path, or with "-", the log is read
from stdin.

Examples:
  cuprism view tx.json
  solana logs | cuprism view --print`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

var viewPrint bool

func init() {
	viewCmd.Flags().BoolVarP(&viewPrint, "print", "p", false, "print the colored tree and exit")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	path := logfile.Stdin
	if len(args) == 1 {
		path = args[0]
	}
	if path == logfile.Stdin && stdinIsTerminal() {
		return cmd.Help()
	}

	lines, err := logfile.Read(path)
	if err != nil {
		return err
	}
	if store := historyStore(); store != nil {
		if _, _, err := store.Save(path, lines); err != nil {
			logger.Warn("failed to save history", "error", err)
		}
	}

	title := "stdin"
	if path != logfile.Stdin {
		title = filepath.Base(path)
	}
	return show(cmd, lines, title)
}

// show parses lines and opens the viewer, or prints the tree with --print
func show(cmd *cobra.Command, lines []string, title string) error {
	log := parser.ParseWithLogger(lines, logger)
	if viewPrint {
		return tui.PrintLog(cmd.OutOrStdout(), log, title)
	}
	if err := tui.Run(log, tui.Options{Title: title, Version: version, Checker: updateChecker()}); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func stdinIsTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
