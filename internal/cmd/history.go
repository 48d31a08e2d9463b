package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/cuprism/internal/history"
	"github.com/CaptShanks/cuprism/internal/logfile"
	"github.com/CaptShanks/cuprism/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse previously parsed logs",
	Long: `Every log read by "parse" or "view" is saved under ~/.cuprism/history,
one file per distinct content, so it can be viewed again later.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved logs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyViewCmd = &cobra.Command{
	Use:   "view [#|file]",
	Short: "View a saved log (interactive picker with no argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryView,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved log",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyLimit int

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show (0 for all)")
	historyViewCmd.Flags().BoolVarP(&viewPrint, "print", "p", false, "print the colored tree and exit")

	historyCmd.AddCommand(historyListCmd, historyViewCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory returns the history store regardless of history.enabled, so
// that saved logs stay browsable after recording is turned off.
func openHistory() (*history.Store, error) {
	dir, err := history.DefaultDir()
	if err != nil {
		return nil, err
	}
	return history.New(dir, cfg.History.MaxFiles), nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	entries, err := store.Entries()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries")
		return nil
	}

	shown := entries
	if historyLimit > 0 && len(shown) > historyLimit {
		shown = shown[:historyLimit]
	}
	fmt.Fprintf(out, "  #  %-19s  %-20s  %s\n", "TIMESTAMP", "SOURCE", "HASH")
	fmt.Fprintln(out, strings.Repeat("─", 64))
	for i, e := range shown {
		fmt.Fprintf(out, "%3d  %s\n", i+1, history.FormatEntry(e))
	}
	if len(shown) < len(entries) {
		fmt.Fprintf(out, "\n%d more, use -n 0 to show all\n", len(entries)-len(shown))
	}
	return nil
}

func runHistoryView(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	var entry history.Entry
	if len(args) == 1 {
		if entry, err = store.Resolve(args[0]); err != nil {
			return err
		}
	} else {
		entries, err := store.Entries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("no history entries")
		}
		path, err := tui.RunPicker(entries)
		if err != nil {
			return err
		}
		if path == "" {
			return nil
		}
		if entry, err = store.Resolve(path); err != nil {
			return err
		}
	}

	lines, err := logfile.Read(entry.Path)
	if err != nil {
		return err
	}
	return show(cmd, lines, entry.Source+" "+entry.Timestamp.Format("2006-01-02 15:04:05"))
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	n, err := store.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", n)
	return nil
}
