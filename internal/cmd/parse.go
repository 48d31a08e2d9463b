package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/cuprism/internal/batch"
	"github.com/CaptShanks/cuprism/internal/export"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse log files into compute unit reports",
	Long: `Parse one log file, or every log file in a directory, and write a
report with the naive and corrected compute unit cost of every node.

Inputs are JSON (an array of log lines, or a transaction with
meta.logMessages) or plain text with one log line per line.

Examples:
  # Write tx_parsed.json next to tx.json
  cuprism parse file tx.json

  # Folded stacks for a flame graph
  cuprism parse file tx.log -f folded -o tx.folded

  # Every log in ./logs into ./reports, 4 files at a time
  cuprism parse dir ./logs -o ./reports -j 4`,
}

var parseFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Parse a single log file",
	Args:  cobra.ExactArgs(1),
	RunE:  runParseFile,
}

var parseDirCmd = &cobra.Command{
	Use:   "dir <path>",
	Short: "Parse every log file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runParseDir,
}

var (
	parseOutput      string
	parsePostfix     string
	parseFormat      string
	parseDiagnostics bool
	parseWorkers     int
)

func init() {
	for _, c := range []*cobra.Command{parseFileCmd, parseDirCmd} {
		c.Flags().StringVarP(&parseOutput, "output", "o", "", "output file (file) or directory (dir)")
		c.Flags().StringVarP(&parsePostfix, "postfix", "p", "", "suffix added to the input name when no output is given (default from config)")
		c.Flags().StringVarP(&parseFormat, "format", "f", "", "report format: json, yaml or folded (default from config)")
		c.Flags().BoolVar(&parseDiagnostics, "diagnostics", false, "include start, end and n_children in reports")
	}
	parseDirCmd.Flags().IntVarP(&parseWorkers, "jobs", "j", 0, "files parsed at once (default from config, 0 = one per CPU)")

	parseCmd.AddCommand(parseFileCmd, parseDirCmd)
	rootCmd.AddCommand(parseCmd)
}

// batchOptions merges the parse flags over the configuration
func batchOptions(cmd *cobra.Command) (batch.Options, error) {
	opts := batch.Options{
		Output:      parseOutput,
		Postfix:     cfg.Output.Postfix,
		Diagnostics: cfg.Output.Diagnostics,
		Workers:     cfg.Workers(),
		History:     historyStore(),
		Logger:      logger,
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format = parseFormat
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.Format = f

	if cmd.Flags().Changed("postfix") {
		opts.Postfix = parsePostfix
	}
	if cmd.Flags().Changed("diagnostics") {
		opts.Diagnostics = parseDiagnostics
	}
	if cmd.Flags().Changed("jobs") && parseWorkers > 0 {
		opts.Workers = parseWorkers
	}
	return opts, nil
}

func runParseFile(cmd *cobra.Command, args []string) error {
	opts, err := batchOptions(cmd)
	if err != nil {
		return err
	}
	res := batch.RunFile(cmd.Context(), args[0], opts)
	return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), []batch.Result{res})
}

func runParseDir(cmd *cobra.Command, args []string) error {
	opts, err := batchOptions(cmd)
	if err != nil {
		return err
	}
	results, err := batch.RunDir(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No log files found in %s\n", args[0])
		return nil
	}
	return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), results)
}

// report prints one status line per result and fails if any result did
func report(out, errOut io.Writer, results []batch.Result) error {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(errOut, "%s %s: %v\n", errStyle.Render("Error"), r.Input, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", okStyle.Render("Wrote"), pathStyle.Render(r.Output))
	}
	if failed := batch.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(failed), len(results))
	}
	return nil
}
