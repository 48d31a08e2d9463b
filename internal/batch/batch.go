// Package batch parses log files and writes their reports, one file or a
// whole directory at a time, on a bounded worker pool.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/CaptShanks/cuprism/internal/export"
	"github.com/CaptShanks/cuprism/internal/history"
	"github.com/CaptShanks/cuprism/internal/logfile"
	"github.com/CaptShanks/cuprism/internal/parser"
)

// DefaultPostfix is appended to an input's name to form its output name
const DefaultPostfix = "_parsed"

// inputExts are the extensions picked up when scanning a directory
var inputExts = []string{".json", ".log", ".txt"}

// Options controls a batch run
type Options struct {
	// Output is the output file in file mode and the output directory in
	// dir mode. Empty means next to each input.
	Output      string
	Postfix     string
	Format      export.Format
	Diagnostics bool
	// Workers bounds the number of files processed at once. 0 means one
	// per CPU.
	Workers int
	// History, when set, receives a copy of every input that was read.
	History *history.Store
	Logger  *slog.Logger
}

func (o Options) postfix() string {
	if o.Postfix == "" {
		return DefaultPostfix
	}
	return o.Postfix
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Result is the outcome for one input file
type Result struct {
	Input  string
	Output string
	Stats  parser.Stats
	Err    error
}

// Files returns the inputs found directly in dir: files with a log
// extension whose name does not already end in postfix.
func Files(dir, postfix string) ([]string, error) {
	if postfix == "" {
		postfix = DefaultPostfix
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(inputExts, ext) {
			continue
		}
		if strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), postfix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// FileOutput returns where file mode writes the report for input
func FileOutput(input string, opts Options) string {
	if opts.Output != "" {
		return opts.Output
	}
	return besideInput(input, opts)
}

// DirOutput returns where dir mode writes the report for input
func DirOutput(input string, opts Options) string {
	if opts.Output != "" {
		base := filepath.Base(input)
		return filepath.Join(opts.Output, strings.TrimSuffix(base, filepath.Ext(base))+opts.Format.Ext())
	}
	return besideInput(input, opts)
}

func besideInput(input string, opts Options) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + opts.postfix() + opts.Format.Ext()
}

// RunFile processes a single input
func RunFile(ctx context.Context, input string, opts Options) Result {
	return process(ctx, input, FileOutput(input, opts), opts)
}

// RunDir processes every input in dir. Results are in input order; one
// file failing does not stop the others.
func RunDir(ctx context.Context, dir string, opts Options) ([]Result, error) {
	inputs, err := Files(dir, opts.postfix())
	if err != nil {
		return nil, err
	}
	if opts.Output != "" {
		if err := os.MkdirAll(opts.Output, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	opts.logger().Debug("parsing directory", "dir", dir, "files", len(inputs), "workers", workers)

	p := pool.NewWithResults[Result]().WithMaxGoroutines(workers)
	for _, input := range inputs {
		p.Go(func() Result {
			return process(ctx, input, DirOutput(input, opts), opts)
		})
	}
	results := p.Wait()

	slices.SortFunc(results, func(a, b Result) int {
		return strings.Compare(a.Input, b.Input)
	})
	return results, nil
}

func process(ctx context.Context, input, output string, opts Options) Result {
	res := Result{Input: input, Output: output}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	logger := opts.logger().With("input", input)

	lines, err := logfile.Read(input)
	if err != nil {
		res.Err = err
		return res
	}

	if opts.History != nil {
		if _, _, err := opts.History.Save(input, lines); err != nil {
			logger.Warn("failed to save history", "error", err)
		}
	}

	log := parser.ParseWithLogger(lines, logger)
	res.Stats = log.Stats()

	var buf bytes.Buffer
	if err := export.Encode(&buf, log, export.Options{Format: opts.Format, Diagnostics: opts.Diagnostics}); err != nil {
		res.Err = fmt.Errorf("%s: %w", input, err)
		return res
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		res.Err = err
		return res
	}

	logger.Debug("wrote report", "output", output, "nodes", res.Stats.Total())
	return res
}

// Failed returns the results that carry an error
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
