package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/CaptShanks/cuprism/internal/cost"
	"github.com/CaptShanks/cuprism/internal/parser"
)

func init() {
	// Force color output even when not a TTY (for piping)
	lipgloss.SetColorProfile(termenv.TrueColor)
}

// PrintLog writes the call tree of log with colors to w (non-interactive mode)
func PrintLog(w io.Writer, log *parser.Log, title string) error {
	trees, err := cost.EvaluateLog(log)
	if err != nil {
		return err
	}
	totals, err := cost.Sum(trees)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	header := "cuprism"
	if title != "" {
		header += " · " + title
	}
	fmt.Fprintln(bw, headerStyle.Render(header))
	fmt.Fprintln(bw, summaryStyle.Render(summaryLine(log.Stats(), totals)))
	fmt.Fprintln(bw)

	if len(trees) == 0 {
		fmt.Fprintln(bw, mutedStyle.Render("No log lines"))
	}
	for _, t := range trees {
		printTree(bw, t, 0)
	}
	return bw.Flush()
}

func printTree(w io.Writer, t *cost.Tree, depth int) {
	fmt.Fprintln(w, strings.Repeat("  ", depth)+nodeLine(t))
	for _, c := range t.Children {
		printTree(w, c, depth+1)
	}
}

// nodeLine renders one node without indentation
func nodeLine(t *cost.Tree) string {
	n := t.Node
	line := KindSymbol(n.Kind()) + " " + NodeStyle(n).Render(label(n))
	switch n := n.(type) {
	case *parser.Unknown:
		return line
	case *parser.Invocation:
		line += " " + invocationDetail(n)
	}
	return line + "  " + figures(t.Report)
}
