package tui

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/CaptShanks/cuprism/internal/cost"
	"github.com/CaptShanks/cuprism/internal/parser"
)

var numbers = message.NewPrinter(language.English)

// formatCU renders a compute unit figure with thousands separators
func formatCU(v int64) string {
	return numbers.Sprintf("%d", v)
}

func plural(n int, word string) string {
	if n == 1 {
		return numbers.Sprintf("%d %s", n, word)
	}
	return numbers.Sprintf("%d %ss", n, word)
}

// summaryLine describes the node counts and total cost of a log
func summaryLine(stats parser.Stats, totals cost.Report) string {
	counts := strings.Join([]string{
		plural(stats.Invocations, "invocation"),
		plural(stats.Functions, "function"),
		plural(stats.Unknown, "unknown line"),
	}, ", ")
	return fmt.Sprintf("%s  ·  local %s CU  global %s CU",
		counts, formatCU(totals.Local), formatCU(totals.Global))
}

// label is the plain text shown for a node
func label(n parser.Node) string {
	switch n := n.(type) {
	case *parser.Invocation:
		return fmt.Sprintf("%s [%d]", n.Program, n.Depth)
	default:
		return parser.Name(n)
	}
}

// figures renders the corrected costs of a node
func figures(r cost.Report) string {
	return figureStyle.Render("local "+formatCU(r.Local)) + "  " +
		mutedStyle.Render("global "+formatCU(r.Global))
}

// invocationDetail renders the status and accounting of an invocation
func invocationDetail(inv *parser.Invocation) string {
	s := statusStyle(inv.Status).Render(string(inv.Status))
	if inv.Budget > 0 {
		s += mutedStyle.Render(fmt.Sprintf("  consumed %s of %s", formatCU(inv.Consumed), formatCU(inv.Budget)))
	}
	return s
}

// detailLines lists every figure known for a node, for the expanded view
func detailLines(t *cost.Tree) []string {
	r := t.Report
	lines := []string{
		fmt.Sprintf("naive local %s  naive global %s", formatCU(r.NaiveLocal), formatCU(r.NaiveGlobal)),
		fmt.Sprintf("local %s  global %s", formatCU(r.Local), formatCU(r.Global)),
	}
	switch n := t.Node.(type) {
	case *parser.Function:
		lines = append(lines, fmt.Sprintf("start %s  end %s  children %d", formatCU(r.Start), formatCU(r.End), r.NChildren))
	case *parser.Invocation:
		lines = append(lines,
			fmt.Sprintf("depth %d  status %s  children %d", n.Depth, n.Status, r.NChildren),
			fmt.Sprintf("consumed %s  budget %s", formatCU(n.Consumed), formatCU(n.Budget)),
		)
	}
	return lines
}
