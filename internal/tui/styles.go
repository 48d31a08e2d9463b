package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/CaptShanks/cuprism/internal/parser"
)

// palette holds the colors of one theme
type palette struct {
	function   lipgloss.Color
	invocation lipgloss.Color
	unknown    lipgloss.Color
	failed     lipgloss.Color
	success    lipgloss.Color
	figure     lipgloss.Color

	selectedBg lipgloss.Color
	header     lipgloss.Color
	border     lipgloss.Color
	muted      lipgloss.Color
	text       lipgloss.Color
	barBg      lipgloss.Color
}

// Soft, low-contrast palette inspired by Tokyo Night
var darkPalette = palette{
	function:   lipgloss.Color("#7dcfff"), // sky blue
	invocation: lipgloss.Color("#bb9af7"), // lavender
	unknown:    lipgloss.Color("#565f89"), // gray-blue
	failed:     lipgloss.Color("#f7768e"), // coral red
	success:    lipgloss.Color("#9ece6a"), // sage green
	figure:     lipgloss.Color("#e0af68"), // amber

	selectedBg: lipgloss.Color("#292e42"),
	header:     lipgloss.Color("#7aa2f7"),
	border:     lipgloss.Color("#3b4261"),
	muted:      lipgloss.Color("#565f89"),
	text:       lipgloss.Color("#a9b1d6"),
	barBg:      lipgloss.Color("#1a1b26"),
}

// Catppuccin Latte
var lightPalette = palette{
	function:   lipgloss.Color("#1e66f5"),
	invocation: lipgloss.Color("#8839ef"),
	unknown:    lipgloss.Color("#8c8fa1"),
	failed:     lipgloss.Color("#d20f39"),
	success:    lipgloss.Color("#40a02b"),
	figure:     lipgloss.Color("#df8e1d"),

	selectedBg: lipgloss.Color("#dce0e8"),
	header:     lipgloss.Color("#1e66f5"),
	border:     lipgloss.Color("#bcc0cc"),
	muted:      lipgloss.Color("#8c8fa1"),
	text:       lipgloss.Color("#4c4f69"),
	barBg:      lipgloss.Color("#e6e9ef"),
}

var colors palette

// Styles
var (
	headerStyle    lipgloss.Style
	summaryStyle   lipgloss.Style
	functionStyle  lipgloss.Style
	invokeStyle    lipgloss.Style
	unknownStyle   lipgloss.Style
	failedStyle    lipgloss.Style
	successStyle   lipgloss.Style
	figureStyle    lipgloss.Style
	selectedStyle  lipgloss.Style
	mutedStyle     lipgloss.Style
	textStyle      lipgloss.Style
	helpStyle      lipgloss.Style
	searchStyle    lipgloss.Style
	matchStyle     lipgloss.Style
	statusBarStyle lipgloss.Style

	functionSymbolStyle   lipgloss.Style
	invocationSymbolStyle lipgloss.Style
	unknownSymbolStyle    lipgloss.Style
)

func init() {
	applyPalette(darkPalette)
}

// SetTheme switches the palette used by the viewer and the printer.
// Unrecognized names select the dark theme.
func SetTheme(name string) {
	if name == "light" {
		applyPalette(lightPalette)
		return
	}
	applyPalette(darkPalette)
}

func applyPalette(p palette) {
	colors = p

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(p.header)
	summaryStyle = lipgloss.NewStyle().Foreground(p.text)

	functionStyle = lipgloss.NewStyle().Bold(true).Foreground(p.function)
	invokeStyle = lipgloss.NewStyle().Bold(true).Foreground(p.invocation)
	unknownStyle = lipgloss.NewStyle().Foreground(p.unknown).Italic(true)
	failedStyle = lipgloss.NewStyle().Bold(true).Foreground(p.failed)
	successStyle = lipgloss.NewStyle().Foreground(p.success)
	figureStyle = lipgloss.NewStyle().Foreground(p.figure)

	selectedStyle = lipgloss.NewStyle().Background(p.selectedBg)
	mutedStyle = lipgloss.NewStyle().Foreground(p.muted)
	textStyle = lipgloss.NewStyle().Foreground(p.text)
	helpStyle = lipgloss.NewStyle().Foreground(p.muted).MarginTop(1)
	searchStyle = lipgloss.NewStyle().Foreground(p.header).Bold(true)
	matchStyle = lipgloss.NewStyle().
		Background(p.border).
		Foreground(p.success).
		Bold(true)
	statusBarStyle = lipgloss.NewStyle().
		Foreground(p.muted).
		Background(p.barBg).
		Padding(0, 1)

	functionSymbolStyle = lipgloss.NewStyle().Foreground(p.function)
	invocationSymbolStyle = lipgloss.NewStyle().Foreground(p.invocation)
	unknownSymbolStyle = lipgloss.NewStyle().Foreground(p.unknown)
}

// Expand/collapse indicators
func indicator(expanded bool) string {
	if expanded {
		return mutedStyle.Render("▼")
	}
	return mutedStyle.Render("▶")
}

// KindSymbol returns the glyph drawn before a node of kind k
func KindSymbol(k parser.Kind) string {
	switch k {
	case parser.KindFunction:
		return functionSymbolStyle.Render("ƒ")
	case parser.KindInvocation:
		return invocationSymbolStyle.Render("»")
	default:
		return unknownSymbolStyle.Render("·")
	}
}

// NodeStyle returns the style of a node's label. Failed invocations are
// drawn in the failure color.
func NodeStyle(n parser.Node) lipgloss.Style {
	switch n := n.(type) {
	case *parser.Function:
		return functionStyle
	case *parser.Invocation:
		if n.Status == parser.StatusFailed {
			return failedStyle
		}
		return invokeStyle
	default:
		return unknownStyle
	}
}

// statusStyle returns the style for an invocation status word
func statusStyle(s parser.Status) lipgloss.Style {
	if s == parser.StatusFailed {
		return failedStyle
	}
	return successStyle
}
