package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/CaptShanks/cuprism/internal/cost"
	"github.com/CaptShanks/cuprism/internal/parser"
	"github.com/CaptShanks/cuprism/internal/updater"
)

// row is one visible line of the tree
type row struct {
	tree   *cost.Tree
	depth  int
	parent int // row index of the parent, -1 at top level
}

// Model represents the TUI state
type Model struct {
	title  string
	trees  []*cost.Tree
	stats  parser.Stats
	totals cost.Report

	rows     []row
	cursor   int
	expanded map[*cost.Tree]bool
	details  bool // show every figure under the selected row

	viewport       viewport.Model
	ready          bool
	width          int
	height         int
	rowLineStarts  []int // rendered line offset per row (populated during render)
	rowLineEnds    []int
	searching      bool
	searchInput    textinput.Model
	searchQuery    string
	searchHits     map[*cost.Tree]bool
	searchMatches  []int // row indices of searchHits
	currentMatch   int
	pendingG       bool // 'g' was pressed, waiting for second 'g'
	currentVersion string
	checker        *updater.Checker
	// updateAvailable is non-empty when a newer version was found
	updateAvailable string
}

// Options configures a viewer
type Options struct {
	Title   string
	Version string
	// Checker, when set, is asked once in the background for a newer
	// release.
	Checker *updater.Checker
}

// UpdateAvailableMsg is sent when an update check finds a newer version.
type UpdateAvailableMsg struct {
	Version string
}

// NewModel evaluates log and returns a viewer over its call tree. Top-level
// nodes start expanded.
func NewModel(log *parser.Log, opts Options) (Model, error) {
	trees, err := cost.EvaluateLog(log)
	if err != nil {
		return Model{}, err
	}
	totals, err := cost.Sum(trees)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 100
	ti.Width = 40

	m := Model{
		title:          opts.Title,
		trees:          trees,
		stats:          log.Stats(),
		totals:         totals,
		expanded:       make(map[*cost.Tree]bool),
		searchInput:    ti,
		currentVersion: opts.Version,
		checker:        opts.Checker,
	}
	for _, t := range trees {
		m.expanded[t] = true
	}
	m.rebuildRows()
	return m, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.checker == nil || updater.IsDevBuild(m.currentVersion) {
		return nil
	}
	return checkUpdateCmd(m.checker, m.currentVersion)
}

// checkUpdateCmd runs an async update check and sends UpdateAvailableMsg if an update is available.
func checkUpdateCmd(c *updater.Checker, version string) tea.Cmd {
	return func() tea.Msg {
		st, err := c.Check(version)
		if err != nil || !st.HasUpdate {
			return nil
		}
		return UpdateAvailableMsg{Version: st.Latest}
	}
}

const headerHeight = 3 // title + summary + blank line

func (m Model) footerHeight() int {
	if m.updateAvailable != "" {
		return 4
	}
	return 3
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case UpdateAvailableMsg:
		m.updateAvailable = msg.Version
		if m.ready && m.height > 0 {
			m.viewport.Height = max(1, m.height-headerHeight-m.footerHeight())
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := max(1, msg.Height-headerHeight-m.footerHeight())

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, h)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = h
		}
		m.updateViewportContent()

	case tea.KeyMsg:
		if !m.searching {
			return m.handleNormalKey(msg)
		}
		switch msg.String() {
		case "enter":
			m.searching = false
			m.searchQuery = m.searchInput.Value()
			m.performSearch()
			m.updateViewportContent()
			m.ensureCursorVisible()
		case "esc":
			m.searching = false
			m.searchInput.SetValue("")
			m.clearSearch()
		default:
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.searchQuery = m.searchInput.Value()
			m.performSearch()
			m.updateViewportContent()
			m.ensureCursorVisible()
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// normalKeyHandler handles a single key in normal mode. Returns (model, cmd, quit).
type normalKeyHandler func(m Model) (Model, tea.Cmd, bool)

var normalKeyHandlers = map[string]normalKeyHandler{
	"q":         func(m Model) (Model, tea.Cmd, bool) { return m, tea.Quit, true },
	"ctrl+c":    func(m Model) (Model, tea.Cmd, bool) { return m, tea.Quit, true },
	"up":        handleKeyUp,
	"k":         handleKeyUp,
	"down":      handleKeyDown,
	"j":         handleKeyDown,
	"enter":     handleKeyToggle,
	" ":         handleKeyToggle,
	"e":         handleKeyExpandAll,
	"c":         handleKeyCollapseAll,
	"i":         handleKeyDetails,
	"/":         handleKeySearch,
	"n":         handleKeyNextMatch,
	"N":         handleKeyPrevMatch,
	"esc":       handleKeyEsc,
	"backspace": handleKeyCollapseCurrent,
	"h":         handleKeyCollapseCurrent,
	"left":      handleKeyCollapseCurrent,
	"l":         handleKeyExpandCurrent,
	"right":     handleKeyExpandCurrent,
	"d":         handleKeyHalfPageDown,
	"ctrl+d":    handleKeyHalfPageDown,
	"u":         handleKeyHalfPageUp,
	"ctrl+u":    handleKeyHalfPageUp,
	"g":         handleKeyG,
	"G":         handleKeyGG,
	"pgup":      handleKeyPgUp,
	"pgdown":    handleKeyPgDown,
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k != "g" {
		m.pendingG = false
	}
	h, ok := normalKeyHandlers[k]
	if !ok {
		return m, nil
	}
	m, cmd, _ := h(m)
	return m, cmd
}

func handleKeyUp(m Model) (Model, tea.Cmd, bool) {
	if m.cursor > 0 {
		m.cursor--
		m.updateViewportContent()
		m.ensureCursorVisible()
	}
	return m, nil, false
}

func handleKeyDown(m Model) (Model, tea.Cmd, bool) {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
		m.updateViewportContent()
		m.ensureCursorVisible()
	}
	return m, nil, false
}

func handleKeyToggle(m Model) (Model, tea.Cmd, bool) {
	if t := m.selected(); t != nil && len(t.Children) > 0 {
		m.expanded[t] = !m.expanded[t]
		m.refresh()
	}
	return m, nil, false
}

func handleKeyExpandAll(m Model) (Model, tea.Cmd, bool) {
	m.expandAll()
	return m, nil, false
}

func handleKeyCollapseAll(m Model) (Model, tea.Cmd, bool) {
	m.collapseAll()
	return m, nil, false
}

func handleKeyDetails(m Model) (Model, tea.Cmd, bool) {
	m.details = !m.details
	m.updateViewportContent()
	m.scrollForDetails()
	return m, nil, false
}

func handleKeySearch(m Model) (Model, tea.Cmd, bool) {
	m.searching = true
	m.searchInput.SetValue(m.searchQuery)
	m.searchInput.Focus()
	return m, textinput.Blink, false
}

func handleKeyNextMatch(m Model) (Model, tea.Cmd, bool) {
	m.nextMatch()
	return m, nil, false
}

func handleKeyPrevMatch(m Model) (Model, tea.Cmd, bool) {
	m.prevMatch()
	return m, nil, false
}

func handleKeyEsc(m Model) (Model, tea.Cmd, bool) {
	if m.searchQuery != "" {
		m.clearSearch()
		return m, nil, false
	}
	if m.details {
		m.details = false
		m.updateViewportContent()
	}
	return m, nil, false
}

// handleKeyCollapseCurrent collapses the selected node, or moves to its
// parent when it is already collapsed.
func handleKeyCollapseCurrent(m Model) (Model, tea.Cmd, bool) {
	t := m.selected()
	if t == nil {
		return m, nil, false
	}
	if m.expanded[t] && len(t.Children) > 0 {
		m.expanded[t] = false
		m.refresh()
		return m, nil, false
	}
	if p := m.rows[m.cursor].parent; p >= 0 {
		m.cursor = p
		m.updateViewportContent()
		m.ensureCursorVisible()
	}
	return m, nil, false
}

// handleKeyExpandCurrent expands the selected node, or moves to its first
// child when it is already expanded.
func handleKeyExpandCurrent(m Model) (Model, tea.Cmd, bool) {
	t := m.selected()
	if t == nil || len(t.Children) == 0 {
		return m, nil, false
	}
	if !m.expanded[t] {
		m.expanded[t] = true
		m.refresh()
		return m, nil, false
	}
	m.cursor++
	m.updateViewportContent()
	m.ensureCursorVisible()
	return m, nil, false
}

func handleKeyHalfPageDown(m Model) (Model, tea.Cmd, bool) {
	m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
	return m, nil, false
}

func handleKeyHalfPageUp(m Model) (Model, tea.Cmd, bool) {
	m.viewport.SetYOffset(max(0, m.viewport.YOffset-m.viewport.Height/2))
	return m, nil, false
}

func handleKeyG(m Model) (Model, tea.Cmd, bool) {
	m.handleGKey()
	return m, nil, false
}

func handleKeyGG(m Model) (Model, tea.Cmd, bool) {
	m.gotoBottom()
	return m, nil, false
}

func handleKeyPgUp(m Model) (Model, tea.Cmd, bool) {
	m.viewport.SetYOffset(max(0, m.viewport.YOffset-m.viewport.Height))
	return m, nil, false
}

func handleKeyPgDown(m Model) (Model, tea.Cmd, bool) {
	m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
	return m, nil, false
}

// selected returns the tree under the cursor, nil for an empty log
func (m *Model) selected() *cost.Tree {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].tree
}

// rebuildRows flattens the expanded part of the forest into rows
func (m *Model) rebuildRows() {
	rows := make([]row, 0, len(m.rows))
	var walk func(trees []*cost.Tree, depth, parent int)
	walk = func(trees []*cost.Tree, depth, parent int) {
		for _, t := range trees {
			idx := len(rows)
			rows = append(rows, row{tree: t, depth: depth, parent: parent})
			if m.expanded[t] {
				walk(t.Children, depth+1, idx)
			}
		}
	}
	walk(m.trees, 0, -1)
	m.rows = rows

	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
}

// refresh rebuilds rows and search matches after the expansion state changed
func (m *Model) refresh() {
	selected := m.selected()
	m.rebuildRows()
	m.remapMatches()
	if selected != nil {
		for i, r := range m.rows {
			if r.tree == selected {
				m.cursor = i
				break
			}
		}
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
}

func (m *Model) expandAll() {
	var walk func(trees []*cost.Tree)
	walk = func(trees []*cost.Tree) {
		for _, t := range trees {
			if len(t.Children) > 0 {
				m.expanded[t] = true
				walk(t.Children)
			}
		}
	}
	walk(m.trees)
	m.refresh()
}

func (m *Model) collapseAll() {
	clear(m.expanded)
	m.cursor = 0
	m.refresh()
}

func (m *Model) nextMatch() {
	if len(m.searchMatches) == 0 {
		return
	}
	m.currentMatch = (m.currentMatch + 1) % len(m.searchMatches)
	m.cursor = m.searchMatches[m.currentMatch]
	m.updateViewportContent()
	m.ensureCursorVisible()
}

func (m *Model) prevMatch() {
	if len(m.searchMatches) == 0 {
		return
	}
	m.currentMatch--
	if m.currentMatch < 0 {
		m.currentMatch = len(m.searchMatches) - 1
	}
	m.cursor = m.searchMatches[m.currentMatch]
	m.updateViewportContent()
	m.ensureCursorVisible()
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchHits = nil
	m.searchMatches = nil
	m.currentMatch = 0
	m.updateViewportContent()
}

func (m *Model) handleGKey() {
	if !m.pendingG {
		m.pendingG = true
		return
	}
	m.pendingG = false
	m.cursor = 0
	m.updateViewportContent()
	m.viewport.GotoTop()
}

func (m *Model) gotoBottom() {
	if len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
}

// fuzzyMatch returns true if all characters in query appear in text in order
// (not necessarily consecutive). E.g. "trnsfr" matches "transfer".
func fuzzyMatch(text, query string) bool {
	text = strings.ToLower(text)
	query = strings.ToLower(query)
	if query == "" {
		return true
	}
	qi := 0
	for i := 0; i < len(text) && qi < len(query); i++ {
		if text[i] == query[qi] {
			qi++
		}
	}
	return qi == len(query)
}

// searchable is the text a search query is matched against
func searchable(n parser.Node) string {
	s := string(n.Kind()) + " " + parser.Name(n)
	if inv, ok := n.(*parser.Invocation); ok {
		s += " " + string(inv.Status)
	}
	return strings.ToLower(s)
}

// performSearch finds every node matching all terms of the query, expands
// their ancestors so they are visible and moves the cursor to the first.
func (m *Model) performSearch() {
	m.searchHits = nil
	m.searchMatches = nil
	m.currentMatch = 0

	terms := strings.Fields(strings.ToLower(m.searchQuery))
	if len(terms) == 0 {
		return
	}

	m.searchHits = make(map[*cost.Tree]bool)
	var walk func(trees []*cost.Tree, ancestors []*cost.Tree)
	walk = func(trees []*cost.Tree, ancestors []*cost.Tree) {
		for _, t := range trees {
			text := searchable(t.Node)
			all := true
			for _, term := range terms {
				if !fuzzyMatch(text, term) {
					all = false
					break
				}
			}
			if all {
				m.searchHits[t] = true
				for _, a := range ancestors {
					m.expanded[a] = true
				}
			}
			walk(t.Children, append(ancestors, t))
		}
	}
	walk(m.trees, nil)

	m.rebuildRows()
	m.remapMatches()
	if len(m.searchMatches) > 0 {
		m.cursor = m.searchMatches[0]
	}
}

// remapMatches recomputes the row indices of the search hits after rows
// changed. Hits inside collapsed nodes are not counted.
func (m *Model) remapMatches() {
	m.searchMatches = nil
	for i, r := range m.rows {
		if m.searchHits[r.tree] {
			m.searchMatches = append(m.searchMatches, i)
		}
	}
	if m.currentMatch >= len(m.searchMatches) {
		m.currentMatch = 0
	}
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderRows())
}

// ensureCursorVisible scrolls the viewport to make the current cursor visible
func (m *Model) ensureCursorVisible() {
	if !m.ready || m.cursor < 0 || m.cursor >= len(m.rowLineStarts) {
		return
	}

	lineNum := m.rowLineStarts[m.cursor]
	topLine := m.viewport.YOffset
	bottomLine := topLine + m.viewport.Height - 1

	if lineNum < topLine {
		m.viewport.SetYOffset(lineNum)
	} else if lineNum > bottomLine {
		m.viewport.SetYOffset(max(0, lineNum-m.viewport.Height+1))
	}
}

// scrollForDetails keeps the detail block of the selected row in view
func (m *Model) scrollForDetails() {
	if !m.ready || m.cursor < 0 || m.cursor >= len(m.rowLineEnds) {
		return
	}
	end := m.rowLineEnds[m.cursor]
	if end > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.rowLineStarts[m.cursor])
		return
	}
	m.ensureCursorVisible()
}

func (m *Model) renderRows() string {
	var b strings.Builder
	lineCount := 0

	m.rowLineStarts = make([]int, len(m.rows))
	m.rowLineEnds = make([]int, len(m.rows))

	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render("No log lines"))
		b.WriteString("\n")
		return b.String()
	}

	matched := make(map[int]bool, len(m.searchMatches))
	for _, i := range m.searchMatches {
		matched[i] = true
	}

	for i, r := range m.rows {
		m.rowLineStarts[i] = lineCount
		rendered := m.renderRow(r, i == m.cursor, matched[i])
		b.WriteString(rendered)
		b.WriteString("\n")
		lineCount += strings.Count(rendered, "\n") + 1

		if i == m.cursor && m.details {
			indent := strings.Repeat("  ", r.depth+2)
			for _, d := range detailLines(r.tree) {
				b.WriteString(indent + textStyle.Render(d) + "\n")
				lineCount++
			}
		}
		m.rowLineEnds[i] = lineCount
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("── End of Log ──"))
	b.WriteString("\n")

	// Padding after the marker so the viewport can scroll the last
	// row's details fully into view
	for range m.viewport.Height {
		b.WriteString("\n")
	}
	return b.String()
}

// renderRow draws one tree row. Unknown lines wrap onto continuation lines;
// other labels are truncated to the viewport.
func (m Model) renderRow(r row, selected, isMatch bool) string {
	t := r.tree
	n := t.Node
	indent := strings.Repeat("  ", r.depth)

	marker := " "
	if len(t.Children) > 0 {
		marker = indicator(m.expanded[t])
	}
	prefix := indent + marker + " " + KindSymbol(n.Kind()) + " "
	avail := max(10, m.viewport.Width-lipgloss.Width(prefix))

	style := NodeStyle(n)
	if isMatch {
		style = matchStyle
	}

	var line string
	if u, ok := n.(*parser.Unknown); ok {
		wrapped := strings.Split(wordwrap.String(u.Line, avail), "\n")
		pad := strings.Repeat(" ", lipgloss.Width(prefix))
		for i, w := range wrapped {
			wrapped[i] = style.Render(w)
			if i > 0 {
				wrapped[i] = pad + wrapped[i]
			}
		}
		line = prefix + strings.Join(wrapped, "\n")
	} else {
		var suffix string
		if inv, ok := n.(*parser.Invocation); ok {
			suffix = " " + invocationDetail(inv)
		}
		suffix += "  " + figures(t.Report)
		name := truncate.StringWithTail(label(n), uint(max(1, avail-lipgloss.Width(suffix))), "…")
		line = prefix + style.Render(name) + suffix
	}

	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func (m Model) viewHeader() string {
	title := "cuprism"
	if m.title != "" {
		title += " · " + m.title
	}
	return headerStyle.Render(title) + "\n" + summaryStyle.Render(summaryLine(m.stats, m.totals)) + "\n"
}

func (m Model) viewSearchBar() string {
	if m.searching {
		return searchStyle.Render("/") + m.searchInput.View()
	}
	if m.searchQuery != "" {
		pos := 0
		if len(m.searchMatches) > 0 {
			pos = m.currentMatch + 1
		}
		return searchStyle.Render(fmt.Sprintf("/%s", m.searchQuery)) +
			mutedStyle.Render(fmt.Sprintf("  (%d/%d)  n/N: next/prev  esc: clear", pos, len(m.searchMatches)))
	}
	return ""
}

func (m Model) viewHelpFooter() string {
	return helpStyle.Render("j/k: move  enter: toggle  h/l: collapse/expand  e/c: all  i: details  /: search  q: quit")
}

func (m Model) viewUpdateNudge() string {
	if m.updateAvailable == "" {
		return ""
	}
	return statusBarStyle.Render(fmt.Sprintf("Update available: %s → run 'cuprism upgrade'", m.updateAvailable))
}

// View renders the model
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if bar := m.viewSearchBar(); bar != "" {
		b.WriteString(bar)
	} else {
		b.WriteString(m.viewHelpFooter())
	}
	if nudge := m.viewUpdateNudge(); nudge != "" {
		b.WriteString("\n")
		b.WriteString(nudge)
	}
	return b.String()
}

// Run starts the interactive viewer for log
func Run(log *parser.Log, opts Options) error {
	m, err := NewModel(log, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
