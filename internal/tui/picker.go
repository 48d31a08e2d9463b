package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/CaptShanks/cuprism/internal/history"
)

const pickerWidth = 72

// pickerKeys are the bindings of the picker in normal mode
var pickerKeys = struct {
	Search, Quit, Esc, Select, Down, Up, Top, Bottom key.Binding
}{
	Search: key.NewBinding(key.WithKeys("/")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Esc:    key.NewBinding(key.WithKeys("esc")),
	Select: key.NewBinding(key.WithKeys("enter", " ")),
	Down:   key.NewBinding(key.WithKeys("j", "down")),
	Up:     key.NewBinding(key.WithKeys("k", "up")),
	Top:    key.NewBinding(key.WithKeys("g")),
	Bottom: key.NewBinding(key.WithKeys("G")),
}

// PickerModel is a TUI for selecting a history entry
type PickerModel struct {
	allEntries []history.Entry
	filtered   []history.Entry
	cursor     int
	selected   string // path of the chosen entry
	quitting   bool
	height     int
	width      int

	searching   bool
	searchQuery string
}

// NewPickerModel creates a new history picker
func NewPickerModel(entries []history.Entry) PickerModel {
	return PickerModel{
		allEntries: entries,
		filtered:   entries,
	}
}

// SelectedPath returns the path of the selected entry (empty if cancelled)
func (m PickerModel) SelectedPath() string {
	return m.selected
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

// filterEntries keeps the entries matching every space-separated term of
// the query
func (m *PickerModel) filterEntries() {
	terms := strings.Fields(strings.ToLower(m.searchQuery))
	if len(terms) == 0 {
		m.filtered = m.allEntries
		return
	}

	var results []history.Entry
	for _, entry := range m.allEntries {
		searchable := strings.ToLower(
			entry.Source + " " +
				entry.Hash + " " +
				entry.Timestamp.Format("2006-01-02 15:04") + " " +
				entry.Filename,
		)

		allMatch := true
		for _, term := range terms {
			if !strings.Contains(searchable, term) {
				allMatch = false
				break
			}
		}
		if allMatch {
			results = append(results, entry)
		}
	}

	m.filtered = results
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}

		switch {
		case key.Matches(msg, pickerKeys.Search):
			m.searching = true

		case key.Matches(msg, pickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, pickerKeys.Esc):
			if m.searchQuery != "" {
				m.searchQuery = ""
				m.filterEntries()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, pickerKeys.Select):
			if len(m.filtered) > 0 {
				m.selected = m.filtered[m.cursor].Path
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, pickerKeys.Down):
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}

		case key.Matches(msg, pickerKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, pickerKeys.Top):
			m.cursor = 0

		case key.Matches(msg, pickerKeys.Bottom):
			m.cursor = max(0, len(m.filtered)-1)
		}
	}
	return m, nil
}

func (m PickerModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.searchQuery = ""
		m.filterEntries()
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyBackspace:
		if r := []rune(m.searchQuery); len(r) > 0 {
			m.searchQuery = string(r[:len(r)-1])
			m.filterEntries()
		}
	case tea.KeyRunes:
		m.searchQuery += string(msg.Runes)
		m.filterEntries()
	case tea.KeySpace:
		m.searchQuery += " "
		m.filterEntries()
	}
	return m, nil
}

func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("Select a saved log to view"))
	b.WriteString("\n\n")

	columns := mutedStyle.Bold(true)
	b.WriteString(columns.Render("     TIMESTAMP            SOURCE                          HASH"))
	b.WriteString("\n")
	b.WriteString(columns.Render(strings.Repeat("─", pickerWidth)))
	b.WriteString("\n")

	if len(m.filtered) == 0 {
		empty := mutedStyle.Italic(true)
		if m.searchQuery != "" {
			b.WriteString(empty.Render(fmt.Sprintf("  No results for '%s'", m.searchQuery)))
		} else {
			b.WriteString(empty.Render("  No history entries"))
		}
		b.WriteString("\n")
	}

	for i, entry := range m.filtered {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%2d  %s  %-30s  %s",
			cursor,
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			truncate.StringWithTail(entry.Source, 30, "…"),
			mutedStyle.Render(entry.Hash),
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Bold(true).Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.searching:
		b.WriteString(searchStyle.Render("/ "))
		b.WriteString(m.searchQuery)
		b.WriteString("█")
	case m.searchQuery != "":
		b.WriteString(searchStyle.Render(fmt.Sprintf("Filter: %s", m.searchQuery)))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d/%d)", len(m.filtered), len(m.allEntries))))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("j/k: navigate  enter: select  esc: clear filter  q: cancel"))
	default:
		b.WriteString(mutedStyle.Render("j/k: navigate  /: search  enter: select  q: cancel"))
	}

	return b.String()
}

// RunPicker runs the interactive history picker and returns the selected path
func RunPicker(entries []history.Entry) (string, error) {
	p := tea.NewProgram(NewPickerModel(entries))

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	return finalModel.(PickerModel).SelectedPath(), nil
}
