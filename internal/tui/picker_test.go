package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaptShanks/cuprism/internal/history"
)

func testEntries() []history.Entry {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	return []history.Entry{
		{Path: "/h/3.log", Filename: "3.log", Source: "swap-tx", Hash: "aa11", Timestamp: at.Add(2 * time.Hour)},
		{Path: "/h/2.log", Filename: "2.log", Source: "transfer", Hash: "bb22", Timestamp: at.Add(time.Hour)},
		{Path: "/h/1.log", Filename: "1.log", Source: "swap-fail", Hash: "cc33", Timestamp: at},
	}
}

func pick(t *testing.T, m PickerModel, keys ...tea.KeyMsg) PickerModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(PickerModel)
	}
	return m
}

func TestPickerSelect(t *testing.T) {
	m := NewPickerModel(testEntries())
	m = pick(t, m, runeKey("j"), runeKey("j"), runeKey("j"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "/h/1.log", m.SelectedPath())
	assert.True(t, m.quitting)
}

func TestPickerCancel(t *testing.T) {
	m := NewPickerModel(testEntries())
	m = pick(t, m, runeKey("q"))
	assert.Empty(t, m.SelectedPath())
	assert.Empty(t, m.View())
}

func TestPickerFilter(t *testing.T) {
	m := NewPickerModel(testEntries())
	m = pick(t, m, runeKey("/"), runeKey("s"), runeKey("w"), runeKey("a"), runeKey("p"))
	require.True(t, m.searching)
	assert.Len(t, m.filtered, 2)

	m = pick(t, m, tea.KeyMsg{Type: tea.KeySpace}, runeKey("f"), runeKey("a"), runeKey("i"), runeKey("l"))
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "swap-fail", m.filtered[0].Source)

	m = pick(t, m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "/h/1.log", m.SelectedPath())
}

func TestPickerFilterByDate(t *testing.T) {
	m := NewPickerModel(testEntries())
	m.searchQuery = "2026-03-01 11:00"
	m.filterEntries()
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "transfer", m.filtered[0].Source)
}

func TestPickerBackspaceAndEsc(t *testing.T) {
	m := NewPickerModel(testEntries())
	m = pick(t, m, runeKey("/"), runeKey("x"), runeKey("y"))
	assert.Empty(t, m.filtered)
	assert.Contains(t, m.View(), "No results for 'xy'")

	m = pick(t, m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Len(t, m.filtered, 3)

	m = pick(t, m, runeKey("b"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.searching)
	assert.Len(t, m.filtered, 1)

	m = pick(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.filtered, 3, "esc clears an active filter")
	assert.False(t, m.quitting)

	m = pick(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.quitting)
}

func TestPickerCursorClamp(t *testing.T) {
	m := NewPickerModel(testEntries())
	m = pick(t, m, runeKey("G"))
	assert.Equal(t, 2, m.cursor)

	m = pick(t, m, runeKey("/"), runeKey("t"), runeKey("r"), runeKey("a"), runeKey("n"))
	assert.Equal(t, 0, m.cursor)

	m = pick(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runeKey("k"), runeKey("g"))
	assert.Equal(t, 0, m.cursor)
}

func TestPickerEmpty(t *testing.T) {
	m := NewPickerModel(nil)
	assert.Contains(t, m.View(), "No history entries")
	m = pick(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.SelectedPath())
}
