// Package picker provides an interactive terminal list for choosing which
// extracted tables to export.
package picker

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/tabscrape/internal/output"
	"github.com/jmylchreest/tabscrape/pkg/table"
)

// ErrCancelled is returned when the user quits without confirming.
var ErrCancelled = errors.New("selection cancelled")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	itemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the bubbletea model of the picker. Every table starts selected.
type Model struct {
	title     string
	tables    []table.Table
	cursor    int
	chosen    map[int]bool
	done      bool
	cancelled bool
}

// New creates a picker over tables.
func New(title string, tables []table.Table) *Model {
	chosen := make(map[int]bool, len(tables))
	for i := range tables {
		chosen[i] = true
	}
	return &Model{title: title, tables: tables, chosen: chosen}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tables)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.tables) > 0 {
			m.chosen[m.cursor] = !m.chosen[m.cursor]
		}
	case "a":
		all := len(m.Selected()) < len(m.tables)
		for i := range m.tables {
			m.chosen[i] = all
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, t := range m.tables {
		cursor := "  "
		style := itemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedStyle
		}
		box := "[ ]"
		if m.chosen[i] {
			box = "[x]"
		}

		line := fmt.Sprintf("%s %s", box, output.Heading(i+1, t))
		b.WriteString(cursor + style.Render(line))
		if len(t.Columns) > 0 {
			b.WriteString(mutedStyle.Render("  " + summarize(t.Columns, 40)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("[j/k] Navigate  [space] Toggle  [a] All  [enter] Confirm  [q] Cancel"))
	return b.String()
}

// Selected returns the 1-based indices of the chosen tables in order.
func (m *Model) Selected() []int {
	var out []int
	for i, ok := range m.chosen {
		if ok {
			out = append(out, i+1)
		}
	}
	sort.Ints(out)
	return out
}

// Confirmed reports whether the user confirmed the selection.
func (m *Model) Confirmed() bool {
	return m.done
}

// Run shows the picker on out and returns the chosen 1-based indices.
func Run(title string, tables []table.Table, in io.Reader, out io.Writer) ([]int, error) {
	m := New(title, tables)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("run picker: %w", err)
	}
	if !m.Confirmed() {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}

// summarize joins labels and cuts the result to width runes.
func summarize(labels []string, width int) string {
	s := strings.Join(labels, ", ")
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}
