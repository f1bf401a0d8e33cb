// ABOUTME: Dashboard layout: header, filter bar, status line and the region grid
// ABOUTME: The grid is clipped to the terminal height and scrolls with j/k
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/panels"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	filterLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	filterActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("170"))

	statusReadyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10"))

	statusBusyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("SALES DASHBOARD"))
	if m.endpoint != "" {
		s.WriteString("  " + helpStyle.Render(m.endpoint))
	}
	s.WriteString("\n\n")
	s.WriteString(m.renderFilterBar())
	s.WriteString("\n")
	s.WriteString(m.renderStatusLine())
	s.WriteString("\n")
	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	header := s.String()
	help := m.renderHelp()
	room := m.height - lipgloss.Height(header) - lipgloss.Height(help)
	s.WriteString(m.renderGrid(room))
	s.WriteString("\n")
	s.WriteString(help)
	return s.String()
}

func (m Model) renderStatusLine() string {
	var parts []string

	status := m.status.String()
	switch {
	case m.busy:
		parts = append(parts, m.spinner.View()+statusBusyStyle.Render(status))
	case m.status.Phase == loader.PhaseFailed:
		line := status
		if m.status.Err != nil {
			line += ": " + m.status.Err.Error()
		}
		parts = append(parts, statusErrorStyle.Render(line))
	case m.status.Phase == loader.PhaseReady || m.status.Phase == loader.PhaseCached:
		parts = append(parts, statusReadyStyle.Render(status))
	default:
		parts = append(parts, status)
	}

	parts = append(parts, m.filters.Get().Describe())
	if m.autoRefresh {
		parts = append(parts, "auto refresh on")
	} else {
		parts = append(parts, "auto refresh off")
	}
	return strings.Join(parts, helpStyle.Render(" • "))
}

func (m Model) renderGrid(room int) string {
	if len(m.regions) == 0 {
		return helpStyle.Render("waiting for data...")
	}
	grid := panels.Grid(m.regions, m.gridWidth(), m.columns())
	lines := strings.Split(grid, "\n")

	start := min(m.scroll, max(len(lines)-1, 0))
	lines = lines[start:]
	if room > 0 && len(lines) > room {
		lines = lines[:room]
	}
	return strings.Join(lines, "\n")
}

func (m Model) gridWidth() int {
	return max(m.width, 40)
}

func (m Model) columns() int {
	switch {
	case m.width >= 150:
		return 3
	case m.width >= 100:
		return 2
	default:
		return 1
	}
}

func (m Model) renderHelp() string {
	var bindings []key.Binding
	if m.filterFocused {
		bindings = []key.Binding{m.keys.Submit, m.keys.Leave, m.keys.NextField, m.keys.PrevField, m.keys.Suggest}
	} else {
		bindings = []key.Binding{m.keys.Apply, m.keys.Refresh, m.keys.Reset, m.keys.ToggleAuto, m.keys.FilterBar, m.keys.PrevPage, m.keys.NextPage, m.keys.Quit}
	}
	help := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		help = append(help, h.Key+": "+h.Desc)
	}
	return helpStyle.Render(strings.Join(help, " • "))
}
