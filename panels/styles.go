// ABOUTME: Lipgloss styles for dashboard regions
// ABOUTME: Region state picks the border and body colors
package panels

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// View draws the region inside a bordered box of the given outer width.
func (r Region) View(width int) string {
	body := r.Body
	border := lipgloss.Color("240")
	switch r.State {
	case RegionEmpty:
		body = mutedStyle.Render(body)
	case RegionError:
		body = errorStyle.Render(body)
		border = lipgloss.Color("196")
	case RegionOffline:
		body = warnStyle.Render("⚠ " + body)
		border = lipgloss.Color("214")
	}

	style := boxStyle.BorderForeground(border)
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(titleStyle.Render(r.Title) + "\n" + body)
}

// Plain renders the region without styling, for logs and non-terminal output.
func (r Region) Plain() string {
	var b strings.Builder
	b.WriteString("== " + r.Title + " ==\n")
	b.WriteString(r.Body)
	b.WriteString("\n")
	return b.String()
}

// Grid lays regions out in rows of columns regions each.
func Grid(regions []Region, width, columns int) string {
	if columns < 1 {
		columns = 1
	}
	cellWidth := width / columns
	var rows []string
	for i := 0; i < len(regions); i += columns {
		end := i + columns
		if end > len(regions) {
			end = len(regions)
		}
		cells := make([]string, 0, columns)
		for _, r := range regions[i:end] {
			cells = append(cells, r.View(cellWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
