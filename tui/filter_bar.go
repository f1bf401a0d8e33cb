// ABOUTME: Filter bar: date range, relative days, team lead, person and group inputs
// ABOUTME: Entering the bar holds off automatic loads; leaving it schedules a debounced reload
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
)

const (
	fieldStart = iota
	fieldEnd
	fieldDays
	fieldTeamLead
	fieldPerson
	fieldGroup
	fieldCount
)

var fieldLabels = [fieldCount]string{"Start", "End", "Days", "Team", "Person", "Group"}

func newFilterInputs() []textinput.Model {
	placeholders := [fieldCount]string{"YYYY-MM-DD", "YYYY-MM-DD", "365", "any", "any", "any"}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		t := textinput.New()
		t.Prompt = ""
		t.Placeholder = placeholders[i]
		t.CharLimit = 64
		t.Width = 12
		inputs[i] = t
	}
	inputs[fieldDays].CharLimit = 5
	inputs[fieldDays].Width = 5
	return inputs
}

// setInputs shows f in the filter bar.
func (m *Model) setInputs(f models.Filters) {
	m.inputs[fieldStart].SetValue(f.Start)
	m.inputs[fieldEnd].SetValue(f.End)
	days := ""
	if f.Days > 0 {
		days = strconv.Itoa(f.Days)
	}
	m.inputs[fieldDays].SetValue(days)
	m.inputs[fieldTeamLead].SetValue(f.TeamLead)
	m.inputs[fieldPerson].SetValue(f.Person)
	m.inputs[fieldGroup].SetValue(f.Group)
}

// filtersFromInputs reads the bar. A date range wins over days.
func (m Model) filtersFromInputs() (models.Filters, error) {
	value := func(i int) string { return strings.TrimSpace(m.inputs[i].Value()) }

	f := models.Filters{
		TeamLead: value(fieldTeamLead),
		Person:   value(fieldPerson),
		Group:    value(fieldGroup),
	}
	start, end, days := value(fieldStart), value(fieldEnd), value(fieldDays)
	switch {
	case start != "" || end != "":
		f.SetDateRange(start, end)
	case days != "":
		n, err := strconv.Atoi(days)
		if err != nil {
			return models.Filters{}, fmt.Errorf("days must be a number: %q", days)
		}
		f.SetDays(n)
	}
	if err := f.Validate(); err != nil {
		return models.Filters{}, err
	}
	return f, nil
}

// commitFilters publishes the bar to the coordinator. On invalid input the
// previous filters stay active and the error is shown.
func (m *Model) commitFilters() bool {
	f, err := m.filtersFromInputs()
	if err != nil {
		m.message = "invalid filters: " + err.Error()
		return false
	}
	m.filters.Set(f)
	m.setInputs(f)
	m.message = ""
	return true
}

func (m *Model) focusFilterBar() tea.Cmd {
	m.filterFocused = true
	m.suggestion = -1
	m.coord.SetInteracting(true)
	return m.inputs[m.focusIndex].Focus()
}

func (m *Model) blurFilterBar() {
	m.filterFocused = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.coord.SetInteracting(false)
}

func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Leave):
		m.blurFilterBar()
		if m.commitFilters() {
			m.sched.FilterChanged()
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.blurFilterBar()
		if !m.commitFilters() {
			return m, nil
		}
		return m, m.load(loader.TriggerManual)
	case key.Matches(msg, m.keys.NextField):
		return m, m.moveFocus(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.moveFocus(-1)
	case key.Matches(msg, m.keys.Suggest):
		m.nextSuggestion()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	m.suggestion = -1
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = (m.focusIndex + delta + fieldCount) % fieldCount
	m.suggestion = -1
	return m.inputs[m.focusIndex].Focus()
}

func (m Model) suggestionsFor(field int) []string {
	switch field {
	case fieldTeamLead:
		return m.options.TeamLeads
	case fieldPerson:
		return m.options.People
	case fieldGroup:
		return m.options.Groups
	}
	return nil
}

// nextSuggestion cycles the focused input through the values the last
// payload advertised.
func (m *Model) nextSuggestion() {
	list := m.suggestionsFor(m.focusIndex)
	if len(list) == 0 {
		return
	}
	m.suggestion = (m.suggestion + 1) % len(list)
	m.inputs[m.focusIndex].SetValue(list[m.suggestion])
	m.inputs[m.focusIndex].CursorEnd()
}

func (m Model) renderFilterBar() string {
	var cells []string
	for i, input := range m.inputs {
		label := fieldLabels[i] + " "
		if m.filterFocused && i == m.focusIndex {
			cells = append(cells, filterActiveStyle.Render(label)+input.View())
		} else {
			cells = append(cells, filterLabelStyle.Render(label)+input.View())
		}
	}
	bar := strings.Join(cells, "  ")

	if !m.filterFocused {
		return bar
	}
	if list := m.suggestionsFor(m.focusIndex); len(list) > 0 {
		shown := list
		if len(shown) > 5 {
			shown = shown[:5]
		}
		hint := "suggestions: " + strings.Join(shown, ", ")
		if len(list) > len(shown) {
			hint += fmt.Sprintf(" (+%d)", len(list)-len(shown))
		}
		bar += "\n" + helpStyle.Render(hint+" • ctrl+n to cycle")
	}
	return bar
}
