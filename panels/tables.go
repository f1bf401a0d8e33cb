// ABOUTME: Tabular panels: team summary and paginated per-person totals
// ABOUTME: Person totals keep a page cursor that the dashboard moves with [ and ]
package panels

import (
	"fmt"
	"strings"
	"sync"

	"github.com/harperreed/salesdash/models"
)

// PersonPageSize is the number of people shown per page.
const PersonPageSize = 20

type teamPanel struct{ panelBase }

// NewTeamPanel shows the per-team summary.
func NewTeamPanel() Panel {
	return teamPanel{panelBase{PanelConfig{
		ID:       "summary",
		Title:    "Teams",
		Sections: []string{models.SectionSummary},
		Primary:  true,
	}}}
}

func (teamPanel) Render(p *models.Payload, width int) (string, error) {
	teams, err := models.Teams(p)
	if err != nil {
		return "", err
	}
	nameWidth := nameColumn(width)
	var b strings.Builder
	b.WriteString(mutedStyle.Render(activityHeader("Team", nameWidth)))
	for _, t := range teams {
		b.WriteString("\n" + activityRow(t.Team, t.Activity, nameWidth))
	}
	return b.String(), nil
}

// PersonTotalsPanel lists people by sales, one page at a time.
type PersonTotalsPanel struct {
	panelBase
	mu    sync.Mutex
	page  int
	pages int
}

// NewPersonTotalsPanel creates the panel on its first page.
func NewPersonTotalsPanel() *PersonTotalsPanel {
	return &PersonTotalsPanel{panelBase: panelBase{PanelConfig{
		ID:       "people",
		Title:    "People",
		Sections: []string{models.SectionPersonTotals},
		Primary:  true,
	}}}
}

// NextPage advances the cursor, stopping at the last page seen.
func (pp *PersonTotalsPanel) NextPage() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.page < pp.pages-1 {
		pp.page++
	}
}

func (pp *PersonTotalsPanel) PrevPage() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.page > 0 {
		pp.page--
	}
}

// Page returns the zero-based page.
func (pp *PersonTotalsPanel) Page() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return pp.page
}

func (pp *PersonTotalsPanel) Render(p *models.Payload, width int) (string, error) {
	people, err := models.People(p)
	if err != nil {
		return "", err
	}

	pp.mu.Lock()
	pp.pages = (len(people) + PersonPageSize - 1) / PersonPageSize
	if pp.page >= pp.pages {
		pp.page = max(pp.pages-1, 0)
	}
	page := pp.page
	pages := pp.pages
	pp.mu.Unlock()

	start := page * PersonPageSize
	end := min(start+PersonPageSize, len(people))

	nameWidth := nameColumn(width)
	var b strings.Builder
	b.WriteString(mutedStyle.Render(activityHeader("Person", nameWidth)))
	for i, person := range people[start:end] {
		label := fmt.Sprintf("%d. %s", start+i+1, person.Person)
		b.WriteString("\n" + activityRow(label, person.Activity, nameWidth))
	}
	if pages > 1 {
		b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("page %d/%d ([ ] to page)", page+1, pages)))
	}
	return b.String(), nil
}

func activityHeader(label string, nameWidth int) string {
	return fmt.Sprintf("%s %10s %6s %6s %6s", fit(label, nameWidth), "Sales", "Calls", "Visits", "Quotes")
}

func activityRow(label string, a models.Activity, nameWidth int) string {
	return fmt.Sprintf("%s %10s %6s %6s %6s",
		fit(label, nameWidth), amount(a.Sales), amount(a.Calls), amount(a.Visits), amount(a.Quotes))
}

func nameColumn(width int) int {
	w := width - 4 - 33
	if w < 8 {
		return 8
	}
	if w > 24 {
		return 24
	}
	return w
}
