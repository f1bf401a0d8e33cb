// ABOUTME: Headline panels: today's KPIs, target achievement and the daily trend
// ABOUTME: These are primary panels replaced by the offline message on terminal failure
package panels

import (
	"fmt"
	"strings"

	"github.com/harperreed/salesdash/models"
)

type kpiPanel struct{ panelBase }

// NewKPIPanel shows today's counters.
func NewKPIPanel() Panel {
	return kpiPanel{panelBase{PanelConfig{
		ID:       "kpi",
		Title:    "Today",
		Sections: []string{models.SectionKPIToday},
		Primary:  true,
	}}}
}

func (kpiPanel) Render(p *models.Payload, _ int) (string, error) {
	k, err := models.KPI(p)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if k.Date != "" {
		b.WriteString(mutedStyle.Render(k.Date) + "\n")
	}
	fmt.Fprintf(&b, "Sales   %s\n", amount(k.Sales))
	calls := amount(k.Calls)
	if k.CallsToday > 0 {
		calls += fmt.Sprintf(" (%s today)", amount(k.CallsToday))
	}
	fmt.Fprintf(&b, "Calls   %s\n", calls)
	fmt.Fprintf(&b, "Visits  %s\n", amount(k.Visits))
	fmt.Fprintf(&b, "Quotes  %s", amount(k.Quotes))
	return b.String(), nil
}

type targetPanel struct{ panelBase }

// NewTargetPanel shows progress against the sales goal.
func NewTargetPanel() Panel {
	return targetPanel{panelBase{PanelConfig{
		ID:       "target",
		Title:    "Target",
		Sections: []string{models.SectionTarget},
	}}}
}

func (targetPanel) Render(p *models.Payload, width int) (string, error) {
	t, err := models.TargetOf(p)
	if err != nil {
		return "", err
	}
	if t.Goal <= 0 {
		return fmt.Sprintf("Actual %s (no goal set)", amount(t.Actual)), nil
	}
	pct := t.Percent()
	return fmt.Sprintf("%s / %s\n%s %s",
		amount(t.Actual), amount(t.Goal),
		bar(pct, 100, barWidthFor(width)), percent(pct)), nil
}

type trendPanel struct{ panelBase }

// NewTrendPanel shows daily sales as a sparkline with totals.
func NewTrendPanel() Panel {
	return trendPanel{panelBase{PanelConfig{
		ID:       "trend",
		Title:    "Daily trend",
		Sections: []string{models.SectionDailyTrend},
		Primary:  true,
	}}}
}

func (trendPanel) Render(p *models.Payload, width int) (string, error) {
	points, err := models.Trend(p)
	if err != nil {
		return "", err
	}
	var total models.Activity
	sales := make([]float64, 0, len(points))
	for _, pt := range points {
		sales = append(sales, pt.Sales)
		total.Sales += pt.Sales
		total.Calls += pt.Calls
		total.Visits += pt.Visits
		total.Quotes += pt.Quotes
	}

	span := width - 4
	if span < 10 {
		span = 10
	}
	shown := tail(points, span)
	var b strings.Builder
	b.WriteString(sparkline(tail(sales, span)) + "\n")
	if len(shown) > 0 {
		b.WriteString(mutedStyle.Render(shown[0].Date+" … "+shown[len(shown)-1].Date) + "\n")
	}
	fmt.Fprintf(&b, "Sales %s · Calls %s · Visits %s · Quotes %s",
		amount(total.Sales), amount(total.Calls), amount(total.Visits), amount(total.Quotes))
	return b.String(), nil
}

type monthlyPanel struct{ panelBase }

// NewMonthlyPanel compares the latest month with the previous one.
func NewMonthlyPanel() Panel {
	return monthlyPanel{panelBase{PanelConfig{
		ID:       "monthly",
		Title:    "Month over month",
		Sections: []string{models.SectionMonthlyComparison, models.SectionDailyTrend},
	}}}
}

func (monthlyPanel) Render(p *models.Payload, _ int) (string, error) {
	m, ok := models.Monthly(p)
	if !ok {
		return noDataMessage, nil
	}
	change := m.Change()
	arrow := "→"
	switch {
	case change > 0:
		arrow = "▲"
	case change < 0:
		arrow = "▼"
	}
	out := fmt.Sprintf("%s  %s\n%s  %s\n%s %s",
		fit(m.Current.Month, 8), amount(m.Current.Sales),
		fit(m.Previous.Month, 8), amount(m.Previous.Sales),
		arrow, percent(change))
	if m.Estimated {
		out += mutedStyle.Render(" (from daily trend)")
	}
	return out, nil
}

func barWidthFor(width int) int {
	w := width - 16
	if w < 5 {
		return 5
	}
	if w > 30 {
		return 30
	}
	return w
}
