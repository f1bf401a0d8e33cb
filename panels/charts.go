// ABOUTME: Bar-chart panels: funnel, product mix, lost reasons, areas, conversion and top performers
// ABOUTME: All bars are scaled to the largest value in the panel
package panels

import (
	"fmt"
	"strings"

	"github.com/harperreed/salesdash/models"
)

// barRow is one labelled value in a bar chart.
type barRow struct {
	label string
	value float64
	note  string
}

func barChart(rows []barRow, width int) string {
	maxValue := 0.0
	for _, r := range rows {
		if r.value > maxValue {
			maxValue = r.value
		}
	}
	labelWidth := nameColumn(width) - 4
	if labelWidth < 8 {
		labelWidth = 8
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		line := fmt.Sprintf("%s %s %s", fit(r.label, labelWidth), bar(r.value, maxValue, barWidth), amount(r.value))
		if r.note != "" {
			line += " " + mutedStyle.Render(r.note)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

type funnelPanel struct{ panelBase }

// NewFunnelPanel shows leads, quotes and closed deals with stage conversion.
func NewFunnelPanel() Panel {
	return funnelPanel{panelBase{PanelConfig{
		ID:       "funnel",
		Title:    "Funnel",
		Sections: []string{models.SectionFunnel},
	}}}
}

func (funnelPanel) Render(p *models.Payload, width int) (string, error) {
	f, err := models.FunnelOf(p)
	if err != nil {
		return "", err
	}
	return barChart([]barRow{
		{label: "Leads", value: f.Leads},
		{label: "Quotes", value: f.Quotes, note: percent(f.Rate(f.Quotes))},
		{label: "Closed", value: f.Closed, note: percent(f.Rate(f.Closed))},
	}, width), nil
}

type productMixPanel struct{ panelBase }

func NewProductMixPanel() Panel {
	return productMixPanel{panelBase{PanelConfig{
		ID:       "product_mix",
		Title:    "Product mix",
		Sections: []string{models.SectionProductMix},
	}}}
}

func (productMixPanel) Render(p *models.Payload, width int) (string, error) {
	items, err := models.ProductMix(p)
	if err != nil {
		return "", err
	}
	total := 0.0
	for _, it := range items {
		total += it.Value
	}
	rows := make([]barRow, 0, len(items))
	for _, it := range items {
		share := 0.0
		if total > 0 {
			share = it.Value / total * 100
		}
		rows = append(rows, barRow{label: it.Label, value: it.Value, note: percent(share)})
	}
	return barChart(rows, width), nil
}

type lostReasonsPanel struct{ panelBase }

func NewLostReasonsPanel() Panel {
	return lostReasonsPanel{panelBase{PanelConfig{
		ID:       "lost_reasons",
		Title:    "Lost deals",
		Sections: []string{models.SectionLostReasons},
	}}}
}

func (lostReasonsPanel) Render(p *models.Payload, width int) (string, error) {
	reasons, err := models.LostReasons(p)
	if err != nil {
		return "", err
	}
	reasons = reasons[:min(len(reasons), 8)]
	rows := make([]barRow, 0, len(reasons))
	for _, r := range reasons {
		rows = append(rows, barRow{label: r.Reason, value: r.Count})
	}
	return barChart(rows, width), nil
}

type areaPanel struct{ panelBase }

// NewAreaPanel shows sales by sales area.
func NewAreaPanel() Panel {
	return areaPanel{panelBase{PanelConfig{
		ID:       "areas",
		Title:    "Areas",
		Sections: []string{models.SectionAreaPerformance},
		Primary:  true,
	}}}
}

func (areaPanel) Render(p *models.Payload, width int) (string, error) {
	areas, err := models.Areas(p)
	if err != nil {
		return "", err
	}
	rows := make([]barRow, 0, len(areas))
	for _, a := range areas {
		rows = append(rows, barRow{label: a.Area, value: a.Sales, note: amount(a.Leads) + " leads"})
	}
	return barChart(rows, width), nil
}

type conversionPanel struct{ panelBase }

// NewConversionPanel shows conversion rate by team.
func NewConversionPanel() Panel {
	return conversionPanel{panelBase{PanelConfig{
		ID:       "conversion",
		Title:    "Conversion",
		Sections: []string{models.SectionConversionAnalysis, models.SectionSummary},
		Primary:  true,
	}}}
}

func (conversionPanel) Render(p *models.Payload, width int) (string, error) {
	rows, err := models.Conversion(p)
	if err != nil {
		return "", err
	}
	labelWidth := nameColumn(width)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s %s", fit(r.Team, labelWidth), bar(r.Rate, 100, barWidth), percent(r.Rate)))
	}
	return strings.Join(lines, "\n"), nil
}

type performersPanel struct{ panelBase }

// NewPerformersPanel lists top callers and visitors side by side.
func NewPerformersPanel() Panel {
	return performersPanel{panelBase{PanelConfig{
		ID:       "performers",
		Title:    "Top performers",
		Sections: []string{models.SectionCallVisitAnalysis},
		Primary:  true,
	}}}
}

func (performersPanel) Render(p *models.Payload, width int) (string, error) {
	callers, visitors, err := models.TopPerformers(p)
	if err != nil {
		return "", err
	}
	col := (width - 6) / 2
	if col < 16 {
		col = 16
	}
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fit("Calls", col) + "  " + fit("Visits", col)))
	for i := 0; i < 5 && (i < len(callers) || i < len(visitors)); i++ {
		left, right := "", ""
		if i < len(callers) {
			left = fmt.Sprintf("%s %s", callers[i].Person, amount(callers[i].Value))
		}
		if i < len(visitors) {
			right = fmt.Sprintf("%s %s", visitors[i].Person, amount(visitors[i].Value))
		}
		b.WriteString("\n" + fit(left, col) + "  " + fit(right, col))
	}
	return b.String(), nil
}
