// ABOUTME: Generic panel for analytical sections without a dedicated renderer
// ABOUTME: Lists rows as a label and the first numeric field found
package panels

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/salesdash/models"
)

var labelKeys = []string{"label", "name", "team", "person", "area", "product", "segment", "month", "date"}

type sectionPanel struct {
	panelBase
	section string
	limit   int
}

// NewSectionPanel renders an arbitrary array or {items: [...]} section.
func NewSectionPanel(id, title, section string) Panel {
	return sectionPanel{
		panelBase: panelBase{PanelConfig{ID: id, Title: title, Sections: []string{section}}},
		section:   section,
		limit:     8,
	}
}

func (sp sectionPanel) Render(p *models.Payload, width int) (string, error) {
	s := p.Section(sp.section)
	var recs []models.Record
	var err error
	switch s.Kind() {
	case models.KindArray:
		recs, err = models.Records(s)
	case models.KindObject:
		if items := s.Field("items"); items.Present() {
			recs, err = models.Records(items)
		} else {
			var rec models.Record
			rec, err = models.RecordOf(s)
			recs = flattenRecord(rec)
		}
	default:
		return "", fmt.Errorf("%s is %s, want array or object", sp.section, s.Kind())
	}
	if err != nil {
		return "", err
	}

	rows := make([]barRow, 0, len(recs))
	for _, rec := range recs[:min(len(recs), sp.limit)] {
		label := rec.Text(labelKeys...)
		rows = append(rows, barRow{label: label, value: firstNumber(rec)})
	}
	if len(rows) == 0 {
		return noDataMessage, nil
	}
	return barChart(rows, width), nil
}

// flattenRecord turns {"a": 1, "b": 2} into rows labelled by key.
func flattenRecord(rec models.Record) []models.Record {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.Record, 0, len(keys))
	for _, k := range keys {
		if rec[k].Kind() != models.KindNumber && rec[k].Kind() != models.KindString {
			continue
		}
		out = append(out, models.Record{
			"label": models.NewSection(fmt.Sprintf("%q", strings.TrimSpace(k))),
			"value": rec[k],
		})
	}
	return out
}

func firstNumber(rec models.Record) float64 {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, preferred := range []string{"value", "sales", "count", "total"} {
		if n := rec[preferred].Number(); n != 0 {
			return n
		}
	}
	for _, k := range keys {
		if rec[k].Kind() == models.KindNumber {
			return rec[k].Number()
		}
	}
	return 0
}
