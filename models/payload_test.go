// ABOUTME: Tests for payload decoding, sections and typed row views
// ABOUTME: Uses small hand-written payloads in the endpoint's wire shape
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "ok": true,
  "range": {"start": "2025-01-01", "end": "2025-02-28"},
  "available": {"teamleads": ["Ana"], "people": ["Bo", "Cy"], "groups": ["North"]},
  "kpiToday": {"date": "2025-02-28", "sales": 1200, "calls": 14, "calls_today": 3, "visits": 2, "quotes": 1},
  "dailyTrend": [
    {"date": "2025-01-15", "sales": 100, "calls": 4},
    {"date": "2025-02-10", "sales": 150, "calls": 6},
    {"date": "2025-02-11", "sales": "50", "calls": 1}
  ],
  "summary": [{"teamName": "Ana", "sales": 300, "visits": 4, "quotes": 2}],
  "personTotals": [{"name": "Bo", "sales": 100}, {"person": "Cy", "sales": 200}],
  "funnel": {"leads": 40, "quotes": 10, "closed": 4},
  "target": {"current": 300, "monthlyTarget": 600},
  "lostReasons": {"items": [{"label": "Price", "value": 2}, {"reason": "Timing", "count": 5}]},
  "callVisitAnalysis": {"topPerformers": {"topCallers": [{"person": "Bo", "calls": 9}], "topVisitors": []}},
  "extraSection": {"kept": true}
}`

func TestParsePayloadSections(t *testing.T) {
	p, err := ParsePayload([]byte(samplePayload))
	require.NoError(t, err)

	assert.True(t, p.Succeeded())
	assert.Equal(t, KindArray, p.DailyTrend.Kind())
	assert.Equal(t, 3, p.DailyTrend.Len())
	assert.Equal(t, KindObject, p.Section(SectionKPIToday).Kind())
	assert.Equal(t, KindMissing, p.Section(SectionAreaHeatmap).Kind())
	assert.False(t, p.Section("nonsense").Present())

	opts, err := p.AvailableOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bo", "Cy"}, opts.People)

	r, ok := p.ReportRange()
	require.True(t, ok)
	assert.Equal(t, "2025-01-01", r.Start)
}

func TestPayloadMarshalKeepsOriginalBytes(t *testing.T) {
	p, err := ParsePayload([]byte(samplePayload))
	require.NoError(t, err)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, samplePayload, string(out))
}

func TestSectionHasData(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"null", false},
		{"[]", false},
		{"{}", false},
		{"[1]", true},
		{`{"a":1}`, true},
		{"0", false},
		{"12.5", true},
		{`"  "`, false},
		{`"x"`, true},
		{"true", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewSection(tt.raw).HasData(), "raw %q", tt.raw)
	}
}

func TestSectionKindAndDecode(t *testing.T) {
	assert.Equal(t, KindNull, NewSection("null").Kind())
	assert.Equal(t, KindMissing, NewSection("").Kind())
	assert.Equal(t, KindNumber, NewSection("-3").Kind())

	var v []int
	assert.ErrorIs(t, NewSection("null").Decode(&v), ErrSectionMissing)
	require.NoError(t, NewSection("[1,2]").Decode(&v))
	assert.Equal(t, []int{1, 2}, v)
}

func TestTypedViews(t *testing.T) {
	p, err := ParsePayload([]byte(samplePayload))
	require.NoError(t, err)

	kpi, err := KPI(p)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, kpi.Sales)
	assert.Equal(t, 3.0, kpi.CallsToday)

	trend, err := Trend(p)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, 50.0, trend[2].Sales, "numeric strings are accepted")

	teams, err := Teams(p)
	require.NoError(t, err)
	assert.Equal(t, "Ana", teams[0].Team)

	people, err := People(p)
	require.NoError(t, err)
	assert.Equal(t, "Cy", people[0].Person, "sorted by sales")

	target, err := TargetOf(p)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, target.Percent(), 0.001)

	funnel, err := FunnelOf(p)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, funnel.Rate(funnel.Quotes), 0.001)

	reasons, err := LostReasons(p)
	require.NoError(t, err)
	assert.Equal(t, "Timing", reasons[0].Reason)

	callers, visitors, err := TopPerformers(p)
	require.NoError(t, err)
	assert.Equal(t, []Performer{{Person: "Bo", Value: 9}}, callers)
	assert.Empty(t, visitors)

	conv, err := Conversion(p)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, conv[0].Rate, 0.001)

	_, err = ProductMix(p)
	assert.ErrorIs(t, err, ErrSectionMissing)
}

func TestMonthlyDerivedFromTrend(t *testing.T) {
	p, err := ParsePayload([]byte(samplePayload))
	require.NoError(t, err)

	m, ok := Monthly(p)
	require.True(t, ok)
	assert.True(t, m.Estimated)
	assert.Equal(t, "2025-02", m.Current.Month)
	assert.Equal(t, 200.0, m.Current.Sales)
	assert.Equal(t, "2025-01", m.Previous.Month)
	assert.InDelta(t, 100.0, m.Change(), 0.001)
}

func TestMonthlyFromSection(t *testing.T) {
	p, err := ParsePayload([]byte(`{"ok":true,"dailyTrend":[],"monthlyComparison":{
		"currentPeriod":"2025-03","previousPeriod":"2025-02",
		"currentMonth":{"sales":90},"previousMonth":{"sales":60}}}`))
	require.NoError(t, err)

	m, ok := Monthly(p)
	require.True(t, ok)
	assert.False(t, m.Estimated)
	assert.Equal(t, "2025-03", m.Current.Month)
	assert.InDelta(t, 50.0, m.Change(), 0.001)
}
