// ABOUTME: Tests for the funnel/team graphs and the text dashboard summary
// ABOUTME: Payloads are small literals in the endpoint's wire shape
package viz

import (
	"context"
	"strings"
	"testing"

	"github.com/harperreed/salesdash/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payloadJSON = `{
  "ok": true,
  "kpiToday": {"date": "2025-02-28", "sales": 1200, "calls": 14, "visits": 2, "quotes": 1},
  "dailyTrend": [
    {"date": "2025-01-15", "sales": 100},
    {"date": "2025-02-10", "sales": 150},
    {"date": "2025-02-11", "sales": 50}
  ],
  "summary": [{"teamName": "Ana", "sales": 300}, {"teamName": "Raj", "sales": 120}],
  "personTotals": [
    {"name": "Bo", "team": "Ana", "sales": 100},
    {"name": "Cy", "team": "Ana", "sales": 200},
    {"name": "Di", "team": "Raj", "sales": 120},
    {"name": "Ed", "team": "Nobody", "sales": 5}
  ],
  "funnel": {"leads": 40, "quotes": 10, "closed": 4},
  "target": {"current": 300, "monthlyTarget": 600},
  "lostReasons": [{"reason": "Price", "count": 7}, {"reason": "Timing", "count": 2}]
}`

func parse(t *testing.T, raw string) *models.Payload {
	t.Helper()
	p, err := models.ParsePayload([]byte(raw))
	require.NoError(t, err)
	return p
}

func TestGenerateFunnelGraph(t *testing.T) {
	dot, err := NewGraphGenerator(parse(t, payloadJSON)).GenerateFunnelGraph(context.Background())
	require.NoError(t, err)

	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "leads")
	assert.Contains(t, dot, "closed")
	assert.Contains(t, dot, "25.0%")
	assert.Contains(t, dot, "40.0%")
	assert.Contains(t, dot, "Price")
}

func TestGenerateFunnelGraphNeedsFunnel(t *testing.T) {
	_, err := NewGraphGenerator(parse(t, `{"ok":true,"dailyTrend":[]}`)).GenerateFunnelGraph(context.Background())
	require.Error(t, err)
}

func TestGenerateTeamGraph(t *testing.T) {
	dot, err := NewGraphGenerator(parse(t, payloadJSON)).GenerateTeamGraph(context.Background())
	require.NoError(t, err)

	assert.Contains(t, dot, "team_0")
	assert.Contains(t, dot, "Cy")
	assert.Contains(t, dot, "Di")
	// People whose team is not in the summary are left out.
	assert.NotContains(t, dot, "Ed")
}

func TestWithFormat(t *testing.T) {
	g := NewGraphGenerator(parse(t, payloadJSON))

	_, err := g.WithFormat("png")
	require.Error(t, err)

	g, err = g.WithFormat("svg")
	require.NoError(t, err)
	svg, err := g.GenerateFunnelGraph(context.Background())
	require.NoError(t, err)
	assert.Contains(t, svg, "<svg")
}

func TestDashboardSummary(t *testing.T) {
	stats, err := GenerateDashboardStats(parse(t, payloadJSON))
	require.NoError(t, err)

	assert.Equal(t, "2025-02-28", stats.Date)
	assert.Equal(t, 3, stats.TrendDays)
	assert.Equal(t, 300.0, stats.TrendSales)
	assert.True(t, stats.HasTarget)
	assert.True(t, stats.HasFunnel)
	require.True(t, stats.HasMonthly)
	assert.Equal(t, "2025-02", stats.Monthly.Current.Month)
	require.Len(t, stats.Leaders, 4)
	assert.Equal(t, "Cy", stats.Leaders[0].Person)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "SALES DASHBOARD")
	assert.Contains(t, out, "TODAY (2025-02-28)")
	assert.Contains(t, out, "sales 1,200")
	assert.Contains(t, out, "(50.0%)")
	assert.Contains(t, out, "month over month (estimated)")
	assert.Contains(t, out, "1. Cy")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}

func TestDashboardSummaryWarnings(t *testing.T) {
	stats, err := GenerateDashboardStats(parse(t, `{"ok":true,"dailyTrend":[]}`))
	require.NoError(t, err)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "NEEDS ATTENTION")
	assert.Contains(t, out, "dailyTrend is empty")
	assert.NotContains(t, out, "TARGET")
	assert.NotContains(t, out, "FUNNEL")
}

func TestDashboardSummaryNeedsTrend(t *testing.T) {
	_, err := GenerateDashboardStats(parse(t, `{"ok":true}`))
	require.Error(t, err)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", 10), progressBar(0))
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 5), progressBar(50))
	assert.Equal(t, strings.Repeat("█", 10), progressBar(250))
}
