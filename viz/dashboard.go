// ABOUTME: Plain-text dashboard summary built from a payload
// ABOUTME: Used where the full panel grid does not fit: MCP replies and the status command
package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/harperreed/salesdash/models"
)

// topPeople limits the leaderboard in the summary.
const topPeople = 5

type DashboardStats struct {
	Date  string
	Today models.Activity

	HasTarget bool
	Target    models.Target

	HasFunnel bool
	Funnel    models.Funnel

	HasMonthly bool
	Monthly    models.MonthlyComparison

	TrendDays  int
	TrendSales float64

	Leaders []models.PersonTotal

	// Warnings come from payload validation.
	Warnings []string
}

// GenerateDashboardStats collects the headline numbers. Only dailyTrend is
// required; everything else is best effort.
func GenerateDashboardStats(p *models.Payload) (*DashboardStats, error) {
	trend, err := models.Trend(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily trend: %w", err)
	}

	stats := &DashboardStats{TrendDays: len(trend)}
	for _, pt := range trend {
		stats.TrendSales += pt.Sales
	}

	if kpi, err := models.KPI(p); err == nil {
		stats.Date = kpi.Date
		stats.Today = kpi.Activity
	}
	if target, err := models.TargetOf(p); err == nil {
		stats.HasTarget = true
		stats.Target = target
	}
	if funnel, err := models.FunnelOf(p); err == nil {
		stats.HasFunnel = true
		stats.Funnel = funnel
	}
	stats.Monthly, stats.HasMonthly = models.Monthly(p)

	if people, err := models.People(p); err == nil {
		stats.Leaders = people[:min(len(people), topPeople)]
	}

	stats.Warnings = models.Validate(p).Warnings
	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  SALES DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("TODAY")
	if stats.Date != "" {
		out.WriteString(" (" + stats.Date + ")")
	}
	out.WriteString("\n")
	out.WriteString(fmt.Sprintf("  sales %s  calls %s  visits %s  quotes %s\n\n",
		compact(stats.Today.Sales), compact(stats.Today.Calls),
		compact(stats.Today.Visits), compact(stats.Today.Quotes)))

	out.WriteString("PERIOD\n")
	out.WriteString(fmt.Sprintf("  %d days, %s sales\n", stats.TrendDays, compact(stats.TrendSales)))
	if stats.HasMonthly {
		label := "month over month"
		if stats.Monthly.Estimated {
			label += " (estimated)"
		}
		out.WriteString(fmt.Sprintf("  %s: %s vs %s, %+.1f%%\n", label,
			compact(stats.Monthly.Current.Sales), compact(stats.Monthly.Previous.Sales), stats.Monthly.Change()))
	}
	out.WriteString("\n")

	if stats.HasTarget {
		out.WriteString("TARGET\n")
		out.WriteString(fmt.Sprintf("  %s  %s of %s (%.1f%%)\n\n",
			progressBar(stats.Target.Percent()), compact(stats.Target.Actual),
			compact(stats.Target.Goal), stats.Target.Percent()))
	}

	if stats.HasFunnel {
		out.WriteString("FUNNEL\n")
		out.WriteString(fmt.Sprintf("  leads %s → quotes %s (%.1f%%) → closed %s (%.1f%%)\n\n",
			compact(stats.Funnel.Leads),
			compact(stats.Funnel.Quotes), stats.Funnel.Rate(stats.Funnel.Quotes),
			compact(stats.Funnel.Closed), stats.Funnel.Rate(stats.Funnel.Closed)))
	}

	if len(stats.Leaders) > 0 {
		out.WriteString("TOP PEOPLE\n")
		for i, p := range stats.Leaders {
			out.WriteString(fmt.Sprintf("  %d. %-20s %s\n", i+1, p.Person, compact(p.Sales)))
		}
		out.WriteString("\n")
	}

	if len(stats.Warnings) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		for _, w := range stats.Warnings {
			out.WriteString("  ⚠️  " + w + "\n")
		}
	}

	return out.String()
}

// progressBar draws ten blocks, capped at full.
func progressBar(percent float64) string {
	filled := int(math.Round(percent / 10))
	filled = max(0, min(filled, 10))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func compact(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
