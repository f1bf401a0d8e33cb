// ABOUTME: Month-over-month comparison, read from the payload or derived from the daily trend
// ABOUTME: Derived comparisons are flagged as estimated
package models

import "sort"

// MonthTotals sums activity for one calendar month (YYYY-MM).
type MonthTotals struct {
	Month string
	Activity
}

type MonthlyComparison struct {
	Current   MonthTotals
	Previous  MonthTotals
	Estimated bool
}

// Change returns the percentage change in sales from the previous month.
func (m MonthlyComparison) Change() float64 {
	if m.Previous.Sales == 0 {
		return 0
	}
	return (m.Current.Sales - m.Previous.Sales) / m.Previous.Sales * 100
}

// Monthly returns the monthlyComparison section when present, otherwise the
// comparison derived from dailyTrend.
func Monthly(p *Payload) (MonthlyComparison, bool) {
	if p.MonthlyComparison.Kind() == KindObject {
		cur, err := RecordOf(p.MonthlyComparison.Field("currentMonth"))
		if err == nil {
			prev, _ := RecordOf(p.MonthlyComparison.Field("previousMonth"))
			return MonthlyComparison{
				Current:  MonthTotals{Month: p.MonthlyComparison.Field("currentPeriod").Text(), Activity: activityOf(cur)},
				Previous: MonthTotals{Month: p.MonthlyComparison.Field("previousPeriod").Text(), Activity: activityOf(prev)},
			}, true
		}
	}
	trend, err := Trend(p)
	if err != nil {
		return MonthlyComparison{}, false
	}
	return MonthlyFromTrend(trend)
}

// MonthlyFromTrend groups trend points by month and compares the latest month
// with the one before it.
func MonthlyFromTrend(trend []TrendPoint) (MonthlyComparison, bool) {
	totals := map[string]*MonthTotals{}
	for _, pt := range trend {
		if len(pt.Date) < 7 {
			continue
		}
		month := pt.Date[:7]
		t, ok := totals[month]
		if !ok {
			t = &MonthTotals{Month: month}
			totals[month] = t
		}
		t.Sales += pt.Sales
		t.Calls += pt.Calls
		t.Visits += pt.Visits
		t.Quotes += pt.Quotes
	}
	if len(totals) < 2 {
		return MonthlyComparison{}, false
	}
	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)
	n := len(months)
	return MonthlyComparison{
		Current:   *totals[months[n-1]],
		Previous:  *totals[months[n-2]],
		Estimated: true,
	}, true
}
