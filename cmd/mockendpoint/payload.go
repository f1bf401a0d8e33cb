// ABOUTME: Generated sales payloads for the mock endpoint
// ABOUTME: Numbers are seeded from the filters so repeated loads agree
package main

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/harperreed/salesdash/models"
)

type member struct {
	name  string
	team  string
	group string
}

var roster = []member{
	{"Bo", "Ana", "North"},
	{"Cy", "Ana", "North"},
	{"Di", "Raj", "South"},
	{"Ed", "Raj", "South"},
	{"Fay", "Mei", "North"},
	{"Gus", "Mei", "South"},
}

var (
	areas    = []string{"Bangkok", "Chiang Mai", "Khon Kaen", "Phuket"}
	products = []string{"Solar", "Inverter", "Battery", "Service"}
	reasons  = []string{"Price", "Timing", "Competitor", "No budget"}
)

// generatePayload builds a full dashboard payload for f as of now.
func generatePayload(f models.Filters, now time.Time) map[string]any {
	start, end := window(f, now)

	h := fnv.New64a()
	_, _ = h.Write([]byte(f.Encode()))
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(now.YearDay())))

	var people []member
	for _, m := range roster {
		if f.TeamLead != "" && m.team != f.TeamLead {
			continue
		}
		if f.Person != "" && m.name != f.Person {
			continue
		}
		if f.Group != "" && m.group != f.Group {
			continue
		}
		people = append(people, m)
	}

	type totals struct{ sales, calls, visits, quotes float64 }
	byPerson := map[string]*totals{}
	byTeam := map[string]*totals{}
	var trend []map[string]any
	var all totals
	var today totals

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		var day totals
		for _, m := range people {
			t := totals{
				sales:  float64(rng.IntN(5000)),
				calls:  float64(rng.IntN(20)),
				visits: float64(rng.IntN(4)),
				quotes: float64(rng.IntN(3)),
			}
			for _, agg := range []*totals{totalsFor(byPerson, m.name), totalsFor(byTeam, m.team), &day} {
				agg.sales += t.sales
				agg.calls += t.calls
				agg.visits += t.visits
				agg.quotes += t.quotes
			}
		}
		all.sales += day.sales
		all.calls += day.calls
		all.visits += day.visits
		all.quotes += day.quotes
		today = day
		trend = append(trend, map[string]any{
			"date": d.Format("2006-01-02"), "sales": day.sales, "calls": day.calls,
			"visits": day.visits, "quotes": day.quotes,
		})
	}

	var summary, personRows, callers, visitors []map[string]any
	teamNames := make([]string, 0, len(byTeam))
	for name := range byTeam {
		teamNames = append(teamNames, name)
	}
	sort.Strings(teamNames)
	var conversion []map[string]any
	for _, name := range teamNames {
		t := byTeam[name]
		summary = append(summary, map[string]any{
			"teamName": name, "sales": t.sales, "calls": t.calls, "visits": t.visits, "quotes": t.quotes,
		})
		rate := 0.0
		if t.visits > 0 {
			rate = t.quotes / t.visits * 100
		}
		conversion = append(conversion, map[string]any{"team": name, "rate": rate})
	}
	for _, m := range people {
		t := byPerson[m.name]
		personRows = append(personRows, map[string]any{
			"name": m.name, "team": m.team, "sales": t.sales, "calls": t.calls, "visits": t.visits, "quotes": t.quotes,
		})
		callers = append(callers, map[string]any{"person": m.name, "calls": t.calls})
		visitors = append(visitors, map[string]any{"person": m.name, "visits": t.visits})
	}
	sort.SliceStable(callers, func(i, j int) bool { return callers[i]["calls"].(float64) > callers[j]["calls"].(float64) })
	sort.SliceStable(visitors, func(i, j int) bool { return visitors[i]["visits"].(float64) > visitors[j]["visits"].(float64) })

	var areaRows, mix, lost []map[string]any
	for _, a := range areas {
		areaRows = append(areaRows, map[string]any{"area": a, "sales": float64(rng.IntN(50000)), "leads": float64(rng.IntN(80))})
	}
	for _, p := range products {
		mix = append(mix, map[string]any{"label": p, "value": float64(rng.IntN(40000))})
	}
	for _, r := range reasons {
		lost = append(lost, map[string]any{"reason": r, "count": float64(rng.IntN(12))})
	}

	leads := all.visits*2 + float64(rng.IntN(20))
	closed := float64(rng.IntN(int(all.quotes) + 1))

	teamLeads := make([]string, 0, len(byTeam))
	seen := map[string]bool{}
	var allPeople, groups []string
	for _, m := range roster {
		allPeople = append(allPeople, m.name)
		if !seen["t:"+m.team] {
			seen["t:"+m.team] = true
			teamLeads = append(teamLeads, m.team)
		}
		if !seen["g:"+m.group] {
			seen["g:"+m.group] = true
			groups = append(groups, m.group)
		}
	}

	return map[string]any{
		"ok":    true,
		"range": map[string]any{"start": start.Format("2006-01-02"), "end": end.Format("2006-01-02")},
		"available": map[string]any{
			"teamleads": teamLeads, "people": allPeople, "groups": groups,
		},
		"kpiToday": map[string]any{
			"date": end.Format("2006-01-02"), "sales": today.sales, "calls": today.calls,
			"visits": today.visits, "quotes": today.quotes,
		},
		"dailyTrend":         trend,
		"summary":            summary,
		"personTotals":       personRows,
		"funnel":             map[string]any{"leads": leads, "quotes": all.quotes, "closed": closed},
		"target":             map[string]any{"current": today.sales * 20, "monthlyTarget": 600000},
		"productMix":         map[string]any{"items": mix},
		"lostReasons":        lost,
		"areaPerformance":    areaRows,
		"conversionAnalysis": map[string]any{"byTeam": conversion},
		"callVisitAnalysis": map[string]any{
			"topPerformers": map[string]any{"topCallers": callers, "topVisitors": visitors},
		},
	}
}

func totalsFor[T any](m map[string]*T, key string) *T {
	t, ok := m[key]
	if !ok {
		t = new(T)
		m[key] = t
	}
	return t
}

// window resolves the filters to an inclusive day range ending today for
// relative windows.
func window(f models.Filters, now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if f.HasDateRange() {
		start, err1 := time.Parse("2006-01-02", f.Start)
		end, err2 := time.Parse("2006-01-02", f.End)
		if err1 == nil && err2 == nil {
			return start, end
		}
	}
	days := f.Days
	if days <= 0 {
		days = models.DefaultDays
	}
	return today.AddDate(0, 0, -(days - 1)), today
}
