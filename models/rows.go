// ABOUTME: Typed views over payload sections used by the panel renderers
// ABOUTME: Field lookups accept the alternate key names the endpoint has used over time
package models

import (
	"errors"
	"sort"
	"strings"
)

// Record is one JSON object whose fields are read by name.
type Record map[string]Section

// Records decodes an array section of objects.
func Records(s Section) ([]Record, error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		rec, err := RecordOf(item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// RecordOf decodes an object section.
func RecordOf(s Section) (Record, error) {
	var fields map[string]Section
	if err := s.Decode(&fields); err != nil {
		return nil, err
	}
	return Record(fields), nil
}

// Number returns the first non-zero numeric field among keys.
func (r Record) Number(keys ...string) float64 {
	for _, k := range keys {
		if n := r[k].Number(); n != 0 {
			return n
		}
	}
	return 0
}

// Text returns the first non-blank field among keys.
func (r Record) Text(keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(r[k].Text()); s != "" {
			return s
		}
	}
	return ""
}

// Activity is the shared set of counters reported per day, team and person.
type Activity struct {
	Sales  float64
	Calls  float64
	Visits float64
	Quotes float64
}

func activityOf(r Record) Activity {
	return Activity{
		Sales:  r.Number("sales", "salesAmount", "totalSales"),
		Calls:  r.Number("calls", "callCount", "telephone"),
		Visits: r.Number("visits", "visitCount", "meeting"),
		Quotes: r.Number("quotes", "quoteCount", "proposal"),
	}
}

type KPIToday struct {
	Date       string
	CallsToday float64
	Activity
}

// KPI decodes the kpiToday block.
func KPI(p *Payload) (KPIToday, error) {
	rec, err := RecordOf(p.KPIToday)
	if err != nil {
		return KPIToday{}, err
	}
	return KPIToday{
		Date:       rec.Text("date"),
		CallsToday: rec.Number("calls_today", "callsToday"),
		Activity:   activityOf(rec),
	}, nil
}

type TrendPoint struct {
	Date string
	Activity
}

// Trend decodes dailyTrend in the order given by the endpoint.
func Trend(p *Payload) ([]TrendPoint, error) {
	recs, err := Records(p.DailyTrend)
	if err != nil {
		return nil, err
	}
	out := make([]TrendPoint, 0, len(recs))
	for _, rec := range recs {
		out = append(out, TrendPoint{Date: rec.Text("date"), Activity: activityOf(rec)})
	}
	return out, nil
}

type TeamSummary struct {
	Team string
	Activity
}

// Teams decodes the per-team summary.
func Teams(p *Payload) ([]TeamSummary, error) {
	recs, err := Records(p.Summary)
	if err != nil {
		return nil, err
	}
	out := make([]TeamSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, TeamSummary{Team: rec.Text("team", "teamName", "teamlead"), Activity: activityOf(rec)})
	}
	return out, nil
}

type PersonTotal struct {
	Person string
	Team   string
	Activity
}

// People decodes personTotals sorted by sales, highest first.
func People(p *Payload) ([]PersonTotal, error) {
	recs, err := Records(p.PersonTotals)
	if err != nil {
		return nil, err
	}
	out := make([]PersonTotal, 0, len(recs))
	for _, rec := range recs {
		out = append(out, PersonTotal{
			Person:   rec.Text("person", "name", "salesPerson"),
			Team:     rec.Text("team", "teamlead"),
			Activity: activityOf(rec),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sales > out[j].Sales })
	return out, nil
}

type Funnel struct {
	Leads  float64
	Quotes float64
	Closed float64
}

// Rate returns part as a percentage of Leads.
func (f Funnel) Rate(part float64) float64 {
	if f.Leads <= 0 {
		return 0
	}
	return part / f.Leads * 100
}

func FunnelOf(p *Payload) (Funnel, error) {
	rec, err := RecordOf(p.Funnel)
	if err != nil {
		return Funnel{}, err
	}
	return Funnel{
		Leads:  rec.Number("leads"),
		Quotes: rec.Number("quotes"),
		Closed: rec.Number("closed", "won"),
	}, nil
}

type Target struct {
	Actual float64
	Goal   float64
}

// Percent is actual over goal, or zero without a goal.
func (t Target) Percent() float64 {
	if t.Goal <= 0 {
		return 0
	}
	return t.Actual / t.Goal * 100
}

func TargetOf(p *Payload) (Target, error) {
	rec, err := RecordOf(p.Target)
	if err != nil {
		return Target{}, err
	}
	return Target{
		Actual: rec.Number("actual", "current", "sales"),
		Goal:   rec.Number("goal", "target", "monthlyTarget"),
	}, nil
}

type MixItem struct {
	Label string
	Value float64
}

// ProductMix decodes productMix.items, accepting a bare array as well.
func ProductMix(p *Payload) ([]MixItem, error) {
	recs, err := listOrItems(p.ProductMix)
	if err != nil {
		return nil, err
	}
	out := make([]MixItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, MixItem{Label: rec.Text("label", "product", "name"), Value: rec.Number("value", "sales", "count")})
	}
	return out, nil
}

type LostReason struct {
	Reason string
	Count  float64
}

// LostReasons decodes lostReasons sorted by count, highest first.
func LostReasons(p *Payload) ([]LostReason, error) {
	recs, err := listOrItems(p.LostReasons)
	if err != nil {
		return nil, err
	}
	out := make([]LostReason, 0, len(recs))
	for _, rec := range recs {
		out = append(out, LostReason{Reason: rec.Text("reason", "label"), Count: rec.Number("count", "value")})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

type AreaItem struct {
	Area  string
	Sales float64
	Leads float64
}

func Areas(p *Payload) ([]AreaItem, error) {
	recs, err := listOrItems(p.AreaPerformance)
	if err != nil {
		return nil, err
	}
	out := make([]AreaItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, AreaItem{
			Area:  rec.Text("area", "label"),
			Sales: rec.Number("sales", "value"),
			Leads: rec.Number("leads", "count"),
		})
	}
	return out, nil
}

type Performer struct {
	Person string
	Value  float64
}

// TopPerformers returns the top callers and visitors from callVisitAnalysis.
func TopPerformers(p *Payload) (callers, visitors []Performer, err error) {
	top := p.CallVisitAnalysis.Field("topPerformers")
	if !top.Present() {
		return nil, nil, ErrSectionMissing
	}
	callers, err = performers(top.Field("topCallers"), "calls")
	if err != nil && !errors.Is(err, ErrSectionMissing) {
		return nil, nil, err
	}
	visitors, err = performers(top.Field("topVisitors"), "visits")
	if err != nil && !errors.Is(err, ErrSectionMissing) {
		return nil, nil, err
	}
	return callers, visitors, nil
}

func performers(s Section, valueKey string) ([]Performer, error) {
	recs, err := Records(s)
	if err != nil {
		return nil, err
	}
	out := make([]Performer, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Performer{Person: rec.Text("person", "name"), Value: rec.Number(valueKey, "value", "count")})
	}
	return out, nil
}

type ConversionRow struct {
	Team string
	Rate float64
}

// Conversion decodes conversionAnalysis.byTeam. When the section is absent the
// rate is derived from the team summary as quotes per visit.
func Conversion(p *Payload) ([]ConversionRow, error) {
	if p.ConversionAnalysis.Present() {
		recs, err := Records(p.ConversionAnalysis.Field("byTeam"))
		if err != nil {
			return nil, err
		}
		out := make([]ConversionRow, 0, len(recs))
		for _, rec := range recs {
			out = append(out, ConversionRow{Team: rec.Text("team", "teamName"), Rate: rec.Number("rate", "conversionRate")})
		}
		return out, nil
	}
	teams, err := Teams(p)
	if err != nil {
		return nil, err
	}
	out := make([]ConversionRow, 0, len(teams))
	for _, t := range teams {
		rate := 0.0
		if t.Visits > 0 {
			rate = t.Quotes / t.Visits * 100
		}
		out = append(out, ConversionRow{Team: t.Team, Rate: rate})
	}
	return out, nil
}

func listOrItems(s Section) ([]Record, error) {
	if s.Kind() == KindObject {
		return Records(s.Field("items"))
	}
	return Records(s)
}
