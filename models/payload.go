// ABOUTME: Dashboard payload envelope returned by the reporting endpoint
// ABOUTME: Explicit optional sections plus the original bytes for verbatim caching
package models

import "errors"

// Section keys as they appear on the wire.
const (
	SectionRange                = "range"
	SectionAvailable            = "available"
	SectionKPIToday             = "kpiToday"
	SectionDailyTrend           = "dailyTrend"
	SectionSummary              = "summary"
	SectionPersonTotals         = "personTotals"
	SectionTopByTeam            = "topByTeam"
	SectionTarget               = "target"
	SectionProductMix           = "productMix"
	SectionFunnel               = "funnel"
	SectionCustomerInsight      = "customerInsight"
	SectionCallVisitYearly      = "callVisitYearly"
	SectionLostReasons          = "lostReasons"
	SectionAreaPerformance      = "areaPerformance"
	SectionConversionAnalysis   = "conversionAnalysis"
	SectionCustomerSegmentation = "customerSegmentation"
	SectionProductPerformance   = "productPerformance"
	SectionAreaHeatmap          = "areaHeatmap"
	SectionMonthlyComparison    = "monthlyComparison"
	SectionCallVisitAnalysis    = "callVisitAnalysis"
	SectionTopPerformers        = "topPerformers"
)

// OptionalSections lists the analytical sections that may be absent without
// affecting whether a load succeeds.
var OptionalSections = []string{
	SectionTopByTeam,
	SectionTarget,
	SectionProductMix,
	SectionFunnel,
	SectionCustomerInsight,
	SectionCallVisitYearly,
	SectionLostReasons,
	SectionAreaPerformance,
	SectionConversionAnalysis,
	SectionCustomerSegmentation,
	SectionProductPerformance,
	SectionAreaHeatmap,
	SectionMonthlyComparison,
	SectionCallVisitAnalysis,
	SectionTopPerformers,
}

// Payload is one response from the reporting endpoint.
type Payload struct {
	OK    *bool   `json:"ok"`
	Error Section `json:"error"`

	Range     Section `json:"range"`
	Available Section `json:"available"`

	KPIToday     Section `json:"kpiToday"`
	DailyTrend   Section `json:"dailyTrend"`
	Summary      Section `json:"summary"`
	PersonTotals Section `json:"personTotals"`

	TopByTeam            Section `json:"topByTeam"`
	Target               Section `json:"target"`
	ProductMix           Section `json:"productMix"`
	Funnel               Section `json:"funnel"`
	CustomerInsight      Section `json:"customerInsight"`
	CallVisitYearly      Section `json:"callVisitYearly"`
	LostReasons          Section `json:"lostReasons"`
	AreaPerformance      Section `json:"areaPerformance"`
	ConversionAnalysis   Section `json:"conversionAnalysis"`
	CustomerSegmentation Section `json:"customerSegmentation"`
	ProductPerformance   Section `json:"productPerformance"`
	AreaHeatmap          Section `json:"areaHeatmap"`
	MonthlyComparison    Section `json:"monthlyComparison"`
	CallVisitAnalysis    Section `json:"callVisitAnalysis"`
	TopPerformers        Section `json:"topPerformers"`

	raw []byte
}

// ParsePayload decodes a JSON document into a Payload.
func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	type payloadFields Payload
	var decoded payloadFields
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Payload(decoded)
	p.raw = append([]byte(nil), data...)
	return nil
}

// MarshalJSON returns the bytes the payload was decoded from, so a cached
// payload keeps sections this client does not model.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type payloadFields Payload
	return json.Marshal((*payloadFields)(p))
}

// Succeeded reports whether the success flag is present and true.
func (p *Payload) Succeeded() bool {
	return p != nil && p.OK != nil && *p.OK
}

// ErrorMessage returns the endpoint's error field, if any.
func (p *Payload) ErrorMessage() string {
	if p == nil {
		return ""
	}
	return p.Error.Text()
}

// Section looks up a section by its wire key. Unknown keys yield a missing section.
func (p *Payload) Section(name string) Section {
	if p == nil {
		return Section{}
	}
	switch name {
	case SectionRange:
		return p.Range
	case SectionAvailable:
		return p.Available
	case SectionKPIToday:
		return p.KPIToday
	case SectionDailyTrend:
		return p.DailyTrend
	case SectionSummary:
		return p.Summary
	case SectionPersonTotals:
		return p.PersonTotals
	case SectionTopByTeam:
		return p.TopByTeam
	case SectionTarget:
		return p.Target
	case SectionProductMix:
		return p.ProductMix
	case SectionFunnel:
		return p.Funnel
	case SectionCustomerInsight:
		return p.CustomerInsight
	case SectionCallVisitYearly:
		return p.CallVisitYearly
	case SectionLostReasons:
		return p.LostReasons
	case SectionAreaPerformance:
		return p.AreaPerformance
	case SectionConversionAnalysis:
		return p.ConversionAnalysis
	case SectionCustomerSegmentation:
		return p.CustomerSegmentation
	case SectionProductPerformance:
		return p.ProductPerformance
	case SectionAreaHeatmap:
		return p.AreaHeatmap
	case SectionMonthlyComparison:
		return p.MonthlyComparison
	case SectionCallVisitAnalysis:
		return p.CallVisitAnalysis
	case SectionTopPerformers:
		return p.TopPerformers
	default:
		return Section{}
	}
}

// Options holds the filter suggestions advertised in the available section.
type Options struct {
	TeamLeads []string `json:"teamleads"`
	People    []string `json:"people"`
	Groups    []string `json:"groups"`
}

// AvailableOptions decodes the filter suggestions. A missing section yields empty lists.
func (p *Payload) AvailableOptions() (Options, error) {
	var opts Options
	if p == nil {
		return opts, nil
	}
	if err := p.Available.Decode(&opts); err != nil && !errors.Is(err, ErrSectionMissing) {
		return Options{}, err
	}
	return opts, nil
}

// DateRange is the period the endpoint reports on.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ReportRange decodes the range section.
func (p *Payload) ReportRange() (DateRange, bool) {
	var r DateRange
	if p == nil || p.Range.Kind() != KindObject {
		return r, false
	}
	if err := p.Range.Decode(&r); err != nil {
		return DateRange{}, false
	}
	return r, r.Start != "" || r.End != ""
}
