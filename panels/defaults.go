// ABOUTME: Default panel set in dashboard order
// ABOUTME: Returns the person-totals panel separately so the dashboard can page it
package panels

import "github.com/harperreed/salesdash/models"

// DefaultPanels returns the standard panels and the pageable person panel
// that is part of them.
func DefaultPanels() ([]Panel, *PersonTotalsPanel) {
	people := NewPersonTotalsPanel()
	return []Panel{
		NewKPIPanel(),
		NewTargetPanel(),
		NewTrendPanel(),
		NewMonthlyPanel(),
		NewTeamPanel(),
		people,
		NewFunnelPanel(),
		NewConversionPanel(),
		NewPerformersPanel(),
		NewProductMixPanel(),
		NewLostReasonsPanel(),
		NewAreaPanel(),
		NewSectionPanel("top_by_team", "Top by team", models.SectionTopByTeam),
		NewSectionPanel("product_performance", "Product performance", models.SectionProductPerformance),
		NewSectionPanel("customer_segments", "Customer segments", models.SectionCustomerSegmentation),
		NewSectionPanel("customer_insight", "Customer insight", models.SectionCustomerInsight),
		NewSectionPanel("call_visit_yearly", "Calls and visits by year", models.SectionCallVisitYearly),
		NewSectionPanel("area_heatmap", "Area heatmap", models.SectionAreaHeatmap),
	}, people
}
