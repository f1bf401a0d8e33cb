// ABOUTME: MCP prompt handlers built from the cached dashboard snapshot
// ABOUTME: Provides a daily sales briefing and a per-team review
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	PromptSalesBriefing = "sales-briefing"
	PromptTeamReview    = "team-review"
)

type PromptHandlers struct {
	snapshot *cache.Snapshot
}

func NewPromptHandlers(snapshot *cache.Snapshot) *PromptHandlers {
	return &PromptHandlers{snapshot: snapshot}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case PromptSalesBriefing:
		return h.getSalesBriefingPrompt(ctx, arguments)
	case PromptTeamReview:
		return h.getTeamReviewPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) entry(ctx context.Context) (*cache.Entry, error) {
	entry, err := h.snapshot.Peek(ctx)
	if err != nil {
		return nil, fmt.Errorf("no cached dashboard; run load_dashboard first: %w", err)
	}
	return entry, nil
}

func (h *PromptHandlers) getSalesBriefingPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	entry, err := h.entry(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := viz.GenerateDashboardStats(entry.Payload)
	if err != nil {
		return nil, fmt.Errorf("cached dashboard is unusable: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Here is the current sales dashboard")
	if filters, err := entry.RequestFilters(); err == nil {
		promptText.WriteString(fmt.Sprintf(" (%s)", filters.Describe()))
	}
	promptText.WriteString(fmt.Sprintf(", captured %s:\n\n", entry.CapturedAt().Format("2006-01-02 15:04")))
	promptText.WriteString(viz.RenderDashboard(stats))

	if focus := args["focus"]; focus != "" {
		promptText.WriteString(fmt.Sprintf("\nFocus especially on: %s\n", focus))
	}

	promptText.WriteString("\nPlease write a short briefing that covers:")
	promptText.WriteString("\n1. How today and this month compare with the trend")
	promptText.WriteString("\n2. Progress against target and where the funnel leaks")
	promptText.WriteString("\n3. Two or three concrete actions for the team leads")

	return &mcp.GetPromptResult{
		Description: "Daily sales briefing from the cached dashboard",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getTeamReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	team, ok := args["team"]
	if !ok || team == "" {
		return nil, fmt.Errorf("team argument is required")
	}
	entry, err := h.entry(ctx)
	if err != nil {
		return nil, err
	}

	teams, err := models.Teams(entry.Payload)
	if err != nil {
		return nil, fmt.Errorf("cached dashboard has no team summary: %w", err)
	}
	var summary *models.TeamSummary
	for i := range teams {
		if strings.EqualFold(teams[i].Team, team) {
			summary = &teams[i]
			break
		}
	}
	if summary == nil {
		return nil, fmt.Errorf("team not found in cached dashboard: %s", team)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Team: %s\n", summary.Team))
	promptText.WriteString(fmt.Sprintf("Sales: %.0f  Calls: %.0f  Visits: %.0f  Quotes: %.0f\n",
		summary.Sales, summary.Calls, summary.Visits, summary.Quotes))

	people, _ := models.People(entry.Payload)
	var members []models.PersonTotal
	for _, p := range people {
		if strings.EqualFold(p.Team, summary.Team) {
			members = append(members, p)
		}
	}
	if len(members) > 0 {
		promptText.WriteString("\nPeople:\n")
		for _, p := range members {
			promptText.WriteString(fmt.Sprintf("- %s: sales %.0f, calls %.0f, visits %.0f, quotes %.0f\n",
				p.Person, p.Sales, p.Calls, p.Visits, p.Quotes))
		}
	}

	promptText.WriteString("\nPlease review this team's performance and provide:")
	promptText.WriteString("\n1. Who is carrying the team and who needs support")
	promptText.WriteString("\n2. Whether activity (calls, visits) is turning into quotes and sales")
	promptText.WriteString("\n3. Coaching suggestions for the team lead")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Team review: %s", summary.Team),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}
