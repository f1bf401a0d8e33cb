// ABOUTME: MCP server subcommand
// ABOUTME: Exposes dashboard loads, the cached snapshot and load history over stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/salesdash/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(app *App, version string) error {
	app.Logger.Info("starting MCP server")

	ctx := context.Background()
	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	dashboardHandlers, err := handlers.NewDashboardHandlers(client, app.Snapshot, app.Journal, app.Logger.Named("mcp"))
	if err != nil {
		return err
	}
	defer dashboardHandlers.Close()

	vizHandlers := handlers.NewVizHandlers(app.Snapshot)
	resourceHandlers := handlers.NewResourceHandlers(app.Snapshot, app.Journal)
	promptHandlers := handlers.NewPromptHandlers(app.Snapshot)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "salesdash",
		Version: version,
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_dashboard",
		Description: "Load the sales dashboard with optional date range, day window, team lead, person or group filters. Falls back to the cached snapshot when the endpoint fails.",
	}, dashboardHandlers.LoadDashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cached_snapshot",
		Description: "Inspect the last successful dashboard payload kept for offline fallback",
	}, dashboardHandlers.CachedSnapshot)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_history",
		Description: "List recent dashboard loads with trigger, outcome, duration and error",
	}, dashboardHandlers.LoadHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the sales funnel or team structure from the cached snapshot",
	}, vizHandlers.GenerateGraph)

	// Register resources
	server.AddResource(&mcp.Resource{
		URI:         handlers.SnapshotURI,
		Name:        "Dashboard snapshot",
		Description: "The cached dashboard payload with its capture time and filters",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         handlers.HistoryURI,
		Name:        "Load history",
		Description: "The most recent dashboard loads",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Register prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        handlers.PromptSalesBriefing,
		Description: "Summarize the current sales dashboard",
		Arguments: []*mcp.PromptArgument{
			{Name: "focus", Description: "Optional area to focus on (e.g. funnel, targets)"},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        handlers.PromptTeamReview,
		Description: "Review one team's results from the cached snapshot",
		Arguments: []*mcp.PromptArgument{
			{Name: "team", Description: "Team lead name", Required: true},
		},
	}, promptHandlers.GetPrompt)

	app.Logger.Info("MCP server ready", zap.String("version", version))
	return server.Run(ctx, &mcp.StdioTransport{})
}
