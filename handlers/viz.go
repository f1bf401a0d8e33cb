// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool over the cached dashboard
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	snapshot *cache.Snapshot
}

func NewVizHandlers(snapshot *cache.Snapshot) *VizHandlers {
	return &VizHandlers{snapshot: snapshot}
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: funnel or teams"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	entry, err := h.snapshot.Peek(ctx)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("no cached dashboard; run load_dashboard first: %w", err)
	}

	generator := viz.NewGraphGenerator(entry.Payload)
	var dot string

	switch input.Type {
	case "funnel":
		dot, err = generator.GenerateFunnelGraph(ctx)
	case "teams":
		dot, err = generator.GenerateTeamGraph(ctx)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: funnel, teams)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}
