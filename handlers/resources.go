// ABOUTME: MCP resource handlers for exposing the cached snapshot and load history
// ABOUTME: Provides read-only access via salesdash:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	SnapshotURI = "salesdash://snapshot"
	HistoryURI  = "salesdash://history"
)

type ResourceHandlers struct {
	snapshot *cache.Snapshot
	journal  *db.Journal
}

// NewResourceHandlers serves the snapshot slot and, when journal is set, the load history.
func NewResourceHandlers(snapshot *cache.Snapshot, journal *db.Journal) *ResourceHandlers {
	return &ResourceHandlers{snapshot: snapshot, journal: journal}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "salesdash://") {
		return nil, fmt.Errorf("invalid URI scheme: expected salesdash://")
	}

	switch strings.TrimPrefix(uri, "salesdash://") {
	case "snapshot":
		return h.readSnapshot(ctx)
	case "history":
		return h.readHistory()
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func (h *ResourceHandlers) readSnapshot(ctx context.Context) (*mcp.ReadResourceResult, error) {
	entry, err := h.snapshot.Peek(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      SnapshotURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readHistory() (*mcp.ReadResourceResult, error) {
	if h.journal == nil {
		return nil, fmt.Errorf("load journal is not enabled")
	}
	loads, err := h.journal.Recent(100)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	out := make([]LoadOutput, 0, len(loads))
	for _, l := range loads {
		out = append(out, loadToOutput(l))
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      HistoryURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
