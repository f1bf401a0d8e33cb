// ABOUTME: MCP tool handlers for loading the dashboard and inspecting its cache and history
// ABOUTME: Loads go through the same coordinator the terminal dashboard uses
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/db"
	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type DashboardHandlers struct {
	coord    *loader.Coordinator
	capture  *loader.Capture
	snapshot *cache.Snapshot
	journal  *db.Journal

	// loadMu serializes tool calls so each load sees its own filters.
	loadMu  sync.Mutex
	mu      sync.Mutex
	filters models.Filters
}

// NewDashboardHandlers wires a headless coordinator. journal may be nil.
func NewDashboardHandlers(fetcher loader.Fetcher, snapshot *cache.Snapshot, journal *db.Journal, logger *zap.Logger) (*DashboardHandlers, error) {
	h := &DashboardHandlers{
		capture:  loader.NewCapture(),
		snapshot: snapshot,
		journal:  journal,
		filters:  models.DefaultFilters(),
	}

	cfg := loader.Config{
		Fetcher:  fetcher,
		Cache:    snapshot,
		Renderer: h.capture,
		View:     h.capture,
		Filters:  h.currentFilters,
		Logger:   logger,
	}
	if journal != nil {
		cfg.Recorder = journal
	}
	coord, err := loader.New(cfg)
	if err != nil {
		return nil, err
	}
	h.coord = coord
	return h, nil
}

// Close stops any pending retry.
func (h *DashboardHandlers) Close() {
	h.coord.Close()
}

func (h *DashboardHandlers) currentFilters() models.Filters {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.filters
}

type LoadDashboardInput struct {
	Start    string `json:"start,omitempty" jsonschema:"Range start (YYYY-MM-DD); requires end"`
	End      string `json:"end,omitempty" jsonschema:"Range end (YYYY-MM-DD); requires start"`
	Days     int    `json:"days,omitempty" jsonschema:"Relative window in days (default 365); ignored when a range is given"`
	TeamLead string `json:"teamlead,omitempty" jsonschema:"Restrict to one team lead"`
	Person   string `json:"person,omitempty" jsonschema:"Restrict to one salesperson"`
	Group    string `json:"group,omitempty" jsonschema:"Restrict to one group"`
}

type LoadDashboardOutput struct {
	Outcome     string   `json:"outcome"`
	Source      string   `json:"source,omitempty"`
	Filters     string   `json:"filters"`
	Description string   `json:"description"`
	Summary     string   `json:"summary,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
	DurationMS  int64    `json:"duration_ms"`
}

// FiltersFromInput applies the mutually exclusive date options.
func FiltersFromInput(input LoadDashboardInput) (models.Filters, error) {
	f := models.DefaultFilters()
	switch {
	case input.Start != "" || input.End != "":
		f.SetDateRange(input.Start, input.End)
	case input.Days > 0:
		f.SetDays(input.Days)
	case input.Days < 0:
		return models.Filters{}, fmt.Errorf("days must be positive")
	}
	f.TeamLead = input.TeamLead
	f.Person = input.Person
	f.Group = input.Group
	if err := f.Validate(); err != nil {
		return models.Filters{}, err
	}
	return f, nil
}

func (h *DashboardHandlers) LoadDashboard(ctx context.Context, _ *mcp.CallToolRequest, input LoadDashboardInput) (*mcp.CallToolResult, LoadDashboardOutput, error) {
	filters, err := FiltersFromInput(input)
	if err != nil {
		return nil, LoadDashboardOutput{}, fmt.Errorf("invalid filters: %w", err)
	}

	h.loadMu.Lock()
	defer h.loadMu.Unlock()

	h.mu.Lock()
	h.filters = filters
	h.mu.Unlock()

	start := time.Now()
	res, err := h.capture.Settle(ctx, h.coord, loader.TriggerManual)
	if err != nil {
		return nil, LoadDashboardOutput{}, fmt.Errorf("load interrupted: %w", err)
	}

	out := LoadDashboardOutput{
		Outcome:     res.Outcome.String(),
		Filters:     filters.Encode(),
		Description: filters.Describe(),
		Warnings:    res.Warnings,
		DurationMS:  time.Since(start).Milliseconds(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	if res.Outcome.Dropped() {
		return nil, out, fmt.Errorf("a load is already in progress")
	}

	if res.Payload != nil {
		out.Source = h.capture.Latest().Source.String()
		stats, err := viz.GenerateDashboardStats(res.Payload)
		if err == nil {
			out.Summary = viz.RenderDashboard(stats)
		}
	}
	return nil, out, nil
}

type CachedSnapshotInput struct {
	IncludePayload bool `json:"include_payload,omitempty" jsonschema:"Include the raw payload JSON"`
}

type CachedSnapshotOutput struct {
	Present    bool   `json:"present"`
	Fresh      bool   `json:"fresh"`
	CapturedAt string `json:"captured_at,omitempty"`
	AgeSeconds int64  `json:"age_seconds,omitempty"`
	Filters    string `json:"filters,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Payload    string `json:"payload,omitempty"`
}

func (h *DashboardHandlers) CachedSnapshot(ctx context.Context, _ *mcp.CallToolRequest, input CachedSnapshotInput) (*mcp.CallToolResult, CachedSnapshotOutput, error) {
	entry, err := h.snapshot.Peek(ctx)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, CachedSnapshotOutput{}, nil
		}
		return nil, CachedSnapshotOutput{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	out := CachedSnapshotOutput{
		Present:    true,
		Fresh:      h.snapshot.IsFresh(entry),
		CapturedAt: entry.CapturedAt().UTC().Format(time.RFC3339),
		AgeSeconds: int64(h.snapshot.Age(entry).Seconds()),
		Filters:    entry.Filters,
	}
	if stats, err := viz.GenerateDashboardStats(entry.Payload); err == nil {
		out.Summary = viz.RenderDashboard(stats)
	}
	if input.IncludePayload {
		raw, err := entry.Payload.MarshalJSON()
		if err != nil {
			return nil, CachedSnapshotOutput{}, fmt.Errorf("failed to encode payload: %w", err)
		}
		out.Payload = string(raw)
	}
	return nil, out, nil
}

type LoadHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum loads to return (default 20)"`
}

type LoadOutput struct {
	ID         string `json:"id"`
	Trigger    string `json:"trigger"`
	Outcome    string `json:"outcome"`
	Filters    string `json:"filters"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Attempt    int    `json:"attempt"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
}

type LoadHistoryOutput struct {
	Loads         []LoadOutput `json:"loads"`
	Count         int          `json:"count"`
	Status        string       `json:"status,omitempty"`
	LastSuccessAt string       `json:"last_success_at,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
}

func (h *DashboardHandlers) LoadHistory(_ context.Context, _ *mcp.CallToolRequest, input LoadHistoryInput) (*mcp.CallToolResult, LoadHistoryOutput, error) {
	if h.journal == nil {
		return nil, LoadHistoryOutput{}, fmt.Errorf("load journal is not enabled")
	}
	if input.Limit == 0 {
		input.Limit = 20
	}

	loads, err := h.journal.Recent(input.Limit)
	if err != nil {
		return nil, LoadHistoryOutput{}, fmt.Errorf("failed to read history: %w", err)
	}

	out := LoadHistoryOutput{Loads: make([]LoadOutput, 0, len(loads))}
	for _, l := range loads {
		out.Loads = append(out.Loads, loadToOutput(l))
	}
	out.Count = len(out.Loads)

	state, err := h.journal.State()
	if err != nil {
		return nil, LoadHistoryOutput{}, fmt.Errorf("failed to read load state: %w", err)
	}
	if state != nil {
		out.Status = state.Status
		if state.LastSuccessAt != nil {
			out.LastSuccessAt = state.LastSuccessAt.UTC().Format(time.RFC3339)
		}
		if state.ErrorMessage != nil {
			out.LastError = *state.ErrorMessage
		}
	}
	return nil, out, nil
}

func loadToOutput(l db.LoadEntry) LoadOutput {
	out := LoadOutput{
		ID:         l.ID,
		Trigger:    l.Trigger,
		Outcome:    l.Outcome,
		Filters:    l.Filters,
		StartedAt:  l.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: l.Duration.Milliseconds(),
		Attempt:    l.Attempt,
	}
	if l.ErrorKind != nil {
		out.ErrorKind = *l.ErrorKind
	}
	if l.ErrorMessage != nil {
		out.Error = *l.ErrorMessage
	}
	return out
}
