// ABOUTME: MCP handler test suite
// ABOUTME: Runs tools, resources and prompts against an httptest endpoint, in-memory cache and journal
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/db"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/transport"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpointPayload = `{
  "ok": true,
  "kpiToday": {"date": "2025-02-28", "sales": 1200, "calls": 14},
  "dailyTrend": [{"date": "2025-02-27", "sales": 900}, {"date": "2025-02-28", "sales": 1200}],
  "summary": [{"teamName": "Ana", "sales": 2100, "calls": 30}],
  "personTotals": [{"name": "Bo", "team": "Ana", "sales": 2100}],
  "funnel": {"leads": 40, "quotes": 10, "closed": 4}
}`

type endpoint struct {
	server  *httptest.Server
	failing atomic.Bool

	mu      sync.Mutex
	queries []url.Values
}

func newEndpoint(t *testing.T) *endpoint {
	t.Helper()
	e := &endpoint{}
	e.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.queries = append(e.queries, r.URL.Query())
		e.mu.Unlock()
		if e.failing.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		cb := r.URL.Query().Get("callback")
		_, _ = w.Write([]byte(cb + "(" + endpointPayload + ");"))
	}))
	t.Cleanup(e.server.Close)
	return e
}

func (e *endpoint) lastQuery() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queries[len(e.queries)-1]
}

type fixture struct {
	endpoint  *endpoint
	snapshot  *cache.Snapshot
	journal   *db.Journal
	dashboard *DashboardHandlers
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	e := newEndpoint(t)

	client, err := transport.NewClient(e.server.URL + "/exec")
	require.NoError(t, err)

	store, err := cache.OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	snapshot := cache.NewSnapshot(store)

	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	journal := db.NewJournal(database, 0)

	h, err := NewDashboardHandlers(client, snapshot, journal, nil)
	require.NoError(t, err)
	t.Cleanup(h.Close)

	return &fixture{endpoint: e, snapshot: snapshot, journal: journal, dashboard: h}
}

func TestLoadDashboard(t *testing.T) {
	f := setupFixture(t)

	_, out, err := f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{
		Days:     30,
		TeamLead: "Ana",
	})
	require.NoError(t, err)

	assert.Equal(t, "success", out.Outcome)
	assert.Equal(t, "fresh", out.Source)
	assert.Equal(t, "last 30 days, team Ana", out.Description)
	assert.Contains(t, out.Summary, "SALES DASHBOARD")
	assert.Empty(t, out.Error)

	q := f.endpoint.lastQuery()
	assert.Equal(t, "30", q.Get("days"))
	assert.Equal(t, "Ana", q.Get("teamlead"))
	assert.True(t, strings.HasPrefix(q.Get("callback"), "__cb_"))
}

func TestLoadDashboardInvalidFilters(t *testing.T) {
	f := setupFixture(t)

	tests := []struct {
		name  string
		input LoadDashboardInput
	}{
		{"start without end", LoadDashboardInput{Start: "2025-01-01"}},
		{"bad date", LoadDashboardInput{Start: "01/01/2025", End: "2025-02-01"}},
		{"reversed", LoadDashboardInput{Start: "2025-03-01", End: "2025-02-01"}},
		{"negative days", LoadDashboardInput{Days: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, tt.input)
			require.Error(t, err)
		})
	}
}

func TestFiltersFromInputRangeWinsOverDays(t *testing.T) {
	filters, err := FiltersFromInput(LoadDashboardInput{Start: "2025-01-01", End: "2025-01-31", Days: 90})
	require.NoError(t, err)
	assert.Equal(t, 0, filters.Days)
	assert.Equal(t, "end=2025-01-31&start=2025-01-01", filters.Encode())
}

func TestLoadDashboardFallsBackToCache(t *testing.T) {
	f := setupFixture(t)

	_, _, err := f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{})
	require.NoError(t, err)

	f.endpoint.failing.Store(true)
	_, out, err := f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{})
	require.NoError(t, err)

	assert.Equal(t, "cached", out.Outcome)
	assert.Equal(t, "cached", out.Source)
	assert.Contains(t, out.Error, "HTTP 500")
	assert.Contains(t, out.Summary, "SALES DASHBOARD")
}

func TestCachedSnapshot(t *testing.T) {
	f := setupFixture(t)

	_, out, err := f.dashboard.CachedSnapshot(context.Background(), &mcp.CallToolRequest{}, CachedSnapshotInput{})
	require.NoError(t, err)
	assert.False(t, out.Present)

	_, _, err = f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{Group: "North"})
	require.NoError(t, err)

	_, out, err = f.dashboard.CachedSnapshot(context.Background(), &mcp.CallToolRequest{}, CachedSnapshotInput{IncludePayload: true})
	require.NoError(t, err)
	assert.True(t, out.Present)
	assert.True(t, out.Fresh)
	assert.Equal(t, "days=365&group=North", out.Filters)
	assert.Contains(t, out.Summary, "TODAY (2025-02-28)")
	assert.JSONEq(t, endpointPayload, out.Payload)
}

func TestLoadHistory(t *testing.T) {
	f := setupFixture(t)

	_, _, err := f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{})
	require.NoError(t, err)

	_, out, err := f.dashboard.LoadHistory(context.Background(), &mcp.CallToolRequest{}, LoadHistoryInput{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "manual", out.Loads[0].Trigger)
	assert.Equal(t, "success", out.Loads[0].Outcome)
	assert.Equal(t, "ok", out.Status)
	assert.NotEmpty(t, out.LastSuccessAt)
}

func TestLoadHistoryWithoutJournal(t *testing.T) {
	f := setupFixture(t)
	h, err := NewDashboardHandlers(&stubFetcher{}, f.snapshot, nil, nil)
	require.NoError(t, err)
	defer h.Close()

	_, _, err = h.LoadHistory(context.Background(), &mcp.CallToolRequest{}, LoadHistoryInput{})
	require.Error(t, err)
}

func TestResources(t *testing.T) {
	f := setupFixture(t)
	res := NewResourceHandlers(f.snapshot, f.journal)

	_, err := res.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: SnapshotURI}})
	require.Error(t, err, "nothing cached yet")

	_, _, err = f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{})
	require.NoError(t, err)

	result, err := res.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: SnapshotURI}})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"timestamp"`)
	assert.Contains(t, result.Contents[0].Text, `"dailyTrend"`)

	result, err = res.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: HistoryURI}})
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"outcome": "success"`)

	_, err = res.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "salesdash://nope"}})
	require.Error(t, err)
	_, err = res.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "salesdash://unknown"}})
	require.Error(t, err)
}

func TestPrompts(t *testing.T) {
	f := setupFixture(t)
	prompts := NewPromptHandlers(f.snapshot)

	get := func(name string, args map[string]string) (*mcp.GetPromptResult, error) {
		return prompts.GetPrompt(context.Background(), &mcp.GetPromptRequest{
			Params: &mcp.GetPromptParams{Name: name, Arguments: args},
		})
	}

	_, err := get(PromptSalesBriefing, nil)
	require.Error(t, err, "no snapshot yet")

	_, _, err = f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{})
	require.NoError(t, err)

	result, err := get(PromptSalesBriefing, map[string]string{"focus": "quotes"})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	text := result.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "last 365 days")
	assert.Contains(t, text, "Focus especially on: quotes")

	result, err = get(PromptTeamReview, map[string]string{"team": "ana"})
	require.NoError(t, err)
	text = result.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Team: Ana")
	assert.Contains(t, text, "- Bo:")

	_, err = get(PromptTeamReview, map[string]string{"team": "Zed"})
	require.Error(t, err)
	_, err = get(PromptTeamReview, nil)
	require.Error(t, err)
	_, err = get("unknown", nil)
	require.Error(t, err)
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, transport.Request) (*models.Payload, error) {
	return nil, transport.ErrNetwork
}

func TestGenerateGraph(t *testing.T) {
	f := setupFixture(t)
	h := NewVizHandlers(f.snapshot)

	_, _, err := h.GenerateGraph(context.Background(), &mcp.CallToolRequest{}, GenerateGraphInput{Type: "funnel"})
	require.Error(t, err, "no snapshot yet")

	_, _, err = f.dashboard.LoadDashboard(context.Background(), &mcp.CallToolRequest{}, LoadDashboardInput{})
	require.NoError(t, err)

	_, out, err := h.GenerateGraph(context.Background(), &mcp.CallToolRequest{}, GenerateGraphInput{Type: "funnel"})
	require.NoError(t, err)
	assert.Equal(t, "funnel", out.GraphType)
	assert.Contains(t, out.DOTSource, "leads")
	assert.Equal(t, 2, out.EdgeCount)

	_, out, err = h.GenerateGraph(context.Background(), &mcp.CallToolRequest{}, GenerateGraphInput{Type: "teams"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Bo")

	_, _, err = h.GenerateGraph(context.Background(), &mcp.CallToolRequest{}, GenerateGraphInput{Type: "pipeline"})
	require.Error(t, err)
	_, _, err = h.GenerateGraph(context.Background(), &mcp.CallToolRequest{}, GenerateGraphInput{})
	require.Error(t, err)
}
