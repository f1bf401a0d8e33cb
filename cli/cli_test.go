// ABOUTME: Tests for the one-shot CLI commands
// ABOUTME: Runs against an httptest endpoint with in-memory cache and journal
package cli

import (
	"bytes"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/config"
	"github.com/harperreed/salesdash/db"
)

const endpointPayload = `{
  "ok": true,
  "kpiToday": {"date": "2025-02-28", "sales": 1200, "calls": 14},
  "dailyTrend": [{"date": "2025-02-27", "sales": 900}, {"date": "2025-02-28", "sales": 1200}],
  "summary": [{"teamName": "Ana", "sales": 2100}],
  "personTotals": [{"name": "Bo", "team": "Ana", "sales": 2100}],
  "funnel": {"leads": 40, "quotes": 10, "closed": 4}
}`

func setupTestApp(t *testing.T) (*App, *bytes.Buffer, *atomic.Bool) {
	t.Helper()
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(r.URL.Query().Get("callback") + "(" + endpointPayload + ");"))
	}))
	t.Cleanup(server.Close)

	store, err := cache.OpenBadgerStore("")
	require.NoError(t, err)
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Endpoint = server.URL
	cfg.TokenFile = filepath.Join(t.TempDir(), "missing-token.json")

	out := &bytes.Buffer{}
	app := &App{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Store:    store,
		Snapshot: cache.NewSnapshot(store),
		DB:       database,
		Journal:  db.NewJournal(database, db.DefaultMaxRows),
		Out:      out,
	}
	t.Cleanup(app.Close)
	return app, out, &failing
}

func TestFetchSummary(t *testing.T) {
	app, out, _ := setupTestApp(t)

	require.NoError(t, FetchCommand(app, []string{"--summary", "--days", "30"}))
	assert.Contains(t, out.String(), "SALES DASHBOARD")
	assert.Contains(t, out.String(), "TODAY (2025-02-28)")
}

func TestFetchPlainRegions(t *testing.T) {
	app, out, _ := setupTestApp(t)

	require.NoError(t, FetchCommand(app, nil))
	assert.Contains(t, out.String(), "== Today ==")
	assert.NotContains(t, out.String(), "\x1b[", "redirected output is unstyled")
}

func TestFetchJSON(t *testing.T) {
	app, out, _ := setupTestApp(t)

	require.NoError(t, FetchCommand(app, []string{"--json"}))
	assert.JSONEq(t, endpointPayload, out.String())
}

func TestFetchInvalidFilters(t *testing.T) {
	app, _, _ := setupTestApp(t)

	err := FetchCommand(app, []string{"--start", "2025-01-01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filters")
}

func TestFetchFallsBackToSnapshot(t *testing.T) {
	app, out, failing := setupTestApp(t)
	require.NoError(t, FetchCommand(app, []string{"--json"}))
	out.Reset()

	failing.Store(true)
	require.NoError(t, FetchCommand(app, []string{"--json"}))
	assert.JSONEq(t, endpointPayload, out.String())

	loads, err := app.Journal.Recent(10)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, "cached", loads[0].Outcome)
	assert.Equal(t, "success", loads[1].Outcome)
}

func TestHistoryCommand(t *testing.T) {
	app, out, _ := setupTestApp(t)

	require.NoError(t, HistoryCommand(app, nil))
	assert.Contains(t, out.String(), "No loads recorded")

	require.NoError(t, FetchCommand(app, []string{"--json"}))
	out.Reset()

	require.NoError(t, HistoryCommand(app, []string{"--limit", "5"}))
	assert.Contains(t, out.String(), "manual")
	assert.Contains(t, out.String(), "success")
	assert.Contains(t, out.String(), "Total: 1 load(s)")
}

func TestCacheShowAndClear(t *testing.T) {
	app, out, _ := setupTestApp(t)

	require.NoError(t, CacheCommand(app, []string{"show"}))
	assert.Contains(t, out.String(), "No snapshot cached")

	require.NoError(t, FetchCommand(app, []string{"--json", "--teamlead", "Ana"}))
	out.Reset()

	require.NoError(t, CacheCommand(app, []string{"show"}))
	assert.Contains(t, out.String(), "State:    fresh")
	assert.Contains(t, out.String(), "teamlead=Ana")

	out.Reset()
	require.NoError(t, CacheCommand(app, []string{"clear"}))
	require.NoError(t, CacheCommand(app, []string{"show"}))
	assert.Contains(t, out.String(), "No snapshot cached")

	require.Error(t, CacheCommand(app, nil))
	require.Error(t, CacheCommand(app, []string{"purge"}))
}

func TestStatusCommand(t *testing.T) {
	app, out, failing := setupTestApp(t)

	require.NoError(t, StatusCommand(app, nil))
	assert.Contains(t, out.String(), "ok (")
	assert.Contains(t, out.String(), "Snapshot:   none")
	assert.Contains(t, out.String(), "Last load:  never")

	out.Reset()
	failing.Store(true)
	require.Error(t, StatusCommand(app, nil))
	assert.Contains(t, out.String(), "unreachable")
}

func TestVizFunnelFromSnapshot(t *testing.T) {
	app, out, failing := setupTestApp(t)
	require.NoError(t, FetchCommand(app, []string{"--json"}))
	out.Reset()

	// The snapshot is used, so a dead endpoint does not matter.
	failing.Store(true)
	outFile := filepath.Join(t.TempDir(), "funnel.dot")
	require.NoError(t, VizCommand(app, []string{"funnel", "--output", outFile}))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
	assert.Contains(t, string(data), "25.0%")
}

func TestVizLoadsWhenNoSnapshot(t *testing.T) {
	app, out, _ := setupTestApp(t)

	require.NoError(t, VizCommand(app, []string{"teams"}))
	assert.True(t, strings.Contains(out.String(), "team_0"))

	require.Error(t, VizCommand(app, []string{"pie"}))
	require.Error(t, VizCommand(app, nil))
}

func TestConfigCommand(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	out := &bytes.Buffer{}

	require.Error(t, ConfigCommand(cfg, out, []string{"set-endpoint", "ftp://example.com"}))
	require.NoError(t, ConfigCommand(cfg, out, []string{"set-endpoint", "https://reports.example.com/exec"}))
	require.NoError(t, ConfigCommand(cfg, out, []string{"auto-refresh", "off"}))
	require.Error(t, ConfigCommand(cfg, out, []string{"auto-refresh", "maybe"}))

	reloaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://reports.example.com/exec", reloaded.Endpoint)
	assert.False(t, reloaded.AutoRefresh)

	out.Reset()
	require.NoError(t, ConfigCommand(reloaded, out, []string{"path"}))
	assert.Equal(t, path+"\n", out.String())
}

func TestFilterFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"default window", nil, "days=365", false},
		{"days", []string{"--days", "7"}, "days=7", false},
		{"range wins", []string{"--days", "7", "--start", "2025-01-01", "--end", "2025-01-31"}, "end=2025-01-31&start=2025-01-01", false},
		{"narrowing", []string{"--group", "North", "--person", "Bo"}, "days=365&group=North&person=Bo", false},
		{"half range", []string{"--end", "2025-01-31"}, "", true},
		{"bad date", []string{"--start", "2025-13-01", "--end", "2025-12-31"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			ff := addFilterFlags(fs)
			require.NoError(t, fs.Parse(tt.args))

			f, err := ff.filters()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Encode())
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SALESDASH_ENDPOINT", "SALESDASH_CACHE_BACKEND", "SALESDASH_CACHE_DIR",
		"SALESDASH_REDIS_ADDR", "SALESDASH_REDIS_PREFIX", "SALESDASH_AUTO_REFRESH",
		"SALESDASH_REFRESH_INTERVAL", "SALESDASH_LOG_LEVEL", "SALESDASH_TOKEN_FILE",
	} {
		t.Setenv(k, "")
	}
}
