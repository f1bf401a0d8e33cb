// ABOUTME: Tests for the web dashboard routes
// ABOUTME: Uses httptest for both the reporting endpoint and the server under test
package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpointPayload = `{
  "ok": true,
  "kpiToday": {"date": "2025-02-28", "sales": 1200, "calls": 14},
  "dailyTrend": [{"date": "2025-02-27", "sales": 900}, {"date": "2025-02-28", "sales": 1200}],
  "funnel": {"leads": 40, "quotes": 10, "closed": 4}
}`

type endpoint struct {
	mu      sync.Mutex
	queries []url.Values
	failing bool
}

func (e *endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.queries = append(e.queries, r.URL.Query())
	failing := e.failing
	e.mu.Unlock()
	if failing {
		http.Error(w, "boom", http.StatusBadGateway)
		return
	}
	_, _ = w.Write([]byte(r.URL.Query().Get("callback") + "(" + endpointPayload + ");"))
}

func (e *endpoint) lastQuery() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queries[len(e.queries)-1]
}

func setupServer(t *testing.T) (*httptest.Server, *endpoint) {
	t.Helper()
	e := &endpoint{}
	upstream := httptest.NewServer(e)
	t.Cleanup(upstream.Close)

	client, err := transport.NewClient(upstream.URL)
	require.NoError(t, err)

	store, err := cache.OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s, err := NewServer(client, cache.NewSnapshot(store), nil, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, e
}

func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func get(t *testing.T, u string) (int, string) {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDashboardLoadsOnFirstVisit(t *testing.T) {
	ts, e := setupServer(t)

	status, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Sales Dashboard")
	assert.Contains(t, body, "Today")
	assert.Contains(t, body, "ready")
	assert.Equal(t, "365", e.lastQuery().Get("days"))
}

func TestApplyRoutesThroughCoordinator(t *testing.T) {
	ts, e := setupServer(t)

	resp, err := noRedirect().PostForm(ts.URL+"/apply", url.Values{"days": {"30"}, "teamlead": {"Ana"}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	q := e.lastQuery()
	assert.Equal(t, "30", q.Get("days"))
	assert.Equal(t, "Ana", q.Get("teamlead"))

	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "last 30 days")
}

func TestApplyRejectsInvalidFilters(t *testing.T) {
	ts, e := setupServer(t)

	for _, form := range []url.Values{
		{"days": {"lots"}},
		{"start": {"2025-01-01"}},
		{"start": {"2025-02-01"}, "end": {"2025-01-01"}},
	} {
		resp, err := noRedirect().PostForm(ts.URL+"/apply", form)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, form.Encode())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Empty(t, e.queries)
}

func TestResetRestoresDefaults(t *testing.T) {
	ts, e := setupServer(t)

	resp, err := noRedirect().PostForm(ts.URL+"/apply", url.Values{"days": {"7"}})
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = noRedirect().PostForm(ts.URL+"/reset", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "365", e.lastQuery().Get("days"))
}

func TestSnapshotEndpoint(t *testing.T) {
	ts, _ := setupServer(t)

	status, _ := get(t, ts.URL+"/api/snapshot")
	assert.Equal(t, http.StatusNotFound, status)

	get(t, ts.URL+"/")

	status, body := get(t, ts.URL+"/api/snapshot")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"data"`)
	assert.Contains(t, body, `"filters":"days=365"`)
}

func TestFallbackUsesCachedSnapshot(t *testing.T) {
	ts, e := setupServer(t)
	get(t, ts.URL+"/")

	e.mu.Lock()
	e.failing = true
	e.mu.Unlock()

	resp, err := noRedirect().PostForm(ts.URL+"/apply", url.Values{"days": {"30"}})
	require.NoError(t, err)
	_ = resp.Body.Close()

	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "using cached data")
	assert.Contains(t, body, "cached")
}

func TestFunnelGraph(t *testing.T) {
	ts, _ := setupServer(t)

	status, _ := get(t, ts.URL+"/graph/funnel")
	assert.Equal(t, http.StatusNotFound, status)

	get(t, ts.URL+"/")
	status, body := get(t, ts.URL+"/graph/funnel")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<svg")
}
