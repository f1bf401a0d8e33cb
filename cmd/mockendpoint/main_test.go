// ABOUTME: Tests for the mock endpoint
// ABOUTME: Payloads are fetched through the real transport client
package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/transport"
)

func fetch(t *testing.T, handler http.Handler, f models.Filters) (*models.Payload, error) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := transport.NewClient(server.URL)
	require.NoError(t, err)
	return client.Fetch(context.Background(), transport.Request{Filters: f, Timeout: 5 * time.Second})
}

func TestServesCallbackPayload(t *testing.T) {
	p, err := fetch(t, newHandler(0, 0, zap.NewNop()), models.Filters{Days: 7})
	require.NoError(t, err)
	assert.True(t, p.Succeeded())

	trend, err := models.Trend(p)
	require.NoError(t, err)
	assert.Len(t, trend, 7)

	opts, err := p.AvailableOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Raj", "Mei"}, opts.TeamLeads)
	assert.Equal(t, []string{"North", "South"}, opts.Groups)
}

func TestNarrowsToTeamLead(t *testing.T) {
	p, err := fetch(t, newHandler(0, 0, zap.NewNop()), models.Filters{Days: 3, TeamLead: "Raj"})
	require.NoError(t, err)

	people, err := models.People(p)
	require.NoError(t, err)
	require.Len(t, people, 2)
	for _, person := range people {
		assert.Equal(t, "Raj", person.Team)
	}
}

func TestDateRangeSetsWindow(t *testing.T) {
	f := models.Filters{}
	f.SetDateRange("2025-01-01", "2025-01-31")
	p, err := fetch(t, newHandler(0, 0, zap.NewNop()), f)
	require.NoError(t, err)

	r, ok := p.ReportRange()
	require.True(t, ok)
	assert.Equal(t, "2025-01-01", r.Start)
	assert.Equal(t, "2025-01-31", r.End)

	trend, err := models.Trend(p)
	require.NoError(t, err)
	assert.Len(t, trend, 31)
}

func TestFailureRateAnswersUnavailable(t *testing.T) {
	_, err := fetch(t, newHandler(0, 1, zap.NewNop()), models.DefaultFilters())
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrServer)
}

func TestGenerateIsStableForSameFilters(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := models.Filters{Days: 30}
	a := generatePayload(f, now)
	b := generatePayload(f, now)
	assert.Equal(t, a, b)
}
