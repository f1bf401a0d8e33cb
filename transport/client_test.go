// ABOUTME: Tests for the endpoint client using an httptest server
// ABOUTME: Covers URL building, response unwrapping and the error taxonomy
package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/harperreed/salesdash/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"ok":true,"dailyTrend":[{"date":"2025-01-01","sales":10}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL + "/exec?deployment=abc")
	require.NoError(t, err)
	return client
}

func TestFetchSendsFiltersAndChannel(t *testing.T) {
	var got url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = fmt.Fprintf(w, "%s(%s);", got.Get("callback"), okBody)
	})

	f := models.Filters{TeamLead: "Ana"}
	f.SetDateRange("2025-01-01", "2025-01-31")
	payload, err := client.Fetch(context.Background(), Request{Filters: f, Retry: true})
	require.NoError(t, err)
	assert.True(t, payload.Succeeded())

	assert.Equal(t, "abc", got.Get("deployment"), "endpoint query is preserved")
	assert.Equal(t, "2025-01-01", got.Get("start"))
	assert.Equal(t, "2025-01-31", got.Get("end"))
	assert.False(t, got.Has("days"))
	assert.Equal(t, "Ana", got.Get("teamlead"))
	assert.Equal(t, "1", got.Get("retry"))
	assert.Regexp(t, `^__cb_\d+_[0-9a-f]{8}$`, got.Get("callback"))
	assert.Len(t, got.Get("_"), 26, "nonce is a ULID")
}

func TestFetchUsesUniqueChannelsAndNonces(t *testing.T) {
	seen := map[string]bool{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		seen[q.Get("callback")] = true
		seen[q.Get("_")] = true
		_, _ = w.Write([]byte(okBody))
	})

	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), Request{Filters: models.DefaultFilters()})
		require.NoError(t, err)
	}
	assert.Len(t, seen, 6)
}

func TestFetchAcceptsBareJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	})

	payload, err := client.Fetch(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, payload.DailyTrend.Len())
}

func TestFetchServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty body", http.StatusOK, "   "},
		{"error field", http.StatusOK, `{"ok":false,"error":"sheet not found"}`},
		{"missing ok", http.StatusOK, `{"dailyTrend":[]}`},
		{"malformed", http.StatusOK, `{"ok":tru`},
		{"bad status", http.StatusInternalServerError, okBody},
		{"wrong channel", http.StatusOK, "someoneElse(" + okBody + ")"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Fetch(context.Background(), Request{})
			require.Error(t, err)
			assert.True(t, IsServer(err), "got %v", err)
			assert.Equal(t, "server", Kind(err))

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, "fetch", reqErr.Op)
		})
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	limit := maxBodyBytes
	maxBodyBytes = int64(len(okBody))
	t.Cleanup(func() { maxBodyBytes = limit })

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody + "  "))
	})
	_, err := client.Fetch(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, IsServer(err), "got %v", err)
	assert.Contains(t, err.Error(), "response too large")

	exact := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	})
	_, err = exact.Fetch(context.Background(), Request{})
	assert.NoError(t, err, "a body at the limit is accepted")
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := client.Fetch(context.Background(), Request{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client, err := NewClient(endpoint)
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Request{Timeout: time.Second})
	require.Error(t, err)
	assert.True(t, IsNetwork(err), "got %v", err)
}

func TestFetchParentCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, Request{Timeout: time.Second})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err))
}

func TestPing(t *testing.T) {
	var days string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		days = r.URL.Query().Get("days")
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", days)
}

func TestNewClientRejectsBadEndpoints(t *testing.T) {
	for _, endpoint := range []string{"", "ftp://example.com", "://nope"} {
		_, err := NewClient(endpoint)
		assert.Error(t, err, endpoint)
	}
}

func TestDecodeResponseStripsCommentPrefix(t *testing.T) {
	payload, err := DecodeResponse([]byte("/**/ cb_1("+okBody+")"), "cb_1")
	require.NoError(t, err)
	assert.True(t, payload.Succeeded())
}
