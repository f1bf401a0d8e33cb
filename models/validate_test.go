// ABOUTME: Tests for payload validation
// ABOUTME: Checks which problems abort a load and which only warn
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *Payload {
	t.Helper()
	p, err := ParsePayload([]byte(raw))
	require.NoError(t, err)
	return p
}

func TestValidateAcceptsMinimalPayload(t *testing.T) {
	r := Validate(mustParse(t, `{"ok":true,"dailyTrend":[{"date":"2025-01-01","sales":1}],"summary":[],"personTotals":[],"kpiToday":{}}`))
	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
	assert.NoError(t, r.Err())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing ok", `{"dailyTrend":[]}`},
		{"ok false", `{"ok":false,"error":"sheet locked","dailyTrend":[]}`},
		{"trend object", `{"ok":true,"dailyTrend":{}}`},
		{"trend missing", `{"ok":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Validate(mustParse(t, tt.raw))
			assert.False(t, r.Valid())
			assert.Error(t, r.Err())
		})
	}

	assert.False(t, Validate(nil).Valid())
}

func TestValidateWarnings(t *testing.T) {
	r := Validate(mustParse(t, `{"ok":true,"dailyTrend":[{"sales":"lots"}],"summary":{},"funnel":"n/a"}`))
	require.True(t, r.Valid())
	assert.Contains(t, r.Warnings, "dailyTrend[0] has no date")
	assert.Contains(t, r.Warnings, "dailyTrend[0].sales is not numeric")
	assert.Contains(t, r.Warnings, "summary is object, want array")
	assert.Contains(t, r.Warnings, "personTotals is missing, want array")
	assert.Contains(t, r.Warnings, "kpiToday is missing, want object")
	assert.Contains(t, r.Warnings, "funnel is string, want array or object")

	r = Validate(mustParse(t, `{"ok":true,"dailyTrend":[]}`))
	assert.True(t, r.Valid())
	assert.Contains(t, r.Warnings, "dailyTrend is empty")
}
