// ABOUTME: Tests for logger construction
// ABOUTME: Verifies file output, level filtering and bad levels
package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "salesdash.log")

	logger, err := New("info", path)
	require.NoError(t, err)

	logger.Debug("hidden detail")
	logger.Info("load finished", zap.String("trigger", "manual"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "load finished")
	assert.Contains(t, string(data), "manual")
	assert.NotContains(t, string(data), "hidden detail")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", "")
	require.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
