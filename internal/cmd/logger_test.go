package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	open := func(t *testing.T) *os.File {
		t.Helper()

		f, err := os.Create(filepath.Join(t.TempDir(), "log"))
		require.NoError(t, err)
		t.Cleanup(func() { f.Close() }) //nolint:errcheck
		return f
	}

	t.Run("writes json lines off a terminal", func(t *testing.T) {
		t.Parallel()

		f := open(t)
		logger, err := newLogger(f, "warn")
		require.NoError(t, err)

		logger.Info("dropped")
		logger.Warn("kept", "id", "a")

		data, err := os.ReadFile(f.Name())
		require.NoError(t, err)

		var line map[string]any
		require.NoError(t, json.Unmarshal(data, &line))
		assert.Equal(t, "kept", line["msg"])
		assert.Equal(t, "a", line["id"])
		assert.NotContains(t, line, slog.SourceKey)
	})

	t.Run("debug adds the source", func(t *testing.T) {
		t.Parallel()

		f := open(t)
		logger, err := newLogger(f, "debug")
		require.NoError(t, err)

		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
		logger.Debug("here")

		data, err := os.ReadFile(f.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), `"source"`)
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		t.Parallel()

		_, err := newLogger(open(t), "loud")
		require.ErrorIs(t, err, ErrInvalidLogLevel)
	})
}
