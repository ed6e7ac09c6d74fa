package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtmitchel/LONewDesign-sub007/internal/spatial"
)

func TestLoadDefaultsMatchDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOARD_GRID_CELL_SIZE", "32")
	t.Setenv("BOARD_ATTACH_DELAY", "120ms")
	t.Setenv("BOARD_ERASER_RECT_MODE", "exact")
	t.Setenv("BOARD_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 32.0, cfg.GridCellSize)
	assert.Equal(t, 120*time.Millisecond, cfg.AttachDelay)

	mode, err := cfg.RectMode()
	require.NoError(t, err)
	assert.Equal(t, spatial.RectModeExact, mode)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsUnknownRectMode(t *testing.T) {
	t.Setenv("BOARD_ERASER_RECT_MODE", "fuzzy")
	_, err := Load()
	assert.Error(t, err)
}

func TestSlogLevelFallback(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
