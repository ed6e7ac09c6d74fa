package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mtmitchel/LONewDesign-sub007/internal/spatial"
)

type Config struct {
	GridCellSize float64 `envconfig:"GRID_CELL_SIZE" default:"64"`
	QuadCapacity int     `envconfig:"QUAD_CAPACITY" default:"8"`
	QuadMaxDepth int     `envconfig:"QUAD_MAX_DEPTH" default:"8"`
	WorldSize    float64 `envconfig:"WORLD_SIZE" default:"100000"`

	AttachDelay    time.Duration `envconfig:"ATTACH_DELAY" default:"75ms"`
	RefreshDelay   time.Duration `envconfig:"REFRESH_DELAY" default:"50ms"`
	LiveRouteDelay time.Duration `envconfig:"LIVE_ROUTE_DELAY" default:"16ms"`

	SnapThreshold  float64 `envconfig:"SNAP_THRESHOLD" default:"12"`
	SnapToCenter   bool    `envconfig:"SNAP_TO_CENTER" default:"true"`
	EraserRectMode string  `envconfig:"ERASER_RECT_MODE" default:"bounds"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from BOARD_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("board", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.RectMode(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied, ignoring the
// environment.
func Default() *Config {
	return &Config{
		GridCellSize:   spatial.DefaultCellSize,
		QuadCapacity:   8,
		QuadMaxDepth:   8,
		WorldSize:      100000,
		AttachDelay:    75 * time.Millisecond,
		RefreshDelay:   50 * time.Millisecond,
		LiveRouteDelay: 16 * time.Millisecond,
		SnapThreshold:  12,
		SnapToCenter:   true,
		EraserRectMode: "bounds",
		LogLevel:       "info",
	}
}

// RectMode parses EraserRectMode.
func (c *Config) RectMode() (spatial.RectMode, error) {
	switch strings.ToLower(c.EraserRectMode) {
	case "", "bounds":
		return spatial.RectModeBounds, nil
	case "exact":
		return spatial.RectModeExact, nil
	}
	return spatial.RectModeBounds, fmt.Errorf("unknown eraser rect mode %q", c.EraserRectMode)
}

// SlogLevel parses LogLevel, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
