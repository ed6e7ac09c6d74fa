// Package replay drives an engine through a scripted sequence of pointer
// gestures on a fake clock, for reproducing interaction bugs offline.
package replay

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

// Script is a TOML gesture script:
//
//	[[step]]
//	action = "select"
//	ids = ["rect_01h..."]
//
//	[[step]]
//	action = "drag"
//	from = [10, 10]
//	to = [30, 0]
//	steps = 4
type Script struct {
	Name  string `toml:"name"`
	Steps []Step `toml:"step"`
}

// Step is one scripted action. Fields not used by the action are ignored.
type Step struct {
	Action string    `toml:"action"` // select, wait, tick, drag, handle, endpoint, erase, undo
	IDs    []string  `toml:"ids"`    // select
	ID     string    `toml:"id"`     // drag target (hit-tested at from when empty), endpoint connector
	Handle string    `toml:"handle"` // handle name, e.g. "bottom-right"
	Which  string    `toml:"which"`  // endpoint end: start or end
	From   []float64 `toml:"from"`   // pointer down, or eraser center
	To     []float64 `toml:"to"`     // pointer up
	Moves  int       `toml:"steps"`  // intermediate pointer moves, one frame apart
	Millis int       `toml:"ms"`     // wait
	Radius float64   `toml:"radius"` // eraser radius
	Rect   []float64 `toml:"rect"`   // eraser rect [x, y, width, height]
	Cancel bool      `toml:"cancel"` // abandon the gesture instead of committing
}

// Parse decodes a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	for i, step := range s.Steps {
		if step.Action == "" {
			return nil, fmt.Errorf("step %d: missing action", i+1)
		}
	}
	return &s, nil
}

// Load reads and decodes a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func point(v []float64, field string) (geom.Point, error) {
	if len(v) != 2 {
		return geom.Point{}, fmt.Errorf("%s: want [x, y], got %d values", field, len(v))
	}
	return geom.Point{X: v[0], Y: v[1]}, nil
}

func rect(v []float64) (geom.Rect, error) {
	if len(v) != 4 {
		return geom.Rect{}, fmt.Errorf("rect: want [x, y, width, height], got %d values", len(v))
	}
	return geom.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
