// Package spatial holds the derived indexes used for hit-testing on the
// canvas: a uniform grid hash, the eraser segment index built on it, and a
// generic quadtree for bounding-box range queries. All of them are caches
// rebuilt from the document model; none of them is authoritative.
package spatial

import (
	"math"
	"sort"

	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

// DefaultCellSize is the grid cell edge in canvas units.
const DefaultCellSize = 64

type cellKey struct {
	X, Y int
}

// GridHash buckets items by the integer cells their bounds overlap.
// An item occupies every cell its bounds touch.
type GridHash struct {
	cellSize float64
	cells    map[cellKey]map[string]struct{}
	bounds   map[string]geom.Rect
}

// NewGridHash creates a grid with the given cell size; non-positive sizes
// fall back to DefaultCellSize.
func NewGridHash(cellSize float64) *GridHash {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &GridHash{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[string]struct{}),
		bounds:   make(map[string]geom.Rect),
	}
}

// CellSize returns the cell edge length.
func (g *GridHash) CellSize() float64 {
	return g.cellSize
}

func (g *GridHash) cellRange(r geom.Rect) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(r.MinX() / g.cellSize))
	y0 = int(math.Floor(r.MinY() / g.cellSize))
	x1 = int(math.Floor(r.MaxX() / g.cellSize))
	y1 = int(math.Floor(r.MaxY() / g.cellSize))
	return
}

// Insert adds id with the given bounds, replacing any previous entry.
func (g *GridHash) Insert(id string, bounds geom.Rect) {
	if old, ok := g.bounds[id]; ok {
		g.removeFromCells(id, old)
	}
	g.bounds[id] = bounds
	g.addToCells(id, bounds)
}

// Remove drops id from every cell it occupies.
func (g *GridHash) Remove(id string) bool {
	old, ok := g.bounds[id]
	if !ok {
		return false
	}
	g.removeFromCells(id, old)
	delete(g.bounds, id)
	return true
}

// Update moves id from the cells of oldBounds to those of newBounds. Only the
// old cells are visited for removal.
func (g *GridHash) Update(id string, oldBounds, newBounds geom.Rect) {
	g.removeFromCells(id, oldBounds)
	g.bounds[id] = newBounds
	g.addToCells(id, newBounds)
}

// Bounds returns the stored bounds of id.
func (g *GridHash) Bounds(id string) (geom.Rect, bool) {
	b, ok := g.bounds[id]
	return b, ok
}

// Len returns the number of items.
func (g *GridHash) Len() int {
	return len(g.bounds)
}

// CellCount returns the number of non-empty cells.
func (g *GridHash) CellCount() int {
	return len(g.cells)
}

// Query returns the ids whose cells overlap r, deduplicated and sorted.
// Candidates are not filtered by exact bounds.
func (g *GridHash) Query(r geom.Rect) []string {
	seen := make(map[string]struct{})
	x0, y0, x1, y1 := g.cellRange(r)

	span := (x1 - x0 + 1) * (y1 - y0 + 1)
	if span > len(g.cells) {
		for key, bucket := range g.cells {
			if key.X < x0 || key.X > x1 || key.Y < y0 || key.Y > y1 {
				continue
			}
			for id := range bucket {
				seen[id] = struct{}{}
			}
		}
	} else {
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				for id := range g.cells[cellKey{x, y}] {
					seen[id] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (g *GridHash) addToCells(id string, r geom.Rect) {
	x0, y0, x1, y1 := g.cellRange(r)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			key := cellKey{x, y}
			bucket, ok := g.cells[key]
			if !ok {
				bucket = make(map[string]struct{})
				g.cells[key] = bucket
			}
			bucket[id] = struct{}{}
		}
	}
}

func (g *GridHash) removeFromCells(id string, r geom.Rect) {
	x0, y0, x1, y1 := g.cellRange(r)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			key := cellKey{x, y}
			bucket, ok := g.cells[key]
			if !ok {
				continue
			}
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(g.cells, key)
			}
		}
	}
}
