package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

func TestGridHashInsertSpansCells(t *testing.T) {
	g := NewGridHash(10)
	g.Insert("a", geom.Rect{X: 5, Y: 5, Width: 10, Height: 10})

	// (5,5)-(15,15) touches cells x 0..1, y 0..1
	assert.Equal(t, 4, g.CellCount())
	assert.Equal(t, []string{"a"}, g.Query(geom.Rect{X: 14, Y: 14, Width: 1, Height: 1}))
	assert.Empty(t, g.Query(geom.Rect{X: 30, Y: 30, Width: 1, Height: 1}))
}

func TestGridHashNegativeCoordinates(t *testing.T) {
	g := NewGridHash(10)
	g.Insert("neg", geom.Rect{X: -15, Y: -3, Width: 2, Height: 2})
	assert.Equal(t, []string{"neg"}, g.Query(geom.Rect{X: -20, Y: -10, Width: 5, Height: 5}))
	assert.Empty(t, g.Query(geom.Rect{X: 1, Y: 1, Width: 5, Height: 5}))
}

func TestGridHashUpdateLeavesNoResidue(t *testing.T) {
	g := NewGridHash(10)
	old := geom.Rect{X: 0, Y: 0, Width: 5, Height: 5}
	moved := geom.Rect{X: 100, Y: 100, Width: 5, Height: 5}
	g.Insert("a", old)
	g.Update("a", old, moved)

	assert.Empty(t, g.Query(old))
	assert.Equal(t, []string{"a"}, g.Query(moved))
	assert.Equal(t, 1, g.CellCount())
	b, ok := g.Bounds("a")
	assert.True(t, ok)
	assert.Equal(t, moved, b)
}

func TestGridHashRemove(t *testing.T) {
	g := NewGridHash(0)
	assert.Equal(t, float64(DefaultCellSize), g.CellSize())

	g.Insert("a", geom.Rect{Width: 200, Height: 10})
	g.Insert("b", geom.Rect{X: 50, Width: 10, Height: 10})
	assert.Equal(t, []string{"a", "b"}, g.Query(geom.Rect{X: 0, Y: 0, Width: 500, Height: 500}))

	assert.True(t, g.Remove("a"))
	assert.False(t, g.Remove("a"))
	assert.Equal(t, []string{"b"}, g.Query(geom.Rect{X: 0, Y: 0, Width: 500, Height: 500}))
	assert.Equal(t, 1, g.Len())
}
