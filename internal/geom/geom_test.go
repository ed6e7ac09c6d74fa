package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, a.Intersects(Rect{X: 10, Y: 0, Width: 5, Height: 5}), "shared edge")
	assert.True(t, a.Intersects(Rect{X: 5, Y: 5, Width: 1, Height: 1}))
	assert.False(t, a.Intersects(Rect{X: 11, Y: 0, Width: 5, Height: 5}))
	assert.True(t, a.ContainsRect(Rect{X: 1, Y: 1, Width: 2, Height: 2}))
	assert.False(t, a.ContainsRect(Rect{X: 9, Y: 9, Width: 2, Height: 2}))
}

func TestRectUnionSkipsEmpty(t *testing.T) {
	r := Rect{}.Union(Rect{X: 1, Y: 2, Width: 3, Height: 4})
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, r)

	r = r.Union(Rect{X: -1, Y: 0, Width: 1, Height: 1})
	assert.Equal(t, Rect{X: -1, Y: 0, Width: 5, Height: 6}, r)
}

func TestAnchorPointRect(t *testing.T) {
	b := Rect{X: 0, Y: 0, Width: 100, Height: 50}
	tests := []struct {
		name   string
		side   Side
		offset float64
		want   Point
	}{
		{"top", SideTop, 0, Point{50, 0}},
		{"right", SideRight, 0, Point{100, 25}},
		{"bottom", SideBottom, 0, Point{50, 50}},
		{"left", SideLeft, 0, Point{0, 25}},
		{"center", SideCenter, 0.3, Point{50, 25}},
		{"top offset", SideTop, 0.25, Point{75, 0}},
		{"offset clamps", SideRight, 2, Point{100, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnchorPoint(b, OutlineRect, tt.side, tt.offset)
			assert.InDelta(t, tt.want.X, got.X, eps)
			assert.InDelta(t, tt.want.Y, got.Y, eps)
		})
	}
}

func TestAnchorPointEllipseStaysOnPerimeter(t *testing.T) {
	b := Rect{X: 10, Y: 20, Width: 80, Height: 40}
	c := b.Center()
	rx, ry := b.Width/2, b.Height/2

	for _, side := range []Side{SideTop, SideRight, SideBottom, SideLeft} {
		for _, off := range []float64{-0.5, -0.2, 0, 0.3, 0.5} {
			p := AnchorPoint(b, OutlineEllipse, side, off)
			v := (p.X-c.X)*(p.X-c.X)/(rx*rx) + (p.Y-c.Y)*(p.Y-c.Y)/(ry*ry)
			assert.InDelta(t, 1.0, v, 1e-9, "side %s offset %v", side, off)
		}
	}

	right := AnchorPoint(b, OutlineEllipse, SideRight, 0)
	assert.InDelta(t, 90, right.X, eps)
	assert.InDelta(t, 40, right.Y, eps)
	top := AnchorPoint(b, OutlineEllipse, SideTop, 0)
	assert.InDelta(t, 50, top.X, eps)
	assert.InDelta(t, 20, top.Y, eps)
}

func TestAnchors(t *testing.T) {
	b := Rect{Width: 10, Height: 10}
	assert.Len(t, Anchors(b, OutlineRect, false), 4)
	all := Anchors(b, OutlineRect, true)
	require.Len(t, all, 5)
	assert.Equal(t, SideCenter, all[4].Side)
	assert.Equal(t, Point{5, 5}, all[4].Point)
}

func TestSideJSON(t *testing.T) {
	data, err := SideLeft.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"left"`, string(data))

	var s Side
	require.NoError(t, s.UnmarshalJSON([]byte(`"bottom"`)))
	assert.Equal(t, SideBottom, s)
	assert.Error(t, s.UnmarshalJSON([]byte(`"diagonal"`)))
}

func TestFitAspect(t *testing.T) {
	w, h := FitAspect(200, 50, 2)
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 100.0, h)

	w, h = FitAspect(40, 100, 2)
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 100.0, h)

	w, h = FitAspect(0, 10, 2)
	assert.Equal(t, 0.0, w)
	assert.Equal(t, 10.0, h)
}

func TestDistToSegment(t *testing.T) {
	a, b := Point{10, 10}, Point{50, 10}
	assert.InDelta(t, 0, DistToSegment(Point{30, 10}, a, b), eps)
	assert.InDelta(t, 5, DistToSegment(Point{30, 15}, a, b), eps)
	assert.InDelta(t, math.Sqrt(200), DistToSegment(Point{0, 0}, a, b), eps)
	assert.InDelta(t, 3, DistToSegment(Point{3, 0}, Point{0, 0}, Point{0, 0}), eps)
}

func TestSegmentRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, SegmentIntersectsRect(Point{-5, 5}, Point{15, 5}, r), "crossing")
	assert.True(t, SegmentIntersectsRect(Point{2, 2}, Point{3, 3}, r), "inside")
	assert.False(t, SegmentIntersectsRect(Point{8, -5}, Point{15, 2}, r), "bbox overlap only")
	assert.InDelta(t, 4, SegmentRectDistSq(Point{12, 0}, Point{12, 10}, r), eps)
}

func TestMatrixFromNodeTransform(t *testing.T) {
	m := FromNodeTransform(10, 20, 2, 3, 0, 0, 0)
	p := m.TransformPoint(Point{1, 1})
	assert.InDelta(t, 12, p.X, eps)
	assert.InDelta(t, 23, p.Y, eps)

	m = FromNodeTransform(0, 0, 1, 1, 90, 0, 0)
	p = m.TransformPoint(Point{1, 0})
	assert.InDelta(t, 0, p.X, eps)
	assert.InDelta(t, 1, p.Y, eps)

	inv := m.Invert()
	assert.True(t, inv.Multiply(m).IsIdentity())
}

func TestRotateAround(t *testing.T) {
	p := RotateAround(Point{2, 1}, Point{1, 1}, 180)
	assert.InDelta(t, 0, p.X, eps)
	assert.InDelta(t, 1, p.Y, eps)
}
