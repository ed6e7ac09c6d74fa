// Package geom holds the plane geometry shared by the selection engine:
// points, axis-aligned rects, affine matrices, anchor computation for
// rectangular and elliptical outlines, aspect-ratio solving and
// point/segment distance tests.
package geom

import "math"

// Point is a position or offset on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// DistSq returns the squared distance between p and q.
func DistSq(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Dist returns the distance between p and q.
func Dist(p, q Point) float64 {
	return math.Sqrt(DistSq(p, q))
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains checks if a point is inside the rect. Edges count as inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// ContainsRect reports whether other lies fully inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.MaxX() <= r.MaxX() &&
		other.Y >= r.Y && other.MaxY() <= r.MaxY()
}

// Intersects reports whether r and other overlap.
// Rects sharing only an edge are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.MaxX() && r.MaxX() >= other.X &&
		r.Y <= other.MaxY() && r.MaxY() >= other.Y
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.MaxX(), other.MaxX())
	maxY := max(r.MaxY(), other.MaxY())

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Inflate grows the rect by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Translate moves the rect by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// RectFromPoints returns the bounding box of pts. Zero points yield a zero rect.
func RectFromPoints(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// RotateAround rotates p by degrees around c.
func RotateAround(p, c Point, degrees float64) Point {
	if degrees == 0 {
		return p
	}
	m := Translate(c.X, c.Y).Multiply(RotateDegrees(degrees)).Multiply(Translate(-c.X, -c.Y))
	return m.TransformPoint(p)
}
