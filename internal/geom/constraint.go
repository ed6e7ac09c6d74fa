package geom

import "math"

// FitAspect adjusts (w, h) so that w/h == ratio. The dominant axis, the one
// that is larger relative to the ratio, is kept and the other recomputed.
// Non-positive input is returned unchanged.
func FitAspect(w, h, ratio float64) (float64, float64) {
	if ratio <= 0 || w <= 0 || h <= 0 {
		return w, h
	}
	if w/h >= ratio {
		return w, w / ratio
	}
	return h * ratio, h
}

// DistSqToSegment returns the squared distance from p to the segment ab.
func DistSqToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return DistSq(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return DistSq(p, Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// DistToSegment returns the distance from p to the segment ab.
func DistToSegment(p, a, b Point) float64 {
	return math.Sqrt(DistSqToSegment(p, a, b))
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func onSegment(p, a, b Point) bool {
	return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
		p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentsIntersect reports whether segments p1p2 and q1q2 touch.
func SegmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(p1, q1, q2)) ||
		(d2 == 0 && onSegment(p2, q1, q2)) ||
		(d3 == 0 && onSegment(q1, p1, p2)) ||
		(d4 == 0 && onSegment(q2, p1, p2))
}

// SegmentIntersectsRect reports whether segment ab touches or crosses r.
func SegmentIntersectsRect(a, b Point, r Rect) bool {
	if r.Contains(a) || r.Contains(b) {
		return true
	}
	if !RectFromPoints(a, b).Intersects(r) {
		return false
	}
	c := rectCorners(r)
	for i := range c {
		if SegmentsIntersect(a, b, c[i], c[(i+1)%4]) {
			return true
		}
	}
	return false
}

// SegmentRectDistSq returns the squared distance between segment ab and r,
// zero when they touch.
func SegmentRectDistSq(a, b Point, r Rect) float64 {
	if SegmentIntersectsRect(a, b, r) {
		return 0
	}
	c := rectCorners(r)
	best := math.Inf(1)
	for i := range c {
		best = math.Min(best, DistSqToSegment(c[i], a, b))
		best = math.Min(best, DistSqToSegment(a, c[i], c[(i+1)%4]))
		best = math.Min(best, DistSqToSegment(b, c[i], c[(i+1)%4]))
	}
	return best
}

func rectCorners(r Rect) [4]Point {
	return [4]Point{
		{r.X, r.Y},
		{r.MaxX(), r.Y},
		{r.MaxX(), r.MaxY()},
		{r.X, r.MaxY()},
	}
}
