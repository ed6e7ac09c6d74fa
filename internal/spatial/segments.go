package spatial

import (
	"sort"
	"strconv"

	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

// Segment is one straight piece of a stroke, the unit the eraser indexes.
type Segment struct {
	StrokeID  string
	Index     int
	A, B      geom.Point
	HalfWidth float64
	Bounds    geom.Rect // inflated by HalfWidth
}

// RectMode selects how rectangle queries test segments.
type RectMode uint8

const (
	// RectModeBounds treats a segment as its inflated bounding box. Cheap, and
	// may report hits near the box corners that the stroke never covers.
	RectModeBounds RectMode = iota
	// RectModeExact tests the stroked segment (a capsule) against the rect.
	RectModeExact
)

// SegmentIndex maps drawing strokes to their segments in a GridHash.
type SegmentIndex struct {
	grid     *GridHash
	segments map[string]Segment
	strokes  map[string][]string
	rectMode RectMode
}

// NewSegmentIndex creates an empty index with the given grid cell size.
func NewSegmentIndex(cellSize float64) *SegmentIndex {
	return &SegmentIndex{
		grid:     NewGridHash(cellSize),
		segments: make(map[string]Segment),
		strokes:  make(map[string][]string),
	}
}

// SetRectMode switches the rectangle query test.
func (s *SegmentIndex) SetRectMode(m RectMode) {
	s.rectMode = m
}

func segmentKey(strokeID string, i int) string {
	return strokeID + "#" + strconv.Itoa(i)
}

func buildSegments(strokeID string, points []geom.Point, width float64) []Segment {
	hw := width / 2
	if hw < 0 {
		hw = 0
	}
	if len(points) == 1 {
		p := points[0]
		return []Segment{{
			StrokeID: strokeID, A: p, B: p, HalfWidth: hw,
			Bounds: geom.RectFromPoints(p).Inflate(hw),
		}}
	}
	segs := make([]Segment, 0, max(len(points)-1, 0))
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		segs = append(segs, Segment{
			StrokeID:  strokeID,
			Index:     i,
			A:         a,
			B:         b,
			HalfWidth: hw,
			Bounds:    geom.RectFromPoints(a, b).Inflate(hw),
		})
	}
	return segs
}

// SetStroke inserts or replaces the stroke's segments. Segments that keep
// their slot are moved with a targeted grid update; surplus ones are removed,
// so nothing of the previous geometry stays indexed.
func (s *SegmentIndex) SetStroke(strokeID string, points []geom.Point, width float64) {
	if len(points) == 0 {
		s.RemoveStroke(strokeID)
		return
	}
	segs := buildSegments(strokeID, points, width)
	oldKeys := s.strokes[strokeID]

	keys := make([]string, len(segs))
	for i, seg := range segs {
		key := segmentKey(strokeID, i)
		keys[i] = key
		if old, ok := s.segments[key]; ok {
			s.grid.Update(key, old.Bounds, seg.Bounds)
		} else {
			s.grid.Insert(key, seg.Bounds)
		}
		s.segments[key] = seg
	}
	for _, key := range oldKeys[min(len(segs), len(oldKeys)):] {
		s.grid.Remove(key)
		delete(s.segments, key)
	}
	s.strokes[strokeID] = keys
}

// RemoveStroke drops every segment of the stroke.
func (s *SegmentIndex) RemoveStroke(strokeID string) bool {
	keys, ok := s.strokes[strokeID]
	if !ok {
		return false
	}
	for _, key := range keys {
		s.grid.Remove(key)
		delete(s.segments, key)
	}
	delete(s.strokes, strokeID)
	return true
}

// Clear empties the index.
func (s *SegmentIndex) Clear() {
	s.grid = NewGridHash(s.grid.CellSize())
	s.segments = make(map[string]Segment)
	s.strokes = make(map[string][]string)
}

// Len returns the number of indexed segments.
func (s *SegmentIndex) Len() int {
	return len(s.segments)
}

// HasStroke reports whether the stroke is indexed.
func (s *SegmentIndex) HasStroke(strokeID string) bool {
	_, ok := s.strokes[strokeID]
	return ok
}

// QueryCircle returns the segments whose stroked area reaches the circle:
// distance from the center to the segment <= r + half-width.
func (s *SegmentIndex) QueryCircle(cx, cy, r float64) []Segment {
	c := geom.Point{X: cx, Y: cy}
	box := geom.Rect{X: cx - r, Y: cy - r, Width: 2 * r, Height: 2 * r}

	var out []Segment
	for _, key := range s.grid.Query(box) {
		seg := s.segments[key]
		if !circleTouchesRect(c, r, seg.Bounds) {
			continue
		}
		reach := r + seg.HalfWidth
		if geom.DistSqToSegment(c, seg.A, seg.B) <= reach*reach {
			out = append(out, seg)
		}
	}
	sortSegments(out)
	return out
}

// QueryRect returns the segments touching r under the current RectMode.
func (s *SegmentIndex) QueryRect(r geom.Rect) []Segment {
	var out []Segment
	for _, key := range s.grid.Query(r) {
		seg := s.segments[key]
		if !seg.Bounds.Intersects(r) {
			continue
		}
		if s.rectMode == RectModeExact &&
			geom.SegmentRectDistSq(seg.A, seg.B, r) > seg.HalfWidth*seg.HalfWidth {
			continue
		}
		out = append(out, seg)
	}
	sortSegments(out)
	return out
}

// StrokeIDs returns the distinct stroke ids among segs, sorted.
func StrokeIDs(segs []Segment) []string {
	seen := make(map[string]struct{}, len(segs))
	var out []string
	for _, seg := range segs {
		if _, ok := seen[seg.StrokeID]; ok {
			continue
		}
		seen[seg.StrokeID] = struct{}{}
		out = append(out, seg.StrokeID)
	}
	sort.Strings(out)
	return out
}

func circleTouchesRect(c geom.Point, r float64, b geom.Rect) bool {
	nx := min(max(c.X, b.MinX()), b.MaxX())
	ny := min(max(c.Y, b.MinY()), b.MaxY())
	return geom.DistSq(c, geom.Point{X: nx, Y: ny}) <= r*r
}

func sortSegments(segs []Segment) {
	sort.Slice(segs, func(i, j int) bool {
		if segs[i].StrokeID != segs[j].StrokeID {
			return segs[i].StrokeID < segs[j].StrokeID
		}
		return segs[i].Index < segs[j].Index
	})
}
