package geom

import (
	"encoding/json"
	"fmt"
	"math"
)

// Side names where on an element's outline an anchor sits.
type Side uint8

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
	SideCenter
)

var sideNames = [...]string{"top", "right", "bottom", "left", "center"}

func (s Side) String() string {
	if int(s) < len(sideNames) {
		return sideNames[s]
	}
	return fmt.Sprintf("side(%d)", s)
}

// ParseSide converts a side name back to a Side.
func ParseSide(name string) (Side, error) {
	for i, n := range sideNames {
		if n == name {
			return Side(i), nil
		}
	}
	return SideCenter, fmt.Errorf("unknown side %q", name)
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSide(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Outline selects how anchors are placed on a bounding box.
type Outline uint8

const (
	OutlineRect Outline = iota
	OutlineEllipse
)

// Anchor is a snap-eligible point on an element's boundary.
type Anchor struct {
	Side  Side
	Point Point
}

// sideAngles are measured with y growing downward, so pi/2 is the bottom.
var sideAngles = map[Side]float64{
	SideRight:  0,
	SideBottom: math.Pi / 2,
	SideLeft:   math.Pi,
	SideTop:    3 * math.Pi / 2,
}

// AnchorPoint returns the point on the outline of bounds for side, shifted by
// offset. Offset is a fraction of the side in [-0.5, 0.5]: along the edge for
// rectangles, a quarter turn per unit for ellipses, so the result stays on the
// perimeter either way.
func AnchorPoint(bounds Rect, outline Outline, side Side, offset float64) Point {
	c := bounds.Center()
	if side == SideCenter {
		return c
	}
	offset = math.Max(-0.5, math.Min(0.5, offset))

	if outline == OutlineEllipse {
		angle := sideAngles[side] + offset*math.Pi/2
		return Point{
			X: c.X + bounds.Width/2*math.Cos(angle),
			Y: c.Y + bounds.Height/2*math.Sin(angle),
		}
	}

	switch side {
	case SideTop:
		return Point{X: c.X + offset*bounds.Width, Y: bounds.Y}
	case SideBottom:
		return Point{X: c.X + offset*bounds.Width, Y: bounds.MaxY()}
	case SideLeft:
		return Point{X: bounds.X, Y: c.Y + offset*bounds.Height}
	default:
		return Point{X: bounds.MaxX(), Y: c.Y + offset*bounds.Height}
	}
}

// Anchors lists the four side midpoints of bounds, plus the center when
// includeCenter is set.
func Anchors(bounds Rect, outline Outline, includeCenter bool) []Anchor {
	sides := []Side{SideTop, SideRight, SideBottom, SideLeft}
	if includeCenter {
		sides = append(sides, SideCenter)
	}
	out := make([]Anchor, 0, len(sides))
	for _, s := range sides {
		out = append(out, Anchor{Side: s, Point: AnchorPoint(bounds, outline, s, 0)})
	}
	return out
}
