// Package connector keeps connector endpoints consistent with the elements
// they bind to: resolving attached endpoints, rerouting while shapes move,
// moving directly selected connectors, and snapping dragged endpoints to
// element anchors.
package connector

import (
	"errors"
	"fmt"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

var (
	ErrNoEndpoint = errors.New("connector endpoint missing")
	ErrDetached   = errors.New("endpoint target not found")
)

// Lookup returns the current data of an element.
type Lookup func(id string) (document.Element, bool)

// ResolveEndpoint returns the absolute position of ep. Free endpoints return
// their stored point; attached endpoints are recomputed from the target's
// bounds, side and offset, following the target's rotation and skew.
func ResolveEndpoint(ep *document.Endpoint, lookup Lookup) (geom.Point, error) {
	if ep == nil {
		return geom.Point{}, ErrNoEndpoint
	}
	if !ep.IsAttached() {
		return ep.Position(), nil
	}
	target, ok := lookup(ep.ElementID)
	if !ok {
		return geom.Point{}, fmt.Errorf("resolve %s endpoint on %q: %w", ep.Side, ep.ElementID, ErrDetached)
	}
	return AnchorOf(target, ep.Side, ep.Offset), nil
}

// AnchorOf computes an anchor of el in canvas space.
func AnchorOf(el document.Element, side geom.Side, offset float64) geom.Point {
	local := geom.AnchorPoint(localBounds(el), el.Kind.Outline(), side, offset)
	return elementTransform(el).TransformPoint(local)
}

// AnchorsOf lists the snap anchors of el: four side midpoints, plus the
// center when includeCenter is set.
func AnchorsOf(el document.Element, includeCenter bool) []geom.Anchor {
	m := elementTransform(el)
	anchors := geom.Anchors(localBounds(el), el.Kind.Outline(), includeCenter)
	for i := range anchors {
		anchors[i].Point = m.TransformPoint(anchors[i].Point)
	}
	return anchors
}

func localBounds(el document.Element) geom.Rect {
	w, h := el.Width, el.Height
	if el.Kind == document.KindCircle && el.Radius > 0 {
		w, h = 2*el.Radius, 2*el.Radius
	}
	return geom.Rect{Width: w, Height: h}
}

func elementTransform(el document.Element) geom.Matrix2D {
	return geom.FromNodeTransform(el.X, el.Y, 1, 1, el.Rotation, el.SkewX, el.SkewY)
}

// Snappable reports whether endpoints may attach to elements of kind k.
func Snappable(k document.Kind) bool {
	switch k {
	case document.KindConnector, document.KindMindmapEdge, document.KindDrawing:
		return false
	}
	return true
}

// bounds returns the box spanned by the two endpoints.
func bounds(start, end *document.Endpoint) geom.Rect {
	return geom.RectFromPoints(start.Position(), end.Position())
}

// endpointPatch writes both endpoints and the resulting bounds.
func endpointPatch(start, end *document.Endpoint) document.Patch {
	b := bounds(start, end)
	return document.Patch{
		X: document.Float(b.X), Y: document.Float(b.Y),
		Width: document.Float(b.Width), Height: document.Float(b.Height),
		Start: start, End: end,
	}
}
