package connector

import (
	"fmt"
	"log/slog"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

const DefaultSnapThreshold = 12.0

type SnapOptions struct {
	// Threshold is the maximum distance in canvas units.
	Threshold     float64
	IncludeCenter bool
	// Exclude skips one element, usually the connector being edited.
	Exclude string
}

// SnapResult is the anchor an endpoint snapped to.
type SnapResult struct {
	ElementID string
	Side      geom.Side
	Point     geom.Point
	Distance  float64
}

// Snap returns the nearest anchor to p among candidates within the
// threshold. Ties keep the earliest candidate.
func Snap(p geom.Point, candidates []document.Element, opts SnapOptions) (SnapResult, bool) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultSnapThreshold
	}
	best := SnapResult{Distance: threshold}
	found := false
	for _, el := range candidates {
		if el.ID == opts.Exclude || !Snappable(el.Kind) {
			continue
		}
		for _, a := range AnchorsOf(el, opts.IncludeCenter) {
			d := geom.Dist(p, a.Point)
			if d > threshold || (found && d >= best.Distance) {
				continue
			}
			best = SnapResult{ElementID: el.ID, Side: a.Side, Point: a.Point, Distance: d}
			found = true
		}
	}
	return best, found
}

// Which selects a connector end.
type Which uint8

const (
	WhichStart Which = iota
	WhichEnd
)

func (w Which) String() string {
	if w == WhichEnd {
		return "end"
	}
	return "start"
}

// ParseWhich converts "start" or "end" to a Which.
func ParseWhich(name string) (Which, error) {
	switch name {
	case "start":
		return WhichStart, nil
	case "end":
		return WhichEnd, nil
	}
	return WhichStart, fmt.Errorf("unknown connector end %q", name)
}

// EndpointEditor moves one end of a connector under the pointer, attaching
// it to a nearby anchor or leaving it free.
type EndpointEditor struct {
	model  document.Model
	logger *slog.Logger
	Snap   SnapOptions
}

func NewEndpointEditor(model document.Model, logger *slog.Logger) *EndpointEditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &EndpointEditor{
		model:  model,
		logger: logger,
		Snap:   SnapOptions{Threshold: DefaultSnapThreshold, IncludeCenter: true},
	}
}

// DragEndpoint places the chosen end at p, snapping to candidates. It
// returns the written endpoint.
func (e *EndpointEditor) DragEndpoint(connectorID string, which Which, p geom.Point,
	candidates []document.Element, opts document.UpdateOptions) (*document.Endpoint, error) {
	if e.model == nil {
		e.logger.Warn("document model unavailable, endpoint not moved", "id", connectorID)
		return nil, fmt.Errorf("drag %s of %q: %w", which, connectorID, document.ErrNotFound)
	}
	el, ok := e.model.GetElement(connectorID)
	if !ok || el.Kind != document.KindConnector {
		return nil, fmt.Errorf("drag %s of %q: %w", which, connectorID, document.ErrNotFound)
	}

	snapOpts := e.Snap
	snapOpts.Exclude = connectorID
	ep := document.PointEndpoint(p)
	if hit, ok := Snap(p, candidates, snapOpts); ok {
		ep = document.AttachedEndpoint(hit.ElementID, hit.Side, 0)
		ep.X, ep.Y = hit.Point.X, hit.Point.Y
	}

	start, end := el.Start.Clone(), el.End.Clone()
	if which == WhichStart {
		start = ep
	} else {
		end = ep
	}
	if start == nil {
		start = document.PointEndpoint(p)
	}
	if end == nil {
		end = document.PointEndpoint(p)
	}
	if err := e.model.UpdateElement(connectorID, endpointPatch(start, end), opts); err != nil {
		return nil, fmt.Errorf("drag %s of %q: %w", which, connectorID, err)
	}
	return ep.Clone(), nil
}
