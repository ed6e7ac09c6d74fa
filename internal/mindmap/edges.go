// Package mindmap moves mindmap subtrees with their parents and keeps the
// edges between mindmap nodes routed.
package mindmap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
)

var ErrMissingNode = errors.New("mindmap edge node not found")

// EdgeAnchors returns where an edge leaves from and enters to. A child to the
// right of its parent is entered on its left side, otherwise on its right.
func EdgeAnchors(from, to document.Element) (start, end geom.Point) {
	startSide, endSide := geom.SideRight, geom.SideLeft
	if to.Center().X < from.Center().X {
		startSide, endSide = geom.SideLeft, geom.SideRight
	}
	start = geom.AnchorPoint(from.Bounds(), geom.OutlineRect, startSide, 0)
	end = geom.AnchorPoint(to.Bounds(), geom.OutlineRect, endSide, 0)
	return start, end
}

// EdgePath is the elbow polyline between two mindmap nodes.
func EdgePath(from, to document.Element) []geom.Point {
	start, end := EdgeAnchors(from, to)
	midX := (start.X + end.X) / 2
	return []geom.Point{start, {X: midX, Y: start.Y}, {X: midX, Y: end.Y}, end}
}

// Edges keeps mindmap edge elements routed between their nodes.
type Edges struct {
	model  document.Model
	graph  *scene.Graph
	logger *slog.Logger
}

func NewEdges(model document.Model, graph *scene.Graph, logger *slog.Logger) *Edges {
	if logger == nil {
		logger = slog.Default()
	}
	return &Edges{model: model, graph: graph, logger: logger}
}

// Touching returns the edges with an end on any of nodeIDs, in z-order. A
// nil nodeIDs selects every edge.
func (e *Edges) Touching(nodeIDs []string) []string {
	if e.model == nil {
		return nil
	}
	set := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		set[id] = true
	}
	var out []string
	for _, el := range e.model.AllElements() {
		if el.Kind != document.KindMindmapEdge {
			continue
		}
		if nodeIDs == nil || set[el.FromID] || set[el.ToID] {
			out = append(out, el.ID)
		}
	}
	return out
}

// Refresh recomputes the edges touching nodeIDs and writes them to the model
// as one batch. An edge whose nodes are gone is logged and skipped. It
// returns the number of edges written.
func (e *Edges) Refresh(nodeIDs []string, opts document.UpdateOptions) int {
	if e.model == nil {
		e.logger.Warn("document model unavailable, mindmap edges not refreshed", "nodes", len(nodeIDs))
		return 0
	}
	ids := e.Touching(nodeIDs)
	batch := make([]document.PatchEntry, 0, len(ids))
	for _, id := range ids {
		pts, err := e.route(id)
		if err != nil {
			e.logger.Warn("refresh mindmap edge", "id", id, "error", err)
			continue
		}
		b := geom.RectFromPoints(pts...)
		batch = append(batch, document.PatchEntry{ID: id, Patch: document.Patch{
			X: document.Float(b.X), Y: document.Float(b.Y),
			Width: document.Float(b.Width), Height: document.Float(b.Height),
			Points: pts,
		}})
	}
	if len(batch) == 0 {
		return 0
	}
	if err := e.model.UpdateElements(batch, opts); err != nil {
		e.logger.Warn("write mindmap edges", "error", err)
	}
	return len(batch)
}

// Redraw updates the scene polylines of the edges touching nodeIDs from the
// current model without writing the model.
func (e *Edges) Redraw(nodeIDs []string) int {
	if e.model == nil || e.graph == nil {
		return 0
	}
	n := 0
	for _, id := range e.Touching(nodeIDs) {
		node, ok := e.graph.Lookup(id)
		if !ok {
			e.logger.Debug("no scene node for mindmap edge", "id", id)
			continue
		}
		pts, err := e.route(id)
		if err != nil {
			e.logger.Warn("redraw mindmap edge", "id", id, "error", err)
			continue
		}
		node.Points = pts
		n++
	}
	if n > 0 {
		e.graph.BatchDraw()
	}
	return n
}

// RefreshMindmapEdges redraws edges of nodes patched by a synchronized batch.
func (e *Edges) RefreshMindmapEdges(ids []string) {
	e.Redraw(ids)
}

func (e *Edges) route(id string) (pts []geom.Point, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("route edge %q: %v", id, p)
		}
	}()
	edge, ok := e.model.GetElement(id)
	if !ok {
		return nil, fmt.Errorf("route edge %q: %w", id, document.ErrNotFound)
	}
	from, ok := e.model.GetElement(edge.FromID)
	if !ok {
		return nil, fmt.Errorf("route edge %q from %q: %w", id, edge.FromID, ErrMissingNode)
	}
	to, ok := e.model.GetElement(edge.ToID)
	if !ok {
		return nil, fmt.Errorf("route edge %q to %q: %w", id, edge.ToID, ErrMissingNode)
	}
	return EdgePath(from, to), nil
}
