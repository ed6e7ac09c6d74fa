package engine

import (
	"github.com/mtmitchel/LONewDesign-sub007/internal/connector"
	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/spatial"
	"github.com/mtmitchel/LONewDesign-sub007/internal/transform"
)

// onChanges patches the scene graph and the spatial indexes for every
// changed element. Nodes held by the transformer during an active gesture
// already show the live geometry and are not resynced.
func (e *Engine) onChanges(ids []string) {
	if e.loading {
		return
	}
	held := make(map[string]bool)
	if e.state.Phase() == transform.PhaseActive {
		for _, id := range e.transformer.IDs() {
			held[id] = true
		}
	}
	for _, id := range ids {
		el, ok := e.store.GetElement(id)
		if !ok {
			e.graph.Remove(id)
			e.bounds.Remove(id)
			e.strokes.RemoveStroke(id)
			continue
		}
		if !held[id] {
			e.graph.SyncElement(el)
		}
		e.index(el)
	}
	e.graph.RequestRedraw()
}

func (e *Engine) index(el document.Element) {
	e.bounds.Insert(el.ID, e.boundsOf(el))
	if el.Kind == document.KindDrawing {
		e.strokes.SetStroke(el.ID, el.Points, el.Style.StrokeWidth)
	}
}

// boundsOf prefers the node's canvas box, which accounts for rotation.
func (e *Engine) boundsOf(el document.Element) geom.Rect {
	if el.Kind == document.KindDrawing && len(el.Points) > 0 {
		return geom.RectFromPoints(el.Points...).Inflate(el.Style.StrokeWidth / 2)
	}
	if n, ok := e.graph.Lookup(el.ID); ok {
		return n.ClientRect()
	}
	return el.Bounds()
}

// ElementsInRect returns the elements whose bounds intersect r, in z-order.
func (e *Engine) ElementsInRect(r geom.Rect) []string {
	hits := e.bounds.Query(r)
	if len(hits) == 0 {
		return nil
	}
	set := make(map[string]bool, len(hits))
	for _, id := range hits {
		set[id] = true
	}
	var out []string
	for _, el := range e.store.AllElements() {
		if set[el.ID] {
			out = append(out, el.ID)
		}
	}
	return out
}

// EraseAt removes every drawing whose stroke reaches the circle at (x, y)
// with radius r, as one undo step. It returns the erased ids.
func (e *Engine) EraseAt(x, y, r float64) []string {
	return e.erase(spatial.StrokeIDs(e.strokes.QueryCircle(x, y, r)))
}

// EraseInRect removes every drawing touching rect.
func (e *Engine) EraseInRect(rect geom.Rect) []string {
	return e.erase(spatial.StrokeIDs(e.strokes.QueryRect(rect)))
}

func (e *Engine) erase(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	e.store.WithUndo("erase", func() {
		if err := e.store.RemoveElements(ids, document.UpdateOptions{PushHistory: true}); err != nil {
			e.logger.Warn("erase strokes", "error", err)
		}
	})
	e.logger.Debug("strokes erased", "count", len(ids))
	return ids
}

// SnapEndpoint finds the anchor a connector end dropped at (x, y) would
// attach to. exclude is usually the connector itself.
func (e *Engine) SnapEndpoint(x, y float64, exclude string) (connector.SnapResult, bool) {
	p := geom.Point{X: x, Y: y}
	opts := e.endpoints.Snap
	opts.Exclude = exclude
	return connector.Snap(p, e.snapCandidates(p), opts)
}

func (e *Engine) snapCandidates(p geom.Point) []document.Element {
	t := e.endpoints.Snap.Threshold
	if t <= 0 {
		t = connector.DefaultSnapThreshold
	}
	ids := e.ElementsInRect(geom.Rect{X: p.X - t, Y: p.Y - t, Width: 2 * t, Height: 2 * t})
	out := make([]document.Element, 0, len(ids))
	for _, id := range ids {
		if el, ok := e.store.GetElement(id); ok {
			out = append(out, el)
		}
	}
	return out
}
