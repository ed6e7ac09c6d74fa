package engine

import (
	"fmt"
	"slices"

	"github.com/mtmitchel/LONewDesign-sub007/internal/connector"
	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
	"github.com/mtmitchel/LONewDesign-sub007/internal/transform"
)

// gesture names the component that owns the running gesture.
type gesture uint8

const (
	gestureNone gesture = iota
	gestureTransform
	gestureConnector
	gestureEndpoint
)

// pointerDrag is a native drag of one scene node.
type pointerDrag struct {
	node      *scene.Node
	pointer   geom.Point
	origin    geom.Point
	connector bool
}

func elementIDs(nodes []*scene.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ElementID)
	}
	return ids
}

// onGestureBegin captures the snapshot and the baselines of everything the
// gesture moves: attached nodes, mindmap descendants, selected connectors
// and connectors bound to any of them.
func (e *Engine) onGestureBegin(ev transform.GestureEvent) {
	if _, ok := e.state.Begin(ev.Nodes, ev.Source); !ok {
		return
	}
	e.gesture = gestureTransform
	e.progressed = false
	e.sync.BeginGesture()
	e.router.CancelPending()

	ids := elementIDs(ev.Nodes)
	moved := ids
	if ev.Source == transform.SourceDrag {
		descendants := e.cascade.Begin(ids)
		e.state.Extend(descendants...)
		moved = append(moved, descendants...)

		e.mover.Begin(e.store.Selection())
		e.state.Extend(e.mover.IDs()...)
	}
	e.state.Extend(e.router.ConnectorsAttachedTo(moved)...)
}

func (e *Engine) onGestureProgress(ev transform.GestureEvent) {
	if e.gesture != gestureTransform || e.state.Phase() != transform.PhaseActive {
		return
	}
	opts := transform.SyncOptions{Snapshot: e.state.Snapshot()}
	if ev.Source == transform.SourceDrag {
		opts.Delta = &geom.Point{X: ev.DX, Y: ev.DY}
	}
	e.progressed = true
	e.sync.UpdateElementsFromNodes(ev.Nodes, ev.Source, opts)

	moved := elementIDs(ev.Nodes)
	if ev.Source == transform.SourceDrag {
		e.cascade.Progress(ev.DX, ev.DY)
		e.mover.Move(ev.DX, ev.DY)
		moved = append(moved, e.cascade.Moved()...)
	}
	e.router.ScheduleLiveReroute(moved)
	e.graph.BatchDraw()
}

// onGestureEnd commits or rolls back the gesture. A commit rolls the model
// back to the snapshot first, so the single undo step records the
// pre-gesture state.
func (e *Engine) onGestureEnd(ev transform.GestureEvent) {
	if e.gesture != gestureTransform {
		e.resyncNodes(ev.Nodes)
		return
	}
	e.gesture = gestureNone
	if ev.Cancelled || !e.progressed {
		e.router.CancelPending()
		e.mover.End()
		e.state.Cancel()
		e.cascade.Cancel()
		e.resyncNodes(ev.Nodes)
		e.graph.BatchDraw()
		return
	}

	snap := e.state.Snapshot()
	opts := transform.SyncOptions{Snapshot: snap}
	if ev.Source == transform.SourceDrag {
		opts.Delta = &geom.Point{X: ev.DX, Y: ev.DY}
	}
	entries := e.sync.BuildPatches(ev.Nodes, ev.Source, opts)
	indirect := append(append([]document.PatchEntry(nil), e.cascade.Pending()...), e.mover.Pending()...)
	moved := append(elementIDs(ev.Nodes), e.cascade.Moved()...)

	e.state.Commit()
	history := document.UpdateOptions{PushHistory: true}
	e.store.WithUndo(gestureLabel(ev), func() {
		e.sync.Apply(entries, transform.SyncOptions{PushHistory: true})
		if len(indirect) > 0 {
			if err := e.store.UpdateElements(indirect, history); err != nil {
				e.logger.Warn("commit indirect moves", "error", err)
			}
		}
		e.router.FinalReroute(moved, history)
		e.cascade.End(ev.Source == transform.SourceDrag, history)
	})
	e.mover.End()
	e.state.Finish()
	e.graph.BatchDraw()
}

func gestureLabel(ev transform.GestureEvent) string {
	switch {
	case ev.Source == transform.SourceDrag:
		return "move"
	case ev.Handle == transform.HandleRotate:
		return "rotate"
	}
	return "resize"
}

func (e *Engine) resyncNodes(nodes []*scene.Node) {
	for _, n := range nodes {
		if el, ok := e.store.GetElement(n.ElementID); ok {
			e.graph.SyncElement(el)
		}
	}
}

// --- Pointer input ---

// DragStart grabs element id at canvas point (x, y). Dragging an element
// outside the attached set selects it and attaches the transformer at once.
// It reports whether a gesture started.
func (e *Engine) DragStart(id string, x, y float64) bool {
	n, ok := e.graph.Lookup(id)
	if !ok {
		e.logger.Debug("no scene node for element", "id", id)
		return false
	}
	p := geom.Point{X: x, Y: y}
	if n.Kind == document.KindConnector {
		return e.beginConnectorDrag(n, p)
	}
	if e.gesture != gestureNone {
		e.logger.Warn("gesture already in progress, ignoring drag", "id", id)
		return false
	}

	if !slices.Contains(e.transformer.IDs(), id) {
		sel := e.store.Selection()
		if !slices.Contains(sel, id) {
			sel = []string{id}
			e.store.SetSelection(sel)
		}
		e.manager.AttachImmediately(sel)
	}
	if !slices.Contains(e.transformer.IDs(), id) {
		return false
	}

	e.drag = &pointerDrag{node: n, pointer: p, origin: n.Position()}
	n.Emit(scene.EventDragStart)
	if e.gesture != gestureTransform {
		n.Emit(scene.EventDragCancel)
		e.drag = nil
		return false
	}
	return true
}

// DragMove moves the grabbed element with the pointer.
func (e *Engine) DragMove(x, y float64) {
	d := e.drag
	if d == nil {
		return
	}
	delta := geom.Point{X: x, Y: y}.Sub(d.pointer)
	if d.connector {
		e.mover.Move(delta.X, delta.Y)
		e.graph.BatchDraw()
		return
	}
	d.node.SetPosition(d.origin.Add(delta))
	d.node.Emit(scene.EventDragMove)
}

// DragEnd releases the grabbed element and commits the gesture.
func (e *Engine) DragEnd() {
	d := e.drag
	if d == nil {
		return
	}
	e.drag = nil
	if d.connector {
		e.endConnectorDrag(false)
		return
	}
	d.node.Emit(scene.EventDragEnd)
}

// CancelGesture abandons the running gesture. The model is left exactly as
// it was before the gesture began.
func (e *Engine) CancelGesture() {
	if d := e.drag; d != nil {
		e.drag = nil
		if d.connector {
			e.endConnectorDrag(true)
		} else {
			d.node.Emit(scene.EventDragCancel)
		}
		return
	}
	switch e.gesture {
	case gestureTransform:
		e.transformer.HandleCancel()
	case gestureEndpoint:
		e.state.Cancel()
		e.gesture = gestureNone
	}
}

// HandleStart grabs a transformer handle by name ("top-left", "rotate", ...).
func (e *Engine) HandleStart(handle string, x, y float64) bool {
	h, err := transform.ParseHandle(handle)
	if err != nil {
		e.logger.Warn("handle start", "error", err)
		return false
	}
	if e.gesture != gestureNone {
		e.logger.Warn("gesture already in progress, ignoring handle", "handle", handle)
		return false
	}
	if !e.transformer.HandleStart(h, geom.Point{X: x, Y: y}) {
		return false
	}
	if e.gesture != gestureTransform {
		e.transformer.HandleCancel()
		return false
	}
	return true
}

func (e *Engine) HandleMove(x, y float64) {
	e.transformer.HandleMove(geom.Point{X: x, Y: y})
}

func (e *Engine) HandleEnd() {
	e.transformer.HandleEnd()
}

// beginConnectorDrag moves selected connectors rigidly. Connectors bound at
// both ends cannot be dragged.
func (e *Engine) beginConnectorDrag(n *scene.Node, p geom.Point) bool {
	ids := e.store.Selection()
	if !slices.Contains(ids, n.ElementID) {
		ids = []string{n.ElementID}
		e.store.SetSelection(ids)
	}
	if _, ok := e.state.Begin([]*scene.Node{n}, transform.SourceDrag); !ok {
		return false
	}
	if e.mover.Begin(ids) == 0 {
		e.mover.End()
		e.state.Cancel()
		return false
	}
	e.state.Extend(e.mover.IDs()...)
	e.gesture = gestureConnector
	e.drag = &pointerDrag{node: n, pointer: p, origin: n.Position(), connector: true}
	return true
}

func (e *Engine) endConnectorDrag(cancelled bool) {
	e.gesture = gestureNone
	if cancelled {
		e.mover.End()
		e.state.Cancel()
		return
	}
	pending := e.mover.Pending()
	e.mover.End()
	e.state.Commit()
	e.store.WithUndo("move", func() {
		if len(pending) == 0 {
			return
		}
		if err := e.store.UpdateElements(pending, document.UpdateOptions{PushHistory: true}); err != nil {
			e.logger.Warn("commit connector move", "error", err)
		}
	})
	e.state.Finish()
}

// DragConnectorEndpoint moves one end of a connector to (x, y), snapping it
// to a nearby anchor. Intermediate calls write without history; the call
// with final set records one undo step for the whole drag.
func (e *Engine) DragConnectorEndpoint(connectorID, which string, x, y float64, final bool) (*document.Endpoint, error) {
	w, err := connector.ParseWhich(which)
	if err != nil {
		return nil, err
	}
	switch {
	case e.gesture == gestureNone:
		if _, ok := e.state.Begin(nil, transform.SourceHandle); !ok {
			return nil, fmt.Errorf("drag %s of %q: %w", which, connectorID, ErrGestureActive)
		}
		e.state.Extend(connectorID)
		e.gesture = gestureEndpoint
		e.drag = nil
	case e.gesture != gestureEndpoint || !slices.Contains(e.state.Snapshot().Order, connectorID):
		return nil, fmt.Errorf("drag %s of %q: %w", which, connectorID, ErrGestureActive)
	}

	p := geom.Point{X: x, Y: y}
	candidates := e.snapCandidates(p)
	if !final {
		return e.endpoints.DragEndpoint(connectorID, w, p, candidates, document.UpdateOptions{})
	}

	e.gesture = gestureNone
	e.state.Commit()
	var ep *document.Endpoint
	e.store.WithUndo("connect", func() {
		ep, err = e.endpoints.DragEndpoint(connectorID, w, p, candidates, document.UpdateOptions{PushHistory: true})
	})
	e.state.Finish()
	return ep, err
}
