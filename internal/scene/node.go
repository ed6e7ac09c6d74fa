package scene

import (
	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

// Class separates container nodes from drawable primitives.
type Class uint8

const (
	ClassShape Class = iota
	ClassGroup
)

// Event is a drag lifecycle event delivered to node listeners.
type Event uint8

const (
	EventDragStart Event = iota
	EventDragMove
	EventDragEnd
	EventDragCancel
)

func (e Event) String() string {
	switch e {
	case EventDragStart:
		return "dragstart"
	case EventDragMove:
		return "dragmove"
	case EventDragEnd:
		return "dragend"
	case EventDragCancel:
		return "dragcancel"
	}
	return "unknown"
}

// Node is a retained render node. Kind is assigned once when the node is
// built and is the only source of the node's element type.
type Node struct {
	ID        string
	ElementID string
	Kind      document.Kind
	Class     Class
	Composite bool
	// Part names the role of a primitive inside a composite, e.g. "frame".
	Part string

	X, Y          float64
	Width, Height float64
	ScaleX        float64
	ScaleY        float64
	Rotation      float64
	SkewX, SkewY  float64

	Style document.Style
	Text  string

	// Points are local to the node origin (drawings) or absolute (edges).
	Points []geom.Point
	// Start and End are local connector endpoints.
	Start, End geom.Point
	// ChildIDs mirror the logical children of a mindmap node.
	ChildIDs []string

	Parent   *Node
	Children []*Node

	Visible  bool
	Selected bool

	listeners    map[Event]map[uint32]func(*Node)
	listenerSeq  uint32
	listenerKeys map[Event][]uint32
}

func newNode(id, elementID string, kind document.Kind) *Node {
	return &Node{
		ID:        id,
		ElementID: elementID,
		Kind:      kind,
		ScaleX:    1,
		ScaleY:    1,
		Visible:   true,
	}
}

// IsRoot reports whether the node represents a whole element rather than a
// part of a composite.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

func (n *Node) Position() geom.Point {
	return geom.Point{X: n.X, Y: n.Y}
}

func (n *Node) SetPosition(p geom.Point) {
	n.X, n.Y = p.X, p.Y
}

// Move translates the node by (dx, dy).
func (n *Node) Move(dx, dy float64) {
	n.X += dx
	n.Y += dy
}

func (n *Node) Size() (float64, float64) {
	return n.Width, n.Height
}

func (n *Node) SetSize(w, h float64) {
	n.Width, n.Height = w, h
}

func (n *Node) Scale() (float64, float64) {
	return n.ScaleX, n.ScaleY
}

func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX, n.ScaleY = sx, sy
}

func (n *Node) Skew() (float64, float64) {
	return n.SkewX, n.SkewY
}

func (n *Node) SetSkew(x, y float64) {
	n.SkewX, n.SkewY = x, y
}

// LocalTransform maps node-local coordinates into the parent's space.
func (n *Node) LocalTransform() geom.Matrix2D {
	return geom.FromNodeTransform(n.X, n.Y, n.ScaleX, n.ScaleY, n.Rotation, n.SkewX, n.SkewY)
}

// WorldTransform maps node-local coordinates into canvas space.
func (n *Node) WorldTransform() geom.Matrix2D {
	m := n.LocalTransform()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalTransform().Multiply(m)
	}
	return m
}

// ClientRect is the axis-aligned canvas-space box of the node.
func (n *Node) ClientRect() geom.Rect {
	switch n.Kind {
	case document.KindConnector:
		if n.Part == "" {
			m := n.WorldTransform()
			return geom.RectFromPoints(m.TransformPoint(n.Start), m.TransformPoint(n.End))
		}
	case document.KindMindmapEdge:
		if len(n.Points) > 0 {
			return geom.RectFromPoints(n.Points...)
		}
	}
	return n.WorldTransform().TransformRect(geom.Rect{Width: n.Width, Height: n.Height})
}

// EffectiveSize is the base size multiplied by the absolute scale.
func (n *Node) EffectiveSize() (float64, float64) {
	return n.Width * abs(n.ScaleX), n.Height * abs(n.ScaleY)
}

// WorldPoints returns Points in canvas space.
func (n *Node) WorldPoints() []geom.Point {
	if n.Kind == document.KindMindmapEdge {
		return append([]geom.Point(nil), n.Points...)
	}
	m := n.WorldTransform()
	out := make([]geom.Point, len(n.Points))
	for i, p := range n.Points {
		out[i] = m.TransformPoint(p)
	}
	return out
}

// DragHandle removes a drag listener registered with OnDrag.
type DragHandle struct {
	node  *Node
	event Event
	id    uint32
}

// Remove unregisters the listener. Removing twice is a no-op.
func (h DragHandle) Remove() {
	if h.node == nil || h.node.listeners == nil {
		return
	}
	fns := h.node.listeners[h.event]
	if _, ok := fns[h.id]; !ok {
		return
	}
	delete(fns, h.id)
	keys := h.node.listenerKeys[h.event]
	for i, k := range keys {
		if k == h.id {
			h.node.listenerKeys[h.event] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
}

// OnDrag registers fn for a drag event on this node.
func (n *Node) OnDrag(event Event, fn func(*Node)) DragHandle {
	if n.listeners == nil {
		n.listeners = make(map[Event]map[uint32]func(*Node))
		n.listenerKeys = make(map[Event][]uint32)
	}
	if n.listeners[event] == nil {
		n.listeners[event] = make(map[uint32]func(*Node))
	}
	n.listenerSeq++
	id := n.listenerSeq
	n.listeners[event][id] = fn
	n.listenerKeys[event] = append(n.listenerKeys[event], id)
	return DragHandle{node: n, event: event, id: id}
}

// ListenerCount returns how many listeners are registered for event.
func (n *Node) ListenerCount(event Event) int {
	return len(n.listeners[event])
}

// Emit delivers event to the node's listeners in registration order.
func (n *Node) Emit(event Event) {
	keys := append([]uint32(nil), n.listenerKeys[event]...)
	for _, k := range keys {
		if fn, ok := n.listeners[event][k]; ok {
			fn(n)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
