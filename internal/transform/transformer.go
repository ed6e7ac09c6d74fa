package transform

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
)

// Handle is a grab point of the resize and rotate widget.
type Handle uint8

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
	HandleRotate
)

var handleNames = [...]string{"none", "top-left", "top", "top-right", "right",
	"bottom-right", "bottom", "bottom-left", "left", "rotate"}

func (h Handle) String() string {
	if int(h) < len(handleNames) {
		return handleNames[h]
	}
	return fmt.Sprintf("handle(%d)", h)
}

// ParseHandle converts a handle name such as "bottom-right" to a Handle.
func ParseHandle(name string) (Handle, error) {
	for i, n := range handleNames {
		if n == name && i > 0 {
			return Handle(i), nil
		}
	}
	return HandleNone, fmt.Errorf("unknown handle %q", name)
}

func (h Handle) movesLeft() bool {
	return h == HandleTopLeft || h == HandleLeft || h == HandleBottomLeft
}

func (h Handle) movesRight() bool {
	return h == HandleTopRight || h == HandleRight || h == HandleBottomRight
}

func (h Handle) movesTop() bool {
	return h == HandleTopLeft || h == HandleTop || h == HandleTopRight
}

func (h Handle) movesBottom() bool {
	return h == HandleBottomLeft || h == HandleBottom || h == HandleBottomRight
}

func (h Handle) isCorner() bool {
	return (h.movesLeft() || h.movesRight()) && (h.movesTop() || h.movesBottom())
}

// minSize keeps a resized selection from collapsing or flipping.
const minSize = 1.0

// GestureEvent is delivered for begin, progress and end of a gesture.
type GestureEvent struct {
	Source Source
	Handle Handle
	Nodes  []*scene.Node
	// DX and DY are the cumulative translation of the selection origin.
	DX, DY    float64
	Cancelled bool
}

type Callbacks struct {
	Begin    func(GestureEvent)
	Progress func(GestureEvent)
	End      func(GestureEvent)
}

type nodeBase struct {
	x, y, scaleX, scaleY, rotation float64
}

type session struct {
	source Source
	handle Handle
	start  geom.Point
	bounds geom.Rect
	base   map[*scene.Node]nodeBase
	dx, dy float64
}

// Transformer is the resize and rotate widget. Both its own handles and
// native drags of the attached nodes feed one begin, progress, end triple;
// begin fires once per pointer-down-to-up cycle and end fires once on drag
// end or cancel.
type Transformer struct {
	logger *slog.Logger

	nodes      []*scene.Node
	bindings   []scene.DragHandle
	visible    bool
	keepRatio  bool
	boundsFunc func([]*scene.Node) geom.Rect
	callbacks  Callbacks

	session *session
	shows   int
}

func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{logger: logger}
}

func (t *Transformer) SetCallbacks(cb Callbacks) {
	t.callbacks = cb
}

// SetBoundsFunc installs the canonical selection-bounds function, preferred
// over the union of node client rects.
func (t *Transformer) SetBoundsFunc(fn func([]*scene.Node) geom.Rect) {
	t.boundsFunc = fn
}

// Attach binds the widget to nodes. Connector and mindmap-edge nodes are
// dropped; attaching nothing detaches.
func (t *Transformer) Attach(nodes []*scene.Node) {
	filtered := FilterTransformableNodes(nodes)
	if dropped := len(nodes) - len(filtered); dropped > 0 {
		t.logger.Debug("transformer refused non-transformable nodes", "dropped", dropped)
	}
	if len(filtered) == 0 {
		t.Detach()
		return
	}
	t.unbind()
	t.nodes = filtered
	for _, n := range filtered {
		t.bind(n)
	}
	t.visible = true
}

// Detach hides the widget and releases drag bindings. A running gesture ends
// as cancelled. Detaching an idle widget is a no-op.
func (t *Transformer) Detach() {
	if t.session != nil {
		t.end(true)
	}
	if !t.visible && len(t.nodes) == 0 {
		return
	}
	t.unbind()
	t.nodes = nil
	t.visible = false
}

func (t *Transformer) bind(n *scene.Node) {
	t.bindings = append(t.bindings,
		n.OnDrag(scene.EventDragStart, t.onDragStart),
		n.OnDrag(scene.EventDragMove, t.onDragMove),
		n.OnDrag(scene.EventDragEnd, func(*scene.Node) { t.onDragEnd(false) }),
		n.OnDrag(scene.EventDragCancel, func(*scene.Node) { t.onDragEnd(true) }),
	)
}

func (t *Transformer) unbind() {
	for _, h := range t.bindings {
		h.Remove()
	}
	t.bindings = nil
}

func (t *Transformer) Nodes() []*scene.Node {
	return append([]*scene.Node(nil), t.nodes...)
}

// IDs returns the element ids of the attached nodes.
func (t *Transformer) IDs() []string {
	ids := make([]string, len(t.nodes))
	for i, n := range t.nodes {
		ids[i] = n.ElementID
	}
	return ids
}

func (t *Transformer) Visible() bool       { return t.visible }
func (t *Transformer) KeepRatio() bool     { return t.keepRatio }
func (t *Transformer) Active() bool        { return t.session != nil }
func (t *Transformer) ForceShows() int     { return t.shows }
func (t *Transformer) SetKeepRatio(v bool) { t.keepRatio = v }

// ForceShow re-shows the widget once the scene has committed its layout.
func (t *Transformer) ForceShow() {
	if len(t.nodes) == 0 {
		return
	}
	t.visible = true
	t.shows++
}

// Bounds is the selection box the widget draws around.
func (t *Transformer) Bounds() geom.Rect {
	if len(t.nodes) == 0 {
		return geom.Rect{}
	}
	if t.boundsFunc != nil {
		if b := t.boundsFunc(t.nodes); !b.IsEmpty() {
			return b
		}
	}
	var b geom.Rect
	for _, n := range t.nodes {
		b = b.Union(n.ClientRect())
	}
	return b
}

func (t *Transformer) begin(source Source, handle Handle) {
	s := &session{
		source: source,
		handle: handle,
		bounds: t.Bounds(),
		base:   make(map[*scene.Node]nodeBase, len(t.nodes)),
	}
	for _, n := range t.nodes {
		s.base[n] = nodeBase{x: n.X, y: n.Y, scaleX: n.ScaleX, scaleY: n.ScaleY, rotation: n.Rotation}
	}
	t.session = s
	t.emit(t.callbacks.Begin, false)
}

func (t *Transformer) end(cancelled bool) {
	if cancelled {
		for n, b := range t.session.base {
			n.X, n.Y = b.x, b.y
			n.ScaleX, n.ScaleY = b.scaleX, b.scaleY
			n.Rotation = b.rotation
		}
	}
	t.emit(t.callbacks.End, cancelled)
	t.session = nil
}

func (t *Transformer) emit(fn func(GestureEvent), cancelled bool) {
	if fn == nil || t.session == nil {
		return
	}
	fn(GestureEvent{
		Source:    t.session.source,
		Handle:    t.session.handle,
		Nodes:     t.Nodes(),
		DX:        t.session.dx,
		DY:        t.session.dy,
		Cancelled: cancelled,
	})
}

func (t *Transformer) onDragStart(*scene.Node) {
	if t.session != nil {
		return
	}
	t.begin(SourceDrag, HandleNone)
}

// onDragMove moves every other attached node with the dragged one.
func (t *Transformer) onDragMove(n *scene.Node) {
	if t.session == nil {
		t.begin(SourceDrag, HandleNone)
	}
	s := t.session
	if s.source != SourceDrag {
		return
	}
	base, ok := s.base[n]
	if !ok {
		return
	}
	s.dx, s.dy = n.X-base.x, n.Y-base.y
	for other, b := range s.base {
		if other != n {
			other.X, other.Y = b.x+s.dx, b.y+s.dy
		}
	}
	t.emit(t.callbacks.Progress, false)
}

func (t *Transformer) onDragEnd(cancelled bool) {
	if t.session == nil || t.session.source != SourceDrag {
		return
	}
	t.end(cancelled)
}

// HandleStart grabs a handle at p. It reports false when nothing is attached
// or a gesture is already running.
func (t *Transformer) HandleStart(h Handle, p geom.Point) bool {
	if len(t.nodes) == 0 || t.session != nil || h == HandleNone {
		return false
	}
	t.begin(SourceHandle, h)
	t.session.start = p
	return true
}

// HandleMove drags the grabbed handle to p.
func (t *Transformer) HandleMove(p geom.Point) {
	s := t.session
	if s == nil || s.source != SourceHandle {
		return
	}
	if s.handle == HandleRotate {
		t.rotate(p)
	} else {
		t.resize(p)
	}
	t.emit(t.callbacks.Progress, false)
}

func (t *Transformer) HandleEnd() {
	if t.session == nil || t.session.source != SourceHandle {
		return
	}
	t.end(false)
}

func (t *Transformer) HandleCancel() {
	if t.session == nil || t.session.source != SourceHandle {
		return
	}
	t.end(true)
}

func (t *Transformer) resize(p geom.Point) {
	s := t.session
	b := s.bounds
	d := p.Sub(s.start)

	w, h := b.Width, b.Height
	switch {
	case s.handle.movesLeft():
		w -= d.X
	case s.handle.movesRight():
		w += d.X
	}
	switch {
	case s.handle.movesTop():
		h -= d.Y
	case s.handle.movesBottom():
		h += d.Y
	}
	w, h = max(w, minSize), max(h, minSize)

	if t.keepRatio && b.Width > 0 && b.Height > 0 {
		ratio := b.Width / b.Height
		switch {
		case s.handle.isCorner():
			w, h = geom.FitAspect(w, h, ratio)
		case s.handle == HandleTop || s.handle == HandleBottom:
			w = h * ratio
		default:
			h = w / ratio
		}
	}

	x, y := b.X, b.Y
	if s.handle.movesLeft() {
		x = b.MaxX() - w
	}
	if s.handle.movesTop() {
		y = b.MaxY() - h
	}
	sx, sy := 1.0, 1.0
	if b.Width > 0 {
		sx = w / b.Width
	}
	if b.Height > 0 {
		sy = h / b.Height
	}

	for n, base := range s.base {
		n.X = x + (base.x-b.X)*sx
		n.Y = y + (base.y-b.Y)*sy
		n.ScaleX = base.scaleX * sx
		n.ScaleY = base.scaleY * sy
	}
	s.dx, s.dy = x-b.X, y-b.Y
}

func (t *Transformer) rotate(p geom.Point) {
	s := t.session
	c := s.bounds.Center()
	a0 := math.Atan2(s.start.Y-c.Y, s.start.X-c.X)
	a1 := math.Atan2(p.Y-c.Y, p.X-c.X)
	deg := (a1 - a0) * 180 / math.Pi

	for n, base := range s.base {
		pos := geom.RotateAround(geom.Point{X: base.x, Y: base.y}, c, deg)
		n.X, n.Y = pos.X, pos.Y
		n.Rotation = base.rotation + deg
	}
}
