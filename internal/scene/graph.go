// Package scene is the retained render tree derived from the document model.
// It is a disposable cache: nodes are built from elements, moved by gestures,
// and patched back from the model whenever an element changes.
package scene

import (
	"log/slog"
	"strconv"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

// Graph holds the top-level nodes of a board in paint order.
type Graph struct {
	logger *slog.Logger

	order     []*Node
	nodes     map[string]*Node
	byElement map[string][]*Node

	redraws    int
	batchDraws int
	onRedraw   func()
}

func NewGraph(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		logger:    logger,
		nodes:     make(map[string]*Node),
		byElement: make(map[string][]*Node),
	}
}

// Build discards every node and rebuilds the graph from elements.
func (g *Graph) Build(elements []document.Element) {
	g.order = nil
	g.nodes = make(map[string]*Node)
	g.byElement = make(map[string][]*Node)
	for _, el := range elements {
		g.add(el)
	}
	g.RequestRedraw()
}

// SyncElement patches the node of el from the element data, creating it when
// the element is new. Scale is folded back into the size.
func (g *Graph) SyncElement(el document.Element) *Node {
	n, ok := g.nodes[el.ID]
	if !ok {
		return g.add(el)
	}
	g.dropParts(n)
	applyElement(n, el)
	g.addParts(n, el)
	return n
}

// Remove drops every node of the element.
func (g *Graph) Remove(elementID string) {
	for _, n := range g.byElement[elementID] {
		delete(g.nodes, n.ID)
	}
	delete(g.byElement, elementID)
	for i, n := range g.order {
		if n.ElementID == elementID {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Lookup finds a node by node id.
func (g *Graph) Lookup(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Candidates returns every node representing the element, the element's own
// node first when it exists.
func (g *Graph) Candidates(elementID string) []*Node {
	return append([]*Node(nil), g.byElement[elementID]...)
}

// Nodes returns the top-level nodes in paint order.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.order...)
}

func (g *Graph) Len() int {
	return len(g.order)
}

// Descendants returns the ids of every mindmap node below id, breadth
// first. Cycles are tolerated.
func (g *Graph) Descendants(id string) []string {
	root, ok := g.nodes[id]
	if !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	var out []string
	queue := append([]string(nil), root.ChildIDs...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		n, ok := g.nodes[next]
		if !ok {
			g.logger.Debug("mindmap descendant has no node", "id", next, "root", id)
			continue
		}
		out = append(out, next)
		queue = append(queue, n.ChildIDs...)
	}
	return out
}

// SetSelected updates the highlight flag of every top-level node.
func (g *Graph) SetSelected(ids []string) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for _, n := range g.order {
		n.Selected = set[n.ElementID]
	}
	g.RequestRedraw()
}

// OnRedraw sets a hook called for every redraw request.
func (g *Graph) OnRedraw(fn func()) {
	g.onRedraw = fn
}

// RequestRedraw marks the graph for drawing on the next frame.
func (g *Graph) RequestRedraw() {
	g.redraws++
	if g.onRedraw != nil {
		g.onRedraw()
	}
}

// BatchDraw is a redraw request coalesced by the renderer.
func (g *Graph) BatchDraw() {
	g.batchDraws++
	if g.onRedraw != nil {
		g.onRedraw()
	}
}

func (g *Graph) Redraws() int    { return g.redraws }
func (g *Graph) BatchDraws() int { return g.batchDraws }

func (g *Graph) add(el document.Element) *Node {
	n := newNode(el.ID, el.ID, el.Kind)
	applyElement(n, el)
	g.nodes[n.ID] = n
	g.byElement[el.ID] = []*Node{n}
	g.order = append(g.order, n)
	g.addParts(n, el)
	return n
}

// addParts builds the primitive children of composite elements. Parts live
// in the group's local space and follow its transform.
func (g *Graph) addParts(n *Node, el document.Element) {
	var parts []*Node
	switch el.Kind {
	case document.KindTable:
		parts = append(parts, part(n, "frame", 0, 0, n.Width, n.Height))
		y := 0.0
		for i, h := range el.RowHeights {
			parts = append(parts, part(n, "row/"+strconv.Itoa(i), 0, y, n.Width, h))
			y += h
		}
	case document.KindImage:
		parts = append(parts, part(n, "bitmap", 0, 0, n.Width, n.Height))
	case document.KindMindmapNode:
		parts = append(parts,
			part(n, "shape", 0, 0, n.Width, n.Height),
			part(n, "label", 8, 8, max(n.Width-16, 0), max(n.Height-16, 0)),
		)
	default:
		return
	}
	n.Class = ClassGroup
	n.Composite = true
	for _, p := range parts {
		n.Children = append(n.Children, p)
		g.nodes[p.ID] = p
		g.byElement[el.ID] = append(g.byElement[el.ID], p)
	}
}

func (g *Graph) dropParts(n *Node) {
	for _, c := range n.Children {
		delete(g.nodes, c.ID)
	}
	n.Children = nil
	g.byElement[n.ElementID] = []*Node{n}
}

func part(parent *Node, name string, x, y, w, h float64) *Node {
	p := newNode(parent.ID+"/"+name, parent.ElementID, parent.Kind)
	p.Part = name
	p.X, p.Y, p.Width, p.Height = x, y, w, h
	p.Style = parent.Style
	p.Parent = parent
	if name == "label" {
		p.Text = parent.Text
	}
	return p
}

// applyElement copies element geometry into the node and resets scale.
func applyElement(n *Node, el document.Element) {
	n.X, n.Y = el.X, el.Y
	n.Width, n.Height = el.Width, el.Height
	n.ScaleX, n.ScaleY = 1, 1
	n.Rotation = el.Rotation
	n.SkewX, n.SkewY = el.SkewX, el.SkewY
	n.Style = el.Style
	n.Text = el.Text
	n.ChildIDs = append([]string(nil), el.ChildIDs...)
	n.Points = nil

	origin := geom.Point{X: el.X, Y: el.Y}
	switch el.Kind {
	case document.KindCircle:
		if el.Radius > 0 {
			n.Width, n.Height = 2*el.Radius, 2*el.Radius
		}
	case document.KindConnector:
		n.Start = el.Start.Position().Sub(origin)
		n.End = el.End.Position().Sub(origin)
	case document.KindMindmapEdge:
		n.X, n.Y = 0, 0
		n.Points = append([]geom.Point(nil), el.Points...)
	case document.KindDrawing:
		n.Points = make([]geom.Point, len(el.Points))
		for i, p := range el.Points {
			n.Points[i] = p.Sub(origin)
		}
	}
}
