package scene

import (
	"encoding/json"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

// PathCommand is one Canvas2D path segment: ["M", x, y], ["L", x, y],
// ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []any

// DrawCommand is a single drawing operation for the frontend to execute.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path" or "text"
	ObjectID    string        `json:"objectId,omitempty"`    // element id, for hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f]
	Path        []PathCommand `json:"path,omitempty"`        //
	Fill        string        `json:"fill,omitempty"`        //
	Stroke      string        `json:"stroke,omitempty"`      //
	StrokeWidth float64       `json:"strokeWidth,omitempty"` //
	Opacity     float64       `json:"opacity,omitempty"`     //
	Text        string        `json:"text,omitempty"`        //
	FontSize    float64       `json:"fontSize,omitempty"`    //
	Selected    bool          `json:"selected,omitempty"`    // draw the selection highlight
}

// CompileDrawCommands generates a draw command buffer in painter's order.
func CompileDrawCommands(g *Graph) []DrawCommand {
	var commands []DrawCommand
	for _, n := range g.order {
		compileNode(n, n.Selected, &commands)
	}
	return commands
}

func compileNode(n *Node, selected bool, commands *[]DrawCommand) {
	if n == nil || !n.Visible {
		return
	}
	if path := nodePath(n); len(path) > 0 {
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			ObjectID:    n.ElementID,
			Transform:   transformFor(n),
			Path:        path,
			Fill:        n.Style.Fill,
			Stroke:      n.Style.Stroke,
			StrokeWidth: n.Style.StrokeWidth,
			Opacity:     n.Style.Opacity,
			Selected:    selected,
		})
	}
	if n.Text != "" && (n.Kind == document.KindText || n.Part == "label") {
		*commands = append(*commands, DrawCommand{
			Op:        "text",
			ObjectID:  n.ElementID,
			Transform: transformFor(n),
			Text:      n.Text,
			Fill:      n.Style.Fill,
			FontSize:  n.Style.FontSize,
			Opacity:   n.Style.Opacity,
			Selected:  selected,
		})
	}
	for _, c := range n.Children {
		compileNode(c, selected, commands)
	}
}

func transformFor(n *Node) []float64 {
	if n.Kind == document.KindMindmapEdge {
		return geom.Identity().ToSlice()
	}
	return n.WorldTransform().ToSlice()
}

// nodePath returns the node's outline in local coordinates. Groups draw only
// through their parts.
func nodePath(n *Node) []PathCommand {
	if n.Class == ClassGroup {
		return nil
	}
	w, h := n.Width, n.Height
	switch n.Kind {
	case document.KindCircle, document.KindEllipse:
		return ellipsePath(w/2, h/2)
	case document.KindTriangle:
		return []PathCommand{{"M", w / 2, 0.0}, {"L", w, h}, {"L", 0.0, h}, {"Z"}}
	case document.KindConnector:
		return polylinePath([]geom.Point{n.Start, n.End})
	case document.KindDrawing, document.KindMindmapEdge:
		return polylinePath(n.Points)
	case document.KindText:
		return nil
	}
	return rectPath(w, h)
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

// ellipsePath approximates an ellipse inscribed in (0, 0, 2rx, 2ry) with four
// cubic beziers.
func ellipsePath(rx, ry float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3
	k := 0.5522847498
	kx, ky := rx*k, ry*k
	cx, cy := rx, ry
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

func polylinePath(pts []geom.Point) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(pts))
	path = append(path, PathCommand{"M", pts[0].X, pts[0].Y})
	for _, p := range pts[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	return path
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// lineHitTolerance is how far from a connector or edge a point still hits it.
const lineHitTolerance = 6.0

// HitTest returns the element id of the topmost node under (x, y), or "".
func (g *Graph) HitTest(x, y float64) string {
	p := geom.Point{X: x, Y: y}
	for i := len(g.order) - 1; i >= 0; i-- {
		n := g.order[i]
		if !n.Visible {
			continue
		}
		if hitNode(n, p) {
			return n.ElementID
		}
	}
	return ""
}

func hitNode(n *Node, p geom.Point) bool {
	switch n.Kind {
	case document.KindConnector, document.KindDrawing, document.KindMindmapEdge:
		var pts []geom.Point
		if n.Kind == document.KindConnector {
			m := n.WorldTransform()
			pts = []geom.Point{m.TransformPoint(n.Start), m.TransformPoint(n.End)}
		} else {
			pts = n.WorldPoints()
		}
		tol := max(lineHitTolerance, n.Style.StrokeWidth/2)
		for i := 0; i+1 < len(pts); i++ {
			if geom.DistSqToSegment(p, pts[i], pts[i+1]) <= tol*tol {
				return true
			}
		}
		return len(pts) == 1 && geom.DistSq(p, pts[0]) <= tol*tol
	}
	inv := n.WorldTransform().Invert()
	local := inv.TransformPoint(p)
	return geom.Rect{Width: n.Width, Height: n.Height}.Contains(local)
}

// SelectionBounds returns the union of the client rects of the elements.
// Unknown ids are skipped.
func (g *Graph) SelectionBounds(ids []string) geom.Rect {
	var out geom.Rect
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		out = out.Union(n.ClientRect())
	}
	return out
}
