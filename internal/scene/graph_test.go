package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

func testElements() []document.Element {
	return []document.Element{
		{ID: "rect", Kind: document.KindRectangle, X: 0, Y: 0, Width: 100, Height: 50},
		{ID: "table", Kind: document.KindTable, X: 200, Y: 0, Width: 120, Height: 60,
			ColWidths: []float64{60, 60}, RowHeights: []float64{30, 30}},
		{ID: "root", Kind: document.KindMindmapNode, X: 0, Y: 200, Width: 80, Height: 40, ChildIDs: []string{"a", "b"}},
		{ID: "a", Kind: document.KindMindmapNode, X: 150, Y: 150, Width: 80, Height: 40, ChildIDs: []string{"a1"}},
		{ID: "b", Kind: document.KindMindmapNode, X: 150, Y: 250, Width: 80, Height: 40, ChildIDs: []string{"root"}},
		{ID: "a1", Kind: document.KindMindmapNode, X: 300, Y: 150, Width: 80, Height: 40},
		{ID: "conn", Kind: document.KindConnector, X: 10, Y: 300, Width: 90, Height: 20,
			Start: document.PointEndpoint(geom.Point{X: 10, Y: 300}),
			End:   document.PointEndpoint(geom.Point{X: 100, Y: 320})},
		{ID: "draw", Kind: document.KindDrawing, X: 400, Y: 400, Width: 20, Height: 10,
			Points: []geom.Point{{X: 400, Y: 400}, {X: 420, Y: 410}}},
	}
}

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph(nil)
	g.Build(testElements())
	require.Equal(t, 8, g.Len())
	return g
}

func TestBuildComposites(t *testing.T) {
	g := newTestGraph(t)

	table, ok := g.Lookup("table")
	require.True(t, ok)
	assert.Equal(t, ClassGroup, table.Class)
	assert.True(t, table.Composite)
	assert.Len(t, table.Children, 3)

	candidates := g.Candidates("table")
	require.Len(t, candidates, 4)
	assert.Equal(t, "table", candidates[0].ID)
	for _, c := range candidates[1:] {
		assert.Equal(t, document.KindTable, c.Kind)
		assert.False(t, c.IsRoot())
		assert.NotEmpty(t, c.Part)
	}

	rect, _ := g.Lookup("rect")
	assert.Equal(t, ClassShape, rect.Class)
	assert.Empty(t, rect.Children)
}

func TestPartsFollowGroupTransform(t *testing.T) {
	g := newTestGraph(t)
	table, _ := g.Lookup("table")
	table.Move(10, 5)
	table.SetScale(2, 1)

	frame, ok := g.Lookup("table/frame")
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X: 210, Y: 5, Width: 240, Height: 60}, frame.ClientRect())
}

func TestDescendants(t *testing.T) {
	g := newTestGraph(t)
	assert.Equal(t, []string{"a", "b", "a1"}, g.Descendants("root"))
	assert.Equal(t, []string{"a1"}, g.Descendants("a"))
	assert.Nil(t, g.Descendants("missing"))
}

func TestSyncElementResetsScale(t *testing.T) {
	g := newTestGraph(t)
	n, _ := g.Lookup("rect")
	n.SetScale(2, 3)

	g.SyncElement(document.Element{ID: "rect", Kind: document.KindRectangle, X: 5, Y: 6, Width: 200, Height: 150})
	assert.Equal(t, 1.0, n.ScaleX)
	assert.Equal(t, geom.Rect{X: 5, Y: 6, Width: 200, Height: 150}, n.ClientRect())

	g.SyncElement(document.Element{ID: "new", Kind: document.KindImage, Width: 10, Height: 10})
	assert.Equal(t, 9, g.Len())
	assert.Len(t, g.Candidates("new"), 2)

	g.Remove("new")
	assert.Equal(t, 8, g.Len())
	_, ok := g.Lookup("new/bitmap")
	assert.False(t, ok)
}

func TestClientRectRotated(t *testing.T) {
	n := newNode("n", "n", document.KindRectangle)
	n.Width, n.Height = 10, 10
	n.Rotation = 90
	r := n.ClientRect()
	assert.InDelta(t, -10, r.X, 1e-9)
	assert.InDelta(t, 0, r.Y, 1e-9)
	assert.InDelta(t, 10, r.Width, 1e-9)
}

func TestConnectorAndDrawingLocalPoints(t *testing.T) {
	g := newTestGraph(t)
	conn, _ := g.Lookup("conn")
	assert.Equal(t, geom.Point{}, conn.Start)
	assert.Equal(t, geom.Point{X: 90, Y: 20}, conn.End)
	assert.Equal(t, geom.Rect{X: 10, Y: 300, Width: 90, Height: 20}, conn.ClientRect())

	draw, _ := g.Lookup("draw")
	draw.Move(5, 5)
	assert.Equal(t, []geom.Point{{X: 405, Y: 405}, {X: 425, Y: 415}}, draw.WorldPoints())
}

func TestHitTest(t *testing.T) {
	g := newTestGraph(t)
	assert.Equal(t, "rect", g.HitTest(50, 25))
	assert.Equal(t, "table", g.HitTest(210, 10))
	assert.Equal(t, "conn", g.HitTest(55, 312))
	assert.Equal(t, "", g.HitTest(-50, -50))
}

func TestSelectionBounds(t *testing.T) {
	g := newTestGraph(t)
	b := g.SelectionBounds([]string{"rect", "table", "missing"})
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 320, Height: 60}, b)
}

func TestDragListeners(t *testing.T) {
	n := newNode("n", "n", document.KindRectangle)
	var got []string
	h1 := n.OnDrag(EventDragMove, func(*Node) { got = append(got, "one") })
	n.OnDrag(EventDragMove, func(*Node) { got = append(got, "two") })

	n.Emit(EventDragMove)
	h1.Remove()
	h1.Remove()
	n.Emit(EventDragMove)
	n.Emit(EventDragEnd)

	assert.Equal(t, []string{"one", "two", "two"}, got)
	assert.Equal(t, 1, n.ListenerCount(EventDragMove))
	assert.Equal(t, "dragcancel", EventDragCancel.String())
}

func TestCompileDrawCommands(t *testing.T) {
	g := newTestGraph(t)
	g.SetSelected([]string{"rect"})

	cmds := CompileDrawCommands(g)
	require.NotEmpty(t, cmds)
	assert.Equal(t, "rect", cmds[0].ObjectID)
	assert.True(t, cmds[0].Selected)
	assert.Len(t, cmds[0].Path, 5)

	for _, c := range cmds {
		if c.ObjectID == "table" {
			assert.False(t, c.Selected)
		}
	}

	out, err := DrawCommandsToJSON(cmds)
	require.NoError(t, err)
	assert.Contains(t, out, `"objectId":"rect"`)
}

func TestRedrawCounters(t *testing.T) {
	g := NewGraph(nil)
	hooks := 0
	g.OnRedraw(func() { hooks++ })
	g.RequestRedraw()
	g.BatchDraw()
	g.BatchDraw()
	assert.Equal(t, 1, g.Redraws())
	assert.Equal(t, 2, g.BatchDraws())
	assert.Equal(t, 3, hooks)
}
