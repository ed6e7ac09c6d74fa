package mindmap

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/logtest"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
)

func mindmapNode(id string, x, y float64, children ...string) document.Element {
	return document.Element{ID: id, Kind: document.KindMindmapNode, X: x, Y: y, Width: 100, Height: 40, ChildIDs: children}
}

func edge(id, from, to string) document.Element {
	return document.Element{ID: id, Kind: document.KindMindmapEdge, FromID: from, ToID: to}
}

type fixture struct {
	store *document.Store
	graph *scene.Graph
	edges *Edges
	logs  *logtest.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := document.NewStoreFromDocument(&document.Document{Elements: []document.Element{
		mindmapNode("root", 0, 0, "a", "b"),
		mindmapNode("a", 200, -60, "c"),
		mindmapNode("b", 200, 60),
		mindmapNode("c", 400, -60),
		edge("e1", "root", "a"),
		edge("e2", "root", "b"),
		edge("e3", "a", "c"),
		{ID: "rect", Kind: document.KindRectangle, Width: 10, Height: 10},
	}})
	require.NoError(t, err)
	graph := scene.NewGraph(nil)
	graph.Build(store.AllElements())
	logger, logs := logtest.NewLogger()
	return &fixture{store: store, graph: graph, edges: NewEdges(store, graph, logger), logs: logs}
}

func TestEdgeAnchors(t *testing.T) {
	parent := document.Element{X: 0, Y: 0, Width: 100, Height: 40}
	tests := []struct {
		name       string
		child      document.Element
		start, end geom.Point
	}{
		{"child on the right", document.Element{X: 200, Y: 100, Width: 50, Height: 20}, geom.Point{X: 100, Y: 20}, geom.Point{X: 200, Y: 110}},
		{"child on the left", document.Element{X: -200, Y: -50, Width: 50, Height: 20}, geom.Point{X: 0, Y: 20}, geom.Point{X: -150, Y: -40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := EdgeAnchors(parent, tt.child)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	path := EdgePath(parent, tests[0].child)
	assert.Equal(t, []geom.Point{{X: 100, Y: 20}, {X: 150, Y: 20}, {X: 150, Y: 110}, {X: 200, Y: 110}}, path)
}

func TestCascadeBaselinePlusDelta(t *testing.T) {
	f := newFixture(t)
	c := NewCascade(f.store, f.graph, f.edges, nil)

	assert.Equal(t, []string{"a", "b", "c"}, c.Begin([]string{"root", "rect"}))
	require.True(t, c.Active())

	require.NoError(t, f.store.UpdateElement("root", document.Patch{X: document.Float(20), Y: document.Float(-10)}, document.UpdateOptions{}))
	c.Progress(5, 5)
	batch := c.Progress(20, -10)
	assert.Len(t, batch, 3)

	for id, want := range map[string]geom.Point{
		"a": {X: 220, Y: -70},
		"b": {X: 220, Y: 50},
		"c": {X: 420, Y: -70},
	} {
		el, ok := f.store.GetElement(id)
		require.True(t, ok)
		assert.Equal(t, want, geom.Point{X: el.X, Y: el.Y}, id)
		n, ok := f.graph.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, want, n.Position(), id)
	}
	assert.Empty(t, f.store.History())

	n, _ := f.graph.Lookup("e1")
	assert.Equal(t, []geom.Point{{X: 120, Y: 10}, {X: 170, Y: 10}, {X: 170, Y: -50}, {X: 220, Y: -50}}, n.Points)
	e1, _ := f.store.GetElement("e1")
	assert.Empty(t, e1.Points)
	assert.Positive(t, f.graph.BatchDraws())

	assert.Equal(t, batch, c.Pending())
	assert.Equal(t, 3, c.End(true, document.UpdateOptions{PushHistory: true}))
	assert.False(t, c.Active())
	assert.Equal(t, []string{"update"}, f.store.History())

	e1, _ = f.store.GetElement("e1")
	assert.Equal(t, n.Points, e1.Points)
	assert.Equal(t, geom.Rect{X: 120, Y: -50, Width: 100, Height: 60}, e1.Bounds())
}

func TestCascadeSkipsSelectedDescendants(t *testing.T) {
	f := newFixture(t)
	c := NewCascade(f.store, f.graph, f.edges, nil)

	assert.Equal(t, []string{"b", "c"}, c.Begin([]string{"root", "a"}))
	assert.Equal(t, []string{"root", "a", "b", "c"}, c.Moved())

	c.Progress(10, 0)
	a, _ := f.store.GetElement("a")
	assert.Equal(t, 200.0, a.X)
}

func TestCascadeEndWithoutStructuralReroute(t *testing.T) {
	f := newFixture(t)
	c := NewCascade(f.store, f.graph, f.edges, nil)
	c.Begin([]string{"root"})
	c.Progress(10, 10)

	assert.Equal(t, 0, c.End(false, document.UpdateOptions{PushHistory: true}))
	assert.Empty(t, f.store.History())
	assert.Nil(t, c.Progress(1, 1))
}

func TestCascadeCancelRedrawsFromModel(t *testing.T) {
	f := newFixture(t)
	c := NewCascade(f.store, f.graph, f.edges, nil)
	before, _ := f.store.GetElement("a")
	c.Begin([]string{"root"})
	c.Progress(30, 30)

	require.NoError(t, f.store.UpdateElement("a", document.PatchFrom(before), document.UpdateOptions{}))
	c.Cancel()

	n, _ := f.graph.Lookup("e1")
	assert.Equal(t, geom.Point{X: 200, Y: -40}, n.Points[3])
	assert.False(t, c.Active())
}

func TestCascadeNonMindmapSelection(t *testing.T) {
	f := newFixture(t)
	c := NewCascade(f.store, f.graph, f.edges, nil)
	assert.Empty(t, c.Begin([]string{"rect", "missing"}))
	assert.False(t, c.Active())
	assert.Equal(t, 0, c.End(true, document.UpdateOptions{}))
}

func TestRefreshSkipsBrokenEdges(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.RemoveElements([]string{"b"}, document.UpdateOptions{}))

	assert.Equal(t, []string{"e1", "e2", "e3"}, f.edges.Touching(nil))
	assert.Equal(t, 2, f.edges.Refresh(nil, document.UpdateOptions{}))
	assert.True(t, f.logs.Has(slog.LevelWarn, "refresh mindmap edge"))

	e3, _ := f.store.GetElement("e3")
	assert.Len(t, e3.Points, 4)
}

func TestRefreshWithoutModel(t *testing.T) {
	logger, logs := logtest.NewLogger()
	e := NewEdges(nil, nil, logger)
	assert.Equal(t, 0, e.Refresh([]string{"root"}, document.UpdateOptions{}))
	assert.Equal(t, 1, logs.Count(slog.LevelWarn))
}

func TestSelectionHandler(t *testing.T) {
	f := newFixture(t)
	h := NewSelectionHandler(f.store, nil)

	assert.True(t, h.HandleSelectionChange([]string{"e1", "e3"}))
	assert.Equal(t, []string{"e1", "e3"}, h.Selected())
	assert.False(t, h.HandleSelectionChange([]string{"e1", "root"}))
	assert.Empty(t, h.Selected())
	assert.False(t, h.HandleSelectionChange(nil))
}
