package engine

import (
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/logtest"
	"github.com/mtmitchel/LONewDesign-sub007/internal/transform"
)

func board() *document.Document {
	mm := func(id string, x, y float64, children ...string) document.Element {
		return document.Element{ID: id, Kind: document.KindMindmapNode, X: x, Y: y, Width: 100, Height: 40, ChildIDs: children}
	}
	return &document.Document{Elements: []document.Element{
		{ID: "rect", Kind: document.KindRectangle, Width: 100, Height: 50},
		mm("root", 300, 0, "c1", "c2"),
		mm("c1", 500, -60),
		mm("c2", 500, 60),
		{ID: "e1", Kind: document.KindMindmapEdge, FromID: "root", ToID: "c1"},
		{ID: "e2", Kind: document.KindMindmapEdge, FromID: "root", ToID: "c2"},
		{ID: "circle", Kind: document.KindCircle, Y: 200, Width: 50, Height: 50, Radius: 25},
		{
			ID: "link", Kind: document.KindConnector, X: 100, Y: 25, Width: 150,
			Start: &document.Endpoint{Kind: document.EndpointElement, ElementID: "rect", Side: geom.SideRight, X: 100, Y: 25},
			End:   document.PointEndpoint(geom.Point{X: 250, Y: 25}),
		},
		{
			ID: "free", Kind: document.KindConnector, Y: 400, Width: 100,
			Start: document.PointEndpoint(geom.Point{X: 0, Y: 400}),
			End:   document.PointEndpoint(geom.Point{X: 100, Y: 400}),
		},
		{
			ID: "ink", Kind: document.KindDrawing, X: 20, Y: 10, Width: 40,
			Points: []geom.Point{{X: 20, Y: 10}, {X: 60, Y: 10}},
			Style:  document.Style{Stroke: "#000000", StrokeWidth: 2},
		},
	}}
}

type harness struct {
	*Engine
	clock *clockwork.FakeClock
	logs  *logtest.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	logger, logs := logtest.NewLogger()
	e := New(WithClock(clock), WithLogger(logger))
	t.Cleanup(e.Close)

	data, err := board().Marshal()
	require.NoError(t, err)
	require.NoError(t, e.LoadDocument(data))
	return &harness{Engine: e, clock: clock, logs: logs}
}

func (h *harness) element(t *testing.T, id string) document.Element {
	t.Helper()
	el, ok := h.Element(id)
	require.True(t, ok, "element %s", id)
	return el
}

func (h *harness) position(t *testing.T, id string) geom.Point {
	el := h.element(t, id)
	return geom.Point{X: el.X, Y: el.Y}
}

// selectAndAttach selects ids and lets the attach delay run out.
func (h *harness) selectAndAttach(ids ...string) {
	h.SetSelection(ids)
	h.clock.Advance(75 * time.Millisecond)
	h.Tick()
}

func TestLoadRoutesMindmapEdges(t *testing.T) {
	h := newHarness(t)
	e1 := h.element(t, "e1")
	assert.Equal(t, []geom.Point{{X: 400, Y: 20}, {X: 450, Y: 20}, {X: 450, Y: -40}, {X: 500, Y: -40}}, e1.Points)
	assert.Empty(t, h.History())
	assert.Equal(t, 10, h.Graph().Len())

	assert.Error(t, h.LoadDocument([]byte("{")))
}

func TestDragMovesSelectionAndDescendants(t *testing.T) {
	h := newHarness(t)
	h.selectAndAttach("rect", "root")
	require.Equal(t, []string{"rect", "root"}, h.Transformer().IDs())

	require.True(t, h.DragStart("rect", 10, 10))
	h.DragMove(30, 0)

	assert.Equal(t, transform.PhaseActive, h.Phase())
	assert.Empty(t, h.History())
	assert.Equal(t, geom.Point{X: 520, Y: -70}, h.position(t, "c1"))
	assert.Equal(t, geom.Point{X: 100, Y: 25}, h.element(t, "link").Start.Position())

	h.clock.Advance(16 * time.Millisecond)
	h.Tick()
	assert.Equal(t, geom.Point{X: 120, Y: 15}, h.element(t, "link").Start.Position())

	h.DragEnd()

	assert.Equal(t, transform.PhaseIdle, h.Phase())
	assert.Equal(t, []string{"move"}, h.History())
	assert.Equal(t, geom.Rect{X: 20, Y: -10, Width: 100, Height: 50}, h.element(t, "rect").Bounds())
	assert.Equal(t, geom.Point{X: 320, Y: -10}, h.position(t, "root"))
	assert.Equal(t, geom.Point{X: 520, Y: -70}, h.position(t, "c1"))
	assert.Equal(t, geom.Point{X: 520, Y: 50}, h.position(t, "c2"))
	assert.Equal(t, geom.Point{X: 120, Y: 15}, h.element(t, "link").Start.Position())
	assert.Equal(t, geom.Point{X: 420, Y: 10}, h.element(t, "e1").Points[0])

	n, ok := h.Graph().Lookup("rect")
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 20, Y: -10}, n.Position())

	label, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "move", label)
	assert.Equal(t, geom.Rect{Width: 100, Height: 50}, h.element(t, "rect").Bounds())
	assert.Equal(t, geom.Point{X: 500, Y: -60}, h.position(t, "c1"))
	assert.Equal(t, geom.Point{X: 100, Y: 25}, h.element(t, "link").Start.Position())
	assert.Equal(t, geom.Point{X: 400, Y: 20}, h.element(t, "e1").Points[0])
	assert.Empty(t, h.History())
}

func TestCancelledDragLeavesModelUntouched(t *testing.T) {
	h := newHarness(t)
	before := h.Document()
	h.selectAndAttach("rect", "root")

	require.True(t, h.DragStart("rect", 0, 0))
	h.DragMove(40, 40)
	h.clock.Advance(16 * time.Millisecond)
	h.Tick()
	h.CancelGesture()

	assert.Equal(t, transform.PhaseIdle, h.Phase())
	assert.Empty(t, h.History())
	assert.Equal(t, before.Elements, h.Document().Elements)

	for id, want := range map[string]geom.Point{"rect": {}, "root": {X: 300}, "c1": {X: 500, Y: -60}} {
		n, ok := h.Graph().Lookup(id)
		require.True(t, ok)
		assert.Equal(t, want, n.Position(), id)
	}
}

func TestClickWithoutMoveRecordsNothing(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.DragStart("rect", 5, 5))
	h.DragEnd()

	assert.Equal(t, []string{"rect"}, h.Selection())
	assert.Empty(t, h.History())
	assert.Equal(t, transform.PhaseIdle, h.Phase())
}

func TestHandleResize(t *testing.T) {
	h := newHarness(t)
	h.selectAndAttach("rect")
	require.False(t, h.Transformer().KeepRatio())

	require.True(t, h.HandleStart("bottom-right", 100, 50))
	h.HandleMove(150, 100)
	h.HandleMove(150, 100)

	n, _ := h.Graph().Lookup("rect")
	assert.InDelta(t, 1.5, n.ScaleX, 1e-9)
	assert.InDelta(t, 150, h.element(t, "rect").Width, 1e-9)
	assert.Empty(t, h.History())

	h.HandleEnd()
	assert.Equal(t, []string{"resize"}, h.History())
	rect := h.element(t, "rect")
	assert.InDelta(t, 150, rect.Width, 1e-9)
	assert.InDelta(t, 100, rect.Height, 1e-9)
	assert.Equal(t, 1.0, n.ScaleX)
	assert.InDelta(t, 150, n.Width, 1e-9)

	link := h.element(t, "link")
	assert.InDelta(t, 150, link.Start.X, 1e-9)
	assert.InDelta(t, 50, link.Start.Y, 1e-9)
}

func TestSecondGestureIsRejected(t *testing.T) {
	h := newHarness(t)
	h.selectAndAttach("rect")
	require.True(t, h.DragStart("rect", 0, 0))
	h.DragMove(5, 5)

	assert.False(t, h.HandleStart("right", 100, 25))
	assert.True(t, h.logs.Has(slog.LevelWarn, "gesture already in progress, ignoring handle"))
	_, err := h.DragConnectorEndpoint("free", "end", 0, 0, false)
	assert.ErrorIs(t, err, ErrGestureActive)

	h.DragEnd()
	assert.Equal(t, geom.Point{X: 5, Y: 5}, h.position(t, "rect"))
}

func TestAspectLockFollowsSelection(t *testing.T) {
	h := newHarness(t)
	h.selectAndAttach("circle")
	assert.True(t, h.Transformer().KeepRatio())
	assert.Positive(t, h.Transformer().ForceShows())

	h.selectAndAttach("rect", "root")
	assert.False(t, h.Transformer().KeepRatio())
}

func TestSelectionRouting(t *testing.T) {
	h := newHarness(t)

	assert.True(t, h.HandleSelectionChange([]string{"link", "free"}))
	assert.False(t, h.Manager().Pending())
	assert.True(t, h.HandleSelectionChange([]string{"e1"}))
	assert.False(t, h.Manager().Pending())

	assert.False(t, h.HandleSelectionChange([]string{"rect", "link"}))
	assert.True(t, h.Manager().Pending())
	h.clock.Advance(75 * time.Millisecond)
	h.Tick()
	assert.Equal(t, []string{"rect"}, h.Transformer().IDs())

	assert.False(t, h.HandleSelectionChange(nil))
	assert.False(t, h.Transformer().Visible())

	assert.NotPanics(t, func() {
		h.Manager().Detach()
		h.Manager().Detach()
	})
}

func TestEraser(t *testing.T) {
	h := newHarness(t)

	assert.Empty(t, h.EraseAt(0, 0, 10))
	assert.Equal(t, []string{"ink"}, h.EraseAt(30, 10, 5))
	_, ok := h.Element("ink")
	assert.False(t, ok)
	assert.Equal(t, []string{"erase"}, h.History())
	assert.Empty(t, h.EraseInRect(geom.Rect{Width: 100, Height: 100}))

	h.Undo()
	assert.Equal(t, []string{"ink"}, h.EraseInRect(geom.Rect{X: 40, Y: 0, Width: 5, Height: 20}))
}

func TestDragFreeConnector(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.DragStart("free", 0, 400))
	assert.Equal(t, []string{"free"}, h.Selection())
	assert.False(t, h.Transformer().Visible())

	h.DragMove(10, 410)
	h.DragEnd()

	free := h.element(t, "free")
	assert.Equal(t, geom.Point{X: 10, Y: 410}, free.Start.Position())
	assert.Equal(t, geom.Point{X: 110, Y: 410}, free.End.Position())
	assert.Equal(t, []string{"move"}, h.History())
}

func TestDragConnectorEndpoint(t *testing.T) {
	h := newHarness(t)

	ep, err := h.DragConnectorEndpoint("free", "end", 98, 27, false)
	require.NoError(t, err)
	assert.True(t, ep.IsAttached())
	assert.Empty(t, h.History())

	ep, err = h.DragConnectorEndpoint("free", "end", 98, 27, true)
	require.NoError(t, err)
	assert.Equal(t, "rect", ep.ElementID)
	assert.Equal(t, geom.SideRight, ep.Side)
	assert.Equal(t, []string{"connect"}, h.History())
	assert.Equal(t, transform.PhaseIdle, h.Phase())

	h.Undo()
	free := h.element(t, "free")
	assert.False(t, free.End.IsAttached())
	assert.Equal(t, geom.Point{X: 100, Y: 400}, free.End.Position())

	_, err = h.DragConnectorEndpoint("free", "middle", 0, 0, false)
	assert.Error(t, err)
}

func TestQueries(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, []string{"rect", "ink"}, h.ElementsInRect(geom.Rect{Width: 30, Height: 30}))
	assert.Empty(t, h.ElementsInRect(geom.Rect{X: -900, Y: -900, Width: 10, Height: 10}))

	assert.Equal(t, "rect", h.HitTest(50, 40))
	assert.Equal(t, "root", h.HitTest(350, 20))
	assert.Equal(t, "", h.HitTest(-500, -500))

	hit, ok := h.SnapEndpoint(103, 24, "")
	require.True(t, ok)
	assert.Equal(t, "rect", hit.ElementID)
	_, ok = h.SnapEndpoint(103, 24, "rect")
	assert.False(t, ok)

	h.SetSelection([]string{"rect", "circle"})
	assert.Equal(t, geom.Rect{Width: 100, Height: 250}, h.SelectionBounds())
	assert.Contains(t, h.Render(), `"objectId":"rect"`)
	assert.Contains(t, h.Render(), `"selected":true`)
}

func TestSampleDocument(t *testing.T) {
	h := newHarness(t)
	h.LoadSampleDocument()

	doc := h.Document()
	assert.Equal(t, len(doc.Elements), h.Graph().Len())
	for _, el := range doc.Elements {
		if el.Kind == document.KindMindmapEdge {
			assert.Len(t, el.Points, 4, el.ID)
		}
	}
	assert.Empty(t, h.History())
}

func TestSelectionChangeDuringDragWaitsForCommit(t *testing.T) {
	h := newHarness(t)
	h.selectAndAttach("rect")

	require.True(t, h.DragStart("rect", 0, 0))
	h.DragMove(10, 10)
	snap := h.Engine.state.Snapshot()
	require.NotNil(t, snap)

	h.SetSelection([]string{"rect", "circle"})
	h.clock.Advance(80 * time.Millisecond)
	h.Tick()

	assert.Equal(t, transform.PhaseActive, h.Phase())
	assert.True(t, h.Transformer().Active())
	assert.Same(t, snap, h.Engine.state.Snapshot())
	assert.Equal(t, []string{"rect"}, h.Transformer().IDs())
	n, _ := h.Graph().Lookup("rect")
	assert.Equal(t, geom.Point{X: 10, Y: 10}, n.Position())

	h.DragMove(20, 20)
	assert.Same(t, snap, h.Engine.state.Snapshot())
	h.DragEnd()

	assert.Equal(t, []string{"move"}, h.History())
	assert.Equal(t, geom.Point{X: 20, Y: 20}, h.position(t, "rect"))
	assert.Equal(t, geom.Point{Y: 200}, h.position(t, "circle"))

	h.clock.Advance(50 * time.Millisecond)
	h.Tick()
	assert.Equal(t, []string{"rect", "circle"}, h.Transformer().IDs())
}
