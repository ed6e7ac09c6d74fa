package transform

import (
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/logtest"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
	"github.com/mtmitchel/LONewDesign-sub007/internal/schedule"
)

type recordingFollowUp struct {
	connectors [][]string
	nodes      [][]string
}

func (r *recordingFollowUp) RerouteConnectors(ids []string)   { r.connectors = append(r.connectors, ids) }
func (r *recordingFollowUp) RefreshMindmapEdges(ids []string) { r.nodes = append(r.nodes, ids) }

type fixture struct {
	store       *document.Store
	graph       *scene.Graph
	clock       *clockwork.FakeClock
	sched       *schedule.Scheduler
	logger      *slog.Logger
	logs        *logtest.Handler
	state       *StateManager
	resolver    *Resolver
	transformer *Transformer
	manager     *SelectionManager
	sync        *Synchronizer
	follow      *recordingFollowUp
}

func newFixture(t *testing.T, elements ...document.Element) *fixture {
	t.Helper()
	store, err := document.NewStoreFromDocument(&document.Document{Elements: elements})
	require.NoError(t, err)

	f := &fixture{store: store, clock: clockwork.NewFakeClock(), follow: &recordingFollowUp{}}
	f.logger, f.logs = logtest.NewLogger()
	f.graph = scene.NewGraph(f.logger)
	f.graph.Build(store.AllElements())
	f.sched = schedule.New(f.clock, f.logger)
	f.state = NewStateManager(store, f.clock, f.logger)
	f.resolver = NewResolver(f.graph, f.logger)
	f.transformer = NewTransformer(f.logger)
	f.manager = NewSelectionManager(f.resolver, f.transformer, f.state, f.sched, f.logger)
	f.sync = NewSynchronizer(store, f.sched, f.follow, f.logger)
	return f
}

func (f *fixture) node(t *testing.T, id string) *scene.Node {
	t.Helper()
	n, ok := f.graph.Lookup(id)
	require.True(t, ok, "node %s", id)
	return n
}

func (f *fixture) element(t *testing.T, id string) document.Element {
	t.Helper()
	el, ok := f.store.GetElement(id)
	require.True(t, ok, "element %s", id)
	return el
}

func rect(id string, x, y, w, h float64) document.Element {
	return document.Element{ID: id, Kind: document.KindRectangle, X: x, Y: y, Width: w, Height: h}
}

func circle(id string, x, y, r float64) document.Element {
	return document.Element{ID: id, Kind: document.KindCircle, X: x, Y: y, Width: 2 * r, Height: 2 * r, Radius: r}
}

func freeConnector(id string, a, b geom.Point) document.Element {
	bounds := geom.RectFromPoints(a, b)
	return document.Element{
		ID: id, Kind: document.KindConnector,
		X: bounds.X, Y: bounds.Y, Width: bounds.Width, Height: bounds.Height,
		Start: document.PointEndpoint(a), End: document.PointEndpoint(b),
	}
}
