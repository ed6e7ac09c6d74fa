// Package engine wires the board document, its scene graph, the spatial
// indexes and every selection and gesture manager into one object driven by
// pointer input and animation frames.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/mtmitchel/LONewDesign-sub007/internal/config"
	"github.com/mtmitchel/LONewDesign-sub007/internal/connector"
	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/mindmap"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
	"github.com/mtmitchel/LONewDesign-sub007/internal/schedule"
	"github.com/mtmitchel/LONewDesign-sub007/internal/spatial"
	"github.com/mtmitchel/LONewDesign-sub007/internal/transform"
)

var ErrGestureActive = errors.New("another gesture is in progress")

// followUp routes the synchronizer's deferred passes to the connector router
// and the mindmap edges.
type followUp struct {
	*connector.Router
	*mindmap.Edges
}

// Engine owns the board state and processes commands from the host.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  clockwork.Clock

	store *document.Store
	graph *scene.Graph
	sched *schedule.Scheduler

	bounds  *spatial.Quadtree[string]
	strokes *spatial.SegmentIndex

	state       *transform.StateManager
	resolver    *transform.Resolver
	transformer *transform.Transformer
	manager     *transform.SelectionManager
	sync        *transform.Synchronizer

	router     *connector.Router
	mover      *connector.Mover
	endpoints  *connector.EndpointEditor
	connectors *connector.SelectionHandler

	edges    *mindmap.Edges
	cascade  *mindmap.Cascade
	mindmaps *mindmap.SelectionHandler

	gesture    gesture
	progressed bool
	drag       *pointerDrag
	loading    bool
	cancel     []func()
}

type Option func(*Engine)

// WithConfig replaces config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock drives every scheduled task from clock. Tests pass a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithStore uses an existing store as the document model.
func WithStore(store *document.Store) Option {
	return func(e *Engine) { e.store = store }
}

// New creates an engine. Every manager receives its collaborators here.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg == nil {
		e.cfg = config.Default()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.store == nil {
		e.store = document.NewStore()
	}

	e.graph = scene.NewGraph(e.logger)
	e.sched = schedule.New(e.clock, e.logger)

	half := e.cfg.WorldSize / 2
	e.bounds = spatial.NewQuadtree[string](geom.Rect{X: -half, Y: -half, Width: e.cfg.WorldSize, Height: e.cfg.WorldSize},
		e.cfg.QuadCapacity, e.cfg.QuadMaxDepth)
	e.strokes = spatial.NewSegmentIndex(e.cfg.GridCellSize)
	mode, err := e.cfg.RectMode()
	if err != nil {
		e.logger.Warn("eraser rect mode, using bounds", "error", err)
	}
	e.strokes.SetRectMode(mode)

	e.state = transform.NewStateManager(e.store, e.clock, e.logger)
	e.resolver = transform.NewResolver(e.graph, e.logger)
	e.transformer = transform.NewTransformer(e.logger)
	e.transformer.SetBoundsFunc(func(nodes []*scene.Node) geom.Rect {
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ElementID
		}
		return e.graph.SelectionBounds(ids)
	})
	e.transformer.SetCallbacks(transform.Callbacks{
		Begin:    e.onGestureBegin,
		Progress: e.onGestureProgress,
		End:      e.onGestureEnd,
	})
	e.manager = transform.NewSelectionManager(e.resolver, e.transformer, e.state, e.sched, e.logger)
	e.manager.AttachDelay = e.cfg.AttachDelay
	e.manager.RefreshDelay = e.cfg.RefreshDelay

	e.router = connector.NewRouter(e.store, e.sched, e.logger)
	e.router.LiveDelay = e.cfg.LiveRouteDelay
	e.mover = connector.NewMover(e.store, e.logger)
	e.endpoints = connector.NewEndpointEditor(e.store, e.logger)
	e.endpoints.Snap = connector.SnapOptions{Threshold: e.cfg.SnapThreshold, IncludeCenter: e.cfg.SnapToCenter}
	e.connectors = connector.NewSelectionHandler(e.store, e.logger)

	e.edges = mindmap.NewEdges(e.store, e.graph, e.logger)
	e.cascade = mindmap.NewCascade(e.store, e.graph, e.edges, e.logger)
	e.mindmaps = mindmap.NewSelectionHandler(e.store, e.logger)

	e.sync = transform.NewSynchronizer(e.store, e.sched, followUp{Router: e.router, Edges: e.edges}, e.logger)

	e.cancel = append(e.cancel,
		e.store.SubscribeChanges(e.onChanges),
		e.store.SubscribeSelection(func(ids []string) { e.HandleSelectionChange(ids) }),
	)
	e.rebuild()
	return e
}

// Close drops the model subscriptions and every pending task.
func (e *Engine) Close() {
	for _, fn := range e.cancel {
		fn()
	}
	e.cancel = nil
	e.sched.CancelAll()
}

// --- Commands (host → engine) ---

// LoadDocument replaces the board with a JSON document.
func (e *Engine) LoadDocument(data []byte) error {
	doc, err := document.Parse(data)
	if err != nil {
		return err
	}
	return e.load(doc)
}

// LoadSampleDocument loads the built-in demo board.
func (e *Engine) LoadSampleDocument() {
	if err := e.load(document.NewSampleDocument()); err != nil {
		e.logger.Error("load sample document", "error", err)
	}
}

func (e *Engine) load(doc *document.Document) error {
	e.CancelGesture()
	e.manager.Detach()
	e.router.CancelPending()

	e.loading = true
	err := e.store.Load(doc)
	e.loading = false
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	e.rebuild()
	e.edges.Refresh(nil, document.UpdateOptions{})
	e.logger.Info("document loaded", "elements", e.graph.Len())
	return nil
}

// rebuild discards the scene graph and both spatial indexes and rebuilds
// them from the model.
func (e *Engine) rebuild() {
	elements := e.store.AllElements()
	e.graph.Build(elements)
	e.graph.SetSelected(e.store.Selection())
	e.bounds.Clear()
	e.strokes.Clear()
	for _, el := range elements {
		e.index(el)
	}
}

// SetSelection replaces the selection. Listeners run synchronously.
func (e *Engine) SetSelection(ids []string) {
	e.store.SetSelection(ids)
}

// HandleSelectionChange routes a new selection: connector-only and
// edge-only selections are claimed by their handlers, anything else gets
// the transformer after the attach delay. It reports whether a handler
// claimed the selection.
func (e *Engine) HandleSelectionChange(ids []string) bool {
	e.graph.SetSelected(ids)
	e.graph.RequestRedraw()
	if len(ids) == 0 {
		e.manager.Detach()
		return false
	}
	if e.connectors.HandleSelectionChange(ids) || e.mindmaps.HandleSelectionChange(ids) {
		e.manager.Detach()
		return true
	}
	e.manager.ScheduleAttach(ids, 0)
	return false
}

// Tick runs due timers and queued frame tasks, then returns draw commands.
// The host calls it once per animation frame.
func (e *Engine) Tick() string {
	e.sched.Frame()
	return e.Render()
}

// Undo reverts the last undo step. A running gesture is cancelled first.
func (e *Engine) Undo() (string, bool) {
	e.CancelGesture()
	label, ok := e.store.Undo()
	if ok {
		e.manager.Refresh(e.store.Selection(), 0)
	}
	return label, ok
}

// --- Queries (host ← engine) ---

// Render compiles the scene graph into draw commands as JSON.
func (e *Engine) Render() string {
	result, err := scene.DrawCommandsToJSON(scene.CompileDrawCommands(e.graph))
	if err != nil {
		e.logger.Error("encode draw commands", "error", err)
		return "[]"
	}
	return result
}

// HitTest returns the element id of the topmost node at (x, y), or "".
func (e *Engine) HitTest(x, y float64) string {
	return e.graph.HitTest(x, y)
}

// SelectionBounds returns the canvas box of the current selection.
func (e *Engine) SelectionBounds() geom.Rect {
	sel := e.store.Selection()
	if len(sel) == 0 {
		return geom.Rect{}
	}
	return e.graph.SelectionBounds(sel)
}

// Document returns a copy of the board.
func (e *Engine) Document() *document.Document {
	return e.store.Snapshot()
}

func (e *Engine) Selection() []string {
	return e.store.Selection()
}

func (e *Engine) Element(id string) (document.Element, bool) {
	return e.store.GetElement(id)
}

func (e *Engine) History() []string {
	return e.store.History()
}

// Transformer exposes the resize widget state.
func (e *Engine) Transformer() *transform.Transformer {
	return e.transformer
}

// Manager exposes the transformer selection manager.
func (e *Engine) Manager() *transform.SelectionManager {
	return e.manager
}

// Phase is the phase of the running gesture.
func (e *Engine) Phase() transform.Phase {
	return e.state.Phase()
}

// Graph exposes the scene graph to renderers.
func (e *Engine) Graph() *scene.Graph {
	return e.graph
}
