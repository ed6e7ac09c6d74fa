package transform

import (
	"log/slog"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
	"github.com/mtmitchel/LONewDesign-sub007/internal/schedule"
)

const taskFollowUp = "sync.followup"

// FollowUp receives the deferred passes a synchronized batch needs.
type FollowUp interface {
	RerouteConnectors(ids []string)
	RefreshMindmapEdges(ids []string)
}

type SyncOptions struct {
	PushHistory bool
	// Sequential writes one update per element instead of a single batch.
	Sequential bool
	// Delta marks a pure translation; drawings move their baseline points by
	// it instead of remapping live points.
	Delta *geom.Point
	// Snapshot supplies pre-gesture element data.
	Snapshot *Snapshot
	// Normalize folds node scale back into node size after the write.
	Normalize bool
}

// drawingBaseline is a drawing's position and points at gesture start.
type drawingBaseline struct {
	origin geom.Point
	points []geom.Point
}

// Synchronizer writes scene node geometry back to the document model.
type Synchronizer struct {
	model    document.Model
	sched    *schedule.Scheduler
	followUp FollowUp
	logger   *slog.Logger

	baselines map[string]drawingBaseline

	pendingConnectors []string
	pendingNodes      []string
}

func NewSynchronizer(model document.Model, sched *schedule.Scheduler, followUp FollowUp, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		model:     model,
		sched:     sched,
		followUp:  followUp,
		logger:    logger,
		baselines: make(map[string]drawingBaseline),
	}
}

func (s *Synchronizer) SetFollowUp(f FollowUp) {
	s.followUp = f
}

// BeginGesture drops the drawing baselines of the previous gesture.
func (s *Synchronizer) BeginGesture() {
	s.baselines = make(map[string]drawingBaseline)
}

// UpdateElementsFromNodes builds a patch per node, writes them to the model
// and schedules one coalesced follow-up for connectors and mindmap nodes.
func (s *Synchronizer) UpdateElementsFromNodes(nodes []*scene.Node, source Source, opts SyncOptions) []document.PatchEntry {
	if s.model == nil {
		s.logger.Warn("document model unavailable, node sync skipped", "source", source, "nodes", len(nodes))
		return nil
	}
	entries := s.BuildPatches(nodes, source, opts)
	s.Apply(entries, opts)
	return entries
}

// BuildPatches computes the patches without writing them.
func (s *Synchronizer) BuildPatches(nodes []*scene.Node, source Source, opts SyncOptions) []document.PatchEntry {
	if s.model == nil {
		s.logger.Warn("document model unavailable, patches not built", "source", source)
		return nil
	}
	entries := make([]document.PatchEntry, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		el, ok := s.model.GetElement(n.ElementID)
		if !ok {
			s.logger.Debug("sync: element gone", "id", n.ElementID)
			continue
		}
		orig, ok := opts.Snapshot.Element(el.ID)
		if !ok {
			orig = el
		}
		patch, ok := s.patchFor(n, el, orig, opts)
		if !ok {
			continue
		}
		entries = append(entries, document.PatchEntry{ID: el.ID, Patch: patch})
		if opts.Normalize {
			normalize(n, patch)
		}
	}
	return entries
}

// Apply writes entries and schedules the follow-up pass.
func (s *Synchronizer) Apply(entries []document.PatchEntry, opts SyncOptions) {
	if len(entries) == 0 {
		return
	}
	if s.model == nil {
		s.logger.Warn("document model unavailable, patches dropped", "entries", len(entries))
		return
	}
	update := document.UpdateOptions{PushHistory: opts.PushHistory}
	if opts.Sequential {
		for _, e := range entries {
			if err := s.model.UpdateElement(e.ID, e.Patch, update); err != nil {
				s.logger.Warn("sync element", "id", e.ID, "error", err)
			}
		}
	} else if err := s.model.UpdateElements(entries, update); err != nil {
		s.logger.Warn("sync elements", "entries", len(entries), "error", err)
	}
	s.scheduleFollowUp(entries)
}

func (s *Synchronizer) patchFor(n *scene.Node, el, orig document.Element, opts SyncOptions) (document.Patch, bool) {
	switch el.Kind {
	case document.KindMindmapEdge:
		s.logger.Debug("sync: mindmap edges follow their nodes", "id", el.ID)
		return document.Patch{}, false
	case document.KindConnector:
		return connectorPatch(n, orig, opts.Delta), true
	case document.KindDrawing:
		return s.drawingPatch(n, orig, opts.Delta), true
	}

	w, h := n.EffectiveSize()
	p := document.Patch{
		X:        document.Float(n.X),
		Y:        document.Float(n.Y),
		Rotation: document.Float(n.Rotation),
		SkewX:    document.Float(n.SkewX),
		SkewY:    document.Float(n.SkewY),
	}

	switch el.Kind {
	case document.KindCircle:
		r := min(w, h) / 2
		w, h = 2*r, 2*r
		p.Radius = document.Float(r)
	case document.KindImage:
		if el.KeepAspectRatio && el.NaturalWidth > 0 && el.NaturalHeight > 0 {
			w, h = geom.FitAspect(w, h, el.NaturalWidth/el.NaturalHeight)
		}
	case document.KindText, document.KindRectangle, document.KindEllipse:
		style := n.Style
		p.Style = &style
	case document.KindTable:
		p.ColWidths = rescale(orig.ColWidths, w, orig.Width)
		p.RowHeights = rescale(orig.RowHeights, h, orig.Height)
	}
	p.Width = document.Float(w)
	p.Height = document.Float(h)
	return p, true
}

// connectorPatch moves free endpoints rigidly with the connector: each keeps
// its offset from the connector center. Attached endpoints are left to the
// router.
func connectorPatch(n *scene.Node, orig document.Element, delta *geom.Point) document.Patch {
	oldCenter := orig.Center()
	var newCenter geom.Point
	if delta != nil {
		newCenter = oldCenter.Add(*delta)
	} else {
		newCenter = n.ClientRect().Center()
	}
	move := func(ep *document.Endpoint) *document.Endpoint {
		c := ep.Clone()
		if c == nil || c.IsAttached() {
			return c
		}
		pos := c.Position().Sub(oldCenter).Add(newCenter)
		c.X, c.Y = pos.X, pos.Y
		return c
	}
	start, end := move(orig.Start), move(orig.End)
	b := geom.RectFromPoints(start.Position(), end.Position())
	return document.Patch{
		X: document.Float(b.X), Y: document.Float(b.Y),
		Width: document.Float(b.Width), Height: document.Float(b.Height),
		Start: start, End: end,
	}
}

// drawingPatch translates the gesture baseline by delta, or remaps the
// points through the node transform when the gesture resized or rotated.
func (s *Synchronizer) drawingPatch(n *scene.Node, orig document.Element, delta *geom.Point) document.Patch {
	if delta != nil {
		base, ok := s.baselines[orig.ID]
		if !ok {
			base = drawingBaseline{
				origin: geom.Point{X: orig.X, Y: orig.Y},
				points: append([]geom.Point(nil), orig.Points...),
			}
			s.baselines[orig.ID] = base
		}
		pts := make([]geom.Point, len(base.points))
		for i, p := range base.points {
			pts[i] = p.Add(*delta)
		}
		return document.Patch{
			X:      document.Float(base.origin.X + delta.X),
			Y:      document.Float(base.origin.Y + delta.Y),
			Points: pts,
		}
	}
	pts := n.WorldPoints()
	b := geom.RectFromPoints(pts...)
	return document.Patch{
		X: document.Float(b.X), Y: document.Float(b.Y),
		Width: document.Float(b.Width), Height: document.Float(b.Height),
		Rotation: document.Float(0), SkewX: document.Float(0), SkewY: document.Float(0),
		Points: pts,
	}
}

func rescale(sizes []float64, total, origTotal float64) []float64 {
	if len(sizes) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range sizes {
		sum += v
	}
	if sum <= 0 {
		sum = origTotal
	}
	if sum <= 0 {
		return append([]float64(nil), sizes...)
	}
	f := total / sum
	out := make([]float64, len(sizes))
	for i, v := range sizes {
		out[i] = v * f
	}
	return out
}

func normalize(n *scene.Node, p document.Patch) {
	switch n.Kind {
	case document.KindDrawing, document.KindConnector:
		return
	}
	n.SetScale(1, 1)
	if p.Width != nil && p.Height != nil {
		n.SetSize(*p.Width, *p.Height)
	}
}

func (s *Synchronizer) scheduleFollowUp(entries []document.PatchEntry) {
	if s.followUp == nil || s.sched == nil {
		return
	}
	queued := false
	for _, e := range entries {
		el, ok := s.model.GetElement(e.ID)
		if !ok {
			continue
		}
		switch el.Kind {
		case document.KindConnector:
			s.pendingConnectors = appendUnique(s.pendingConnectors, e.ID)
			queued = true
		case document.KindMindmapNode:
			s.pendingNodes = appendUnique(s.pendingNodes, e.ID)
			queued = true
		}
	}
	if queued {
		s.sched.RequestFrame(taskFollowUp, s.flushFollowUp)
	}
}

func (s *Synchronizer) flushFollowUp() {
	connectors, nodes := s.pendingConnectors, s.pendingNodes
	s.pendingConnectors, s.pendingNodes = nil, nil
	if len(connectors) > 0 {
		s.followUp.RerouteConnectors(connectors)
	}
	if len(nodes) > 0 {
		s.followUp.RefreshMindmapEdges(nodes)
	}
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
