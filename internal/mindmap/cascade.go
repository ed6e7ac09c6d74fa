package mindmap

import (
	"log/slog"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
)

// Cascade translates the descendants of dragged mindmap nodes. Each
// descendant is placed at its gesture-start position plus the cumulative
// delta.
type Cascade struct {
	model  document.Model
	graph  *scene.Graph
	edges  *Edges
	logger *slog.Logger

	roots     []string
	order     []string
	baselines map[string]geom.Point
	last      []document.PatchEntry
}

func NewCascade(model document.Model, graph *scene.Graph, edges *Edges, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}
	if edges == nil {
		edges = NewEdges(model, graph, logger)
	}
	return &Cascade{
		model:     model,
		graph:     graph,
		edges:     edges,
		logger:    logger,
		baselines: make(map[string]geom.Point),
	}
}

// Begin captures baselines for the descendants of the mindmap nodes among
// selected. Descendants that are selected themselves are moved by the
// gesture already and are skipped. It returns the descendant ids.
func (c *Cascade) Begin(selected []string) []string {
	if c.model == nil {
		c.logger.Warn("document model unavailable, mindmap cascade not started")
		return nil
	}
	if c.graph == nil {
		return nil
	}
	inSelection := make(map[string]bool, len(selected))
	for _, id := range selected {
		inSelection[id] = true
	}
	for _, id := range selected {
		el, ok := c.model.GetElement(id)
		if !ok || el.Kind != document.KindMindmapNode {
			continue
		}
		c.roots = appendUnique(c.roots, id)
		for _, desc := range c.graph.Descendants(id) {
			if inSelection[desc] {
				continue
			}
			if _, ok := c.baselines[desc]; ok {
				continue
			}
			d, ok := c.model.GetElement(desc)
			if !ok {
				c.logger.Debug("mindmap descendant missing from model", "id", desc, "root", id)
				continue
			}
			c.baselines[desc] = geom.Point{X: d.X, Y: d.Y}
			c.order = append(c.order, desc)
		}
	}
	return append([]string(nil), c.order...)
}

// Active reports whether a cascade is in progress.
func (c *Cascade) Active() bool {
	return len(c.roots) > 0
}

// Moved returns the dragged mindmap nodes and their descendants.
func (c *Cascade) Moved() []string {
	out := append([]string(nil), c.roots...)
	return append(out, c.order...)
}

// Progress moves every descendant to baseline + (dx, dy), in the scene and
// in the model without history, and redraws the touching edges.
func (c *Cascade) Progress(dx, dy float64) []document.PatchEntry {
	if len(c.roots) == 0 {
		return nil
	}
	batch := make([]document.PatchEntry, 0, len(c.order))
	for _, id := range c.order {
		p := c.baselines[id].Add(geom.Point{X: dx, Y: dy})
		if n, ok := c.graph.Lookup(id); ok {
			n.SetPosition(p)
		}
		batch = append(batch, document.PatchEntry{ID: id, Patch: document.Patch{
			X: document.Float(p.X), Y: document.Float(p.Y),
		}})
	}
	if len(batch) > 0 {
		if err := c.model.UpdateElements(batch, document.UpdateOptions{}); err != nil {
			c.logger.Warn("move mindmap descendants", "error", err)
		}
	}
	c.last = batch
	c.edges.Redraw(c.Moved())
	return batch
}

// Pending returns the patches of the last Progress, for the final commit.
func (c *Cascade) Pending() []document.PatchEntry {
	return c.last
}

// End finishes the cascade. Edges are rerouted in the model only when
// structural is set, which is the case for drags: a resize does not change
// which side an edge attaches to.
func (c *Cascade) End(structural bool, opts document.UpdateOptions) int {
	defer c.reset()
	if !structural || len(c.roots) == 0 {
		return 0
	}
	return c.edges.Refresh(c.Moved(), opts)
}

// Cancel drops the cascade and redraws edges from the restored model.
func (c *Cascade) Cancel() {
	moved := c.Moved()
	c.reset()
	if len(moved) > 0 {
		c.edges.Redraw(moved)
	}
}

func (c *Cascade) reset() {
	c.roots = nil
	c.order = nil
	c.baselines = make(map[string]geom.Point)
	c.last = nil
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
