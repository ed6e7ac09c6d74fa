package transform

import (
	"log/slog"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
)

// Categories partitions a selection for the orchestration layer.
type Categories struct {
	Connectors   []string
	MindmapEdges []string
	Others       []string
}

// Resolver maps element ids to the scene nodes a widget can attach to.
type Resolver struct {
	graph  *scene.Graph
	logger *slog.Logger
}

func NewResolver(graph *scene.Graph, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{graph: graph, logger: logger}
}

// ResolveElementsToNodes returns at most one node per id, in request order.
// Ids without a live node are skipped.
func (r *Resolver) ResolveElementsToNodes(ids []string) []*scene.Node {
	out := make([]*scene.Node, 0, len(ids))
	seen := make(map[*scene.Node]bool, len(ids))
	for _, id := range ids {
		n := r.resolve(id)
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (r *Resolver) resolve(id string) *scene.Node {
	var candidates []*scene.Node
	for _, n := range r.graph.Candidates(id) {
		if !transformableKind(n.Kind) {
			continue
		}
		candidates = append(candidates, n)
	}
	if len(candidates) == 0 {
		r.logger.Debug("no scene node for element", "id", id)
		return nil
	}
	for _, n := range candidates {
		if n.ID == id {
			return n
		}
	}
	for _, n := range candidates {
		if n.Class == scene.ClassGroup {
			return n
		}
	}
	for _, n := range candidates {
		if n.Composite {
			return n
		}
	}
	return candidates[0]
}

// FilterTransformableNodes drops connector and mindmap-edge nodes, which only
// move by their endpoints.
func FilterTransformableNodes(nodes []*scene.Node) []*scene.Node {
	out := make([]*scene.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil && transformableKind(n.Kind) {
			out = append(out, n)
		}
	}
	return out
}

// CategorizeSelection splits ids by the kind of their scene node. Ids with
// no node count as others.
func (r *Resolver) CategorizeSelection(ids []string) Categories {
	var c Categories
	for _, id := range ids {
		n, ok := r.graph.Lookup(id)
		if !ok {
			r.logger.Debug("categorize: no scene node for element", "id", id)
			c.Others = append(c.Others, id)
			continue
		}
		switch n.Kind {
		case document.KindConnector:
			c.Connectors = append(c.Connectors, id)
		case document.KindMindmapEdge:
			c.MindmapEdges = append(c.MindmapEdges, id)
		default:
			c.Others = append(c.Others, id)
		}
	}
	return c
}

func transformableKind(k document.Kind) bool {
	return k.Transformable()
}
