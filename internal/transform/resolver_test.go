package transform

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
)

func resolverFixture(t *testing.T) *fixture {
	return newFixture(t,
		rect("r1", 0, 0, 100, 50),
		document.Element{ID: "t1", Kind: document.KindTable, Width: 100, Height: 40, RowHeights: []float64{20, 20}},
		document.Element{ID: "img", Kind: document.KindImage, Width: 10, Height: 10},
		freeConnector("c1", geom.Point{}, geom.Point{X: 10, Y: 10}),
		document.Element{ID: "e1", Kind: document.KindMindmapEdge, FromID: "a", ToID: "b"},
	)
}

func TestResolveElementsToNodes(t *testing.T) {
	f := resolverFixture(t)

	nodes := f.resolver.ResolveElementsToNodes([]string{"t1", "c1", "missing", "r1", "t1", "e1", "img"})
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"t1", "r1", "img"}, ids)
	assert.Equal(t, scene.ClassGroup, nodes[0].Class)
	assert.True(t, nodes[2].Composite)
	assert.True(t, f.logs.Has(slog.LevelDebug, "no scene node for element"))
}

func TestFilterTransformableNodes(t *testing.T) {
	f := resolverFixture(t)
	in := []*scene.Node{f.node(t, "c1"), f.node(t, "r1"), nil, f.node(t, "e1"), f.node(t, "t1/frame")}

	out := FilterTransformableNodes(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "r1", out[0].ID)
	assert.Equal(t, "t1/frame", out[1].ID)
}

func TestCategorizeSelection(t *testing.T) {
	f := resolverFixture(t)
	c := f.resolver.CategorizeSelection([]string{"c1", "r1", "e1", "ghost", "t1"})

	assert.Equal(t, []string{"c1"}, c.Connectors)
	assert.Equal(t, []string{"e1"}, c.MindmapEdges)
	assert.Equal(t, []string{"r1", "ghost", "t1"}, c.Others)
}
