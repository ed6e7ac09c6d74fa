package document

import "github.com/mtmitchel/LONewDesign-sub007/internal/geom"

// NewSampleDocument builds a demo board with one element of most kinds: a few
// shapes joined by connectors, a three-node mindmap, a freehand drawing, a
// table and an image.
func NewSampleDocument() *Document {
	rectID := NewID(KindRectangle)
	circleID := NewID(KindCircle)
	ellipseID := NewID(KindEllipse)
	triangleID := NewID(KindTriangle)
	textID := NewID(KindText)

	rootID := NewID(KindMindmapNode)
	leftID := NewID(KindMindmapNode)
	rightID := NewID(KindMindmapNode)

	boundConnID := NewID(KindConnector)
	freeConnID := NewID(KindConnector)

	stroke := Style{Fill: "#ffffff", Stroke: "#1f2937", StrokeWidth: 2, Opacity: 1}

	elements := []Element{
		{
			ID: rectID, Kind: KindRectangle,
			X: 80, Y: 80, Width: 160, Height: 100,
			Style: Style{Fill: "#e94560", Stroke: "#000000", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID: circleID, Kind: KindCircle,
			X: 400, Y: 80, Width: 120, Height: 120, Radius: 60,
			Style: Style{Fill: "#0f3460", Stroke: "#000000", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID: ellipseID, Kind: KindEllipse,
			X: 600, Y: 90, Width: 180, Height: 100,
			Style: stroke,
		},
		{
			ID: triangleID, Kind: KindTriangle,
			X: 820, Y: 80, Width: 120, Height: 110,
			Style: Style{Fill: "#16c79a", Stroke: "#000000", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID: textID, Kind: KindText,
			X: 80, Y: 240, Width: 220, Height: 40, Text: "Quarterly plan",
			Style: Style{Fill: "#111827", FontSize: 24, FontFamily: "Inter", Opacity: 1},
		},
		{
			ID: boundConnID, Kind: KindConnector,
			Start: AttachedEndpoint(rectID, geom.SideRight, 0),
			End:   AttachedEndpoint(circleID, geom.SideLeft, 0),
			Style: Style{Stroke: "#374151", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID: freeConnID, Kind: KindConnector,
			Start: PointEndpoint(geom.Point{X: 620, Y: 260}),
			End:   PointEndpoint(geom.Point{X: 760, Y: 320}),
			Style: Style{Stroke: "#374151", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID: rootID, Kind: KindMindmapNode,
			X: 360, Y: 420, Width: 160, Height: 56, Text: "Launch",
			ChildIDs: []string{leftID, rightID},
			Style:    stroke,
		},
		{
			ID: leftID, Kind: KindMindmapNode, ParentID: rootID,
			X: 120, Y: 520, Width: 140, Height: 48, Text: "Design",
			Style: stroke,
		},
		{
			ID: rightID, Kind: KindMindmapNode, ParentID: rootID,
			X: 620, Y: 520, Width: 140, Height: 48, Text: "Marketing",
			Style: stroke,
		},
		{
			ID: NewID(KindMindmapEdge), Kind: KindMindmapEdge, FromID: rootID, ToID: leftID,
			Style: Style{Stroke: "#6b7280", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID: NewID(KindMindmapEdge), Kind: KindMindmapEdge, FromID: rootID, ToID: rightID,
			Style: Style{Stroke: "#6b7280", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID: NewID(KindDrawing), Kind: KindDrawing,
			X: 100, Y: 660, Width: 200, Height: 40,
			Points: []geom.Point{{X: 100, Y: 700}, {X: 150, Y: 660}, {X: 200, Y: 690}, {X: 250, Y: 670}, {X: 300, Y: 700}},
			Style:  Style{Stroke: "#9333ea", StrokeWidth: 4, Opacity: 1},
		},
		{
			ID: NewID(KindTable), Kind: KindTable,
			X: 860, Y: 420, Width: 240, Height: 90,
			ColWidths:  []float64{80, 80, 80},
			RowHeights: []float64{30, 30, 30},
			Cells: []Cell{
				{Row: 0, Col: 0, Text: "Task"}, {Row: 0, Col: 1, Text: "Owner"}, {Row: 0, Col: 2, Text: "Due"},
			},
			Style: stroke,
		},
		{
			ID: NewID(KindImage), Kind: KindImage,
			X: 860, Y: 600, Width: 160, Height: 90,
			NaturalWidth: 1600, NaturalHeight: 900, KeepAspectRatio: true,
			Style: Style{Opacity: 1},
		},
	}

	resolveSampleConnectors(elements)
	return &Document{Elements: elements, Selection: []string{}}
}

// resolveSampleConnectors fills the last-resolved positions and bounds of
// bound connectors, so the sample is valid before any reroute.
func resolveSampleConnectors(elements []Element) {
	byID := make(map[string]Element, len(elements))
	for _, el := range elements {
		byID[el.ID] = el
	}
	for i := range elements {
		el := &elements[i]
		if el.Kind != KindConnector {
			continue
		}
		for _, ep := range []*Endpoint{el.Start, el.End} {
			if !ep.IsAttached() {
				continue
			}
			target := byID[ep.ElementID]
			p := geom.AnchorPoint(target.Bounds(), target.Kind.Outline(), ep.Side, ep.Offset)
			ep.X, ep.Y = p.X, p.Y
		}
		b := geom.RectFromPoints(el.Start.Position(), el.End.Position())
		el.X, el.Y, el.Width, el.Height = b.X, b.Y, b.Width, b.Height
	}
}
