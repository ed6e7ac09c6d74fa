// Package document is the authoritative element graph of a board: the
// element model, patches against it, and an in-memory store that records
// undo history and notifies selection and change subscribers.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/typeid"
)

type Kind string

const (
	KindRectangle   Kind = "rectangle"
	KindCircle      Kind = "circle"
	KindEllipse     Kind = "ellipse"
	KindTriangle    Kind = "triangle"
	KindText        Kind = "text"
	KindConnector   Kind = "connector"
	KindMindmapNode Kind = "mindmap-node"
	KindMindmapEdge Kind = "mindmap-edge"
	KindTable       Kind = "table"
	KindImage       Kind = "image"
	KindDrawing     Kind = "drawing"
)

var kindPrefixes = map[Kind]string{
	KindRectangle:   typeid.PrefixRectangle,
	KindCircle:      typeid.PrefixCircle,
	KindEllipse:     typeid.PrefixEllipse,
	KindTriangle:    typeid.PrefixTriangle,
	KindText:        typeid.PrefixText,
	KindConnector:   typeid.PrefixConnector,
	KindMindmapNode: typeid.PrefixMindmapNode,
	KindMindmapEdge: typeid.PrefixMindmapEdge,
	KindTable:       typeid.PrefixTable,
	KindImage:       typeid.PrefixImage,
	KindDrawing:     typeid.PrefixDrawing,
}

// NewID generates an identifier whose prefix names the element kind.
func NewID(kind Kind) string {
	prefix, ok := kindPrefixes[kind]
	if !ok {
		prefix = typeid.PrefixElement
	}
	return typeid.New(prefix)
}

// CheckID rejects a typeid whose prefix names another kind than el.Kind.
// Ids that are not typeids are accepted as they are.
func CheckID(el Element) error {
	if typeid.Prefix(el.ID) == "" {
		return nil
	}
	prefix, ok := kindPrefixes[el.Kind]
	if !ok {
		prefix = typeid.PrefixElement
	}
	return typeid.Validate(el.ID, prefix)
}

// IsShape reports whether k is one of the basic shapes.
func (k Kind) IsShape() bool {
	switch k {
	case KindRectangle, KindCircle, KindEllipse, KindTriangle:
		return true
	}
	return false
}

// Outline is the outline anchors are computed on.
func (k Kind) Outline() geom.Outline {
	if k == KindCircle || k == KindEllipse {
		return geom.OutlineEllipse
	}
	return geom.OutlineRect
}

// Transformable reports whether elements of this kind can carry the resize
// and rotate widget. Connectors and mindmap edges only move by their ends.
func (k Kind) Transformable() bool {
	return k != KindConnector && k != KindMindmapEdge
}

type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	FontFamily  string  `json:"fontFamily,omitempty"`
}

type EndpointKind string

const (
	EndpointPoint   EndpointKind = "point"
	EndpointElement EndpointKind = "element"
)

// Endpoint is one end of a connector: a free point, or a binding to a side
// of another element. For bound endpoints X/Y hold the last resolved position.
type Endpoint struct {
	Kind      EndpointKind `json:"kind"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	ElementID string       `json:"elementId,omitempty"`
	Side      geom.Side    `json:"side"`
	Offset    float64      `json:"offset,omitempty"`
}

// PointEndpoint returns a free endpoint at p.
func PointEndpoint(p geom.Point) *Endpoint {
	return &Endpoint{Kind: EndpointPoint, X: p.X, Y: p.Y, Side: geom.SideCenter}
}

// AttachedEndpoint returns an endpoint bound to side of elementID.
func AttachedEndpoint(elementID string, side geom.Side, offset float64) *Endpoint {
	return &Endpoint{Kind: EndpointElement, ElementID: elementID, Side: side, Offset: offset}
}

func (e *Endpoint) IsAttached() bool {
	return e != nil && e.Kind == EndpointElement && e.ElementID != ""
}

func (e *Endpoint) Position() geom.Point {
	if e == nil {
		return geom.Point{}
	}
	return geom.Point{X: e.X, Y: e.Y}
}

func (e *Endpoint) Clone() *Endpoint {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

type Cell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Text string `json:"text,omitempty"`
}

// Element is a tagged union over every kind on the board. Kind-specific
// fields are zero for other kinds.
type Element struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
	SkewX    float64 `json:"skewX,omitempty"`
	SkewY    float64 `json:"skewY,omitempty"`
	Style    Style   `json:"style"`
	Text     string  `json:"text,omitempty"`

	// circle
	Radius float64 `json:"radius,omitempty"`

	// rectangle / ellipse / image aspect handling
	LockAspectRatio bool    `json:"lockAspectRatio,omitempty"`
	KeepAspectRatio bool    `json:"keepAspectRatio,omitempty"`
	NaturalWidth    float64 `json:"naturalWidth,omitempty"`
	NaturalHeight   float64 `json:"naturalHeight,omitempty"`

	// connector
	Start *Endpoint `json:"start,omitempty"`
	End   *Endpoint `json:"end,omitempty"`

	// mindmap
	ParentID string   `json:"parentId,omitempty"`
	ChildIDs []string `json:"childIds,omitempty"`
	FromID   string   `json:"fromId,omitempty"`
	ToID     string   `json:"toId,omitempty"`

	// drawing, and the visual polyline of a mindmap edge
	Points []geom.Point `json:"points,omitempty"`

	// table
	ColWidths  []float64 `json:"colWidths,omitempty"`
	RowHeights []float64 `json:"rowHeights,omitempty"`
	Cells      []Cell    `json:"cells,omitempty"`
}

// Bounds returns the unrotated bounding box of the element.
func (e Element) Bounds() geom.Rect {
	return geom.Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// Center returns the center of Bounds.
func (e Element) Center() geom.Point {
	return e.Bounds().Center()
}

// Clone copies the element. The copy is structural: endpoints, child ids,
// points and table arrays are copied explicitly because callers mutate them
// in place, everything else is a value already.
func (e Element) Clone() Element {
	c := e
	c.Start = e.Start.Clone()
	c.End = e.End.Clone()
	c.ChildIDs = cloneSlice(e.ChildIDs)
	c.Points = cloneSlice(e.Points)
	c.ColWidths = cloneSlice(e.ColWidths)
	c.RowHeights = cloneSlice(e.RowHeights)
	c.Cells = cloneSlice(e.Cells)
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// Document is the serialized form of a board.
type Document struct {
	Elements  []Element `json:"elements"`
	Selection []string  `json:"selection"`
}

// Parse decodes a document from JSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Elements))
	for _, el := range doc.Elements {
		if el.ID == "" {
			return nil, fmt.Errorf("element of kind %q has no id", el.Kind)
		}
		if _, dup := seen[el.ID]; dup {
			return nil, fmt.Errorf("duplicate element id %q", el.ID)
		}
		seen[el.ID] = struct{}{}
	}
	return &doc, nil
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
