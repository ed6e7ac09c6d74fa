package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixRectangle   = "rect"
	PrefixCircle      = "circle"
	PrefixEllipse     = "ellipse"
	PrefixTriangle    = "tri"
	PrefixText        = "text"
	PrefixConnector   = "conn"
	PrefixMindmapNode = "mmnode"
	PrefixMindmapEdge = "mmedge"
	PrefixTable       = "table"
	PrefixImage       = "img"
	PrefixDrawing     = "draw"
	PrefixElement     = "el"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

// Prefix returns the type prefix of id, or "" when id is not a typeid.
func Prefix(id string) string {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.Prefix()
}

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
