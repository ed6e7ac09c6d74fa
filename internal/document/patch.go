package document

import "github.com/mtmitchel/LONewDesign-sub007/internal/geom"

// Patch is a partial update of an element. Nil fields are left untouched.
type Patch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	SkewX    *float64 `json:"skewX,omitempty"`
	SkewY    *float64 `json:"skewY,omitempty"`
	Radius   *float64 `json:"radius,omitempty"`
	Style    *Style   `json:"style,omitempty"`
	Text     *string  `json:"text,omitempty"`

	Start *Endpoint `json:"start,omitempty"`
	End   *Endpoint `json:"end,omitempty"`

	Points     []geom.Point `json:"points,omitempty"`
	ColWidths  []float64    `json:"colWidths,omitempty"`
	RowHeights []float64    `json:"rowHeights,omitempty"`
}

// PatchEntry pairs a patch with the element it targets.
type PatchEntry struct {
	ID    string `json:"id"`
	Patch Patch  `json:"patch"`
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to v, for building patches.
func String(v string) *string {
	return &v
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil &&
		p.Rotation == nil && p.SkewX == nil && p.SkewY == nil && p.Radius == nil &&
		p.Style == nil && p.Text == nil && p.Start == nil && p.End == nil &&
		p.Points == nil && p.ColWidths == nil && p.RowHeights == nil
}

// Translate returns a patch moving el by (dx, dy).
func Translate(el Element, dx, dy float64) Patch {
	return Patch{X: Float(el.X + dx), Y: Float(el.Y + dy)}
}

// Apply writes the set fields of p into el. Slices and endpoints are copied.
func (p Patch) Apply(el *Element) {
	setFloat(&el.X, p.X)
	setFloat(&el.Y, p.Y)
	setFloat(&el.Width, p.Width)
	setFloat(&el.Height, p.Height)
	setFloat(&el.Rotation, p.Rotation)
	setFloat(&el.SkewX, p.SkewX)
	setFloat(&el.SkewY, p.SkewY)
	setFloat(&el.Radius, p.Radius)
	if p.Style != nil {
		el.Style = *p.Style
	}
	if p.Text != nil {
		el.Text = *p.Text
	}
	if p.Start != nil {
		el.Start = p.Start.Clone()
	}
	if p.End != nil {
		el.End = p.End.Clone()
	}
	if p.Points != nil {
		el.Points = cloneSlice(p.Points)
	}
	if p.ColWidths != nil {
		el.ColWidths = cloneSlice(p.ColWidths)
	}
	if p.RowHeights != nil {
		el.RowHeights = cloneSlice(p.RowHeights)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// PatchFrom returns a patch that restores every mutable field of el.
func PatchFrom(el Element) Patch {
	style := el.Style
	return Patch{
		X:          Float(el.X),
		Y:          Float(el.Y),
		Width:      Float(el.Width),
		Height:     Float(el.Height),
		Rotation:   Float(el.Rotation),
		SkewX:      Float(el.SkewX),
		SkewY:      Float(el.SkewY),
		Radius:     Float(el.Radius),
		Style:      &style,
		Text:       String(el.Text),
		Start:      el.Start.Clone(),
		End:        el.End.Clone(),
		Points:     cloneSlice(el.Points),
		ColWidths:  cloneSlice(el.ColWidths),
		RowHeights: cloneSlice(el.RowHeights),
	}
}
