package m2c2

import (
	"encoding/json"
	"fmt"
)

// Point is a 2D position or offset.
type Point struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// Size is a width and height pair.
type Size struct {
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Color is an RGBA color. R, G and B are in [0, 255]; A is in [0, 1].
// Colors encode to JSON as a four element array.
type Color struct {
	R, G, B, A float64
}

// Common colors.
var (
	ColorBlack       = Color{0, 0, 0, 1}
	ColorWhite       = Color{255, 255, 255, 1}
	ColorTransparent = Color{0, 0, 0, 0}
)

// WithAlpha returns c with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// RGBA8 returns the color as straight-alpha 8-bit components.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return clamp8(c.R), clamp8(c.G), clamp8(c.B), clamp8(c.A * 255)
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// MarshalJSON encodes the color as [r, g, b, a].
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{c.R, c.G, c.B, c.A})
}

// UnmarshalJSON decodes a color from [r, g, b, a].
func (c *Color) UnmarshalJSON(data []byte) error {
	var v [4]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("m2c2: decode color: %w", err)
	}
	*c = Color{v[0], v[1], v[2], v[3]}
	return nil
}

// Ptr returns a pointer to v. It is a convenience for optional fields in
// option structs.
func Ptr[T any](v T) *T {
	return &v
}

// NodeType identifies the kind of a Node. The set is closed: the event
// materializer switches over it to rebuild nodes from a replay log.
type NodeType string

const (
	NodeTypeNode          NodeType = "Node"          // plain container
	NodeTypeScene         NodeType = "Scene"         // root of a presentable tree
	NodeTypeShape         NodeType = "Shape"         // circle, rectangle or path
	NodeTypeLabel         NodeType = "Label"         // wrapped, aligned paragraph text
	NodeTypeTextLine      NodeType = "TextLine"      // single line of text
	NodeTypeSprite        NodeType = "Sprite"        // image
	NodeTypeComposite     NodeType = "Composite"     // application widget container
	NodeTypeSoundPlayer   NodeType = "SoundPlayer"   // target of Play actions
	NodeTypeSoundRecorder NodeType = "SoundRecorder" // microphone capture
)

// isDrawable reports whether nodes of this type render visual content.
func (t NodeType) isDrawable() bool {
	switch t {
	case NodeTypeShape, NodeTypeLabel, NodeTypeTextLine, NodeTypeSprite, NodeTypeComposite:
		return true
	}
	return false
}

// HorizontalAlignmentMode controls how a Label aligns its text.
type HorizontalAlignmentMode string

const (
	AlignCenter HorizontalAlignmentMode = "center"
	AlignLeft   HorizontalAlignmentMode = "left"
	AlignRight  HorizontalAlignmentMode = "right"
)

// PointerButton identifies a mouse button or touch.
type PointerButton uint8

const (
	ButtonPrimary   PointerButton = iota // left button or touch
	ButtonSecondary                      // right button
	ButtonMiddle                         // scroll wheel click
)
