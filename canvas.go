package m2c2

import (
	"image"
	"strings"
)

// PaintStyle selects whether a shape is filled or outlined.
type PaintStyle uint8

const (
	PaintFill PaintStyle = iota
	PaintStroke
)

// Paint describes how a primitive is drawn.
type Paint struct {
	Color       Color
	Style       PaintStyle
	StrokeWidth float64
	Antialias   bool
}

// FillPaint returns an antialiased fill paint of color c.
func FillPaint(c Color) Paint {
	return Paint{Color: c, Style: PaintFill, Antialias: true}
}

// StrokePaint returns an antialiased stroke paint of color c and width w.
func StrokePaint(c Color, w float64) Paint {
	return Paint{Color: c, Style: PaintStroke, StrokeWidth: w, Antialias: true}
}

// Image is a backend image that can be drawn onto a Canvas.
type Image interface {
	Width() int
	Height() int
	// ToImage returns the pixels as a standard library image, for encoding.
	ToImage() image.Image
}

// Paragraph is text laid out by a Typesetter. It may hold backend
// resources, released by Dispose.
type Paragraph interface {
	Width() float64
	Height() float64
	Dispose()
}

// TextStyle configures paragraph layout.
type TextStyle struct {
	Font     FontResource
	FontSize float64
	Color    Color
	Align    HorizontalAlignmentMode
}

// Typesetter lays out text into paragraphs. maxWidth <= 0 disables
// wrapping. A paragraph's width is its widest line and shorter lines are
// aligned within it.
type Typesetter interface {
	LayoutParagraph(text string, style TextStyle, maxWidth float64) (Paragraph, error)
}

// Canvas is the drawing surface nodes render onto. Coordinates are in
// canvas units with the origin at the top-left. Save and Restore push and
// pop the transform and clip state.
type Canvas interface {
	Width() float64
	Height() float64

	Save()
	Restore()
	Translate(x, y float64)
	Scale(sx, sy float64)
	// Rotate rotates subsequent drawing clockwise by radians.
	Rotate(radians float64)
	ClipRect(r Rect)

	Clear(c Color)
	DrawRect(r Rect, p Paint)
	DrawRoundedRect(r Rect, radius float64, p Paint)
	DrawCircle(cx, cy, radius float64, p Paint)
	DrawLine(x1, y1, x2, y2 float64, p Paint)
	// DrawPath draws a polyline through points. A fill paint closes it.
	DrawPath(points []Point, p Paint)
	DrawImage(img Image, dst Rect, alpha float64)
	// DrawParagraph draws p with its top-left at (x, y), scaled by scale.
	DrawParagraph(p Paragraph, x, y, scale, alpha float64)

	// Snapshot returns a copy of the current canvas contents.
	Snapshot() Image
}

// WrapText breaks text into lines no wider than maxWidth, as measured by
// width. Lines break at spaces and at explicit newlines; a single word
// wider than maxWidth gets a line of its own. maxWidth <= 0 only splits at
// newlines.
func WrapText(text string, maxWidth float64, width func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 {
			lines = append(lines, para)
			continue
		}
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if candidate := line + " " + w; width(candidate) <= maxWidth {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}
