// Package ebitenkit runs m2c2 games in a window with Ebitengine. It
// provides the Canvas, Typesetter, image and sound managers, pointer
// polling and the ebiten.Game loop.
package ebitenkit

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/m2c2kit/m2c2"
)

var whiteSubImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized white pixel cut from the
// middle of a 3x3 image, so linear filtering never samples an edge.
func ensureWhitePixel() *ebiten.Image {
	if whiteSubImage == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whiteSubImage
}

type canvasState struct {
	geoM ebiten.GeoM
	clip image.Rectangle
}

// Canvas is an m2c2.Canvas drawing onto an ebiten.Image. Primitives are
// tessellated by the vector package and submitted with DrawTriangles.
type Canvas struct {
	target *ebiten.Image
	state  canvasState
	stack  []canvasState

	vertices []ebiten.Vertex
	indices  []uint16
}

var _ m2c2.Canvas = (*Canvas)(nil)

// NewCanvas returns a canvas drawing onto target.
func NewCanvas(target *ebiten.Image) *Canvas {
	c := &Canvas{}
	c.Reset(target)
	return c
}

// Reset retargets the canvas and clears its transform, clip and stack.
func (c *Canvas) Reset(target *ebiten.Image) {
	c.target = target
	c.state = canvasState{clip: target.Bounds()}
	c.stack = c.stack[:0]
}

func (c *Canvas) Width() float64  { return float64(c.target.Bounds().Dx()) }
func (c *Canvas) Height() float64 { return float64(c.target.Bounds().Dy()) }

func (c *Canvas) Save() { c.stack = append(c.stack, c.state) }

func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// prepend applies t before the current transform.
func (c *Canvas) prepend(t ebiten.GeoM) {
	t.Concat(c.state.geoM)
	c.state.geoM = t
}

func (c *Canvas) Translate(x, y float64) {
	var t ebiten.GeoM
	t.Translate(x, y)
	c.prepend(t)
}

func (c *Canvas) Scale(sx, sy float64) {
	var t ebiten.GeoM
	t.Scale(sx, sy)
	c.prepend(t)
}

func (c *Canvas) Rotate(radians float64) {
	var t ebiten.GeoM
	t.Rotate(radians)
	c.prepend(t)
}

// ClipRect intersects the clip with r's bounding box in target space.
// Under rotation the clip is the rotated rectangle's axis-aligned bounds.
func (c *Canvas) ClipRect(r m2c2.Rect) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{r.X, r.Y}, {r.X + r.Width, r.Y}, {r.X, r.Y + r.Height}, {r.X + r.Width, r.Y + r.Height}} {
		x, y := c.state.geoM.Apply(p[0], p[1])
		minX, minY = min(minX, x), min(minY, y)
		maxX, maxY = max(maxX, x), max(maxY, y)
	}
	bounds := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	c.state.clip = c.state.clip.Intersect(bounds)
}

// dst returns the target restricted to the current clip.
func (c *Canvas) dst() *ebiten.Image {
	if c.state.clip == c.target.Bounds() {
		return c.target
	}
	return c.target.SubImage(c.state.clip).(*ebiten.Image)
}

// Clear fills the whole target with col, ignoring the transform and clip.
func (c *Canvas) Clear(col m2c2.Color) {
	c.target.Fill(toNRGBA(col))
}

func (c *Canvas) DrawRect(r m2c2.Rect, p m2c2.Paint) {
	var path vector.Path
	path.MoveTo(float32(r.X), float32(r.Y))
	path.LineTo(float32(r.X+r.Width), float32(r.Y))
	path.LineTo(float32(r.X+r.Width), float32(r.Y+r.Height))
	path.LineTo(float32(r.X), float32(r.Y+r.Height))
	path.Close()
	c.drawPath(&path, p)
}

func (c *Canvas) DrawRoundedRect(r m2c2.Rect, radius float64, p m2c2.Paint) {
	radius = min(radius, r.Width/2, r.Height/2)
	if radius <= 0 {
		c.DrawRect(r, p)
		return
	}
	x0, y0 := float32(r.X), float32(r.Y)
	x1, y1 := float32(r.X+r.Width), float32(r.Y+r.Height)
	rad := float32(radius)
	var path vector.Path
	path.MoveTo(x0+rad, y0)
	path.LineTo(x1-rad, y0)
	path.ArcTo(x1, y0, x1, y0+rad, rad)
	path.LineTo(x1, y1-rad)
	path.ArcTo(x1, y1, x1-rad, y1, rad)
	path.LineTo(x0+rad, y1)
	path.ArcTo(x0, y1, x0, y1-rad, rad)
	path.LineTo(x0, y0+rad)
	path.ArcTo(x0, y0, x0+rad, y0, rad)
	path.Close()
	c.drawPath(&path, p)
}

func (c *Canvas) DrawCircle(cx, cy, radius float64, p m2c2.Paint) {
	var path vector.Path
	path.Arc(float32(cx), float32(cy), float32(radius), 0, 2*math.Pi, vector.Clockwise)
	path.Close()
	c.drawPath(&path, p)
}

func (c *Canvas) DrawLine(x1, y1, x2, y2 float64, p m2c2.Paint) {
	var path vector.Path
	path.MoveTo(float32(x1), float32(y1))
	path.LineTo(float32(x2), float32(y2))
	p.Style = m2c2.PaintStroke
	c.drawPath(&path, p)
}

func (c *Canvas) DrawPath(points []m2c2.Point, p m2c2.Paint) {
	if len(points) == 0 {
		return
	}
	var path vector.Path
	path.MoveTo(float32(points[0].X), float32(points[0].Y))
	for _, pt := range points[1:] {
		path.LineTo(float32(pt.X), float32(pt.Y))
	}
	if p.Style == m2c2.PaintFill {
		path.Close()
	}
	c.drawPath(&path, p)
}

// drawPath tessellates path, transforms the vertices and draws them with
// the white pixel tinted by the paint color.
func (c *Canvas) drawPath(path *vector.Path, p m2c2.Paint) {
	c.vertices, c.indices = c.vertices[:0], c.indices[:0]
	op := &ebiten.DrawTrianglesOptions{AntiAlias: p.Antialias}
	if p.Style == m2c2.PaintStroke {
		c.vertices, c.indices = path.AppendVerticesAndIndicesForStroke(c.vertices, c.indices, &vector.StrokeOptions{
			Width:    float32(p.StrokeWidth),
			LineJoin: vector.LineJoinRound,
		})
	} else {
		c.vertices, c.indices = path.AppendVerticesAndIndicesForFilling(c.vertices, c.indices)
		op.FillRule = ebiten.FillRuleNonZero
	}
	r, g, b, a := colorComponents(p.Color)
	for i := range c.vertices {
		v := &c.vertices[i]
		x, y := c.state.geoM.Apply(float64(v.DstX), float64(v.DstY))
		v.DstX, v.DstY = float32(x), float32(y)
		v.SrcX, v.SrcY = 1, 1
		v.ColorR, v.ColorG, v.ColorB, v.ColorA = r, g, b, a
	}
	c.dst().DrawTriangles(c.vertices, c.indices, ensureWhitePixel(), op)
}

// DrawImage draws img scaled into dst. Images from other backends are
// uploaded through ToImage on every call.
func (c *Canvas) DrawImage(img m2c2.Image, dst m2c2.Rect, alpha float64) {
	if img.Width() == 0 || img.Height() == 0 || alpha <= 0 {
		return
	}
	src := ebitenImage(img)
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(dst.Width/float64(img.Width()), dst.Height/float64(img.Height()))
	op.GeoM.Translate(dst.X, dst.Y)
	op.GeoM.Concat(c.state.geoM)
	op.ColorScale.ScaleAlpha(float32(alpha))
	c.dst().DrawImage(src, op)
}

// Snapshot copies the target into a new image.
func (c *Canvas) Snapshot() m2c2.Image {
	b := c.target.Bounds()
	img := ebiten.NewImage(b.Dx(), b.Dy())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(-b.Min.X), float64(-b.Min.Y))
	img.DrawImage(c.target, op)
	return NewImage(img)
}

func toNRGBA(c m2c2.Color) color.NRGBA {
	r, g, b, a := c.RGBA8()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// colorComponents returns c as straight-alpha components in [0, 1], the
// default vertex color mode of DrawTriangles.
func colorComponents(c m2c2.Color) (r, g, b, a float32) {
	return float32(c.R / 255), float32(c.G / 255), float32(c.B / 255), float32(c.A)
}

// Image adapts an ebiten.Image to m2c2.Image.
type Image struct {
	img *ebiten.Image
}

var _ m2c2.Image = (*Image)(nil)

// NewImage wraps img.
func NewImage(img *ebiten.Image) *Image { return &Image{img: img} }

// Ebiten returns the wrapped image.
func (i *Image) Ebiten() *ebiten.Image { return i.img }

func (i *Image) Width() int  { return i.img.Bounds().Dx() }
func (i *Image) Height() int { return i.img.Bounds().Dy() }

// ToImage reads the pixels back from the GPU. It only works while the game
// loop is running.
func (i *Image) ToImage() image.Image {
	b := i.img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	i.img.ReadPixels(rgba.Pix)
	return rgba
}

func ebitenImage(img m2c2.Image) *ebiten.Image {
	if e, ok := img.(*Image); ok {
		return e.img
	}
	return ebiten.NewImageFromImage(img.ToImage())
}
