// Package ggcanvas renders m2c2 games into an in-memory image with
// fogleman/gg. It backs headless replays, snapshots and tests, where no
// window or GPU is available.
package ggcanvas

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"io/fs"

	"github.com/fogleman/gg"

	"github.com/m2c2kit/m2c2"
)

// Canvas is an m2c2.Canvas drawing into an RGBA image.
//
// gg keeps its clip mask across Pop, so the canvas tracks the transform
// and mask itself and reinstalls the saved mask on Restore.
type Canvas struct {
	dc     *gg.Context
	matrix gg.Matrix
	mask   *image.Alpha
	stack  []canvasState
}

type canvasState struct {
	matrix gg.Matrix
	mask   *image.Alpha
}

var _ m2c2.Canvas = (*Canvas)(nil)

// New returns a transparent canvas of the given pixel size.
func New(width, height int) *Canvas {
	return &Canvas{dc: gg.NewContext(width, height), matrix: gg.Identity()}
}

// Context returns the underlying gg context.
func (c *Canvas) Context() *gg.Context { return c.dc }

// Image returns the canvas pixels. The image is live: later drawing
// changes it.
func (c *Canvas) Image() image.Image { return c.dc.Image() }

// EncodePNG writes the canvas as a PNG.
func (c *Canvas) EncodePNG(w io.Writer) error { return c.dc.EncodePNG(w) }

func (c *Canvas) Width() float64  { return float64(c.dc.Width()) }
func (c *Canvas) Height() float64 { return float64(c.dc.Height()) }

func (c *Canvas) Save() {
	c.stack = append(c.stack, canvasState{matrix: c.matrix, mask: c.mask})
	c.dc.Push()
}

func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.dc.Pop()
	c.matrix = top.matrix
	if top.mask == c.mask {
		return
	}
	c.mask = top.mask
	c.dc.ResetClip()
	if c.mask != nil {
		// Same size as the context by construction.
		_ = c.dc.SetMask(c.mask)
	}
}

func (c *Canvas) Translate(x, y float64) {
	c.matrix = c.matrix.Translate(x, y)
	c.dc.Translate(x, y)
}

func (c *Canvas) Scale(sx, sy float64) {
	c.matrix = c.matrix.Scale(sx, sy)
	c.dc.Scale(sx, sy)
}

func (c *Canvas) Rotate(radians float64) {
	c.matrix = c.matrix.Rotate(radians)
	c.dc.Rotate(radians)
}

// ClipRect intersects the clip with r under the current transform. The
// mask is rasterized on a scratch context so it can be saved and restored.
func (c *Canvas) ClipRect(r m2c2.Rect) {
	mc := gg.NewContext(c.dc.Width(), c.dc.Height())
	if c.mask != nil {
		_ = mc.SetMask(c.mask)
	}
	corners := [4][2]float64{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X + r.Width, r.Y + r.Height},
		{r.X, r.Y + r.Height},
	}
	for i, p := range corners {
		x, y := c.matrix.TransformPoint(p[0], p[1])
		if i == 0 {
			mc.MoveTo(x, y)
		} else {
			mc.LineTo(x, y)
		}
	}
	mc.ClosePath()
	mc.SetRGBA(0, 0, 0, 1)
	mc.Fill()
	c.mask = mc.AsMask()
	_ = c.dc.SetMask(c.mask)
}

// Clear fills the whole canvas with col, ignoring the transform and clip.
func (c *Canvas) Clear(col m2c2.Color) {
	c.setColor(col)
	c.dc.Clear()
}

func (c *Canvas) DrawRect(r m2c2.Rect, p m2c2.Paint) {
	c.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	c.paint(p)
}

func (c *Canvas) DrawRoundedRect(r m2c2.Rect, radius float64, p m2c2.Paint) {
	c.dc.DrawRoundedRectangle(r.X, r.Y, r.Width, r.Height, radius)
	c.paint(p)
}

func (c *Canvas) DrawCircle(cx, cy, radius float64, p m2c2.Paint) {
	c.dc.DrawCircle(cx, cy, radius)
	c.paint(p)
}

func (c *Canvas) DrawLine(x1, y1, x2, y2 float64, p m2c2.Paint) {
	c.dc.DrawLine(x1, y1, x2, y2)
	p.Style = m2c2.PaintStroke
	c.paint(p)
}

func (c *Canvas) DrawPath(points []m2c2.Point, p m2c2.Paint) {
	if len(points) == 0 {
		return
	}
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, pt := range points[1:] {
		c.dc.LineTo(pt.X, pt.Y)
	}
	if p.Style == m2c2.PaintFill {
		c.dc.ClosePath()
	}
	c.paint(p)
}

// DrawImage draws img scaled into dst. Images from other backends are
// converted through ToImage.
func (c *Canvas) DrawImage(img m2c2.Image, dst m2c2.Rect, alpha float64) {
	if img.Width() == 0 || img.Height() == 0 || alpha <= 0 {
		return
	}
	src := img.ToImage()
	if alpha < 1 {
		src = fade(src, alpha)
	}
	c.dc.Push()
	c.dc.Translate(dst.X, dst.Y)
	c.dc.Scale(dst.Width/float64(img.Width()), dst.Height/float64(img.Height()))
	c.dc.DrawImage(src, 0, 0)
	c.dc.Pop()
}

// DrawParagraph draws a paragraph from this package's Typesetter.
func (c *Canvas) DrawParagraph(p m2c2.Paragraph, x, y, scale, alpha float64) {
	para, ok := p.(*paragraph)
	if !ok || alpha <= 0 {
		return
	}
	c.dc.Push()
	c.dc.Translate(x, y)
	c.dc.Scale(scale, scale)
	c.dc.SetFontFace(para.face)
	c.setColor(para.color.WithAlpha(alpha))
	for i, line := range para.lines {
		c.dc.DrawString(line, para.lineX(i), para.ascent+float64(i)*para.lineHeight)
	}
	c.dc.Pop()
}

// Snapshot copies the current pixels.
func (c *Canvas) Snapshot() m2c2.Image {
	src := c.dc.Image()
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return NewImage(dst)
}

func (c *Canvas) setColor(col m2c2.Color) {
	c.dc.SetRGBA(col.R/255, col.G/255, col.B/255, col.A)
}

func (c *Canvas) paint(p m2c2.Paint) {
	c.setColor(p.Color)
	if p.Style == m2c2.PaintStroke {
		c.dc.SetLineWidth(p.StrokeWidth)
		c.dc.Stroke()
		return
	}
	c.dc.Fill()
}

// fade returns a copy of src with its alpha multiplied by alpha.
func fade(src image.Image, alpha float64) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	mask := image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	draw.DrawMask(dst, b, src, b.Min, mask, image.Point{}, draw.Over)
	return dst
}

// Image adapts a standard library image to m2c2.Image.
type Image struct {
	img image.Image
}

var _ m2c2.Image = (*Image)(nil)

// NewImage wraps img.
func NewImage(img image.Image) *Image { return &Image{img: img} }

func (i *Image) Width() int           { return i.img.Bounds().Dx() }
func (i *Image) Height() int          { return i.img.Bounds().Dy() }
func (i *Image) ToImage() image.Image { return i.img }

// NewImages returns an image manager that reads PNG and JPEG files from
// fsys. locales resolves localized images and may be nil; it is called at
// load time, so it can close over a game created afterwards.
func NewImages(fsys fs.FS, locales func() (string, string)) *m2c2.MemoryImages {
	images := m2c2.NewMemoryImages()
	images.Loader = m2c2.ImageLoader(fsys, func(img image.Image) (m2c2.Image, error) {
		return NewImage(img), nil
	}, locales)
	return images
}
