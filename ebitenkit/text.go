package ebitenkit

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/m2c2kit/m2c2"
)

// Typesetter lays out text with text/v2 faces. Font sources are parsed
// once per font name.
type Typesetter struct {
	mu      sync.Mutex
	sources map[string]*text.GoTextFaceSource
}

var _ m2c2.Typesetter = (*Typesetter)(nil)

// NewTypesetter returns a typesetter with an empty source cache.
func NewTypesetter() *Typesetter {
	return &Typesetter{sources: make(map[string]*text.GoTextFaceSource)}
}

func (t *Typesetter) source(res m2c2.FontResource) (*text.GoTextFaceSource, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sources[res.Name]; ok {
		return s, nil
	}
	if len(res.Data) == 0 {
		return nil, errors.New("ebitenkit: font has no data")
	}
	s, err := text.NewGoTextFaceSource(bytes.NewReader(res.Data))
	if err != nil {
		return nil, fmt.Errorf("ebitenkit: parse font %q: %w", res.Name, err)
	}
	t.sources[res.Name] = s
	return s, nil
}

// LayoutParagraph wraps text to maxWidth and measures it at style's size.
func (t *Typesetter) LayoutParagraph(s string, style m2c2.TextStyle, maxWidth float64) (m2c2.Paragraph, error) {
	src, err := t.source(style.Font)
	if err != nil {
		return nil, err
	}
	face := &text.GoTextFace{Source: src, Size: style.FontSize}
	m := face.Metrics()
	p := &paragraph{
		face:       face,
		color:      style.Color,
		align:      style.Align,
		lineHeight: m.HAscent + m.HDescent + m.HLineGap,
	}
	measure := func(line string) float64 { return text.Advance(line, face) }
	p.lines = m2c2.WrapText(s, maxWidth, measure)
	p.widths = make([]float64, len(p.lines))
	for i, line := range p.lines {
		p.widths[i] = measure(line)
		p.width = max(p.width, p.widths[i])
	}
	return p, nil
}

type paragraph struct {
	face       *text.GoTextFace
	color      m2c2.Color
	align      m2c2.HorizontalAlignmentMode
	lines      []string
	widths     []float64
	width      float64
	lineHeight float64
}

func (p *paragraph) Width() float64 { return p.width }

func (p *paragraph) Height() float64 { return float64(len(p.lines)) * p.lineHeight }

func (p *paragraph) Dispose() {}

func (p *paragraph) lineX(i int) float64 {
	switch p.align {
	case m2c2.AlignCenter:
		return (p.width - p.widths[i]) / 2
	case m2c2.AlignRight:
		return p.width - p.widths[i]
	}
	return 0
}

// DrawParagraph draws a paragraph from this package's Typesetter.
func (c *Canvas) DrawParagraph(p m2c2.Paragraph, x, y, scale, alpha float64) {
	para, ok := p.(*paragraph)
	if !ok || alpha <= 0 {
		return
	}
	dst := c.dst()
	for i, line := range para.lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(para.lineX(i), float64(i)*para.lineHeight)
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(x, y)
		op.GeoM.Concat(c.state.geoM)
		op.ColorScale.ScaleWithColor(toNRGBA(para.color))
		op.ColorScale.ScaleAlpha(float32(alpha))
		text.Draw(dst, line, para.face, op)
	}
}
