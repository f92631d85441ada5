package ggcanvas

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/m2c2kit/m2c2"
)

// Typesetter lays out text with TrueType fonts parsed by freetype. Parsed
// fonts are cached by name.
type Typesetter struct {
	mu    sync.Mutex
	fonts map[string]*truetype.Font
}

var _ m2c2.Typesetter = (*Typesetter)(nil)

// NewTypesetter returns a typesetter with an empty font cache.
func NewTypesetter() *Typesetter {
	return &Typesetter{fonts: make(map[string]*truetype.Font)}
}

func (t *Typesetter) parse(res m2c2.FontResource) (*truetype.Font, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.fonts[res.Name]; ok {
		return f, nil
	}
	if len(res.Data) == 0 {
		return nil, errors.New("ggcanvas: font has no data")
	}
	f, err := truetype.Parse(res.Data)
	if err != nil {
		return nil, fmt.Errorf("ggcanvas: parse font %q: %w", res.Name, err)
	}
	t.fonts[res.Name] = f
	return f, nil
}

// LayoutParagraph wraps text to maxWidth and measures it at style's size.
func (t *Typesetter) LayoutParagraph(text string, style m2c2.TextStyle, maxWidth float64) (m2c2.Paragraph, error) {
	f, err := t.parse(style.Font)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    style.FontSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	measure := func(s string) float64 {
		return float64(font.MeasureString(face, s)) / 64
	}
	p := &paragraph{
		face:       face,
		color:      style.Color,
		align:      style.Align,
		lines:      m2c2.WrapText(text, maxWidth, measure),
		ascent:     float64(face.Metrics().Ascent) / 64,
		lineHeight: float64(face.Metrics().Height) / 64,
	}
	p.widths = make([]float64, len(p.lines))
	for i, line := range p.lines {
		p.widths[i] = measure(line)
		p.width = max(p.width, p.widths[i])
	}
	return p, nil
}

type paragraph struct {
	face       font.Face
	color      m2c2.Color
	align      m2c2.HorizontalAlignmentMode
	lines      []string
	widths     []float64
	width      float64
	ascent     float64
	lineHeight float64
}

func (p *paragraph) Width() float64 { return p.width }

func (p *paragraph) Height() float64 { return float64(len(p.lines)) * p.lineHeight }

func (p *paragraph) Dispose() { p.face.Close() }

// lineX returns the left edge of line i within the paragraph width.
func (p *paragraph) lineX(i int) float64 {
	switch p.align {
	case m2c2.AlignCenter:
		return (p.width - p.widths[i]) / 2
	case m2c2.AlignRight:
		return p.width - p.widths[i]
	}
	return 0
}
