package m2c2

import "maps"

// LabelOptions configure a Label: multi-line text wrapped at
// PreferredMaxLayoutWidth and aligned by HorizontalAlignmentMode.
type LabelOptions struct {
	NodeOptions             `mapstructure:",squash"`
	Text                    string                  `json:"text,omitempty" mapstructure:"text"`
	FontName                string                  `json:"fontName,omitempty" mapstructure:"fontName"`
	FontColor               *Color                  `json:"fontColor,omitempty" mapstructure:"fontColor"`
	FontSize                *float64                `json:"fontSize,omitempty" mapstructure:"fontSize"`
	HorizontalAlignmentMode HorizontalAlignmentMode `json:"horizontalAlignmentMode,omitempty" mapstructure:"horizontalAlignmentMode"`
	PreferredMaxLayoutWidth *float64                `json:"preferredMaxLayoutWidth,omitempty" mapstructure:"preferredMaxLayoutWidth"`
	BackgroundColor         *Color                  `json:"backgroundColor,omitempty" mapstructure:"backgroundColor"`
	Localize                *bool                   `json:"localize,omitempty" mapstructure:"localize"`
	Interpolation           map[string]string       `json:"interpolation,omitempty" mapstructure:"interpolation"`
}

// TextLineOptions configure a TextLine: a single unwrapped line of text.
type TextLineOptions struct {
	NodeOptions   `mapstructure:",squash"`
	Text          string            `json:"text,omitempty" mapstructure:"text"`
	FontName      string            `json:"fontName,omitempty" mapstructure:"fontName"`
	FontColor     *Color            `json:"fontColor,omitempty" mapstructure:"fontColor"`
	FontSize      *float64          `json:"fontSize,omitempty" mapstructure:"fontSize"`
	Width         *float64          `json:"width,omitempty" mapstructure:"width"`
	Localize      *bool             `json:"localize,omitempty" mapstructure:"localize"`
	Interpolation map[string]string `json:"interpolation,omitempty" mapstructure:"interpolation"`
}

// DefaultFontSize is the text size when none is given.
const DefaultFontSize = 16.0

// DefaultFontColor is the text color when none is given.
var DefaultFontColor = ColorBlack

// textState is shared by Label and TextLine.
type textState struct {
	text          string
	fontName      string
	fontColor     Color
	fontSize      float64
	localize      bool
	interpolation map[string]string

	// Label only
	align                   HorizontalAlignmentMode
	preferredMaxLayoutWidth float64
	backgroundColor         *Color

	// TextLine only
	width float64

	paragraph   Paragraph
	displayText string
}

// NewLabel creates a Label.
func NewLabel(opts LabelOptions) *Node {
	return newLabel(opts, "")
}

func newLabel(opts LabelOptions, id string) *Node {
	n := newNodeBase(NodeTypeLabel, opts.NodeOptions, id)
	t := newTextState(opts.Text, opts.FontName, opts.FontColor, opts.FontSize, opts.Localize, opts.Interpolation)
	t.align = opts.HorizontalAlignmentMode
	if t.align == "" {
		t.align = AlignCenter
	}
	if opts.PreferredMaxLayoutWidth != nil {
		t.preferredMaxLayoutWidth = *opts.PreferredMaxLayoutWidth
	}
	t.backgroundColor = opts.BackgroundColor
	n.text = t
	n.recordNew(opts)
	return n
}

// NewTextLine creates a TextLine. Its anchor point defaults to the left
// edge, vertically centered.
func NewTextLine(opts TextLineOptions) *Node {
	return newTextLine(opts, "")
}

func newTextLine(opts TextLineOptions, id string) *Node {
	n := newNodeBase(NodeTypeTextLine, opts.NodeOptions, id)
	if opts.AnchorPoint == nil {
		n.anchorPoint = Point{0, 0.5}
	}
	t := newTextState(opts.Text, opts.FontName, opts.FontColor, opts.FontSize, opts.Localize, opts.Interpolation)
	t.align = AlignLeft
	if opts.Width != nil {
		t.width = *opts.Width
	}
	n.text = t
	n.recordNew(opts)
	return n
}

func newTextState(text, fontName string, color *Color, size *float64, localize *bool, interp map[string]string) *textState {
	t := &textState{
		text:          text,
		fontName:      fontName,
		fontColor:     DefaultFontColor,
		fontSize:      DefaultFontSize,
		localize:      true,
		interpolation: maps.Clone(interp),
	}
	if color != nil {
		t.fontColor = *color
	}
	if size != nil {
		t.fontSize = *size
	}
	if localize != nil {
		t.localize = *localize
	}
	return t
}

// Text returns the text of a Label or TextLine before localization.
func (n *Node) Text() string {
	n.mustBe("text", NodeTypeLabel, NodeTypeTextLine)
	return n.text.text
}

// DisplayText returns the text as last laid out, after localization.
func (n *Node) DisplayText() string {
	n.mustBe("text", NodeTypeLabel, NodeTypeTextLine)
	return n.text.displayText
}

// SetText sets the text of a Label or TextLine.
func (n *Node) SetText(s string) {
	n.mustBe("text", NodeTypeLabel, NodeTypeTextLine)
	setProperty(n, "text", &n.text.text, s, true)
}

// FontName returns the font of a Label or TextLine; "" is the default font.
func (n *Node) FontName() string {
	n.mustBe("fontName", NodeTypeLabel, NodeTypeTextLine)
	return n.text.fontName
}

// SetFontName sets the font of a Label or TextLine.
func (n *Node) SetFontName(name string) {
	n.mustBe("fontName", NodeTypeLabel, NodeTypeTextLine)
	setProperty(n, "fontName", &n.text.fontName, name, true)
}

// FontColor returns the text color of a Label or TextLine.
func (n *Node) FontColor() Color {
	n.mustBe("fontColor", NodeTypeLabel, NodeTypeTextLine)
	return n.text.fontColor
}

// SetFontColor sets the text color of a Label or TextLine.
func (n *Node) SetFontColor(c Color) {
	n.mustBe("fontColor", NodeTypeLabel, NodeTypeTextLine)
	setProperty(n, "fontColor", &n.text.fontColor, c, true)
}

// FontSize returns the font size of a Label or TextLine.
func (n *Node) FontSize() float64 {
	n.mustBe("fontSize", NodeTypeLabel, NodeTypeTextLine)
	return n.text.fontSize
}

// SetFontSize sets the font size of a Label or TextLine.
func (n *Node) SetFontSize(s float64) {
	n.mustBe("fontSize", NodeTypeLabel, NodeTypeTextLine)
	setProperty(n, "fontSize", &n.text.fontSize, s, true)
}

// SetLocalize controls whether the text is translated through the game's
// I18n before display.
func (n *Node) SetLocalize(l bool) {
	n.mustBe("localize", NodeTypeLabel, NodeTypeTextLine)
	setProperty(n, "localize", &n.text.localize, l, true)
}

// SetInterpolation sets the values substituted for {{name}} placeholders
// in translated text.
func (n *Node) SetInterpolation(values map[string]string) {
	n.mustBe("interpolation", NodeTypeLabel, NodeTypeTextLine)
	setProperty(n, "interpolation", &n.text.interpolation, maps.Clone(values), true)
}

// HorizontalAlignmentMode returns the alignment of a Label.
func (n *Node) HorizontalAlignmentMode() HorizontalAlignmentMode {
	n.mustBe("horizontalAlignmentMode", NodeTypeLabel)
	return n.text.align
}

// SetHorizontalAlignmentMode sets the alignment of a Label.
func (n *Node) SetHorizontalAlignmentMode(m HorizontalAlignmentMode) {
	n.mustBe("horizontalAlignmentMode", NodeTypeLabel)
	setProperty(n, "horizontalAlignmentMode", &n.text.align, m, true)
}

// SetPreferredMaxLayoutWidth sets the wrap width of a Label. Zero disables
// wrapping.
func (n *Node) SetPreferredMaxLayoutWidth(w float64) {
	n.mustBe("preferredMaxLayoutWidth", NodeTypeLabel)
	setProperty(n, "preferredMaxLayoutWidth", &n.text.preferredMaxLayoutWidth, w, true)
}

// SetWidth sets the width of a TextLine. Zero uses the text's width.
func (n *Node) SetWidth(w float64) {
	n.mustBe("width", NodeTypeTextLine)
	setProperty(n, "width", &n.text.width, w, true)
}

// wrapWidth returns the width a Label wraps at.
func (n *Node) wrapWidth() float64 {
	if n.nodeType != NodeTypeLabel {
		return 0
	}
	if n.text.preferredMaxLayoutWidth > 0 {
		return n.text.preferredMaxLayoutWidth
	}
	if n.layout != nil && n.layout.Width > 0 {
		return n.layout.Width
	}
	return 0
}

// initText lays out the text. It reports false while the font or the
// typesetter is unavailable.
func (n *Node) initText() bool {
	g := n.Game()
	if g == nil || g.typesetter == nil {
		return false
	}
	t := n.text
	font := g.font(t.fontName)
	switch font.Status {
	case AssetReady:
	case AssetError:
		panic(&AssetLoadError{Kind: "font", Name: font.Name, Err: font.Err})
	default:
		warnAssetNotReady("font", font.Name, font.Status, n)
		return false
	}

	display := t.text
	if t.localize && g.i18n != nil {
		display = g.i18n.T(t.text, t.interpolation)
	}
	maxWidth := n.wrapWidth()
	p, err := g.typesetter.LayoutParagraph(display, TextStyle{
		Font:     font,
		FontSize: t.fontSize,
		Color:    t.fontColor,
		Align:    t.align,
	}, maxWidth)
	if err != nil {
		panic(&AssetLoadError{Kind: "font", Name: font.Name, Err: err})
	}
	if t.paragraph != nil {
		t.paragraph.Dispose()
	}
	t.paragraph = p
	t.displayText = display

	w := p.Width()
	switch {
	case maxWidth > 0:
		w = maxWidth
	case n.nodeType == NodeTypeTextLine && t.width > 0:
		w = t.width
	}
	n.size = Size{Width: w, Height: p.Height()}
	return true
}

func (n *Node) drawText(c Canvas) {
	t := n.text
	if t.paragraph == nil {
		return
	}
	b := n.absoluteBounds()
	if t.backgroundColor != nil && t.backgroundColor.A > 0 {
		c.DrawRect(b, FillPaint(t.backgroundColor.WithAlpha(n.absoluteAlpha)))
	}
	x := b.X
	if t.paragraph.Width() < n.size.Width {
		// Alignment inside a fixed width the paragraph does not fill.
		switch t.align {
		case AlignCenter:
			x += (n.size.Width - t.paragraph.Width()) / 2 * n.absoluteScale
		case AlignRight:
			x += (n.size.Width - t.paragraph.Width()) * n.absoluteScale
		}
	}
	c.DrawParagraph(t.paragraph, x, b.Y, n.absoluteScale, n.absoluteAlpha)
}
