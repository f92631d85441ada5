package m2c2

import "fmt"

// ShapeType is the geometry of a Shape.
type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeCircle    ShapeType = "circle"
	ShapePathType  ShapeType = "path"
)

// ShapePath is a set of polylines drawn within a box of Size. Point
// coordinates are relative to the box's top-left corner.
type ShapePath struct {
	Subpaths [][]Point `json:"subpaths" mapstructure:"subpaths"`
	Size     Size      `json:"size" mapstructure:"size"`
}

// ShapeOptions configure a Shape. Set at most one of CircleOfRadius, Rect
// and Path.
type ShapeOptions struct {
	NodeOptions    `mapstructure:",squash"`
	CircleOfRadius *float64   `json:"circleOfRadius,omitempty" mapstructure:"circleOfRadius"`
	Rect           *Size      `json:"rect,omitempty" mapstructure:"rect"`
	CornerRadius   float64    `json:"cornerRadius,omitempty" mapstructure:"cornerRadius"`
	Path           *ShapePath `json:"path,omitempty" mapstructure:"path"`
	FillColor      *Color     `json:"fillColor,omitempty" mapstructure:"fillColor"`
	StrokeColor    *Color     `json:"strokeColor,omitempty" mapstructure:"strokeColor"`
	LineWidth      *float64   `json:"lineWidth,omitempty" mapstructure:"lineWidth"`
	IsAntialiased  *bool      `json:"isAntialiased,omitempty" mapstructure:"isAntialiased"`
}

// Shape defaults.
var (
	DefaultShapeFillColor  = Color{255, 0, 0, 1}
	DefaultPathStrokeColor = Color{255, 0, 0, 1}
	defaultShapeLineWidth  = 1.0
	defaultPathLineWidth   = 2.0
)

type shapeState struct {
	shapeType      ShapeType
	circleOfRadius float64
	rect           Size
	cornerRadius   float64
	path           *ShapePath
	fillColor      Color
	strokeColor    *Color
	lineWidth      float64
	antialiased    bool

	fillPaint   Paint
	strokePaint Paint
}

// NewShape creates a circle, rectangle or path shape. Panics if more than
// one geometry is given. Without geometry the shape is an empty rectangle.
func NewShape(opts ShapeOptions) *Node {
	return newShape(opts, "")
}

func newShape(opts ShapeOptions, id string) *Node {
	geometries := 0
	for _, set := range []bool{opts.CircleOfRadius != nil, opts.Rect != nil, opts.Path != nil} {
		if set {
			geometries++
		}
	}
	if geometries > 1 {
		panic(fmt.Sprintf("m2c2: shape %q must have only one of circleOfRadius, rect or path", opts.Name))
	}

	n := newNodeBase(NodeTypeShape, opts.NodeOptions, id)
	s := &shapeState{
		shapeType:    ShapeRectangle,
		cornerRadius: opts.CornerRadius,
		fillColor:    DefaultShapeFillColor,
		strokeColor:  opts.StrokeColor,
		antialiased:  true,
	}
	switch {
	case opts.CircleOfRadius != nil:
		s.shapeType = ShapeCircle
		s.circleOfRadius = *opts.CircleOfRadius
	case opts.Rect != nil:
		s.rect = *opts.Rect
	case opts.Path != nil:
		s.shapeType = ShapePathType
		s.path = opts.Path
		if s.strokeColor == nil {
			c := DefaultPathStrokeColor
			s.strokeColor = &c
		}
	}
	if opts.FillColor != nil {
		s.fillColor = *opts.FillColor
	}
	switch {
	case opts.LineWidth != nil:
		s.lineWidth = *opts.LineWidth
	case s.shapeType == ShapePathType:
		s.lineWidth = defaultPathLineWidth
	case s.strokeColor != nil:
		s.lineWidth = defaultShapeLineWidth
	}
	if opts.IsAntialiased != nil {
		s.antialiased = *opts.IsAntialiased
	}
	n.shape = s
	n.size = s.contentSize()
	n.recordNew(opts)
	return n
}

func (s *shapeState) contentSize() Size {
	switch s.shapeType {
	case ShapeCircle:
		return Size{Width: s.circleOfRadius * 2, Height: s.circleOfRadius * 2}
	case ShapePathType:
		return s.path.Size
	}
	return s.rect
}

// ShapeType returns the geometry of a Shape.
func (n *Node) ShapeType() ShapeType {
	n.mustBe("shapeType", NodeTypeShape)
	return n.shape.shapeType
}

// CircleOfRadius returns the radius of a circle shape.
func (n *Node) CircleOfRadius() float64 {
	n.mustBe("circleOfRadius", NodeTypeShape)
	return n.shape.circleOfRadius
}

// SetCircleOfRadius makes the shape a circle of radius r.
func (n *Node) SetCircleOfRadius(r float64) {
	n.mustBe("circleOfRadius", NodeTypeShape)
	if setProperty(n, "circleOfRadius", &n.shape.circleOfRadius, r, true) || n.shape.shapeType != ShapeCircle {
		n.shape.shapeType = ShapeCircle
		n.size = n.shape.contentSize()
		n.needsInitialization = true
	}
}

// Rect returns the size of a rectangle shape.
func (n *Node) Rect() Size {
	n.mustBe("rect", NodeTypeShape)
	return n.shape.rect
}

// SetRect makes the shape a rectangle of size s.
func (n *Node) SetRect(s Size) {
	n.mustBe("rect", NodeTypeShape)
	if setProperty(n, "rect", &n.shape.rect, s, true) || n.shape.shapeType != ShapeRectangle {
		n.shape.shapeType = ShapeRectangle
		n.size = n.shape.contentSize()
		n.needsInitialization = true
	}
}

// SetPath makes the shape a path.
func (n *Node) SetPath(p ShapePath) {
	n.mustBe("path", NodeTypeShape)
	if setProperty(n, "path", &n.shape.path, &p, true) || n.shape.shapeType != ShapePathType {
		n.shape.shapeType = ShapePathType
		n.size = n.shape.contentSize()
		n.needsInitialization = true
	}
}

// SetCornerRadius rounds the corners of a rectangle shape.
func (n *Node) SetCornerRadius(r float64) {
	n.mustBe("cornerRadius", NodeTypeShape)
	setProperty(n, "cornerRadius", &n.shape.cornerRadius, r, true)
}

// FillColor returns the fill of a shape.
func (n *Node) FillColor() Color {
	n.mustBe("fillColor", NodeTypeShape)
	return n.shape.fillColor
}

// SetFillColor sets the fill of a shape.
func (n *Node) SetFillColor(c Color) {
	n.mustBe("fillColor", NodeTypeShape)
	setProperty(n, "fillColor", &n.shape.fillColor, c, true)
}

// StrokeColor returns the outline color of a shape and whether one is set.
func (n *Node) StrokeColor() (Color, bool) {
	n.mustBe("strokeColor", NodeTypeShape)
	if n.shape.strokeColor == nil {
		return Color{}, false
	}
	return *n.shape.strokeColor, true
}

// SetStrokeColor sets the outline color of a shape.
func (n *Node) SetStrokeColor(c Color) {
	n.mustBe("strokeColor", NodeTypeShape)
	setProperty(n, "strokeColor", &n.shape.strokeColor, &c, true)
}

// LineWidth returns the outline width of a shape.
func (n *Node) LineWidth() float64 {
	n.mustBe("lineWidth", NodeTypeShape)
	return n.shape.lineWidth
}

// SetLineWidth sets the outline width of a shape.
func (n *Node) SetLineWidth(w float64) {
	n.mustBe("lineWidth", NodeTypeShape)
	setProperty(n, "lineWidth", &n.shape.lineWidth, w, true)
}

// SetAntialiased enables or disables antialiasing of a shape.
func (n *Node) SetAntialiased(a bool) {
	n.mustBe("isAntialiased", NodeTypeShape)
	setProperty(n, "isAntialiased", &n.shape.antialiased, a, true)
}

func (n *Node) initShape() {
	s := n.shape
	s.fillPaint = Paint{
		Color:     s.fillColor.WithAlpha(n.absoluteAlpha),
		Style:     PaintFill,
		Antialias: s.antialiased,
	}
	if s.strokeColor != nil {
		s.strokePaint = Paint{
			Color:       s.strokeColor.WithAlpha(n.absoluteAlpha),
			Style:       PaintStroke,
			StrokeWidth: s.lineWidth * n.absoluteScale,
			Antialias:   s.antialiased,
		}
	}
}

func (n *Node) drawShape(c Canvas) {
	s := n.shape
	b := n.absoluteBounds()
	stroke := s.strokeColor != nil && s.lineWidth > 0
	if stroke {
		// Line width follows the current absolute scale.
		s.strokePaint.StrokeWidth = s.lineWidth * n.absoluteScale
	}
	switch s.shapeType {
	case ShapeCircle:
		cx, cy := b.X+b.Width/2, b.Y+b.Height/2
		r := s.circleOfRadius * n.absoluteScale
		c.DrawCircle(cx, cy, r, s.fillPaint)
		if stroke {
			c.DrawCircle(cx, cy, r, s.strokePaint)
		}
	case ShapeRectangle:
		if s.cornerRadius > 0 {
			r := s.cornerRadius * n.absoluteScale
			c.DrawRoundedRect(b, r, s.fillPaint)
			if stroke {
				c.DrawRoundedRect(b, r, s.strokePaint)
			}
			return
		}
		c.DrawRect(b, s.fillPaint)
		if stroke {
			c.DrawRect(b, s.strokePaint)
		}
	case ShapePathType:
		if !stroke || s.path == nil {
			return
		}
		pts := make([]Point, 0, 16)
		for _, sub := range s.path.Subpaths {
			pts = pts[:0]
			for _, p := range sub {
				pts = append(pts, Point{X: b.X + p.X*n.absoluteScale, Y: b.Y + p.Y*n.absoluteScale})
			}
			c.DrawPath(pts, s.strokePaint)
		}
	}
}
