package m2c2

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// rotationAbout returns the affine matrix rotating by angle radians around
// (cx, cy). Positive angles rotate counterclockwise on screen, which is a
// negative angle in the Y-down coordinate system.
//
//	Translate(cx, cy) -> Rotate(-angle) -> Translate(-cx, -cy)
func rotationAbout(cx, cy, angle float64) [6]float64 {
	sin, cos := math.Sincos(-angle)
	return [6]float64{
		cos, sin, -sin, cos,
		cx - cos*cx + sin*cy,
		cy - sin*cx - cos*cy,
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// rotationTransform composes the rotations of n and all its ancestors, each
// about that node's absolute position, outermost first. Positions and scale
// are already absolute, so rotation is the only part left to compose.
func (n *Node) rotationTransform() [6]float64 {
	m := identityTransform
	var chain []*Node
	for p := n; p != nil; p = p.parent {
		if p.zRotation != 0 {
			chain = append(chain, p)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		m = multiplyAffine(m, rotationAbout(p.absolutePosition.X, p.absolutePosition.Y, p.zRotation))
	}
	return m
}

// absoluteBounds returns the unrotated absolute rectangle the node covers.
func (n *Node) absoluteBounds() Rect {
	w := n.size.Width * n.absoluteScale
	h := n.size.Height * n.absoluteScale
	return Rect{
		X:      n.absolutePosition.X - w*n.anchorPoint.X,
		Y:      n.absolutePosition.Y - h*n.anchorPoint.Y,
		Width:  w,
		Height: h,
	}
}

// RotatedBoundingBox returns the axis-aligned rectangle enclosing the node
// after its own and its ancestors' rotations are applied.
func (n *Node) RotatedBoundingBox() Rect {
	b := n.absoluteBounds()
	m := n.rotationTransform()
	if m == identityTransform {
		return b
	}
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = transformPoint(m, b.X, b.Y)
	xs[1], ys[1] = transformPoint(m, b.X+b.Width, b.Y)
	xs[2], ys[2] = transformPoint(m, b.X+b.Width, b.Y+b.Height)
	xs[3], ys[3] = transformPoint(m, b.X, b.Y+b.Height)
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// containsPoint reports whether the canvas point (x, y) falls inside the
// node's rotated bounds.
func (n *Node) containsPoint(x, y float64) bool {
	if n.size.Width == 0 || n.size.Height == 0 {
		return false
	}
	if n.zRotation != 0 || n.hasRotatedAncestor() {
		x, y = transformPoint(invertAffine(n.rotationTransform()), x, y)
	}
	return n.absoluteBounds().Contains(x, y)
}

func (n *Node) hasRotatedAncestor() bool {
	for p := n.parent; p != nil; p = p.parent {
		if p.zRotation != 0 {
			return true
		}
	}
	return false
}

// --- Coordinate conversion ---

// CanvasToLocal converts a canvas point to this node's local space: the
// origin is the node's top-left corner and units are unscaled node units.
func (n *Node) CanvasToLocal(x, y float64) Point {
	x, y = transformPoint(invertAffine(n.rotationTransform()), x, y)
	b := n.absoluteBounds()
	s := n.absoluteScale
	if s == 0 {
		return Point{}
	}
	return Point{X: (x - b.X) / s, Y: (y - b.Y) / s}
}

// LocalToCanvas converts a local point (origin at the node's top-left, in
// unscaled node units) to canvas coordinates.
func (n *Node) LocalToCanvas(p Point) Point {
	b := n.absoluteBounds()
	x := b.X + p.X*n.absoluteScale
	y := b.Y + p.Y*n.absoluteScale
	x, y = transformPoint(n.rotationTransform(), x, y)
	return Point{X: x, Y: y}
}

// normalizeAngle maps a to [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
