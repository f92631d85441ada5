package m2c2

import (
	"fmt"
	"reflect"
	"slices"
)

// setProperty assigns v to *field and records a NodePropertyChange event.
// Assigning a value deeply equal to the current one does nothing, so no
// event is recorded. reinit marks the node for re-initialization before
// its next draw. It reports whether the value changed.
func setProperty[T any](n *Node, property string, field *T, v T, reinit bool) bool {
	if reflect.DeepEqual(*field, v) {
		return false
	}
	*field = v
	if reinit {
		n.needsInitialization = true
	}
	n.emit(&Event{
		Type:     EventNodePropertyChange,
		Target:   n,
		UUID:     n.uuid,
		Property: property,
		Value:    v,
	})
	return true
}

// mustBe panics if the node is not one of kinds.
func (n *Node) mustBe(property string, kinds ...NodeType) {
	if !slices.Contains(kinds, n.nodeType) {
		panic(fmt.Sprintf("m2c2: %s has no property %q", n, property))
	}
}

// --- Common properties ---

// SetName renames the node. Panics if a sibling already has name.
func (n *Node) SetName(name string) {
	if name == n.name {
		return
	}
	if n.parent != nil && n.parent.ChildByName(name) != nil {
		panic(fmt.Sprintf("m2c2: cannot rename %s to %q: a sibling has that name", n, name))
	}
	setProperty(n, "name", &n.name, name, false)
	if n.parent != nil {
		n.parent.updateOrderDirty = true
	}
}

// Position returns the position relative to the parent.
func (n *Node) Position() Point { return n.position }

// SetPosition sets the position relative to the parent.
func (n *Node) SetPosition(p Point) { setProperty(n, "position", &n.position, p, false) }

// Scale returns the node's own scale factor.
func (n *Node) Scale() float64 { return n.scale }

// SetScale sets the node's own scale factor.
func (n *Node) SetScale(s float64) { setProperty(n, "scale", &n.scale, s, false) }

// Alpha returns the node's own opacity in [0, 1].
func (n *Node) Alpha() float64 { return n.alpha }

// SetAlpha sets the node's own opacity in [0, 1].
func (n *Node) SetAlpha(a float64) { setProperty(n, "alpha", &n.alpha, a, false) }

// ZRotation returns the rotation in radians, counterclockwise.
func (n *Node) ZRotation() float64 { return n.zRotation }

// SetZRotation sets the rotation in radians, counterclockwise.
func (n *Node) SetZRotation(r float64) { setProperty(n, "zRotation", &n.zRotation, r, false) }

// ZPosition returns the draw order key among siblings.
func (n *Node) ZPosition() float64 { return n.zPosition }

// SetZPosition sets the draw order key among siblings. Higher values draw
// on top.
func (n *Node) SetZPosition(z float64) {
	if setProperty(n, "zPosition", &n.zPosition, z, false) && n.parent != nil {
		n.parent.childrenSorted = false
	}
}

// AnchorPoint returns the anchor in unit coordinates of the node's size.
func (n *Node) AnchorPoint() Point { return n.anchorPoint }

// SetAnchorPoint sets the anchor. (0.5, 0.5) centers the node on its
// position; (0, 0) puts its top-left corner there.
func (n *Node) SetAnchorPoint(p Point) { setProperty(n, "anchorPoint", &n.anchorPoint, p, false) }

// Hidden reports whether the node and its subtree are skipped when drawing.
func (n *Node) Hidden() bool { return n.hidden }

// SetHidden hides or shows the node and its subtree.
func (n *Node) SetHidden(h bool) { setProperty(n, "hidden", &n.hidden, h, false) }

// Draggable reports whether pointer drags move the node.
func (n *Node) Draggable() bool { return n.draggable }

// SetDraggable enables or disables dragging.
func (n *Node) SetDraggable(d bool) { setProperty(n, "draggable", &n.draggable, d, false) }

// IsUserInteractionEnabled reports whether the node receives pointer events.
func (n *Node) IsUserInteractionEnabled() bool { return n.interactive }

// SetUserInteractionEnabled enables or disables pointer events.
func (n *Node) SetUserInteractionEnabled(e bool) {
	setProperty(n, "isUserInteractionEnabled", &n.interactive, e, false)
}

// Layout returns the node's layout, or nil.
func (n *Node) Layout() *Layout { return n.layout }

// SetLayout replaces the node's layout. A layout width or height overrides
// the node's size on that axis.
func (n *Node) SetLayout(l *Layout) {
	if !setProperty(n, "layout", &n.layout, l, true) {
		return
	}
	if l != nil {
		if l.Width > 0 {
			n.size.Width = l.Width
		}
		if l.Height > 0 {
			n.size.Height = l.Height
		}
	}
	if n.parent != nil {
		n.parent.updateOrderDirty = true
	}
}

// Size returns the node's unscaled size.
func (n *Node) Size() Size { return n.size }

// SetSize sets the size of a container or composite node. Other kinds
// derive their size from their content.
func (n *Node) SetSize(s Size) {
	n.mustBe("size", NodeTypeNode, NodeTypeComposite, NodeTypeScene)
	setProperty(n, "size", &n.size, s, false)
}

// AbsolutePosition returns the canvas position computed by the last Update.
func (n *Node) AbsolutePosition() Point { return n.absolutePosition }

// AbsoluteScale returns the product of the scales of the node and its
// ancestors, computed by the last Update.
func (n *Node) AbsoluteScale() float64 { return n.absoluteScale }

// AbsoluteAlpha returns the product of the alphas of the node and its
// ancestors, computed by the last Update.
func (n *Node) AbsoluteAlpha() float64 { return n.absoluteAlpha }

// AbsoluteZRotation returns the sum of the rotations of the node and its
// ancestors, computed by the last Update.
func (n *Node) AbsoluteZRotation() float64 { return n.absoluteZRotation }

// NeedsInitialization reports whether the node will rebuild its drawing
// resources before the next draw.
func (n *Node) NeedsInitialization() bool { return n.needsInitialization }

// --- Property table ---

// propertySpec applies a serialized property value to a node during
// replay. kinds lists the node types that have the property; nil means
// every type.
type propertySpec struct {
	kinds []NodeType
	apply func(n *Node, value any) error
}

func prop[T any](kinds []NodeType, set func(*Node, T)) propertySpec {
	return propertySpec{
		kinds: kinds,
		apply: func(n *Node, value any) error {
			var v T
			if err := decodeValue(value, &v); err != nil {
				return err
			}
			set(n, v)
			return nil
		},
	}
}

var (
	textKinds   = []NodeType{NodeTypeLabel, NodeTypeTextLine}
	labelKinds  = []NodeType{NodeTypeLabel}
	shapeKinds  = []NodeType{NodeTypeShape}
	sizedKinds  = []NodeType{NodeTypeNode, NodeTypeComposite, NodeTypeScene}
	colorKinds  = []NodeType{NodeTypeScene, NodeTypeLabel}
	spriteKinds = []NodeType{NodeTypeSprite}
)

// properties maps every recordable property name to its setter.
var properties = map[string]propertySpec{
	"name":                     prop(nil, (*Node).SetName),
	"position":                 prop(nil, (*Node).SetPosition),
	"scale":                    prop(nil, (*Node).SetScale),
	"alpha":                    prop(nil, (*Node).SetAlpha),
	"zRotation":                prop(nil, (*Node).SetZRotation),
	"zPosition":                prop(nil, (*Node).SetZPosition),
	"anchorPoint":              prop(nil, (*Node).SetAnchorPoint),
	"hidden":                   prop(nil, (*Node).SetHidden),
	"draggable":                prop(nil, (*Node).SetDraggable),
	"isUserInteractionEnabled": prop(nil, (*Node).SetUserInteractionEnabled),
	"layout":                   prop(nil, (*Node).SetLayout),
	"size":                     prop(sizedKinds, (*Node).SetSize),

	"backgroundColor": prop(colorKinds, (*Node).SetBackgroundColor),

	"circleOfRadius": prop(shapeKinds, (*Node).SetCircleOfRadius),
	"rect":           prop(shapeKinds, (*Node).SetRect),
	"cornerRadius":   prop(shapeKinds, (*Node).SetCornerRadius),
	"fillColor":      prop(shapeKinds, (*Node).SetFillColor),
	"strokeColor":    prop(shapeKinds, (*Node).SetStrokeColor),
	"lineWidth":      prop(shapeKinds, (*Node).SetLineWidth),
	"path":           prop(shapeKinds, (*Node).SetPath),
	"isAntialiased":  prop(shapeKinds, (*Node).SetAntialiased),

	"text":                    prop(textKinds, (*Node).SetText),
	"fontName":                prop(textKinds, (*Node).SetFontName),
	"fontColor":               prop(textKinds, (*Node).SetFontColor),
	"fontSize":                prop(textKinds, (*Node).SetFontSize),
	"localize":                prop(textKinds, (*Node).SetLocalize),
	"interpolation":           prop(textKinds, (*Node).SetInterpolation),
	"horizontalAlignmentMode": prop(labelKinds, (*Node).SetHorizontalAlignmentMode),
	"preferredMaxLayoutWidth": prop(labelKinds, (*Node).SetPreferredMaxLayoutWidth),
	"width":                   prop([]NodeType{NodeTypeTextLine}, (*Node).SetWidth),

	"imageName": prop(spriteKinds, (*Node).SetImageName),

	"soundName":       prop([]NodeType{NodeTypeSoundPlayer}, (*Node).SetSoundName),
	"maximumDuration": prop([]NodeType{NodeTypeSoundRecorder}, (*Node).SetMaximumDuration),
}

// applyProperty sets a serialized property on n.
func applyProperty(n *Node, property string, value any) error {
	spec, ok := properties[property]
	if !ok || (spec.kinds != nil && !slices.Contains(spec.kinds, n.nodeType)) {
		return fmt.Errorf("%w: %s has no property %q", ErrUnknownProperty, n, property)
	}
	if err := spec.apply(n, value); err != nil {
		return fmt.Errorf("m2c2: property %q of %s: %w", property, n, err)
	}
	return nil
}
