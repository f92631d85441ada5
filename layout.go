package m2c2

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// ErrConstraintCycle is the panic value, wrapped, when sibling layout
// constraints depend on each other in a cycle.
var ErrConstraintCycle = errors.New("m2c2: layout constraints form a cycle")

// Layout positions a node relative to its parent or siblings instead of by
// its position. Width and Height, when positive, override the node's size.
type Layout struct {
	Width        float64      `json:"width,omitempty" mapstructure:"width"`
	Height       float64      `json:"height,omitempty" mapstructure:"height"`
	MarginStart  float64      `json:"marginStart,omitempty" mapstructure:"marginStart"`
	MarginEnd    float64      `json:"marginEnd,omitempty" mapstructure:"marginEnd"`
	MarginTop    float64      `json:"marginTop,omitempty" mapstructure:"marginTop"`
	MarginBottom float64      `json:"marginBottom,omitempty" mapstructure:"marginBottom"`
	Constraints  *Constraints `json:"constraints,omitempty" mapstructure:"constraints"`
}

// Constraints pin the edges of a node to edges of other nodes. "Start" is
// the left edge and "end" the right edge. Biases position the node between
// two opposing constraints on one axis: 0 pins it to the start or top, 1
// to the end or bottom. They default to 0.5.
type Constraints struct {
	TopToTopOf       *NodeRef `json:"topToTopOf,omitempty" mapstructure:"topToTopOf"`
	TopToBottomOf    *NodeRef `json:"topToBottomOf,omitempty" mapstructure:"topToBottomOf"`
	BottomToTopOf    *NodeRef `json:"bottomToTopOf,omitempty" mapstructure:"bottomToTopOf"`
	BottomToBottomOf *NodeRef `json:"bottomToBottomOf,omitempty" mapstructure:"bottomToBottomOf"`
	StartToStartOf   *NodeRef `json:"startToStartOf,omitempty" mapstructure:"startToStartOf"`
	StartToEndOf     *NodeRef `json:"startToEndOf,omitempty" mapstructure:"startToEndOf"`
	EndToEndOf       *NodeRef `json:"endToEndOf,omitempty" mapstructure:"endToEndOf"`
	EndToStartOf     *NodeRef `json:"endToStartOf,omitempty" mapstructure:"endToStartOf"`
	HorizontalBias   *float64 `json:"horizontalBias,omitempty" mapstructure:"horizontalBias"`
	VerticalBias     *float64 `json:"verticalBias,omitempty" mapstructure:"verticalBias"`
}

// NodeRef refers to a constraint target either directly or by name or
// UUID. It always encodes as a string: the node's UUID for direct refs.
type NodeRef struct {
	node *Node
	id   string
}

// Ref returns a reference to n.
func Ref(n *Node) *NodeRef {
	if n == nil {
		panic("m2c2: cannot reference nil node")
	}
	return &NodeRef{node: n}
}

// RefNamed returns a reference resolved by name or UUID when the layout is
// applied.
func RefNamed(nameOrUUID string) *NodeRef {
	return &NodeRef{id: nameOrUUID}
}

// ID returns the UUID of a direct reference, or the name or UUID given to
// RefNamed.
func (r *NodeRef) ID() string {
	if r.node != nil {
		return r.node.uuid
	}
	return r.id
}

// MarshalJSON encodes the reference as a string.
func (r NodeRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID())
}

// UnmarshalJSON decodes a name or UUID.
func (r *NodeRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("m2c2: decode node reference: %w", err)
	}
	*r = NodeRef{id: id}
	return nil
}

// constraintKind describes one of the eight edge constraints. focalMax is
// true when the constrained edge of the node is its bottom or end; alterMax
// is true when the target edge is the referenced node's bottom or end.
type constraintKind struct {
	name     string
	vertical bool
	focalMax bool
	alterMax bool
	ref      func(*Constraints) *NodeRef
}

var constraintKinds = []constraintKind{
	{"topToTopOf", true, false, false, func(c *Constraints) *NodeRef { return c.TopToTopOf }},
	{"topToBottomOf", true, false, true, func(c *Constraints) *NodeRef { return c.TopToBottomOf }},
	{"bottomToTopOf", true, true, false, func(c *Constraints) *NodeRef { return c.BottomToTopOf }},
	{"bottomToBottomOf", true, true, true, func(c *Constraints) *NodeRef { return c.BottomToBottomOf }},
	{"startToStartOf", false, false, false, func(c *Constraints) *NodeRef { return c.StartToStartOf }},
	{"startToEndOf", false, false, true, func(c *Constraints) *NodeRef { return c.StartToEndOf }},
	{"endToEndOf", false, true, true, func(c *Constraints) *NodeRef { return c.EndToEndOf }},
	{"endToStartOf", false, true, false, func(c *Constraints) *NodeRef { return c.EndToStartOf }},
}

// hasConstraints reports whether the node's layout declares any constraint.
func (n *Node) hasConstraints() bool {
	if n.layout == nil || n.layout.Constraints == nil {
		return false
	}
	for _, k := range constraintKinds {
		if k.ref(n.layout.Constraints) != nil {
			return true
		}
	}
	return false
}

// edgeGeometry is the absolute geometry of one axis of a node.
type edgeGeometry struct {
	position float64 // absolute anchor coordinate
	size     float64 // unscaled size along the axis
	anchor   float64 // anchor along the axis
	scale    float64 // absolute scale
}

func (g edgeGeometry) min() float64 { return g.position - g.size*g.anchor*g.scale }
func (g edgeGeometry) max() float64 { return g.min() + g.size*g.scale }

// calculateYFromConstraint returns the absolute Y of the focal node's
// anchor when its top (focalMax false) or bottom edge is pinned to the
// referenced node's top (alterMax false) or bottom edge, separated by
// margin. Margins are scaled by the focal node's absolute scale.
func calculateYFromConstraint(alter edgeGeometry, alterMax, focalMax bool, focal edgeGeometry, margin float64) float64 {
	return constrainedCoordinate(alter, alterMax, focalMax, focal, margin)
}

// calculateXFromConstraint is calculateYFromConstraint for the horizontal
// axis: start is the left edge and end is the right edge.
func calculateXFromConstraint(alter edgeGeometry, alterMax, focalMax bool, focal edgeGeometry, margin float64) float64 {
	return constrainedCoordinate(alter, alterMax, focalMax, focal, margin)
}

func constrainedCoordinate(alter edgeGeometry, alterMax, focalMax bool, focal edgeGeometry, margin float64) float64 {
	line := alter.min()
	if alterMax {
		line = alter.max()
	}
	scaled := focal.size * focal.scale
	m := margin * focal.scale
	if focalMax {
		// bottom or end edge sits margin before the line
		return line - m - scaled + scaled*focal.anchor
	}
	return line + m + scaled*focal.anchor
}

// geometry returns the node's absolute geometry along one axis.
func (n *Node) geometry(vertical bool) edgeGeometry {
	if vertical {
		return edgeGeometry{n.absolutePosition.Y, n.size.Height, n.anchorPoint.Y, n.absoluteScale}
	}
	return edgeGeometry{n.absolutePosition.X, n.size.Width, n.anchorPoint.X, n.absoluteScale}
}

func (n *Node) margin(vertical, focalMax bool) float64 {
	l := n.layout
	switch {
	case vertical && focalMax:
		return l.MarginBottom
	case vertical:
		return l.MarginTop
	case focalMax:
		return l.MarginEnd
	default:
		return l.MarginStart
	}
}

type candidate struct {
	value    float64
	focalMax bool
}

// resolveConstraints sets the node's absolute position from its layout
// constraints. An axis with one constraint uses it; an axis with two
// opposing constraints places the node between them by bias. Any other
// combination leaves that axis's absolute coordinate unchanged.
func (n *Node) resolveConstraints() {
	c := n.layout.Constraints
	var vertical, horizontal []candidate
	for _, k := range constraintKinds {
		r := k.ref(c)
		if r == nil {
			continue
		}
		alter := n.resolveRef(r)
		v := constrainedCoordinate(alter.geometry(k.vertical), k.alterMax, k.focalMax,
			n.geometry(k.vertical), n.margin(k.vertical, k.focalMax))
		if k.vertical {
			vertical = append(vertical, candidate{v, k.focalMax})
		} else {
			horizontal = append(horizontal, candidate{v, k.focalMax})
		}
	}
	if y, ok := n.blendCandidates(vertical, c.VerticalBias, "vertical"); ok {
		n.absolutePosition.Y = y
	}
	if x, ok := n.blendCandidates(horizontal, c.HorizontalBias, "horizontal"); ok {
		n.absolutePosition.X = x
	}
}

func (n *Node) blendCandidates(cs []candidate, bias *float64, axis string) (float64, bool) {
	switch {
	case len(cs) == 0:
		return 0, false
	case len(cs) == 1:
		return cs[0].value, true
	case len(cs) == 2 && cs[0].focalMax != cs[1].focalMax:
		lo, hi := cs[0], cs[1]
		if lo.focalMax {
			lo, hi = hi, lo
		}
		b := 0.5
		if bias != nil {
			b = *bias
		}
		return lo.value + (hi.value-lo.value)*b, true
	}
	logger().Warn("unresolved layout constraints",
		zap.Stringer("node", n),
		zap.String("axis", axis),
		zap.Int("constraints", len(cs)),
	)
	return 0, false
}

// resolveRef finds the node r refers to: directly, among the scene's nodes
// by UUID or name, or among nodes materialized during replay.
func (n *Node) resolveRef(r *NodeRef) *Node {
	if t := n.lookupRef(r); t != nil {
		return t
	}
	panic(fmt.Sprintf("m2c2: layout constraint of %s refers to unknown node %q", n, r.ID()))
}

func (n *Node) lookupRef(r *NodeRef) *Node {
	if r.node != nil {
		return r.node
	}
	if p := n.parent; p != nil {
		if p.uuid == r.id || p.name == r.id {
			return p
		}
		for _, c := range p.children {
			if c.uuid == r.id || c.name == r.id {
				return c
			}
		}
	}
	if s := n.Scene(); s != nil {
		if s.uuid == r.id || s.name == r.id {
			return s
		}
		if t := s.DescendantByUUID(r.id); t != nil {
			return t
		}
		if t := s.DescendantByName(r.id); t != nil {
			return t
		}
	}
	if g := n.Game(); g != nil {
		return g.materializer.nodes[r.id]
	}
	return nil
}

// childUpdateOrder returns the children in the order they must update so
// that every constraint target is updated before the nodes constrained to
// it. Without sibling constraints it is the insertion order. The order is
// cached until the children or their layouts change.
//
// Panics if sibling constraints form a cycle.
func (n *Node) childUpdateOrder() []*Node {
	if !n.updateOrderDirty {
		return n.updateOrder
	}
	n.updateOrder = n.sortChildrenByConstraints()
	n.updateOrderDirty = false
	return n.updateOrder
}

// sortChildrenByConstraints runs Kahn's algorithm over the sibling
// constraint graph. Edges point from a constrained child to its target;
// the resulting order is reversed so targets come first.
func (n *Node) sortChildrenByConstraints() []*Node {
	index := make(map[*Node]int, len(n.children))
	for i, c := range n.children {
		index[c] = i
	}
	adj := make([][]int, len(n.children))
	constrained := false
	for i, c := range n.children {
		if !c.hasConstraints() {
			continue
		}
		for _, k := range constraintKinds {
			r := k.ref(c.layout.Constraints)
			if r == nil {
				continue
			}
			t := c.lookupRef(r)
			j, sibling := index[t]
			if t == nil || !sibling || slices.Contains(adj[i], j) {
				continue
			}
			adj[i] = append(adj[i], j)
			constrained = true
		}
	}
	if !constrained {
		return slices.Clone(n.children)
	}

	inDegree := make([]int, len(n.children))
	for _, targets := range adj {
		for _, j := range targets {
			inDegree[j]++
		}
	}
	queue := make([]int, 0, len(n.children))
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]*Node, 0, len(n.children))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, n.children[i])
		for _, j := range adj[i] {
			inDegree[j]--
			if inDegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(order) != len(n.children) {
		panic(fmt.Errorf("%w among the children of %s", ErrConstraintCycle, n))
	}
	slices.Reverse(order)
	return order
}
