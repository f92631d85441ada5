package m2c2

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Node is the fundamental scene graph element. A single flat struct is used
// for every node kind; kind-specific state hangs off per-kind structs that
// are nil for other kinds.
type Node struct {
	// Identity
	uuid          string
	name          string
	nodeType      NodeType
	compositeType string

	// Hierarchy
	parent   *Node
	children []*Node

	// Local properties
	position    Point
	scale       float64
	alpha       float64
	zRotation   float64
	zPosition   float64
	anchorPoint Point
	size        Size
	hidden      bool
	draggable   bool
	interactive bool
	layout      *Layout

	// Computed during Update
	absolutePosition    Point
	absoluteScale       float64
	absoluteAlpha       float64
	absoluteAlphaChange float64
	absoluteZRotation   float64

	needsInitialization bool
	actions             []Action

	// Kind-specific state
	scene    *sceneState
	shape    *shapeState
	text     *textState
	sprite   *spriteState
	sound    *soundPlayerState
	recorder *soundRecorderState

	// Event capture
	options        any // constructor option bag, recorded in NodeNew
	createdAt      float64
	sequence       int64
	pendingEvents  []Event
	suppressEvents bool
	handlers       nodeHandlers

	// Child ordering caches
	updateOrder      []*Node
	updateOrderDirty bool
	childrenSorted   bool
	sortedChildren   []*Node

	disposed bool

	// UserData holds arbitrary application data. It is not recorded.
	UserData any
	// EntityID links the node to an ECS entity. Pointer events on nodes
	// with a nonzero EntityID are forwarded to the game's EntityStore.
	EntityID uint32
	// HitShape, when set, replaces the bounding box for hit testing.
	HitShape HitShape
}

// NodeOptions are the options shared by every node kind.
type NodeOptions struct {
	Name                     string   `json:"name,omitempty" mapstructure:"name"`
	Position                 *Point   `json:"position,omitempty" mapstructure:"position"`
	Scale                    *float64 `json:"scale,omitempty" mapstructure:"scale"`
	Alpha                    *float64 `json:"alpha,omitempty" mapstructure:"alpha"`
	ZRotation                float64  `json:"zRotation,omitempty" mapstructure:"zRotation"`
	ZPosition                float64  `json:"zPosition,omitempty" mapstructure:"zPosition"`
	AnchorPoint              *Point   `json:"anchorPoint,omitempty" mapstructure:"anchorPoint"`
	Hidden                   bool     `json:"hidden,omitempty" mapstructure:"hidden"`
	Draggable                bool     `json:"draggable,omitempty" mapstructure:"draggable"`
	IsUserInteractionEnabled bool     `json:"isUserInteractionEnabled,omitempty" mapstructure:"isUserInteractionEnabled"`
	Layout                   *Layout  `json:"layout,omitempty" mapstructure:"layout"`
	SuppressEvents           bool     `json:"suppressEvents,omitempty" mapstructure:"suppressEvents"`
}

// NewNode creates a plain container node with no visual output.
func NewNode(opts NodeOptions) *Node {
	return newNode(NodeTypeNode, opts, opts, "")
}

// CompositeOptions configure a Composite node. CompositeType names the
// application widget the composite implements.
type CompositeOptions struct {
	NodeOptions   `mapstructure:",squash"`
	CompositeType string `json:"compositeType,omitempty" mapstructure:"compositeType"`
	Size          *Size  `json:"size,omitempty" mapstructure:"size"`
}

// NewComposite creates a composite container. Composite widgets build their
// visual content from child nodes.
func NewComposite(opts CompositeOptions) *Node {
	return newComposite(opts, "")
}

func newComposite(opts CompositeOptions, id string) *Node {
	n := newNodeBase(NodeTypeComposite, opts.NodeOptions, id)
	n.compositeType = opts.CompositeType
	if opts.Size != nil {
		n.size = *opts.Size
	}
	n.recordNew(opts)
	return n
}

// newNode builds a node of the given kind and records its construction.
func newNode(t NodeType, common NodeOptions, all any, id string) *Node {
	n := newNodeBase(t, common, id)
	n.recordNew(all)
	return n
}

// newNodeBase applies the shared defaults and options. id is the UUID to
// use, or "" to generate one.
func newNodeBase(t NodeType, opts NodeOptions, id string) *Node {
	if id == "" {
		id = uuid.NewString()
	}
	n := &Node{
		uuid:                id,
		name:                opts.Name,
		nodeType:            t,
		scale:               1,
		alpha:               1,
		absoluteScale:       1,
		anchorPoint:         Point{0.5, 0.5},
		zRotation:           opts.ZRotation,
		zPosition:           opts.ZPosition,
		hidden:              opts.Hidden,
		draggable:           opts.Draggable,
		interactive:         opts.IsUserInteractionEnabled,
		layout:              opts.Layout,
		suppressEvents:      opts.SuppressEvents,
		needsInitialization: true,
		childrenSorted:      true,
		updateOrderDirty:    true,
		createdAt:           now(),
	}
	if n.name == "" {
		n.name = id
	}
	if opts.Position != nil {
		n.position = *opts.Position
	}
	if opts.Scale != nil {
		n.scale = *opts.Scale
	}
	if opts.Alpha != nil {
		n.alpha = *opts.Alpha
	}
	if opts.AnchorPoint != nil {
		n.anchorPoint = *opts.AnchorPoint
	}
	if opts.Layout != nil {
		if opts.Layout.Width > 0 {
			n.size.Width = opts.Layout.Width
		}
		if opts.Layout.Height > 0 {
			n.size.Height = opts.Layout.Height
		}
	}
	return n
}

// recordNew emits the NodeNew event carrying the full option bag.
func (n *Node) recordNew(opts any) {
	n.options = opts
	ev := Event{
		Type:          EventNodeNew,
		Target:        n,
		UUID:          n.uuid,
		NodeType:      n.nodeType,
		CompositeType: n.compositeType,
		NodeOptions:   opts,
	}
	n.emit(&ev)
	n.sequence = ev.Sequence
}

// --- Identity ---

// UUID returns the node's immutable unique identifier.
func (n *Node) UUID() string { return n.uuid }

// Name returns the node's name. It defaults to the UUID.
func (n *Node) Name() string { return n.name }

// Type returns the node kind.
func (n *Node) Type() NodeType { return n.nodeType }

// CompositeType returns the widget type of a Composite node.
func (n *Node) CompositeType() string { return n.compositeType }

// Sequence returns the event sequence number assigned at construction.
func (n *Node) Sequence() int64 { return n.sequence }

// CreatedAt returns the clock timestamp at construction, in milliseconds.
func (n *Node) CreatedAt() float64 { return n.createdAt }

// String returns a short description for logs and panics.
func (n *Node) String() string {
	return fmt.Sprintf("%s %q", n.nodeType, n.name)
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
//
// Panics if child is nil, is this node, is a Scene, shares its name with an
// existing child, already has a parent, or is an ancestor of this node. No
// state changes before the checks pass.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("m2c2: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if child == n {
		panic(fmt.Sprintf("m2c2: cannot add %s as a child of itself", n))
	}
	if child.nodeType == NodeTypeScene {
		panic(fmt.Sprintf("m2c2: cannot add scene %q to %s; scenes may only be added to the game", child.name, n))
	}
	if child.parent == n {
		panic(fmt.Sprintf("m2c2: %s is already a child of %s", child, n))
	}
	if child.parent != nil {
		panic(fmt.Sprintf("m2c2: cannot add %s to %s: it already has a different parent, %s", child, n, child.parent))
	}
	for _, sibling := range n.children {
		if sibling.name == child.name {
			panic(fmt.Sprintf("m2c2: cannot add %s to %s: a child with the same name already exists", child, n))
		}
	}
	if isAncestor(child, n) {
		panic("m2c2: adding child would create a cycle")
	}

	child.parent = n
	n.children = append(n.children, child)
	n.childrenSorted = false
	n.updateOrderDirty = true

	n.adoptPendingEvents(child)
	n.emit(&Event{
		Type:      EventNodeAddChild,
		Target:    n,
		UUID:      n.uuid,
		ChildUUID: child.uuid,
	})
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node.
// Panics if child is not a child of this node.
func (n *Node) RemoveChild(child *Node) {
	if child == nil || child.parent != n {
		panic(fmt.Sprintf("m2c2: cannot remove %v: it is not a child of %s", child, n))
	}
	n.removeChild(child)
}

// RemoveChildren detaches every node in children. Panics, before removing
// anything, if any of them is not a child of this node.
func (n *Node) RemoveChildren(children []*Node) {
	for _, c := range children {
		if c == nil || c.parent != n {
			panic(fmt.Sprintf("m2c2: cannot remove %v: it is not a child of %s", c, n))
		}
	}
	for _, c := range children {
		n.removeChild(c)
	}
}

// RemoveAllChildren detaches all children. Children are not disposed.
func (n *Node) RemoveAllChildren() {
	for len(n.children) > 0 {
		n.removeChild(n.children[len(n.children)-1])
	}
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.parent == nil {
		return
	}
	n.parent.RemoveChild(n)
}

func (n *Node) removeChild(child *Node) {
	n.removeChildByPtr(child)
	child.parent = nil
	n.childrenSorted = false
	n.updateOrderDirty = true
	n.emit(&Event{
		Type:      EventNodeRemoveChild,
		Target:    n,
		UUID:      n.uuid,
		ChildUUID: child.uuid,
	})
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node { return n.children[index] }

// ChildByName returns the direct child called name, or nil.
func (n *Node) ChildByName(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Descendants returns every node below this one, depth first.
func (n *Node) Descendants() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(p *Node) {
		for _, c := range p.children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	return out
}

// DescendantByName returns the first descendant, depth first, called name.
func (n *Node) DescendantByName(name string) *Node {
	return n.findDescendant(func(c *Node) bool { return c.name == name })
}

// DescendantByUUID returns the descendant with the given UUID.
func (n *Node) DescendantByUUID(id string) *Node {
	return n.findDescendant(func(c *Node) bool { return c.uuid == id })
}

func (n *Node) findDescendant(match func(*Node) bool) *Node {
	for _, c := range n.children {
		if match(c) {
			return c
		}
		if d := c.findDescendant(match); d != nil {
			return d
		}
	}
	return nil
}

// Ancestors returns the parent chain, nearest first.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Root returns the topmost ancestor, or n itself.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Scene returns the enclosing scene, or nil if the node is not in one.
func (n *Node) Scene() *Node {
	for p := n; p != nil; p = p.parent {
		if p.nodeType == NodeTypeScene {
			return p
		}
	}
	return nil
}

// Game returns the game the node's tree is attached to, or nil.
func (n *Node) Game() *Game {
	r := n.Root()
	if r.scene != nil {
		return r.scene.game
	}
	return nil
}

// --- Disposal ---

// Dispose detaches the node from its parent, releases drawing resources
// held by it and its descendants, and marks them disposed.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.disposeTree()
}

func (n *Node) disposeTree() {
	n.disposed = true
	n.releaseResources()
	n.removeActions()
	for _, c := range n.children {
		c.disposeTree()
	}
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool { return n.disposed }

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// adoptPendingEvents moves events buffered on child's subtree, while it was
// detached from any game, into n's event path. Original sequence numbers are
// kept.
func (n *Node) adoptPendingEvents(child *Node) {
	pending := takePendingEvents(child)
	for i := range pending {
		n.emit(&pending[i])
	}
}

// takePendingEvents removes and returns the events buffered in n's
// subtree, in sequence order.
func takePendingEvents(n *Node) []Event {
	var pending []Event
	var collect func(*Node)
	collect = func(c *Node) {
		pending = append(pending, c.pendingEvents...)
		c.pendingEvents = nil
		for _, gc := range c.children {
			collect(gc)
		}
	}
	collect(n)
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Sequence < pending[j].Sequence })
	return pending
}

// emit stamps ev and routes it to the game's event handling, or buffers it
// on the node while the node is not attached to a game.
func (n *Node) emit(ev *Event) {
	stampEvent(ev)
	if n.eventsSuppressed() {
		return
	}
	if g := n.Game(); g != nil {
		g.handleEvent(*ev)
		return
	}
	n.pendingEvents = append(n.pendingEvents, *ev)
}

// stampEvent assigns the sequence number and timestamps of ev, keeping
// any already set.
func stampEvent(ev *Event) {
	if ev.Sequence == 0 {
		ev.Sequence = nextSequence()
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = now()
	}
	if ev.ISO8601Timestamp == "" {
		ev.ISO8601Timestamp = isoNow()
	}
}

func (n *Node) eventsSuppressed() bool {
	for p := n; p != nil; p = p.parent {
		if p.suppressEvents {
			return true
		}
	}
	return false
}

// withoutEvents runs fn with event emission suppressed on n.
func (n *Node) withoutEvents(fn func()) {
	prev := n.suppressEvents
	n.suppressEvents = true
	defer func() { n.suppressEvents = prev }()
	fn()
}
