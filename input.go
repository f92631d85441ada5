package m2c2

import (
	"math"
	"slices"
)

// MaxPointers is the number of pointer slots HandlePointer tracks. Slot 0
// is the mouse and slots 1-9 are touches.
const MaxPointers = 10

const defaultDragDeadZone = 4.0 // canvas units

// --- Hit shapes ---

// HitShape replaces a node's bounding box for hit testing. Coordinates
// are local: origin at the node's top-left corner, unscaled.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// HitPolygon is a convex polygon hit area in local coordinates.
// Points must define a convex polygon in either winding order.
type HitPolygon struct {
	Points []Point
}

// Contains reports whether (x, y) lies inside a convex polygon using cross-product sign test.
func (p HitPolygon) Contains(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	var positive, negative bool
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

// --- Pointer events ---

// PointerEventType identifies a pointer interaction.
type PointerEventType uint8

const (
	TapDown PointerEventType = iota
	TapUp
	TapUpAny
	TapLeave
	PointerDown
	PointerUp
	PointerMove
	PointerLeave
	DragStart
	Drag
	DragEnd
	numPointerEventTypes
)

var pointerEventNames = [numPointerEventTypes]string{
	"TapDown", "TapUp", "TapUpAny", "TapLeave",
	"PointerDown", "PointerUp", "PointerMove", "PointerLeave",
	"DragStart", "Drag", "DragEnd",
}

func (t PointerEventType) String() string {
	if t < numPointerEventTypes {
		return pointerEventNames[t]
	}
	return "PointerEventType(?)"
}

// PointerEvent is passed to node pointer handlers.
type PointerEvent struct {
	Type   PointerEventType
	Target *Node
	// X and Y are canvas coordinates.
	X, Y float64
	// Point is the position in the target's local space.
	Point     Point
	Button    PointerButton
	PointerID int
	// Drag fields, valid for DragStart, Drag and DragEnd.
	StartX, StartY float64
	DeltaX, DeltaY float64

	stopped bool
}

// StopPropagation keeps the event from reaching nodes drawn below the
// target.
func (e *PointerEvent) StopPropagation() { e.stopped = true }

// EntityStore receives pointer events for nodes with an EntityID, for
// integration with an entity component system.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries pointer data for the ECS bridge.
type InteractionEvent struct {
	Type     PointerEventType
	EntityID uint32
	NodeUUID string
	GlobalX  float64
	GlobalY  float64
	LocalX   float64
	LocalY   float64
	Button   PointerButton
	// Drag fields (valid for DragStart, Drag, DragEnd)
	StartX float64
	StartY float64
	DeltaX float64
	DeltaY float64
}

// --- Handler registry ---

type pointerHandler struct {
	id uint32
	fn func(*PointerEvent)
}

type nodeHandlers struct {
	byType [numPointerEventTypes][]pointerHandler
	nextID uint32
}

// HandlerHandle removes a registered pointer handler.
type HandlerHandle struct {
	id    uint32
	node  *Node
	event PointerEventType
}

// Remove unregisters the handler so it no longer fires.
func (h HandlerHandle) Remove() {
	if h.node == nil {
		return
	}
	s := h.node.handlers.byType[h.event]
	h.node.handlers.byType[h.event] = slices.DeleteFunc(s, func(p pointerHandler) bool { return p.id == h.id })
}

func (n *Node) addHandler(t PointerEventType, fn func(*PointerEvent)) HandlerHandle {
	n.handlers.nextID++
	id := n.handlers.nextID
	n.handlers.byType[t] = append(n.handlers.byType[t], pointerHandler{id: id, fn: fn})
	return HandlerHandle{id: id, node: n, event: t}
}

// OnTapDown registers fn for presses on the node.
func (n *Node) OnTapDown(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(TapDown, fn) }

// OnTapUp registers fn for releases on the node after a press that began
// on it and never left it.
func (n *Node) OnTapUp(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(TapUp, fn) }

// OnTapUpAny registers fn for releases anywhere after a press that began
// on the node.
func (n *Node) OnTapUpAny(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(TapUpAny, fn) }

// OnTapLeave registers fn for a pressed pointer leaving the node.
func (n *Node) OnTapLeave(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(TapLeave, fn) }

// OnPointerDown registers fn for presses on the node.
func (n *Node) OnPointerDown(fn func(*PointerEvent)) HandlerHandle {
	return n.addHandler(PointerDown, fn)
}

// OnPointerUp registers fn for releases on the node, wherever the press
// began.
func (n *Node) OnPointerUp(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(PointerUp, fn) }

// OnPointerMove registers fn for pointer movement over the node.
func (n *Node) OnPointerMove(fn func(*PointerEvent)) HandlerHandle {
	return n.addHandler(PointerMove, fn)
}

// OnPointerLeave registers fn for the pointer moving off the node.
func (n *Node) OnPointerLeave(fn func(*PointerEvent)) HandlerHandle {
	return n.addHandler(PointerLeave, fn)
}

// OnDragStart registers fn for the start of a drag. Only draggable nodes
// are dragged.
func (n *Node) OnDragStart(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(DragStart, fn) }

// OnDrag registers fn for each movement of a drag.
func (n *Node) OnDrag(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(Drag, fn) }

// OnDragEnd registers fn for the end of a drag.
func (n *Node) OnDragEnd(fn func(*PointerEvent)) HandlerHandle { return n.addHandler(DragEnd, fn) }

// --- Per-pointer state ---

type tapTarget struct {
	node *Node
	left bool
}

type pointerState struct {
	down       bool
	startX     float64
	startY     float64
	lastX      float64
	lastY      float64
	tapNodes   []tapTarget // nodes pressed, topmost first
	hoverNodes []*Node
	dragNode   *Node
	dragging   bool
	button     PointerButton // button captured at press time
}

// --- Hit testing ---

// hitContains reports whether the canvas point (x, y) hits the node.
func (n *Node) hitContains(x, y float64) bool {
	if n.HitShape != nil {
		p := n.CanvasToLocal(x, y)
		return n.HitShape.Contains(p.X, p.Y)
	}
	return n.containsPoint(x, y)
}

// collectInteractive walks the tree in draw order, appending nodes with
// user interaction enabled. Hidden subtrees are skipped.
func collectInteractive(n *Node, buf []*Node) []*Node {
	if n.hidden || n.disposed {
		return buf
	}
	if n.interactive {
		buf = append(buf, n)
	}
	for _, c := range n.drawOrder() {
		buf = collectInteractive(c, buf)
	}
	return buf
}

// hitTest returns the interactive nodes at (x, y), topmost first. Only
// the current scene, when active, and the free nodes take input.
func (g *Game) hitTest(x, y float64) []*Node {
	g.hitBuf = g.hitBuf[:0]
	if s := g.currentScene; s != nil && s.scene.active {
		g.hitBuf = collectInteractive(s, g.hitBuf)
	}
	g.hitBuf = collectInteractive(g.freeNodesScene, g.hitBuf)
	var hits []*Node
	for i := len(g.hitBuf) - 1; i >= 0; i-- {
		if n := g.hitBuf[i]; n.hitContains(x, y) {
			hits = append(hits, n)
		}
	}
	return hits
}

// --- Input processing ---

// HandlePointer feeds one sample of a pointer into the input state
// machine. Backends call it every frame for the mouse (pointer 0) and for
// each touch (pointers 1-9), with pressed reporting whether the button or
// touch is down.
func (g *Game) HandlePointer(pointerID int, x, y float64, pressed bool, button PointerButton) {
	if pointerID < 0 || pointerID >= MaxPointers {
		return
	}
	ps := &g.pointers[pointerID]
	hits := g.hitTest(x, y)
	moved := x != ps.lastX || y != ps.lastY

	switch {
	case pressed && !ps.down:
		g.pointerPressed(ps, pointerID, x, y, button, hits)
	case !pressed && ps.down:
		g.pointerReleased(ps, pointerID, x, y, hits)
	case pressed && ps.down:
		if moved {
			g.pointerDragged(ps, pointerID, x, y, hits)
		}
	default:
		if moved {
			g.pointerHovered(ps, pointerID, x, y, button, hits)
		}
	}
	ps.lastX = x
	ps.lastY = y
}

func (g *Game) pointerPressed(ps *pointerState, id int, x, y float64, button PointerButton, hits []*Node) {
	ps.down = true
	ps.button = button
	ps.startX, ps.startY = x, y
	ps.dragging = false
	ps.dragNode = nil
	ps.tapNodes = ps.tapNodes[:0]
	for _, n := range hits {
		ps.tapNodes = append(ps.tapNodes, tapTarget{node: n})
		if ps.dragNode == nil && n.draggable {
			ps.dragNode = n
		}
	}
	g.emit(&Event{Type: EventDomPointerDown, X: Ptr(x), Y: Ptr(y)})

	ev := PointerEvent{X: x, Y: y, Button: button, PointerID: id}
	g.dispatch(TapDown, hits, ev)
	g.dispatch(PointerDown, hits, ev)
}

func (g *Game) pointerDragged(ps *pointerState, id int, x, y float64, hits []*Node) {
	ev := PointerEvent{X: x, Y: y, Button: ps.button, PointerID: id, StartX: ps.startX, StartY: ps.startY}
	if ps.dragNode != nil {
		if !ps.dragging && math.Hypot(x-ps.startX, y-ps.startY) > g.opts.DragDeadZone {
			ps.dragging = true
			start := ev
			start.DeltaX, start.DeltaY = x-ps.startX, y-ps.startY
			g.dispatch(DragStart, []*Node{ps.dragNode}, start)
		}
		if ps.dragging {
			dragBy(ps.dragNode, x-ps.lastX, y-ps.lastY)
			drag := ev
			drag.DeltaX, drag.DeltaY = x-ps.lastX, y-ps.lastY
			g.dispatch(Drag, []*Node{ps.dragNode}, drag)
		}
	}
	for i := range ps.tapNodes {
		t := &ps.tapNodes[i]
		if !t.left && !slices.Contains(hits, t.node) {
			t.left = true
			g.dispatch(TapLeave, []*Node{t.node}, ev)
		}
	}
	g.pointerHovered(ps, id, x, y, ps.button, hits)
}

func (g *Game) pointerHovered(ps *pointerState, id int, x, y float64, button PointerButton, hits []*Node) {
	ev := PointerEvent{X: x, Y: y, Button: button, PointerID: id}
	var left []*Node
	for _, n := range ps.hoverNodes {
		if !slices.Contains(hits, n) {
			left = append(left, n)
		}
	}
	g.dispatch(PointerLeave, left, ev)
	g.dispatch(PointerMove, hits, ev)
	ps.hoverNodes = append(ps.hoverNodes[:0], hits...)
}

func (g *Game) pointerReleased(ps *pointerState, id int, x, y float64, hits []*Node) {
	ev := PointerEvent{X: x, Y: y, Button: ps.button, PointerID: id, StartX: ps.startX, StartY: ps.startY}
	var tapped, pressed []*Node
	for _, t := range ps.tapNodes {
		pressed = append(pressed, t.node)
		if !t.left && slices.Contains(hits, t.node) {
			tapped = append(tapped, t.node)
		}
	}
	if ps.dragging {
		end := ev
		end.DeltaX, end.DeltaY = x-ps.lastX, y-ps.lastY
		g.dispatch(DragEnd, []*Node{ps.dragNode}, end)
	} else {
		g.dispatch(TapUp, tapped, ev)
	}
	g.dispatch(TapUpAny, pressed, ev)
	g.dispatch(PointerUp, hits, ev)

	ps.down = false
	ps.dragging = false
	ps.dragNode = nil
	ps.tapNodes = ps.tapNodes[:0]
}

// dragBy moves n by a canvas-space delta.
func dragBy(n *Node, dx, dy float64) {
	s := 1.0
	if p := n.parent; p != nil && p.absoluteScale != 0 {
		s = p.absoluteScale
	}
	n.SetPosition(Point{X: n.position.X + dx/s, Y: n.position.Y + dy/s})
}

// dispatch delivers an event of type t to nodes in order until a handler
// stops propagation. Nodes removed from the game by an earlier handler are
// skipped.
func (g *Game) dispatch(t PointerEventType, nodes []*Node, ev PointerEvent) {
	ev.Type = t
	for _, n := range nodes {
		if n.disposed || n.Game() != g {
			continue
		}
		e := ev
		e.Target = n
		e.Point = n.CanvasToLocal(ev.X, ev.Y)
		for _, h := range slices.Clone(n.handlers.byType[t]) {
			h.fn(&e)
		}
		g.emitInteractionEvent(&e)
		if e.stopped {
			return
		}
	}
}

// --- ECS bridge ---

func (g *Game) emitInteractionEvent(e *PointerEvent) {
	if g.entities == nil || e.Target.EntityID == 0 {
		return
	}
	g.entities.EmitEvent(InteractionEvent{
		Type:     e.Type,
		EntityID: e.Target.EntityID,
		NodeUUID: e.Target.uuid,
		GlobalX:  e.X,
		GlobalY:  e.Y,
		LocalX:   e.Point.X,
		LocalY:   e.Point.Y,
		Button:   e.Button,
		StartX:   e.StartX,
		StartY:   e.StartY,
		DeltaX:   e.DeltaX,
		DeltaY:   e.DeltaY,
	})
}
