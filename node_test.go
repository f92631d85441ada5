package m2c2

import (
	"strings"
	"testing"
)

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode(NodeOptions{})
	if n.UUID() == "" {
		t.Fatal("node should get a UUID")
	}
	if n.Name() != n.UUID() {
		t.Errorf("default name = %q, want the UUID", n.Name())
	}
	if n.Scale() != 1 || n.Alpha() != 1 {
		t.Errorf("scale, alpha = %v, %v; want 1, 1", n.Scale(), n.Alpha())
	}
	if n.AnchorPoint() != (Point{0.5, 0.5}) {
		t.Errorf("anchor = %v, want (0.5, 0.5)", n.AnchorPoint())
	}
	if !n.NeedsInitialization() {
		t.Error("new node should need initialization")
	}
	if n.Sequence() == 0 {
		t.Error("construction should be assigned a sequence number")
	}
}

func TestAddChildAndTraversal(t *testing.T) {
	root := NewNode(NodeOptions{Name: "root"})
	a := NewNode(NodeOptions{Name: "a"})
	b := NewNode(NodeOptions{Name: "b"})
	c := NewNode(NodeOptions{Name: "c"})
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(c)

	if root.NumChildren() != 2 || root.ChildAt(1) != b {
		t.Fatal("children not in insertion order")
	}
	if c.Parent() != a || c.Root() != root {
		t.Error("parent links wrong")
	}
	if got := root.DescendantByName("c"); got != c {
		t.Errorf("DescendantByName = %v", got)
	}
	if got := root.DescendantByUUID(c.UUID()); got != c {
		t.Errorf("DescendantByUUID = %v", got)
	}
	if d := root.Descendants(); len(d) != 3 || d[0] != a || d[1] != c || d[2] != b {
		t.Errorf("Descendants = %v, want depth-first a c b", d)
	}
	if anc := c.Ancestors(); len(anc) != 2 || anc[0] != a || anc[1] != root {
		t.Errorf("Ancestors = %v", anc)
	}
}

func TestAddChildPreconditions(t *testing.T) {
	root := NewNode(NodeOptions{Name: "root"})
	child := NewNode(NodeOptions{Name: "child"})
	root.AddChild(child)

	mustPanic(t, "nil", func() { root.AddChild(nil) })
	mustPanic(t, "self", func() { root.AddChild(root) })
	mustPanic(t, "already a child", func() { root.AddChild(child) })
	mustPanic(t, "different parent", func() { NewNode(NodeOptions{Name: "other"}).AddChild(child) })
	mustPanic(t, "duplicate name", func() { root.AddChild(NewNode(NodeOptions{Name: "child"})) })
	mustPanic(t, "cycle", func() { child.AddChild(root) })
	mustPanic(t, "scene", func() { root.AddChild(NewScene(SceneOptions{})) })

	if root.NumChildren() != 1 {
		t.Errorf("failed adds changed the tree: %d children", root.NumChildren())
	}
}

func TestRemoveChild(t *testing.T) {
	root := NewNode(NodeOptions{Name: "root"})
	a := NewNode(NodeOptions{Name: "a"})
	b := NewNode(NodeOptions{Name: "b"})
	root.AddChild(a)
	root.AddChild(b)

	mustPanic(t, "not a child", func() { root.RemoveChild(NewNode(NodeOptions{})) })
	mustPanic(t, "mixed batch", func() { root.RemoveChildren([]*Node{a, NewNode(NodeOptions{})}) })
	if root.NumChildren() != 2 {
		t.Fatal("failed batch removal should remove nothing")
	}

	a.RemoveFromParent()
	if a.Parent() != nil || root.NumChildren() != 1 {
		t.Error("RemoveFromParent did not detach")
	}
	a.RemoveFromParent()

	root.RemoveAllChildren()
	if root.NumChildren() != 0 || b.Parent() != nil {
		t.Error("RemoveAllChildren did not detach")
	}
}

func TestSetNameRejectsSiblingName(t *testing.T) {
	root := NewNode(NodeOptions{Name: "root"})
	a := NewNode(NodeOptions{Name: "a"})
	b := NewNode(NodeOptions{Name: "b"})
	root.AddChild(a)
	root.AddChild(b)
	mustPanic(t, "rename to sibling", func() { b.SetName("a") })
	b.SetName("c")
	if root.ChildByName("c") != b {
		t.Error("rename not visible through ChildByName")
	}
}

func TestDispose(t *testing.T) {
	root := NewNode(NodeOptions{Name: "root"})
	a := NewNode(NodeOptions{Name: "a"})
	c := NewNode(NodeOptions{Name: "c"})
	root.AddChild(a)
	a.AddChild(c)
	a.Run(Wait(WaitOptions{Duration: 100}), "w")

	a.Dispose()
	if !a.IsDisposed() || !c.IsDisposed() {
		t.Error("dispose should mark the subtree disposed")
	}
	if root.NumChildren() != 0 {
		t.Error("dispose should detach from the parent")
	}
	if len(a.Actions()) != 0 {
		t.Error("dispose should remove actions")
	}
	a.Dispose()
}

func TestDebugModeDisposedPanics(t *testing.T) {
	SetDebugMode(true)
	defer SetDebugMode(false)
	n := NewNode(NodeOptions{})
	n.Dispose()
	mustPanic(t, "add disposed", func() { NewNode(NodeOptions{}).AddChild(n) })
}

func TestDrawOrderByZPosition(t *testing.T) {
	root := NewNode(NodeOptions{Name: "root"})
	hi := NewNode(NodeOptions{Name: "hi", ZPosition: 2})
	lo := NewNode(NodeOptions{Name: "lo", ZPosition: -1})
	mid1 := NewNode(NodeOptions{Name: "mid1"})
	mid2 := NewNode(NodeOptions{Name: "mid2"})
	root.AddChild(hi)
	root.AddChild(mid1)
	root.AddChild(lo)
	root.AddChild(mid2)

	order := root.drawOrder()
	want := []*Node{lo, mid1, mid2, hi}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("draw order[%d] = %s, want %s", i, order[i].Name(), want[i].Name())
		}
	}

	lo.SetZPosition(5)
	if root.drawOrder()[3] != lo {
		t.Error("changing ZPosition should resort")
	}
}

func TestAbsoluteTransform(t *testing.T) {
	root := NewNode(NodeOptions{Name: "root", Scale: Ptr(2.0), Alpha: Ptr(0.5)})
	child := NewNode(NodeOptions{Name: "child", Position: &Point{X: 10, Y: 20}, Alpha: Ptr(0.5)})
	root.AddChild(child)
	root.update(0)

	assertPoint(t, "child absolute position", child.AbsolutePosition(), Point{X: 20, Y: 40})
	assertNear(t, "child absolute scale", child.AbsoluteScale(), 2)
	assertNear(t, "child absolute alpha", child.AbsoluteAlpha(), 0.25)
}

func TestPropertyChangeEvents(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	s := presentNewScene(g, "s")
	n := NewNode(NodeOptions{Name: "n"})
	s.AddChild(n)
	before := g.EventStore().Len()

	n.SetPosition(Point{X: 1, Y: 2})
	n.SetPosition(Point{X: 1, Y: 2})
	n.SetAlpha(0.5)

	events := g.EventStore().Events()[before:]
	if len(events) != 2 {
		t.Fatalf("recorded %d events, want 2 (unchanged values are not recorded)", len(events))
	}
	if events[0].Type != EventNodePropertyChange || events[0].Property != "position" {
		t.Errorf("event 0 = %s %s", events[0].Type, events[0].Property)
	}
	if events[1].UUID != n.UUID() || events[1].Property != "alpha" {
		t.Errorf("event 1 = %s %s", events[1].UUID, events[1].Property)
	}
}

func TestDetachedEventsFlushInSequenceOrder(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	s := presentNewScene(g, "s")

	parent := NewNode(NodeOptions{Name: "parent"})
	child := NewNode(NodeOptions{Name: "child"})
	child.SetPosition(Point{X: 5})
	parent.AddChild(child)
	before := g.EventStore().Len()
	s.AddChild(parent)

	events := g.EventStore().Events()[before:]
	if len(events) != 5 {
		t.Fatalf("flushed %d events, want 5", len(events))
	}
	wantTypes := []EventType{
		EventNodeNew, EventNodeNew, EventNodePropertyChange,
		EventNodeAddChild, EventNodeAddChild,
	}
	for i, e := range events {
		if e.Type != wantTypes[i] {
			t.Errorf("event %d type = %s, want %s", i, e.Type, wantTypes[i])
		}
		if i > 0 && e.Sequence <= events[i-1].Sequence {
			t.Errorf("event %d sequence %d not increasing", i, e.Sequence)
		}
	}
	if events[4].UUID != s.UUID() || events[4].ChildUUID != parent.UUID() {
		t.Error("last event should add parent to the scene")
	}
}

func TestSuppressedNodesRecordNothing(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	s := presentNewScene(g, "s")
	before := g.EventStore().Len()
	n := NewNode(NodeOptions{Name: "quiet", SuppressEvents: true})
	n.AddChild(NewNode(NodeOptions{Name: "inner"}))
	n.SetPosition(Point{X: 3})
	s.AddChild(n)

	for _, e := range g.EventStore().Events()[before:] {
		if e.UUID == n.UUID() {
			t.Errorf("suppressed node recorded %s", e.Type)
		}
	}
}

func TestKindPropertiesPanicOnWrongKind(t *testing.T) {
	n := NewNode(NodeOptions{})
	mustPanic(t, "SetText on node", func() { n.SetText("x") })
	mustPanic(t, "SetFillColor on node", func() { n.SetFillColor(ColorBlack) })
	mustPanic(t, "SoundName on node", func() { n.SoundName() })
}

func TestNodeString(t *testing.T) {
	n := NewShape(ShapeOptions{NodeOptions: NodeOptions{Name: "dot"}, CircleOfRadius: Ptr(4.0)})
	if s := n.String(); !strings.Contains(s, "dot") || !strings.Contains(s, string(NodeTypeShape)) {
		t.Errorf("String = %q", s)
	}
}

func TestDeepEqualAssignmentIsNoop(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	s := presentNewScene(g, "s")
	l := NewLabel(LabelOptions{Text: "same"})
	s.AddChild(l)
	layout := &Layout{MarginTop: 4}
	l.SetLayout(layout)
	tick(t, g, 1)
	if l.NeedsInitialization() {
		t.Fatal("label should be initialized after a frame")
	}
	before := g.EventStore().Len()

	l.SetText("same")
	l.SetLayout(&Layout{MarginTop: 4})
	l.SetPosition(l.Position())

	if l.NeedsInitialization() {
		t.Error("an equal assignment should not require reinitialization")
	}
	if l.Layout() != layout {
		t.Error("an equal assignment should keep the original layout value")
	}
	if n := g.EventStore().Len() - before; n != 0 {
		t.Errorf("recorded %d events for equal assignments", n)
	}
}
