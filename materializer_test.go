package m2c2

import (
	"errors"
	"testing"
)

// recordSession builds a small assessment screen on a recording game,
// animates it for a while and returns the recorded events.
func recordSession(t *testing.T) (*Game, []Event) {
	t.Helper()
	g, _ := newTestGame(t, EventStoreRecord)
	s := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "trial"}, BackgroundColor: &Color{240, 240, 240, 1}})
	g.AddScene(s)

	box := NewShape(ShapeOptions{
		NodeOptions: NodeOptions{Name: "box", Position: &Point{X: 200, Y: 100}},
		Rect:        &Size{Width: 100, Height: 100},
		FillColor:   &Color{0, 0, 255, 1},
	})
	s.AddChild(box)

	caption := NewLabel(LabelOptions{
		NodeOptions: NodeOptions{
			Name: "caption",
			Layout: &Layout{
				MarginTop:   10,
				Constraints: &Constraints{TopToBottomOf: Ref(box), StartToStartOf: Ref(box)},
			},
		},
		Text:     "Tap the box",
		FontSize: Ptr(20.0),
	})
	s.AddChild(caption)

	group := NewNode(NodeOptions{Name: "group", Position: &Point{X: 50, Y: 600}})
	dot := NewShape(ShapeOptions{NodeOptions: NodeOptions{Name: "dot"}, CircleOfRadius: Ptr(8.0)})
	group.AddChild(dot)
	s.AddChild(group)
	temp := NewNode(NodeOptions{Name: "temp"})
	s.AddChild(temp)

	g.PresentScene(s, TransitionNone())
	box.Run(Move(MoveOptions{Point: Point{X: 300, Y: 100}, Duration: 100}), "move")
	tick(t, g, 5)
	dot.SetFillColor(Color{255, 0, 0, 1})
	caption.SetText("Well done")
	s.RemoveChild(temp)
	tick(t, g, 10)

	return g, g.EventStore().Events()
}

func compareTrees(t *testing.T, want, got *Node) {
	t.Helper()
	if got == nil {
		t.Fatalf("missing node %s", want)
	}
	if got.UUID() != want.UUID() || got.Name() != want.Name() || got.Type() != want.Type() {
		t.Fatalf("node %s replayed as %s", want, got)
	}
	assertPoint(t, want.Name()+" position", got.Position(), want.Position())
	assertPoint(t, want.Name()+" absolute position", got.AbsolutePosition(), want.AbsolutePosition())
	if got.NumChildren() != want.NumChildren() {
		t.Fatalf("%s has %d children, want %d", want, got.NumChildren(), want.NumChildren())
	}
	for i, c := range want.Children() {
		compareTrees(t, c, got.ChildAt(i))
	}
}

func TestReplayRebuildsTree(t *testing.T) {
	rec, events := recordSession(t)
	original := rec.SceneByName("trial")

	g, _ := newTestGame(t, EventStoreDisabled)
	if err := g.Replay(events); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100 && g.EventStore().Pending() > 0; i++ {
		tick(t, g, 1)
	}
	if g.EventStore().Pending() != 0 {
		t.Fatalf("%d events still pending", g.EventStore().Pending())
	}
	tick(t, g, 1)

	replayed := g.SceneByName("trial")
	if replayed == nil || g.CurrentScene() != replayed {
		t.Fatal("replayed scene was not presented")
	}
	compareTrees(t, original, replayed)

	dot := replayed.DescendantByName("dot")
	if dot.FillColor() != (Color{255, 0, 0, 1}) {
		t.Errorf("dot fill = %v", dot.FillColor())
	}
	if c := replayed.ChildByName("caption"); c.Text() != "Well done" {
		t.Errorf("caption text = %q", c.Text())
	}
	if replayed.BackgroundColor() != (Color{240, 240, 240, 1}) {
		t.Errorf("background = %v", replayed.BackgroundColor())
	}
	if replayed.ChildByName("temp") != nil {
		t.Error("removed node is still in the replayed scene")
	}
	if g.Materializer().Node(original.UUID()) != replayed {
		t.Error("materializer should index nodes by their recorded UUID")
	}
}

func TestReplayDoesNotRecord(t *testing.T) {
	_, events := recordSession(t)
	g, _ := newTestGame(t, EventStoreRecord)
	before := g.EventStore().Len()
	if err := g.Replay(events); err != nil {
		t.Fatal(err)
	}
	tick(t, g, 50)
	if g.EventStore().Len() != before {
		t.Errorf("replay recorded %d new events", g.EventStore().Len()-before)
	}
}

func TestMaterializeUnknownNode(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	err := g.Materializer().Materialize([]Event{{
		Type:     EventNodePropertyChange,
		UUID:     "nope",
		Property: "alpha",
		Value:    0.5,
	}})
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("err = %v, want ErrUnknownNode", err)
	}
}

func TestMaterializeUnknownProperty(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	m := g.Materializer()
	err := m.Materialize([]Event{
		{Type: EventNodeNew, UUID: "n1", NodeType: NodeTypeNode, NodeOptions: map[string]any{"name": "n"}},
		{Type: EventNodePropertyChange, UUID: "n1", Property: "fontSize", Value: 12.0},
	})
	if !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("err = %v, want ErrUnknownProperty", err)
	}
	if m.Node("n1") == nil || m.Node("n1").Name() != "n" {
		t.Error("node created before the failing event should exist")
	}
}

func TestMaterializeUnknownNodeType(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	err := g.Materializer().Materialize([]Event{{Type: EventNodeNew, UUID: "x", NodeType: "Hologram"}})
	if !errors.Is(err, ErrUnknownNodeType) {
		t.Errorf("err = %v, want ErrUnknownNodeType", err)
	}
}

func TestMaterializeTreeViolationBecomesError(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	err := g.Materializer().Materialize([]Event{
		{Type: EventNodeNew, UUID: "a", NodeType: NodeTypeNode, NodeOptions: map[string]any{"name": "a"}},
		{Type: EventNodeAddChild, UUID: "a", ChildUUID: "a"},
	})
	if err == nil {
		t.Error("adding a node to itself should fail the replay")
	}
}

func TestMaterializeDecodesOptions(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	m := g.Materializer()
	err := m.Materialize([]Event{{
		Type:     EventNodeNew,
		UUID:     "shape-1",
		NodeType: NodeTypeShape,
		NodeOptions: map[string]any{
			"name":      "circle",
			"position":  map[string]any{"x": 10.0, "y": 20.0},
			"fillColor": []any{1.0, 2.0, 3.0, 0.5},
			"layout": map[string]any{
				"constraints": map[string]any{"topToTopOf": "other-uuid"},
			},
			"circleOfRadius": 5.0,
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	n := m.Node("shape-1")
	if n.Name() != "circle" || n.Position() != (Point{X: 10, Y: 20}) {
		t.Errorf("decoded %s at %v", n, n.Position())
	}
	if n.FillColor() != (Color{1, 2, 3, 0.5}) {
		t.Errorf("fill = %v", n.FillColor())
	}
	if n.CircleOfRadius() != 5 {
		t.Errorf("radius = %v", n.CircleOfRadius())
	}
	if id := n.Layout().Constraints.TopToTopOf.ID(); id != "other-uuid" {
		t.Errorf("constraint target = %q", id)
	}
}
