package m2c2

import (
	"fmt"
	"testing"
)

func drawFrame(t *testing.T, g *Game) []string {
	t.Helper()
	c := newFakeCanvas(g.Width(), g.Height())
	if err := g.Tick(c); err != nil {
		t.Fatal(err)
	}
	return c.ops
}

func TestDrawSceneAndShapes(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	s := presentNewScene(g, "s")
	s.AddChild(NewShape(ShapeOptions{
		NodeOptions: NodeOptions{Name: "rect", Position: &Point{X: 200, Y: 100}, ZPosition: 1},
		Rect:        &Size{Width: 100, Height: 100},
	}))
	s.AddChild(NewShape(ShapeOptions{
		NodeOptions:    NodeOptions{Name: "dot", Position: &Point{X: 50, Y: 600}},
		CircleOfRadius: Ptr(8.0),
	}))
	hidden := NewShape(ShapeOptions{NodeOptions: NodeOptions{Name: "hidden"}, CircleOfRadius: Ptr(3.0)})
	hidden.SetHidden(true)
	s.AddChild(hidden)
	g.AddFreeNode(NewShape(ShapeOptions{
		NodeOptions: NodeOptions{Name: "overlay", Position: &Point{X: 10, Y: 10}},
		Rect:        &Size{Width: 4, Height: 4},
	}))

	got := drawFrame(t, g)
	want := []string{
		"clear",
		"rect 0,0 400x800",
		"circle 50,600 r8",
		"rect 150,50 100x100",
		"rect 8,8 4x4",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ops = %v\nwant  %v", got, want)
	}
}

func TestDrawStrokeFollowsScale(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	s := presentNewScene(g, "s")
	ring := NewShape(ShapeOptions{
		NodeOptions:    NodeOptions{Name: "ring", Position: &Point{X: 100, Y: 100}, Scale: Ptr(2.0)},
		CircleOfRadius: Ptr(10.0),
		StrokeColor:    Ptr(ColorBlack),
		LineWidth:      Ptr(3.0),
	})
	s.AddChild(ring)
	got := drawFrame(t, g)
	want := "circle 100,100 r20"
	n := 0
	for _, op := range got {
		if op == want {
			n++
		}
	}
	if n != 2 {
		t.Errorf("ops = %v, want fill and stroke at %q", got, want)
	}
	if ring.shape.strokePaint.StrokeWidth != 6 {
		t.Errorf("stroke width = %v, want 6", ring.shape.strokePaint.StrokeWidth)
	}
}

func TestTransparentSceneDrawsNoBackground(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	s := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "clear"}, BackgroundColor: Ptr(ColorTransparent)})
	g.AddScene(s)
	g.PresentScene(s, TransitionNone())
	got := drawFrame(t, g)
	if len(got) != 1 || got[0] != "clear" {
		t.Errorf("ops = %v, want only the canvas clear", got)
	}
}

func TestWarmupInitializesAllScenes(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	presentNewScene(g, "a")
	b := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "b"}})
	label := NewLabel(LabelOptions{Text: "later"})
	b.AddChild(label)
	g.AddScene(b)

	g.Warmup(newFakeCanvas(400, 800))
	if label.NeedsInitialization() {
		t.Error("warmup should initialize nodes of scenes not yet presented")
	}
}
