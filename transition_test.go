package m2c2

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestPresentSceneNone(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	first := presentNewScene(g, "first")
	second := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "second"}})
	g.AddScene(second)

	var calls []string
	second.OnSetup(func() { calls = append(calls, "setup") })
	second.OnAppear(func() { calls = append(calls, "appear") })
	g.PresentScene(second, TransitionNone())

	if g.CurrentScene() != second || !second.IsActive() || first.IsActive() {
		t.Fatal("None should swap scenes at once")
	}
	if len(calls) != 2 || calls[0] != "setup" || calls[1] != "appear" {
		t.Errorf("callbacks = %v, want setup then appear", calls)
	}
}

func TestPresentSceneRequiresAddedScene(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	mustPanic(t, "not added", func() {
		g.PresentScene(NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "loose"}}), TransitionNone())
	})
	mustPanic(t, "not a scene", func() { g.PresentScene(NewNode(NodeOptions{}), TransitionNone()) })
	mustPanic(t, "unknown name", func() { g.PresentSceneByName("missing", TransitionNone()) })
}

func TestSlideTransition(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	first := presentNewScene(g, "first")
	tick(t, g, 1)
	second := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "second"}})
	g.AddScene(second)
	appeared := false
	second.OnAppear(func() { appeared = true })

	g.PresentScene(second, TransitionSlide(SlideOptions{Direction: SlideLeft, Duration: 100}))
	if g.CurrentScene() != first {
		t.Fatal("slide should wait for the next frame to start")
	}
	assertPoint(t, "incoming start", second.Position(), Point{X: 400})

	c := newFakeCanvas(400, 800)
	if err := g.Tick(c); err != nil {
		t.Fatal(err)
	}
	if c.snapshots != 1 {
		t.Errorf("took %d snapshots, want 1 of the outgoing scene", c.snapshots)
	}
	if g.CurrentScene() != second || !second.IsTransitioning() {
		t.Fatal("incoming scene should be current and transitioning")
	}
	if first.IsActive() {
		t.Error("outgoing scene should be inactive")
	}

	tick(t, g, 5)
	if x := second.Position().X; x <= 0 || x >= 400 {
		t.Errorf("mid-slide x = %v, want strictly between 0 and 400", x)
	}
	if appeared {
		t.Error("OnAppear ran before the slide finished")
	}

	tick(t, g, 10)
	if !appeared || second.IsTransitioning() || !second.IsActive() {
		t.Fatal("slide should have finished")
	}
	assertPoint(t, "incoming end", second.Position(), Point{})
	if g.outgoingScene != nil {
		t.Error("outgoing snapshot scene should be discarded")
	}
}

func TestSlideWithoutDurationActsAsNone(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	presentNewScene(g, "first")
	second := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "second"}})
	g.AddScene(second)
	g.PresentScene(second, TransitionSlide(SlideOptions{Direction: SlideUp}))
	if g.CurrentScene() != second || !second.IsActive() {
		t.Error("zero-duration slide should swap at once")
	}
}

func TestPresentDuringSlideCompletesIt(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	presentNewScene(g, "first")
	second := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "second"}})
	third := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "third"}})
	g.AddScene(second)
	g.AddScene(third)
	secondAppeared := false
	second.OnAppear(func() { secondAppeared = true })

	g.PresentScene(second, TransitionSlide(SlideOptions{Direction: SlideDown, Duration: 500}))
	tick(t, g, 3)
	g.PresentScene(third, TransitionNone())

	if !secondAppeared {
		t.Error("interrupted slide should still finish its scene")
	}
	assertPoint(t, "interrupted scene position", second.Position(), Point{})
	if g.CurrentScene() != third || g.outgoingScene != nil {
		t.Error("third scene should be current with no slide running")
	}
}

func TestSlideOffset(t *testing.T) {
	tests := []struct {
		dir  SlideDirection
		want Point
	}{
		{SlideLeft, Point{X: 400}},
		{SlideRight, Point{X: -400}},
		{SlideUp, Point{Y: 800}},
		{SlideDown, Point{Y: -800}},
	}
	for _, tt := range tests {
		if got := slideOffset(tt.dir, 400, 800); got != tt.want {
			t.Errorf("slideOffset(%s) = %v, want %v", tt.dir, got, tt.want)
		}
	}
	mustPanic(t, "bad direction", func() { TransitionSlide(SlideOptions{Direction: "Sideways"}) })
}

func TestTransitionEventRoundTrip(t *testing.T) {
	s := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "s"}})
	ev := transitionEvent(s, TransitionSlide(SlideOptions{Direction: SlideRight, Duration: 250, Easing: ease.OutQuad}))
	ev, err := roundTrip(ev)
	if err != nil {
		t.Fatal(err)
	}
	if ev.EasingType != "OutQuad" {
		t.Errorf("easing = %q", ev.EasingType)
	}
	tr, err := transitionFromEvent(ev)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Type != TransitionTypeSlide || tr.Direction != SlideRight || tr.Duration != 250 {
		t.Errorf("transition = %+v", tr)
	}
	if EasingName(tr.Easing) != "OutQuad" {
		t.Errorf("restored easing = %q", EasingName(tr.Easing))
	}

	none, err := transitionFromEvent(transitionEvent(s, TransitionNone()))
	if err != nil || none.Type != TransitionTypeNone {
		t.Errorf("None round trip = %+v, %v", none, err)
	}
}

func TestTransitionFromEventErrors(t *testing.T) {
	if _, err := transitionFromEvent(Event{TransitionType: TransitionTypeSlide, EasingType: "Wobble"}); err == nil {
		t.Error("unknown easing should fail")
	}
	if _, err := transitionFromEvent(Event{TransitionType: "Fade"}); err == nil {
		t.Error("unknown transition type should fail")
	}
}

func TestSlideIsNotRecordedPerFrame(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	presentNewScene(g, "first")
	second := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: "second"}})
	g.AddScene(second)
	before := g.EventStore().Len()
	g.PresentScene(second, TransitionSlide(SlideOptions{Direction: SlideLeft, Duration: 100}))
	tick(t, g, 20)

	for _, e := range g.EventStore().Events()[before:] {
		if e.Type == EventNodePropertyChange {
			t.Errorf("slide recorded %s of %s", e.Property, e.UUID)
		}
	}
}
