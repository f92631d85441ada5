package m2c2

import "fmt"

// TransitionType names how one scene replaces another.
type TransitionType string

const (
	TransitionTypeNone  TransitionType = "None"
	TransitionTypeSlide TransitionType = "Slide"
)

// SlideDirection is the direction both scenes move during a Slide.
type SlideDirection string

const (
	SlideLeft  SlideDirection = "Left"
	SlideRight SlideDirection = "Right"
	SlideUp    SlideDirection = "Up"
	SlideDown  SlideDirection = "Down"
)

// Transition describes how PresentScene swaps scenes.
type Transition struct {
	Type      TransitionType
	Direction SlideDirection
	// Duration in milliseconds.
	Duration float64
	Easing   EasingFunction
}

// TransitionNone swaps scenes immediately.
func TransitionNone() Transition {
	return Transition{Type: TransitionTypeNone}
}

// SlideOptions configure TransitionSlide.
type SlideOptions struct {
	Direction SlideDirection
	Duration  float64
	Easing    EasingFunction
}

// TransitionSlide moves the outgoing scene off the canvas while the
// incoming scene moves in from the opposite edge. Panics on an unknown
// direction.
func TransitionSlide(opts SlideOptions) Transition {
	switch opts.Direction {
	case SlideLeft, SlideRight, SlideUp, SlideDown:
	default:
		panic(fmt.Sprintf("m2c2: unknown slide direction %q", opts.Direction))
	}
	return Transition{
		Type:      TransitionTypeSlide,
		Direction: opts.Direction,
		Duration:  opts.Duration,
		Easing:    opts.Easing,
	}
}

// slideOffset returns where the incoming scene starts, relative to its
// resting position. The outgoing scene ends at the negated offset.
func slideOffset(dir SlideDirection, w, h float64) Point {
	switch dir {
	case SlideLeft:
		return Point{X: w}
	case SlideRight:
		return Point{X: -w}
	case SlideUp:
		return Point{Y: h}
	case SlideDown:
		return Point{Y: -h}
	}
	return Point{}
}

// transitionEvent encodes t as a ScenePresent event for scene.
func transitionEvent(scene *Node, t Transition) Event {
	ev := Event{
		Type:           EventScenePresent,
		UUID:           scene.uuid,
		TransitionType: t.Type,
	}
	if t.Type == TransitionTypeSlide {
		ev.Direction = t.Direction
		ev.Duration = Ptr(t.Duration)
		ev.EasingType = EasingName(t.Easing)
	}
	return ev
}

// transitionFromEvent rebuilds the transition recorded in a ScenePresent
// event.
func transitionFromEvent(e Event) (Transition, error) {
	switch e.TransitionType {
	case "", TransitionTypeNone:
		return TransitionNone(), nil
	case TransitionTypeSlide:
		t := Transition{Type: TransitionTypeSlide, Direction: e.Direction}
		if e.Duration != nil {
			t.Duration = *e.Duration
		}
		if e.EasingType != "" {
			fn, ok := EasingByName(e.EasingType)
			if !ok {
				return Transition{}, fmt.Errorf("m2c2: unknown easing %q", e.EasingType)
			}
			t.Easing = fn
		}
		return t, nil
	}
	return Transition{}, fmt.Errorf("m2c2: unknown transition type %q", e.TransitionType)
}

// transitionMove is a Move that runs during transitions and is not
// recorded. Slide transitions are replayed from their ScenePresent event,
// so the per-frame positions are never stored.
func transitionMove(to Point, duration float64, easing EasingFunction) *MoveAction {
	m := Move(MoveOptions{Point: to, Duration: duration, Easing: easing, RunDuringTransition: true})
	m.silent = true
	return m
}
