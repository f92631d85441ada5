// Package m2c2 is a retained-mode 2D engine for cognitive assessments.
//
// A [Game] owns scenes, free nodes, an [EventStore] and a frame loop.
// Backends (see the ebitenkit and ggcanvas packages) supply a [Canvas],
// a [Typesetter] and asset managers, then call [Game.Tick] once per frame.
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree under a scene; children
// inherit their parent's position, scale, alpha and rotation. Create nodes
// with the typed constructors [NewScene], [NewShape], [NewLabel],
// [NewTextLine], [NewSprite], [NewComposite], [NewSoundPlayer] and
// [NewSoundRecorder]:
//
//	scene := m2c2.NewScene(m2c2.SceneOptions{})
//	game.AddScene(scene)
//
//	button := m2c2.NewShape(m2c2.ShapeOptions{
//		NodeOptions: m2c2.NodeOptions{
//			Position:                 &m2c2.Point{X: 200, Y: 400},
//			IsUserInteractionEnabled: true,
//		},
//		Rect:      &m2c2.Size{Width: 200, Height: 50},
//		FillColor: &m2c2.Color{0, 0, 255, 1},
//	})
//	scene.AddChild(button)
//	button.OnTapDown(func(e *m2c2.PointerEvent) { ... })
//
//	game.PresentScene(scene, m2c2.TransitionNone())
//
// Tree misuse (adding a node that already has a parent, duplicate names
// among siblings, operations on disposed nodes) panics with a message
// prefixed by "m2c2:".
//
// # Actions
//
// Animations are [Action] trees run on a node with [Node.Run]. Leaves
// ([Move], [Scale], [FadeAlpha], [Rotate], [Wait], [Custom], [Play]) are
// combined with [Sequence], [Group], [Repeat] and [RepeatForever]. Actions
// are evaluated against the frame timestamp, so a [SteppingClock] makes
// them fully deterministic.
//
// # Layout
//
// A node with a [Layout] is positioned relative to its parent or siblings
// by constraints (top to top of, start to end of, and so on), resolved in
// each frame's update before actions run.
//
// # Events and replay
//
// Every node construction, property change, tree edit, scene presentation
// and pointer press is recorded as an [Event]. The [EventStore] can
// serialize the log; replaying it through the [Materializer] rebuilds the
// same node tree on another game, frame by frame.
//
// # Input
//
// [Game.HandlePointer] drives a per-pointer state machine that dispatches
// tap, pointer and drag events to interactive nodes, topmost first. Tests
// and scripts feed input with [Game.InjectTap] and [Game.InjectDrag], or
// with a JSON [TestRunner].
package m2c2
