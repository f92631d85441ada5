package m2c2

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	freeNodesSceneName  = "__freeNodesScene"
	outgoingSceneName   = "__outgoingScene"
	transitionActionKey = "__transition"
)

// Services are the backend collaborators of a Game. Any of them may be nil;
// nodes that need a missing service stay uninitialized.
type Services struct {
	// Clock defaults to a RealClock, or a SteppingClock when
	// GameOptions.TimeStepping is set.
	Clock       Clock
	Images      ImageManager
	Fonts       FontManager
	Sounds      SoundManager
	Typesetter  Typesetter
	Recorder    Recorder
	EntityStore EntityStore
}

// Game owns the scenes, the free nodes, the event store and the frame
// loop. Backends call Tick once per frame.
type Game struct {
	uuid string
	opts GameOptions

	clock     Clock
	stepping  *SteppingClock
	now       float64
	deltaTime float64
	frame     int64

	store        *EventStore
	materializer *Materializer

	images     ImageManager
	fonts      FontManager
	sounds     SoundManager
	typesetter Typesetter
	recorder   Recorder
	entities   EntityStore
	i18n       *I18n

	scenes         []*Node
	currentScene   *Node
	outgoingScene  *Node
	freeNodesScene *Node
	pending        *pendingSlide

	eventObservers []func(Event)
	frameObservers []func(FrameStats)
	frameEvents    int

	// Input state
	pointers    [MaxPointers]pointerState
	hitBuf      []*Node
	injectQueue []syntheticPointerEvent
	testRunner  *TestRunner

	screenshotQueue   []string
	snapshotRequested bool
	lastSnapshot      Image
}

// pendingSlide is a Slide waiting for the outgoing scene's snapshot.
type pendingSlide struct {
	incoming   *Node
	transition Transition
	offset     Point
}

// NewGame creates a game. The game's clock becomes the process clock used
// to stamp events, so only one game should be live at a time.
func NewGame(opts GameOptions, svc Services) *Game {
	opts = opts.withDefaults()
	clock := svc.Clock
	var stepping *SteppingClock
	switch {
	case clock == nil && opts.TimeStepping:
		stepping = NewSteppingClock()
		clock = stepping
	case clock == nil:
		clock = NewRealClock()
	case opts.TimeStepping:
		stepping, _ = clock.(*SteppingClock)
	}
	setGlobalClock(clock)
	if opts.Debug {
		SetDebugMode(true)
	}

	g := &Game{
		uuid:       uuid.NewString(),
		opts:       opts,
		clock:      clock,
		stepping:   stepping,
		now:        clock.Now(),
		store:      NewEventStore(opts.EventStore),
		images:     svc.Images,
		fonts:      svc.Fonts,
		sounds:     svc.Sounds,
		typesetter: svc.Typesetter,
		recorder:   svc.Recorder,
		entities:   svc.EntityStore,
	}
	g.materializer = newMaterializer(g)
	g.freeNodesScene = newScene(SceneOptions{
		NodeOptions:     NodeOptions{Name: freeNodesSceneName},
		BackgroundColor: Ptr(ColorTransparent),
	}, "")
	g.attachScene(g.freeNodesScene)
	g.freeNodesScene.scene.active = true
	logger().Debug("game created",
		zap.String("uuid", g.uuid),
		zap.String("name", opts.Name),
		zap.Stringer("eventStore", opts.EventStore),
	)
	return g
}

// --- Accessors ---

// UUID returns the game's unique identifier.
func (g *Game) UUID() string { return g.uuid }

// Options returns the options the game was created with, defaults applied.
func (g *Game) Options() GameOptions { return g.opts }

// Width returns the canvas width in canvas units.
func (g *Game) Width() float64 { return g.opts.Width }

// Height returns the canvas height in canvas units.
func (g *Game) Height() float64 { return g.opts.Height }

// EventStore returns the game's event store.
func (g *Game) EventStore() *EventStore { return g.store }

// Materializer returns the replay materializer.
func (g *Game) Materializer() *Materializer { return g.materializer }

// Clock returns the game clock.
func (g *Game) Clock() Clock { return g.clock }

// Now returns the timestamp of the current frame, in milliseconds.
func (g *Game) Now() float64 { return g.now }

// DeltaTime returns the milliseconds between the last two frames.
func (g *Game) DeltaTime() float64 { return g.deltaTime }

// Frame returns the number of frames ticked.
func (g *Game) Frame() int64 { return g.frame }

// CurrentScene returns the presented scene, or nil.
func (g *Game) CurrentScene() *Node { return g.currentScene }

// Scenes returns the scenes added to the game. The returned slice MUST NOT
// be mutated by the caller.
func (g *Game) Scenes() []*Node { return g.scenes }

// FreeNodesScene returns the internal scene holding free nodes.
func (g *Game) FreeNodesScene() *Node { return g.freeNodesScene }

// I18n returns the translator, or nil before SetI18n.
func (g *Game) I18n() *I18n { return g.i18n }

// Locales returns the current and fallback locales, or empty strings
// before any translation data is set.
func (g *Game) Locales() (locale, fallback string) {
	if g.i18n == nil {
		return "", ""
	}
	return g.i18n.data.Locale, g.i18n.data.FallbackLocale
}

// Images returns the image manager.
func (g *Game) Images() ImageManager { return g.images }

// Sounds returns the sound manager.
func (g *Game) Sounds() SoundManager { return g.sounds }

// SetEntityStore sets the ECS bridge that receives pointer events.
func (g *Game) SetEntityStore(s EntityStore) { g.entities = s }

// SceneByName returns the added scene called name, or nil.
func (g *Game) SceneByName(name string) *Node {
	for _, s := range g.scenes {
		if s.name == name {
			return s
		}
	}
	return nil
}

// font resolves a font by name; "" selects the default font.
func (g *Game) font(name string) FontResource {
	if g.fonts == nil {
		return FontResource{Name: name, Status: AssetError, Err: errors.New("m2c2: no font manager")}
	}
	if name == "" {
		return g.fonts.DefaultFont()
	}
	return g.fonts.Font(name)
}

// --- Events ---

// OnEvent registers fn to receive every event the game handles, whether or
// not the event store records it.
func (g *Game) OnEvent(fn func(Event)) {
	g.eventObservers = append(g.eventObservers, fn)
}

// OnFrame registers fn to receive statistics after each Tick.
func (g *Game) OnFrame(fn func(FrameStats)) {
	g.frameObservers = append(g.frameObservers, fn)
}

// handleEvent records e and notifies observers. It is the sink for events
// emitted by nodes attached to the game.
func (g *Game) handleEvent(e Event) {
	g.frameEvents++
	if err := g.store.AddEvent(e); err != nil {
		logger().Error("record event",
			zap.String("type", string(e.Type)),
			zap.Int64("sequence", e.Sequence),
			zap.Error(err),
		)
	}
	for _, fn := range g.eventObservers {
		fn(e)
	}
}

// emit stamps an event raised by the game itself and handles it.
func (g *Game) emit(ev *Event) {
	if ev.Target == nil {
		ev.Target = g
	}
	stampEvent(ev)
	g.handleEvent(*ev)
}

// flushPendingEvents hands events buffered in n's subtree, while it was
// not attached, to the game in sequence order.
func (g *Game) flushPendingEvents(n *Node) {
	for _, e := range takePendingEvents(n) {
		g.handleEvent(e)
	}
}

// Replay starts replaying events; nil replays the store's own recording.
// Events are materialized by Tick as their timestamps come due.
func (g *Game) Replay(events []Event) error {
	return g.store.Replay(events, g.now)
}

// --- Scenes ---

// AddScene adds a scene to the game. Panics if scene is not a Scene, was
// already added, or belongs to another game.
func (g *Game) AddScene(scene *Node) {
	if scene == nil || scene.nodeType != NodeTypeScene {
		panic(fmt.Sprintf("m2c2: AddScene requires a Scene, got %v", scene))
	}
	if slices.Contains(g.scenes, scene) {
		panic(fmt.Sprintf("m2c2: %s was already added to the game", scene))
	}
	if scene.scene.game != nil && scene.scene.game != g {
		panic(fmt.Sprintf("m2c2: %s belongs to another game", scene))
	}
	g.scenes = append(g.scenes, scene)
	g.attachScene(scene)
}

// RemoveScene removes a scene that is not currently presented.
func (g *Game) RemoveScene(scene *Node) {
	if scene == g.currentScene {
		panic(fmt.Sprintf("m2c2: cannot remove %s while it is presented", scene))
	}
	i := slices.Index(g.scenes, scene)
	if i < 0 {
		return
	}
	g.scenes = slices.Delete(g.scenes, i, i+1)
	scene.scene.game = nil
}

// attachScene connects a scene to the game and sizes it to the canvas.
func (g *Game) attachScene(s *Node) {
	s.scene.game = g
	if s.size == (Size{}) {
		s.size = Size{Width: g.opts.Width, Height: g.opts.Height}
	}
	g.flushPendingEvents(s)
}

// PresentScene makes scene the current scene using transition t. The
// scene's OnSetup callbacks run immediately; OnAppear callbacks run once
// the scene is fully shown. Panics if scene was not added.
func (g *Game) PresentScene(scene *Node, t Transition) {
	if scene == nil || scene.nodeType != NodeTypeScene {
		panic(fmt.Sprintf("m2c2: PresentScene requires a Scene, got %v", scene))
	}
	if !slices.Contains(g.scenes, scene) {
		panic(fmt.Sprintf("m2c2: %s has not been added to the game", scene))
	}
	ev := transitionEvent(scene, t)
	g.emit(&ev)
	g.presentScene(scene, t)
}

// PresentSceneByName presents the added scene called name.
func (g *Game) PresentSceneByName(name string, t Transition) {
	s := g.SceneByName(name)
	if s == nil {
		panic(fmt.Sprintf("m2c2: no scene named %q", name))
	}
	g.PresentScene(s, t)
}

func (g *Game) presentScene(incoming *Node, t Transition) {
	g.completeTransition()
	for _, fn := range incoming.scene.onSetup {
		fn()
	}
	outgoing := g.currentScene
	if t.Type != TransitionTypeSlide || outgoing == nil || outgoing == incoming || t.Duration <= 0 {
		g.switchScene(outgoing, incoming)
		return
	}
	off := slideOffset(t.Direction, g.opts.Width, g.opts.Height)
	incoming.withoutEvents(func() { incoming.SetPosition(off) })
	incoming.scene.active = false
	incoming.scene.transitioning = true
	g.pending = &pendingSlide{incoming: incoming, transition: t, offset: off}
}

func (g *Game) switchScene(outgoing, incoming *Node) {
	if outgoing != nil && outgoing != incoming {
		outgoing.scene.active = false
	}
	g.currentScene = incoming
	incoming.scene.transitioning = false
	incoming.scene.active = true
	for _, fn := range incoming.scene.onAppear {
		fn()
	}
}

// beginSlide starts a pending Slide. snapshot is the last frame of the
// outgoing scene; it is shown on a sprite that moves off the canvas while
// the incoming scene moves in.
func (g *Game) beginSlide(snapshot Image) {
	p := g.pending
	g.pending = nil
	if outgoing := g.currentScene; outgoing != nil {
		outgoing.scene.active = false
	}

	out := newScene(SceneOptions{
		NodeOptions:     NodeOptions{Name: outgoingSceneName, SuppressEvents: true},
		BackgroundColor: Ptr(ColorTransparent),
	}, "")
	out.scene.game = g
	out.size = Size{Width: g.opts.Width, Height: g.opts.Height}
	out.scene.transitioning = true
	if snapshot != nil {
		sprite := newSprite(SpriteOptions{NodeOptions: NodeOptions{
			Name:           "__outgoingSnapshot",
			AnchorPoint:    &Point{},
			SuppressEvents: true,
		}}, "")
		sprite.setCustomImage(snapshot)
		if w := snapshot.Width(); w > 0 {
			sprite.scale = g.opts.Width / float64(w)
		}
		out.AddChild(sprite)
		sprite.Run(transitionMove(Point{X: -p.offset.X, Y: -p.offset.Y}, p.transition.Duration, p.transition.Easing), transitionActionKey)
	}
	g.outgoingScene = out

	in := p.incoming
	g.currentScene = in
	in.Run(Sequence(
		transitionMove(Point{}, p.transition.Duration, p.transition.Easing),
		Custom(CustomOptions{Callback: func() { g.finishSlide(in) }, RunDuringTransition: true}),
	), transitionActionKey)
	logger().Debug("slide transition started",
		zap.Stringer("scene", in),
		zap.String("direction", string(p.transition.Direction)),
		zap.Float64("duration", p.transition.Duration),
	)
}

// finishSlide settles the incoming scene and discards the snapshot.
func (g *Game) finishSlide(in *Node) {
	in.withoutEvents(func() { in.SetPosition(Point{}) })
	in.scene.transitioning = false
	in.scene.active = true
	if g.outgoingScene != nil {
		g.outgoingScene.disposeTree()
		g.outgoingScene.scene.game = nil
		g.outgoingScene = nil
	}
	for _, fn := range in.scene.onAppear {
		fn()
	}
}

// completeTransition ends a running Slide at once, or drops one still
// waiting for its snapshot.
func (g *Game) completeTransition() {
	if p := g.pending; p != nil {
		g.pending = nil
		p.incoming.withoutEvents(func() { p.incoming.SetPosition(Point{}) })
		p.incoming.scene.transitioning = false
	}
	if g.outgoingScene != nil && g.currentScene != nil {
		in := g.currentScene
		in.RemoveAction(transitionActionKey)
		g.finishSlide(in)
	}
}

// --- Free nodes ---

// AddFreeNode adds n above every scene. Free nodes persist across scene
// changes.
func (g *Game) AddFreeNode(n *Node) {
	g.freeNodesScene.AddChild(n)
}

// RemoveFreeNode removes a free node.
func (g *Game) RemoveFreeNode(n *Node) {
	g.freeNodesScene.RemoveChild(n)
}

// FreeNodes returns the free nodes. The returned slice MUST NOT be mutated
// by the caller.
func (g *Game) FreeNodes() []*Node {
	return g.freeNodesScene.children
}

// --- Assets and localization ---

// SetI18n installs translations and relayouts localized text. The data is
// recorded so replays translate identically.
func (g *Game) SetI18n(data I18nData) {
	g.emit(&Event{Type: EventI18nDataReady, Target: TargetI18n, I18n: &data})
	g.applyI18n(data)
}

func (g *Game) applyI18n(data I18nData) {
	g.i18n = NewI18n(data)
	g.forEachNode(func(n *Node) {
		if n.text != nil && n.text.localize {
			n.needsInitialization = true
		}
	})
}

// LoadImage asks the image manager to load desc. The request is recorded
// so replays load the same images.
func (g *Game) LoadImage(desc ImageDescriptor) error {
	if g.images == nil {
		return errors.New("m2c2: no image manager")
	}
	g.emit(&Event{Type: EventBrowserImageDataReady, Target: TargetImageManager, ImageDescriptor: &desc})
	if err := g.images.Load(desc); err != nil {
		return fmt.Errorf("m2c2: load image %q: %w", desc.ImageName, err)
	}
	return nil
}

// forEachNode calls fn for every scene, free node and their descendants.
func (g *Game) forEachNode(fn func(*Node)) {
	roots := append(slices.Clone(g.scenes), g.freeNodesScene)
	if g.outgoingScene != nil {
		roots = append(roots, g.outgoingScene)
	}
	for _, r := range roots {
		fn(r)
		for _, d := range r.Descendants() {
			fn(d)
		}
	}
}

// --- Tap ripple ---

const (
	tapRippleRadius   = 12.0
	tapRippleDuration = 500.0
)

// showTapRipple draws a short-lived expanding circle at (x, y). Replays
// use it to show where the participant touched the canvas.
func (g *Game) showTapRipple(x, y float64) {
	fns := g.freeNodesScene
	ripple := newShape(ShapeOptions{
		NodeOptions: NodeOptions{
			Position:       &Point{X: x, Y: y},
			ZPosition:      math.MaxFloat64,
			SuppressEvents: true,
		},
		CircleOfRadius: Ptr(tapRippleRadius),
		FillColor:      &Color{128, 128, 128, 0.5},
		StrokeColor:    &Color{64, 64, 64, 0.8},
		LineWidth:      Ptr(2.0),
	}, "")
	fns.withoutEvents(func() { fns.AddChild(ripple) })
	ripple.Run(Sequence(
		Group(
			Scale(ScaleOptions{Scale: 2, Duration: tapRippleDuration}),
			FadeAlpha(FadeAlphaOptions{Alpha: 0, Duration: tapRippleDuration}),
		),
		Custom(CustomOptions{Callback: func() {
			fns.withoutEvents(ripple.Dispose)
		}}),
	), "__tapRipple")
}

// --- Frame loop ---

// Tick runs one frame: Update then Draw onto c. It returns the first replay
// error, which ends the session.
func (g *Game) Tick(c Canvas) error {
	start := time.Now()
	if err := g.Update(); err != nil {
		return err
	}
	drawStart := time.Now()
	g.Draw(c)
	g.ReportFrame(drawStart.Sub(start), time.Since(drawStart))
	return nil
}

// Update advances the clock, materializes due replay events, feeds
// scripted and injected input, and updates the scenes and free nodes.
func (g *Game) Update() error {
	g.advanceClock()
	g.frame++
	if g.store.Mode() == EventStoreReplay {
		if events := g.store.DequeueEvents(g.now); len(events) > 0 {
			if err := g.materializer.Materialize(events); err != nil {
				return err
			}
		}
	}
	if g.testRunner != nil {
		g.testRunner.step(g)
	}
	g.processInjectedInput()

	if g.currentScene != nil {
		g.currentScene.update(g.now)
	}
	if g.outgoingScene != nil {
		g.outgoingScene.update(g.now)
	}
	g.freeNodesScene.update(g.now)
	return nil
}

func (g *Game) advanceClock() {
	if g.stepping != nil {
		g.stepping.Advance(g.opts.FramePeriod())
	}
	t := g.clock.Now()
	g.deltaTime = t - g.now
	g.now = t
}

// Draw renders the frame: the outgoing transition snapshot, the current
// scene, then free nodes. A pending Slide captures its snapshot after the
// current scene is drawn and before free nodes, so the incoming scene never
// appears in it.
func (g *Game) Draw(c Canvas) {
	c.Clear(*g.opts.BackgroundColor)
	if g.outgoingScene != nil {
		g.outgoingScene.Draw(c)
	}
	if g.currentScene != nil {
		g.currentScene.Draw(c)
	}
	if g.pending != nil {
		g.beginSlide(c.Snapshot())
	}
	g.freeNodesScene.Draw(c)
	if g.snapshotRequested || len(g.screenshotQueue) > 0 {
		g.lastSnapshot = c.Snapshot()
		g.snapshotRequested = false
		g.flushScreenshots(g.lastSnapshot)
	}
}

// RequestSnapshot asks the next Draw to capture the finished frame.
func (g *Game) RequestSnapshot() { g.snapshotRequested = true }

// Snapshot returns the most recently captured frame, or nil.
func (g *Game) Snapshot() Image { return g.lastSnapshot }

// Warmup initializes every added scene and the free nodes and draws them
// once onto c.
func (g *Game) Warmup(c Canvas) {
	for _, s := range g.scenes {
		s.Warmup(c)
	}
	g.freeNodesScene.Warmup(c)
}
