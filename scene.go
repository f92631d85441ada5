package m2c2

// SceneOptions configure a Scene.
type SceneOptions struct {
	NodeOptions     `mapstructure:",squash"`
	BackgroundColor *Color `json:"backgroundColor,omitempty" mapstructure:"backgroundColor"`
}

// sceneState holds Scene-specific state.
type sceneState struct {
	game            *Game
	backgroundColor Color
	backgroundPaint Paint
	active          bool
	transitioning   bool
	onSetup         []func()
	onAppear        []func()
}

// NewScene creates a scene. Scenes are added to a Game, never to another
// node. The anchor point defaults to the top-left corner and the
// background to white.
func NewScene(opts SceneOptions) *Node {
	return newScene(opts, "")
}

func newScene(opts SceneOptions, id string) *Node {
	n := newNodeBase(NodeTypeScene, opts.NodeOptions, id)
	if opts.AnchorPoint == nil {
		n.anchorPoint = Point{}
	}
	n.scene = &sceneState{backgroundColor: ColorWhite}
	if opts.BackgroundColor != nil {
		n.scene.backgroundColor = *opts.BackgroundColor
	}
	n.recordNew(opts)
	return n
}

// BackgroundColor returns the background of a Scene or Label.
func (n *Node) BackgroundColor() Color {
	switch n.nodeType {
	case NodeTypeScene:
		return n.scene.backgroundColor
	case NodeTypeLabel:
		if n.text.backgroundColor != nil {
			return *n.text.backgroundColor
		}
		return ColorTransparent
	}
	panic("m2c2: " + n.String() + " has no property \"backgroundColor\"")
}

// SetBackgroundColor sets the background of a Scene or Label.
func (n *Node) SetBackgroundColor(c Color) {
	n.mustBe("backgroundColor", NodeTypeScene, NodeTypeLabel)
	if n.nodeType == NodeTypeScene {
		setProperty(n, "backgroundColor", &n.scene.backgroundColor, c, true)
		return
	}
	setProperty(n, "backgroundColor", &n.text.backgroundColor, &c, true)
}

// OnSetup registers fn to run each time the scene is presented, before
// its first frame.
func (n *Node) OnSetup(fn func()) {
	n.mustBe("onSetup", NodeTypeScene)
	n.scene.onSetup = append(n.scene.onSetup, fn)
}

// OnAppear registers fn to run each time the scene becomes fully visible,
// after any transition.
func (n *Node) OnAppear(fn func()) {
	n.mustBe("onAppear", NodeTypeScene)
	n.scene.onAppear = append(n.scene.onAppear, fn)
}

// IsActive reports whether the scene is the game's current scene with no
// transition in progress.
func (n *Node) IsActive() bool {
	return n.scene != nil && n.scene.active
}

// IsTransitioning reports whether the scene is sliding in or out.
func (n *Node) IsTransitioning() bool {
	return n.scene != nil && n.scene.transitioning
}

func (n *Node) initScene() {
	n.scene.backgroundPaint = FillPaint(n.scene.backgroundColor.WithAlpha(n.absoluteAlpha))
}

func (n *Node) drawScene(c Canvas) {
	if n.scene.backgroundColor.A == 0 {
		return
	}
	c.DrawRect(n.absoluteBounds(), n.scene.backgroundPaint)
}
