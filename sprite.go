package m2c2

// SpriteOptions configure a Sprite.
type SpriteOptions struct {
	NodeOptions `mapstructure:",squash"`
	ImageName   string `json:"imageName,omitempty" mapstructure:"imageName"`
}

type spriteState struct {
	imageName string
	image     Image
	// custom is drawn instead of a managed image. It is set for internal
	// sprites, such as the outgoing scene snapshot of a transition.
	custom Image
}

// NewSprite creates a Sprite showing the image registered as ImageName.
func NewSprite(opts SpriteOptions) *Node {
	return newSprite(opts, "")
}

func newSprite(opts SpriteOptions, id string) *Node {
	n := newNodeBase(NodeTypeSprite, opts.NodeOptions, id)
	n.sprite = &spriteState{imageName: opts.ImageName}
	n.recordNew(opts)
	return n
}

// ImageName returns the image a Sprite shows.
func (n *Node) ImageName() string {
	n.mustBe("imageName", NodeTypeSprite)
	return n.sprite.imageName
}

// SetImageName changes the image a Sprite shows.
func (n *Node) SetImageName(name string) {
	n.mustBe("imageName", NodeTypeSprite)
	setProperty(n, "imageName", &n.sprite.imageName, name, true)
}

// setCustomImage makes the sprite draw img, bypassing the image manager.
func (n *Node) setCustomImage(img Image) {
	n.sprite.custom = img
	n.needsInitialization = true
}

func (n *Node) initSprite() bool {
	s := n.sprite
	if s.custom != nil {
		s.image = s.custom
		n.size = Size{Width: float64(s.custom.Width()), Height: float64(s.custom.Height())}
		return true
	}
	g := n.Game()
	if g == nil || g.images == nil {
		return false
	}
	res := g.images.Image(s.imageName)
	switch res.Status {
	case AssetReady:
	case AssetError:
		panic(&AssetLoadError{Kind: "image", Name: s.imageName, Err: res.Err})
	default:
		warnAssetNotReady("image", s.imageName, res.Status, n)
		return false
	}
	s.image = res.Image
	n.size = Size{Width: float64(res.Image.Width()), Height: float64(res.Image.Height())}
	return true
}

func (n *Node) drawSprite(c Canvas) {
	if n.sprite.image == nil {
		return
	}
	c.DrawImage(n.sprite.image, n.absoluteBounds(), n.absoluteAlpha)
}
