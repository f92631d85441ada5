package m2c2

// Update advances the node and its subtree by one frame: it initializes
// drawing resources when needed, recomputes absolute alpha, position and
// scale, evaluates running actions, then updates the children in
// constraint dependency order.
func (n *Node) Update() {
	n.update(n.frameNow())
}

// frameNow returns the timestamp of the frame being processed.
func (n *Node) frameNow() float64 {
	if g := n.Game(); g != nil {
		return g.now
	}
	return now()
}

func (n *Node) update(now float64) {
	if n.needsInitialization {
		n.initialize()
	}

	prevAlpha := n.absoluteAlpha
	p := n.parent
	if p == nil {
		n.absoluteAlpha = n.alpha
	} else {
		n.absoluteAlpha = p.absoluteAlpha * n.alpha
	}
	n.absoluteAlphaChange = n.absoluteAlpha - prevAlpha
	if n.absoluteAlphaChange != 0 {
		n.retint()
	}

	n.updateTransform()

	n.evaluateActions(now)
	if n.recorder != nil {
		n.checkRecordingLimit(now)
	}

	for _, c := range n.childUpdateOrder() {
		c.update(now)
	}
}

// updateTransform derives the absolute position, scale and rotation from
// the parent's, which must already be current.
func (n *Node) updateTransform() {
	p := n.parent
	switch {
	case p == nil:
		n.absolutePosition = Point{X: n.position.X * n.scale, Y: n.position.Y * n.scale}
		n.absoluteScale = n.scale
		n.absoluteZRotation = n.zRotation
	case !n.hasConstraints():
		n.absolutePosition = Point{
			X: p.absolutePosition.X + n.position.X*p.absoluteScale,
			Y: p.absolutePosition.Y + n.position.Y*p.absoluteScale,
		}
		n.absoluteScale = p.absoluteScale * n.scale
		n.absoluteZRotation = p.absoluteZRotation + n.zRotation
	default:
		n.absoluteScale = p.absoluteScale * n.scale
		n.absoluteZRotation = p.absoluteZRotation + n.zRotation
		n.resolveConstraints()
	}
}

// refreshTransforms recomputes absolute transforms for the subtree without
// initializing nodes or running actions.
func (n *Node) refreshTransforms() {
	n.updateTransform()
	for _, c := range n.childUpdateOrder() {
		c.refreshTransforms()
	}
}

// initialize builds the node's drawing state. Kinds that depend on assets
// stay uninitialized, and retry next frame, until their asset is ready.
func (n *Node) initialize() {
	ok := true
	switch n.nodeType {
	case NodeTypeScene:
		n.initScene()
	case NodeTypeShape:
		n.initShape()
	case NodeTypeLabel, NodeTypeTextLine:
		ok = n.initText()
	case NodeTypeSprite:
		ok = n.initSprite()
	}
	if ok {
		n.needsInitialization = false
	}
}

// retint refreshes cached paints after the absolute alpha changed.
func (n *Node) retint() {
	switch n.nodeType {
	case NodeTypeScene:
		n.initScene()
	case NodeTypeShape:
		n.initShape()
	}
}

// releaseResources frees backend objects owned by the node.
func (n *Node) releaseResources() {
	if n.text != nil && n.text.paragraph != nil {
		n.text.paragraph.Dispose()
		n.text.paragraph = nil
		n.needsInitialization = true
	}
}
