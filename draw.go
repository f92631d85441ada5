package m2c2

// Draw renders the node and its visible children onto c, children in
// ascending ZPosition order. Hidden nodes skip their whole subtree. A node
// still waiting for an asset skips its own content but draws its children.
func (n *Node) Draw(c Canvas) {
	if n.hidden || n.disposed {
		return
	}
	c.Save()
	if n.zRotation != 0 {
		rotateAbout(c, n.absolutePosition, n.zRotation)
	}
	if !n.needsInitialization {
		n.drawContent(c)
	}
	if len(n.children) > 0 {
		if !n.childrenSorted {
			n.rebuildSortedChildren()
		}
		for _, child := range n.sortedChildren {
			child.Draw(c)
		}
	}
	c.Restore()
}

// rotateAbout rotates subsequent drawing on c counterclockwise by angle
// around p.
func rotateAbout(c Canvas, p Point, angle float64) {
	c.Translate(p.X, p.Y)
	c.Rotate(-angle)
	c.Translate(-p.X, -p.Y)
}

func (n *Node) drawContent(c Canvas) {
	switch n.nodeType {
	case NodeTypeScene:
		n.drawScene(c)
	case NodeTypeShape:
		n.drawShape(c)
	case NodeTypeLabel, NodeTypeTextLine:
		n.drawText(c)
	case NodeTypeSprite:
		n.drawSprite(c)
	}
}

// rebuildSortedChildren rebuilds the ZPosition-sorted draw order.
// Uses insertion sort: zero allocations, stable, and optimal for the typical
// case of few children that are nearly sorted (O(n) when already sorted).
func (n *Node) rebuildSortedChildren() {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].zPosition > key.zPosition {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// drawOrder returns the children in draw order.
func (n *Node) drawOrder() []*Node {
	if !n.childrenSorted {
		n.rebuildSortedChildren()
	}
	return n.sortedChildren
}

// Warmup initializes the node and its subtree and draws them once onto c,
// typically an offscreen canvas, so the backend prepares fonts, images and
// paths before the first visible frame.
func (n *Node) Warmup(c Canvas) {
	var initAll func(*Node)
	initAll = func(p *Node) {
		if p.needsInitialization {
			p.initialize()
		}
		for _, ch := range p.children {
			initAll(ch)
		}
	}
	initAll(n)
	n.Draw(c)
}
