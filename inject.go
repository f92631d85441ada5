package m2c2

// syntheticPointerEvent is one queued injected pointer sample, in canvas
// coordinates. Injected samples go through the same state machine as real
// input, so they are recorded and hit tested identically.
type syntheticPointerEvent struct {
	x, y    float64
	pressed bool
	button  PointerButton
}

// InjectPress queues a primary button press at (x, y). Queued samples are
// consumed one per frame by Update.
func (g *Game) InjectPress(x, y float64) {
	g.injectQueue = append(g.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectMove queues a pointer move at (x, y) with the button held down.
// Use this between InjectPress and InjectRelease to simulate a drag.
func (g *Game) InjectMove(x, y float64) {
	g.injectQueue = append(g.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectRelease queues a button release at (x, y).
func (g *Game) InjectRelease(x, y float64) {
	g.injectQueue = append(g.injectQueue, syntheticPointerEvent{x: x, y: y})
}

// InjectTap queues a press followed by a release at (x, y). Consumes two
// frames.
func (g *Game) InjectTap(x, y float64) {
	g.InjectPress(x, y)
	g.InjectRelease(x, y)
}

// InjectDrag queues a full drag: a press at (fromX, fromY), moves linearly
// interpolated over frames-2 intermediate frames, and a release at
// (toX, toY). The sequence consumes frames frames; the minimum is 2.
func (g *Game) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	g.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		g.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	g.InjectRelease(toX, toY)
}

// InjectionPending reports whether injected samples are still queued.
// Backends skip real pointer input while it is true.
func (g *Game) InjectionPending() bool {
	return len(g.injectQueue) > 0
}

// processInjectedInput feeds the next queued sample to pointer 0. It
// reports whether a sample was consumed.
func (g *Game) processInjectedInput() bool {
	if len(g.injectQueue) == 0 {
		return false
	}
	evt := g.injectQueue[0]
	copy(g.injectQueue, g.injectQueue[1:])
	g.injectQueue = g.injectQueue[:len(g.injectQueue)-1]
	g.refreshTransforms()
	g.HandlePointer(0, evt.x, evt.y, evt.pressed, evt.button)
	return true
}

// refreshTransforms brings absolute geometry up to date before injected
// input is hit tested, so nodes added or moved since the last update are
// found where they will be drawn.
func (g *Game) refreshTransforms() {
	if s := g.currentScene; s != nil {
		s.refreshTransforms()
	}
	g.freeNodesScene.refreshTransforms()
}
