package m2c2

import (
	"math"
	"slices"
)

// Run starts a copy of action on the node. key identifies the action for
// RemoveAction and IsActionRunning; it may be empty.
func (n *Node) Run(action Action, key string) {
	if action == nil {
		panic("m2c2: cannot run nil action")
	}
	n.actions = append(n.actions, initializeAction(action, key))
}

// Actions returns the node's running actions. The returned slice MUST NOT
// be mutated by the caller.
func (n *Node) Actions() []Action { return n.actions }

// IsActionRunning reports whether an action with key is still on the node.
func (n *Node) IsActionRunning(key string) bool {
	for _, a := range n.actions {
		if a.Key() == key && !a.Completed() {
			return true
		}
	}
	return false
}

// RemoveAction stops and removes every action run with key. Sounds started
// by removed Play actions are stopped.
func (n *Node) RemoveAction(key string) {
	n.actions = slices.DeleteFunc(n.actions, func(a Action) bool {
		if a.Key() != key {
			return false
		}
		stopAction(a)
		return true
	})
}

// RemoveAllActions stops and removes every action on the node.
func (n *Node) RemoveAllActions() {
	n.removeActions()
}

func (n *Node) removeActions() {
	for _, a := range n.actions {
		stopAction(a)
	}
	n.actions = nil
}

// stopAction stops backend playback started by Play actions in a's tree.
func stopAction(a Action) {
	walkActions(a, func(c Action) {
		if p, ok := c.(*PlayAction); ok && p.source != nil {
			p.source.Stop()
			p.source = nil
		}
	})
}

// evaluateActions advances every action on the node and drops the ones that
// have completed. Actions removed by a callback during the frame are not
// evaluated further.
func (n *Node) evaluateActions(now float64) {
	if len(n.actions) == 0 {
		return
	}
	active := slices.Clone(n.actions)
	for _, a := range active {
		if !slices.Contains(n.actions, a) {
			continue
		}
		evaluateAction(a, n, now)
	}
	n.actions = slices.DeleteFunc(n.actions, func(a Action) bool { return a.Completed() })
}

// involvedInSceneTransition reports whether the node's scene is currently
// sliding in or out.
func (n *Node) involvedInSceneTransition() bool {
	s := n.Scene()
	return s != nil && s.scene != nil && s.scene.transitioning
}

// evaluateAction advances a for the frame at time now.
//
// A leaf is evaluated whenever its start time has passed and it has not
// completed, so a coarse frame that jumps over a leaf's whole interval
// still runs and completes it.
func evaluateAction(a Action, n *Node, now float64) {
	b := a.base()
	if !b.runDuringTransition && n.involvedInSceneTransition() {
		return
	}
	if b.runStartTime == -1 {
		setRunStartTime(rootAction(a), now)
	}
	start := b.runStartTime + b.startOffset.Value()
	if now < start || a.Completed() {
		return
	}
	b.running = true

	if isParentAction(a) {
		for _, c := range b.children {
			evaluateAction(c, n, now)
		}
		switch v := a.(type) {
		case *RepeatAction:
			evaluateRepetition(b, now, &v.completedRepetitions, &v.cumulativeDuration, v.count)
		case *RepeatForeverAction:
			evaluateRepetition(b, now, &v.completedRepetitions, &v.cumulativeDuration, 0)
		default:
			if childrenCompleted(b.children) {
				finish(b)
			}
		}
		return
	}

	elapsed := now - start
	switch v := a.(type) {
	case *CustomAction:
		if v.callback != nil {
			v.callback()
		}
		finish(b)
	case *WaitAction:
		b.started = true
		if elapsed >= v.length {
			finish(b)
		}
	case *MoveAction:
		if !b.started {
			b.started = true
			v.from = n.position
			v.delta = Point{X: v.target.X - v.from.X, Y: v.target.Y - v.from.Y}
		}
		p := v.target
		if elapsed < v.length {
			t := easeProgress(v.easing, elapsed, v.length)
			p = Point{X: v.from.X + v.delta.X*t, Y: v.from.Y + v.delta.Y*t}
		} else {
			finish(b)
		}
		if v.silent {
			n.withoutEvents(func() { n.SetPosition(p) })
		} else {
			n.SetPosition(p)
		}
	case *ScaleAction:
		if !b.started {
			b.started = true
			v.from = n.scale
			v.delta = v.target - v.from
		}
		if elapsed < v.length {
			n.SetScale(v.from + v.delta*elapsed/v.length)
		} else {
			n.SetScale(v.target)
			finish(b)
		}
	case *FadeAlphaAction:
		if !b.started {
			b.started = true
			v.from = n.alpha
			v.delta = v.target - v.from
		}
		if elapsed < v.length {
			n.SetAlpha(v.from + v.delta*elapsed/v.length)
		} else {
			n.SetAlpha(v.target)
			finish(b)
		}
	case *RotateAction:
		if !b.started {
			b.started = true
			v.from, v.delta = rotationDelta(n.zRotation, v.byAngle, v.toAngle, v.shortestUnitArc)
		}
		if elapsed < v.length {
			n.SetZRotation(v.from + v.delta*elapsed/v.length)
		} else {
			n.SetZRotation(v.from + v.delta)
			finish(b)
		}
	case *PlayAction:
		n.evaluatePlay(v, start, now)
	}
}

// rotationDelta returns the starting angle and the signed change for a
// rotation beginning at current.
func rotationDelta(current float64, byAngle, toAngle *float64, shortestUnitArc bool) (from, delta float64) {
	if byAngle != nil {
		return current, *byAngle
	}
	from = normalizeAngle(current)
	delta = normalizeAngle(*toAngle) - from
	if shortestUnitArc && math.Abs(delta) > math.Pi {
		if delta > 0 {
			delta -= 2 * math.Pi
		} else {
			delta += 2 * math.Pi
		}
	}
	return from, delta
}

// evaluateRepetition handles the end of one pass of a repeating action.
// count is 0 for RepeatForever.
func evaluateRepetition(b *actionBase, now float64, completed *int, cumulative *float64, count int) {
	if !childrenCompleted(b.children) {
		return
	}
	offset := b.startOffset.Value()
	*cumulative += now - (b.children[0].base().runStartTime + offset)
	*completed++
	if count == 0 || *completed < count {
		for _, c := range b.children {
			restartAction(c, now-offset)
		}
		return
	}
	b.duration.Assign(*cumulative)
	finish(b)
}

func finish(b *actionBase) {
	b.started = true
	b.running = false
	b.completed = true
}
