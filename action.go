package m2c2

import (
	"fmt"
	"math"
)

// Action is a time-based behavior run on a node with (*Node).Run. Actions
// are templates: Run clones the action, so one Action value may be run on
// many nodes.
//
// Parent actions (Sequence, Group, Repeat, RepeatForever) contain children;
// the others are leaves.
type Action interface {
	// Key is the key given to Run, or "" for child actions.
	Key() string
	// Duration is the action's total length in milliseconds. It is +Inf
	// while not yet known.
	Duration() *Futurable
	// StartOffset is the delay, relative to the root action's start, at
	// which this action begins.
	StartOffset() *Futurable
	Started() bool
	Running() bool
	Completed() bool
	// RunDuringTransition reports whether the action advances while its
	// scene is in a transition.
	RunDuringTransition() bool
	// Children returns child actions. It is nil for leaves.
	Children() []Action

	base() *actionBase
	clone() Action
}

// actionBase holds the state every action shares.
type actionBase struct {
	key                 string
	parent              Action
	children            []Action
	runDuringTransition bool
	startOffset         *Futurable
	duration            *Futurable
	runStartTime        float64
	started             bool
	running             bool
	completed           bool
}

func newActionBase(runDuringTransition bool) actionBase {
	return actionBase{runDuringTransition: runDuringTransition, runStartTime: -1}
}

func (b *actionBase) Key() string               { return b.key }
func (b *actionBase) Duration() *Futurable      { return b.duration }
func (b *actionBase) StartOffset() *Futurable   { return b.startOffset }
func (b *actionBase) Started() bool             { return b.started }
func (b *actionBase) Running() bool             { return b.running }
func (b *actionBase) Completed() bool           { return b.completed }
func (b *actionBase) RunDuringTransition() bool { return b.runDuringTransition }
func (b *actionBase) Children() []Action        { return b.children }
func (b *actionBase) base() *actionBase         { return b }

// cloneBase copies configuration, never runtime state.
func (b *actionBase) cloneBase() actionBase {
	return newActionBase(b.runDuringTransition)
}

func cloneChildren(children []Action) []Action {
	out := make([]Action, len(children))
	for i, c := range children {
		out[i] = c.clone()
	}
	return out
}

// --- Parent actions ---

// SequenceAction runs its children one after another.
type SequenceAction struct{ actionBase }

// Sequence returns an action that runs actions in order.
func Sequence(actions ...Action) *SequenceAction {
	a := &SequenceAction{newActionBase(false)}
	a.children = actions
	return a
}

func (a *SequenceAction) clone() Action {
	c := &SequenceAction{a.cloneBase()}
	c.children = cloneChildren(a.children)
	return c
}

// Completed reports whether every child has completed.
func (a *SequenceAction) Completed() bool { return childrenCompleted(a.children) }

// GroupAction runs its children at the same time.
type GroupAction struct{ actionBase }

// Group returns an action that runs actions in parallel. It completes when
// the longest child completes.
func Group(actions ...Action) *GroupAction {
	a := &GroupAction{newActionBase(false)}
	a.children = actions
	return a
}

func (a *GroupAction) clone() Action {
	c := &GroupAction{a.cloneBase()}
	c.children = cloneChildren(a.children)
	return c
}

// Completed reports whether every child has completed.
func (a *GroupAction) Completed() bool { return childrenCompleted(a.children) }

// RepeatOptions configure Repeat.
type RepeatOptions struct {
	Action Action
	Count  int
}

// RepeatAction runs its child a fixed number of times.
type RepeatAction struct {
	actionBase
	count                int
	completedRepetitions int
	cumulativeDuration   float64
	repetitionStart      float64
}

// Repeat returns an action that runs opts.Action opts.Count times.
// Panics if Count is not positive or Action is nil.
func Repeat(opts RepeatOptions) *RepeatAction {
	if opts.Action == nil {
		panic("m2c2: repeat requires an action")
	}
	if opts.Count <= 0 {
		panic(fmt.Sprintf("m2c2: repeat count must be positive, got %d", opts.Count))
	}
	a := &RepeatAction{actionBase: newActionBase(false), count: opts.Count}
	a.children = []Action{opts.Action}
	return a
}

func (a *RepeatAction) clone() Action {
	c := &RepeatAction{actionBase: a.cloneBase(), count: a.count}
	c.children = cloneChildren(a.children)
	return c
}

// Count returns the number of repetitions.
func (a *RepeatAction) Count() int { return a.count }

// CompletedRepetitions returns how many repetitions have finished.
func (a *RepeatAction) CompletedRepetitions() int { return a.completedRepetitions }

// RepeatForeverAction runs its child until removed. It never completes.
type RepeatForeverAction struct {
	actionBase
	completedRepetitions int
	cumulativeDuration   float64
	repetitionStart      float64
}

// RepeatForever returns an action that runs action indefinitely.
func RepeatForever(action Action) *RepeatForeverAction {
	if action == nil {
		panic("m2c2: repeat forever requires an action")
	}
	a := &RepeatForeverAction{actionBase: newActionBase(false)}
	a.children = []Action{action}
	return a
}

func (a *RepeatForeverAction) clone() Action {
	c := &RepeatForeverAction{actionBase: a.cloneBase()}
	c.children = cloneChildren(a.children)
	return c
}

// CompletedRepetitions returns how many repetitions have finished.
func (a *RepeatForeverAction) CompletedRepetitions() int { return a.completedRepetitions }

// Completed is always false.
func (a *RepeatForeverAction) Completed() bool { return false }

func childrenCompleted(children []Action) bool {
	for _, c := range children {
		if !c.Completed() {
			return false
		}
	}
	return true
}

func isParentAction(a Action) bool {
	switch a.(type) {
	case *SequenceAction, *GroupAction, *RepeatAction, *RepeatForeverAction:
		return true
	}
	return false
}

// --- Leaf actions ---

// WaitOptions configure Wait.
type WaitOptions struct {
	Duration            float64
	RunDuringTransition bool
}

// WaitAction does nothing for its duration.
type WaitAction struct {
	actionBase
	length float64
}

// Wait returns an action that idles for opts.Duration milliseconds.
func Wait(opts WaitOptions) *WaitAction {
	return &WaitAction{actionBase: newActionBase(opts.RunDuringTransition), length: opts.Duration}
}

func (a *WaitAction) clone() Action {
	return &WaitAction{actionBase: a.cloneBase(), length: a.length}
}

// CustomOptions configure Custom.
type CustomOptions struct {
	Callback            func()
	RunDuringTransition bool
}

// CustomAction calls a function once. It has zero duration.
type CustomAction struct {
	actionBase
	callback func()
}

// Custom returns an action that invokes opts.Callback.
func Custom(opts CustomOptions) *CustomAction {
	return &CustomAction{actionBase: newActionBase(opts.RunDuringTransition), callback: opts.Callback}
}

func (a *CustomAction) clone() Action {
	return &CustomAction{actionBase: a.cloneBase(), callback: a.callback}
}

// MoveOptions configure Move.
type MoveOptions struct {
	Point               Point
	Duration            float64
	Easing              EasingFunction
	RunDuringTransition bool
}

// MoveAction moves a node to a point.
type MoveAction struct {
	actionBase
	target Point
	length float64
	easing EasingFunction
	from   Point
	delta  Point
	silent bool
}

// Move returns an action that moves the node to opts.Point over
// opts.Duration milliseconds. Easing defaults to linear.
func Move(opts MoveOptions) *MoveAction {
	return &MoveAction{
		actionBase: newActionBase(opts.RunDuringTransition),
		target:     opts.Point,
		length:     opts.Duration,
		easing:     opts.Easing,
	}
}

func (a *MoveAction) clone() Action {
	return &MoveAction{
		actionBase: a.cloneBase(),
		target:     a.target,
		length:     a.length,
		easing:     a.easing,
		silent:     a.silent,
	}
}

// ScaleOptions configure Scale.
type ScaleOptions struct {
	Scale               float64
	Duration            float64
	RunDuringTransition bool
}

// ScaleAction changes a node's scale linearly.
type ScaleAction struct {
	actionBase
	target float64
	length float64
	from   float64
	delta  float64
}

// Scale returns an action that scales the node to opts.Scale.
func Scale(opts ScaleOptions) *ScaleAction {
	return &ScaleAction{actionBase: newActionBase(opts.RunDuringTransition), target: opts.Scale, length: opts.Duration}
}

func (a *ScaleAction) clone() Action {
	return &ScaleAction{actionBase: a.cloneBase(), target: a.target, length: a.length}
}

// FadeAlphaOptions configure FadeAlpha.
type FadeAlphaOptions struct {
	Alpha               float64
	Duration            float64
	RunDuringTransition bool
}

// FadeAlphaAction changes a node's alpha linearly.
type FadeAlphaAction struct {
	actionBase
	target float64
	length float64
	from   float64
	delta  float64
}

// FadeAlpha returns an action that fades the node to opts.Alpha.
func FadeAlpha(opts FadeAlphaOptions) *FadeAlphaAction {
	return &FadeAlphaAction{actionBase: newActionBase(opts.RunDuringTransition), target: opts.Alpha, length: opts.Duration}
}

func (a *FadeAlphaAction) clone() Action {
	return &FadeAlphaAction{actionBase: a.cloneBase(), target: a.target, length: a.length}
}

// RotateOptions configure Rotate. Exactly one of ByAngle and ToAngle must
// be set. ShortestUnitArc applies only to ToAngle and defaults to true.
type RotateOptions struct {
	ByAngle             *float64
	ToAngle             *float64
	ShortestUnitArc     *bool
	Duration            float64
	RunDuringTransition bool
}

// RotateAction rotates a node by or to an angle, in radians.
type RotateAction struct {
	actionBase
	byAngle         *float64
	toAngle         *float64
	shortestUnitArc bool
	length          float64
	from            float64
	delta           float64
}

// Rotate returns a rotation action. Panics if both or neither of ByAngle and
// ToAngle are set, or if ShortestUnitArc is given with ByAngle.
func Rotate(opts RotateOptions) *RotateAction {
	if (opts.ByAngle == nil) == (opts.ToAngle == nil) {
		panic("m2c2: rotate requires exactly one of ByAngle and ToAngle")
	}
	if opts.ByAngle != nil && opts.ShortestUnitArc != nil {
		panic("m2c2: rotate ShortestUnitArc can only be used with ToAngle")
	}
	a := &RotateAction{
		actionBase: newActionBase(opts.RunDuringTransition),
		byAngle:    opts.ByAngle,
		toAngle:    opts.ToAngle,
		length:     opts.Duration,
	}
	if opts.ToAngle != nil {
		a.shortestUnitArc = opts.ShortestUnitArc == nil || *opts.ShortestUnitArc
	}
	return a
}

func (a *RotateAction) clone() Action {
	return &RotateAction{
		actionBase:      a.cloneBase(),
		byAngle:         a.byAngle,
		toAngle:         a.toAngle,
		shortestUnitArc: a.shortestUnitArc,
		length:          a.length,
	}
}

// PlayOptions configure Play.
type PlayOptions struct {
	RunDuringTransition bool
}

// PlayAction plays a SoundPlayer's sound. Its duration is unknown until
// playback ends.
type PlayAction struct {
	actionBase
	source      AudioSource
	warnedDelay bool
}

// Play returns an action that plays the sound of the SoundPlayer it runs on.
func Play(opts ...PlayOptions) *PlayAction {
	var o PlayOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return &PlayAction{actionBase: newActionBase(o.RunDuringTransition)}
}

func (a *PlayAction) clone() Action {
	return &PlayAction{actionBase: a.cloneBase()}
}

// --- Initialization ---

// initializeAction prepares a fresh copy of template for running under key:
// parents are linked, runDuringTransition is inferred upward, durations are
// computed bottom-up and start offsets top-down.
func initializeAction(template Action, key string) Action {
	root := template.clone()
	root.base().key = key
	linkParents(root, nil)
	inferRunDuringTransition(root)
	computeDuration(root)
	root.base().startOffset = NewFuturable(0)
	computeStartOffsets(root)
	return root
}

func linkParents(a Action, parent Action) {
	b := a.base()
	b.parent = parent
	for _, c := range b.children {
		linkParents(c, a)
	}
}

// inferRunDuringTransition marks a parent as running during transitions if
// any descendant is.
func inferRunDuringTransition(a Action) bool {
	b := a.base()
	for _, c := range b.children {
		if inferRunDuringTransition(c) {
			b.runDuringTransition = true
		}
	}
	return b.runDuringTransition
}

func computeDuration(a Action) {
	b := a.base()
	for _, c := range b.children {
		computeDuration(c)
	}
	switch v := a.(type) {
	case *SequenceAction:
		d := &Futurable{}
		for _, c := range v.children {
			d.AddFuturable(c.Duration())
		}
		b.duration = d
	case *GroupAction:
		d := &Futurable{}
		for _, c := range v.children {
			d.MaxFuturable(c.Duration())
		}
		b.duration = d
	case *RepeatAction, *RepeatForeverAction, *PlayAction:
		b.duration = UnknownFuturable()
	case *WaitAction:
		b.duration = NewFuturable(v.length)
	case *MoveAction:
		b.duration = NewFuturable(v.length)
	case *ScaleAction:
		b.duration = NewFuturable(v.length)
	case *FadeAlphaAction:
		b.duration = NewFuturable(v.length)
	case *RotateAction:
		b.duration = NewFuturable(v.length)
	case *CustomAction:
		b.duration = NewFuturable(0)
	default:
		panic(fmt.Sprintf("m2c2: unknown action type %T", a))
	}
}

// computeStartOffsets assigns offsets to a's descendants. A sequence child
// starts after its preceding siblings; other parents start children
// together with themselves.
func computeStartOffsets(a Action) {
	b := a.base()
	_, sequential := a.(*SequenceAction)
	for i, c := range b.children {
		off := &Futurable{}
		off.AddFuturable(b.startOffset)
		if sequential {
			for _, prev := range b.children[:i] {
				off.AddFuturable(prev.Duration())
			}
		}
		c.base().startOffset = off
		computeStartOffsets(c)
	}
}

// setRunStartTime stamps t on a and every descendant.
func setRunStartTime(a Action, t float64) {
	b := a.base()
	b.runStartTime = t
	for _, c := range b.children {
		setRunStartTime(c, t)
	}
}

// restartAction clears runtime state on a and its descendants so a
// repetition can run them again from runStartTime. Durations that were
// measured during the last run become unknown again.
func restartAction(a Action, runStartTime float64) {
	b := a.base()
	b.runStartTime = runStartTime
	b.started, b.running, b.completed = false, false, false
	switch v := a.(type) {
	case *RepeatAction:
		v.completedRepetitions = 0
		v.cumulativeDuration = 0
		b.duration.setUnknown()
	case *RepeatForeverAction:
		v.completedRepetitions = 0
		v.cumulativeDuration = 0
	case *PlayAction:
		v.source = nil
		v.warnedDelay = false
		b.duration.setUnknown()
	}
	for _, c := range b.children {
		restartAction(c, runStartTime)
	}
}

// rootAction returns the topmost ancestor of a.
func rootAction(a Action) Action {
	for a.base().parent != nil {
		a = a.base().parent
	}
	return a
}

// walkActions calls fn for a and every descendant.
func walkActions(a Action, fn func(Action)) {
	fn(a)
	for _, c := range a.Children() {
		walkActions(c, fn)
	}
}

// end returns the absolute time at which a is scheduled to end.
func (b *actionBase) end() float64 {
	d := b.duration.Value()
	if math.IsInf(d, 1) {
		return d
	}
	return b.runStartTime + b.startOffset.Value() + d
}
