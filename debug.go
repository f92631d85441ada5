package m2c2

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// globalDebug enables tree checks on every mutation. Set via SetDebugMode
// or GameOptions.Debug.
var globalDebug bool

// SetDebugMode enables or disables debug checks: use of disposed nodes
// panics, and deep trees or very wide nodes are logged as warnings.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// FrameStats describe one ticked frame.
type FrameStats struct {
	Frame      int64
	Timestamp  float64
	DeltaTime  float64
	UpdateTime time.Duration
	DrawTime   time.Duration
	// Nodes counts the nodes of the current scene, the outgoing snapshot
	// scene and the free nodes.
	Nodes        int
	Actions      int
	Events       int
	StoredEvents int
}

// ReportFrame builds the frame's statistics and hands them to observers.
// Tick calls it; backends that run Update and Draw separately call it
// after Draw.
func (g *Game) ReportFrame(update, draw time.Duration) {
	stats := FrameStats{
		Frame:        g.frame,
		Timestamp:    g.now,
		DeltaTime:    g.deltaTime,
		UpdateTime:   update,
		DrawTime:     draw,
		Events:       g.frameEvents,
		StoredEvents: g.store.Len(),
	}
	g.frameEvents = 0
	for _, root := range []*Node{g.currentScene, g.outgoingScene, g.freeNodesScene} {
		if root == nil {
			continue
		}
		countTree(root, &stats)
	}
	if globalDebug {
		logger().Debug("frame",
			zap.Int64("frame", stats.Frame),
			zap.Float64("deltaTime", stats.DeltaTime),
			zap.Duration("update", stats.UpdateTime),
			zap.Duration("draw", stats.DrawTime),
			zap.Int("nodes", stats.Nodes),
			zap.Int("actions", stats.Actions),
			zap.Int("events", stats.Events),
		)
	}
	for _, fn := range g.frameObservers {
		fn(stats)
	}
}

func countTree(n *Node, stats *FrameStats) {
	stats.Nodes++
	stats.Actions += len(n.actions)
	for _, c := range n.children {
		countTree(c, stats)
	}
}

// debugCheckDisposed panics with a descriptive message when a disposed node
// is used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("m2c2 debug: %s on disposed node %q (uuid %s)", op, n.name, n.uuid))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logger().Warn("tree depth exceeds threshold",
			zap.Int("depth", depth),
			zap.Int("threshold", debugMaxTreeDepth),
			zap.String("node", n.name),
		)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		logger().Warn("child count exceeds threshold",
			zap.String("node", n.name),
			zap.Int("children", len(n.children)),
			zap.Int("threshold", debugMaxChildCount),
		)
	}
}
