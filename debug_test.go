package m2c2

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observeLogs routes the package logger to an in-memory observer for the
// rest of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestDebugModeDisposedParentPanics(t *testing.T) {
	SetDebugMode(true)
	defer SetDebugMode(false)

	parent := NewNode(NodeOptions{Name: "parent"})
	parent.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on AddChild to a disposed node, got none")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "disposed") {
			t.Errorf("panic message should mention 'disposed', got: %s", msg)
		}
	}()
	parent.AddChild(NewNode(NodeOptions{Name: "child"}))
}

func TestDebugCheckTreeDepth(t *testing.T) {
	logs := observeLogs(t)
	SetDebugMode(true)
	defer SetDebugMode(false)

	n := NewNode(NodeOptions{Name: "root"})
	for i := 0; i < debugMaxTreeDepth+1; i++ {
		c := NewNode(NodeOptions{Name: fmt.Sprintf("d%d", i)})
		n.AddChild(c)
		n = c
	}
	if logs.FilterMessage("tree depth exceeds threshold").Len() == 0 {
		t.Error("expected a tree depth warning")
	}
}

func TestDebugCheckChildCount(t *testing.T) {
	logs := observeLogs(t)
	SetDebugMode(true)
	defer SetDebugMode(false)

	parent := NewNode(NodeOptions{Name: "wide"})
	for i := 0; i <= debugMaxChildCount; i++ {
		parent.AddChild(NewNode(NodeOptions{Name: fmt.Sprintf("c%d", i)}))
	}
	entries := logs.FilterMessage("child count exceeds threshold").All()
	if len(entries) == 0 {
		t.Fatal("expected a child count warning")
	}
	if entries[0].ContextMap()["node"] != "wide" {
		t.Errorf("warning fields = %v", entries[0].ContextMap())
	}
}

func TestNoWarningsOutsideDebugMode(t *testing.T) {
	logs := observeLogs(t)
	parent := NewNode(NodeOptions{Name: "wide"})
	for i := 0; i <= debugMaxChildCount; i++ {
		parent.AddChild(NewNode(NodeOptions{Name: fmt.Sprintf("c%d", i)}))
	}
	if logs.FilterMessage("child count exceeds threshold").Len() != 0 {
		t.Error("checks should only run in debug mode")
	}
}

func TestFrameStats(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	s := presentNewScene(g, "s")
	box := NewNode(NodeOptions{Name: "box"})
	s.AddChild(box)
	box.Run(Move(MoveOptions{Point: Point{X: 100}, Duration: 100}), "move")

	var stats []FrameStats
	g.OnFrame(func(fs FrameStats) { stats = append(stats, fs) })
	tick(t, g, 2)

	if len(stats) != 2 {
		t.Fatalf("got %d frame reports, want 2", len(stats))
	}
	last := stats[1]
	if last.Frame != g.Frame() || last.DeltaTime != 10 {
		t.Errorf("frame %d delta %v", last.Frame, last.DeltaTime)
	}
	// Scene, box and the free nodes scene.
	if last.Nodes != 3 || last.Actions != 1 {
		t.Errorf("nodes, actions = %d, %d; want 3, 1", last.Nodes, last.Actions)
	}
	if last.Events == 0 || last.StoredEvents != g.EventStore().Len() {
		t.Errorf("events = %d, stored = %d", last.Events, last.StoredEvents)
	}
}

func TestDebugFrameLogging(t *testing.T) {
	logs := observeLogs(t)
	g, _ := newTestGame(t, EventStoreDisabled)
	presentNewScene(g, "s")
	SetDebugMode(true)
	defer SetDebugMode(false)
	tick(t, g, 1)
	if logs.FilterMessage("frame").Len() != 1 {
		t.Error("debug mode should log each frame")
	}
}
