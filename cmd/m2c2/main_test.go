package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/ggcanvas"
	"github.com/m2c2kit/m2c2/internal/demo"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig([]byte("debug_addr: localhost:6060\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Game.Width != demo.Width || cfg.Game.Height != demo.Height {
		t.Errorf("game size = %vx%v, want the demo size", cfg.Game.Width, cfg.Game.Height)
	}
	if cfg.EventLog.Backend != "file" || cfg.EventLog.Dir != "sessions" {
		t.Errorf("event log = %+v", cfg.EventLog)
	}
	if cfg.DebugAddr != "localhost:6060" {
		t.Errorf("debug addr = %q", cfg.DebugAddr)
	}
}

func TestParseConfigGameSection(t *testing.T) {
	cfg, err := parseConfig([]byte(`
game:
  version: 1
  width: 320
  height: 480
  fps: 30
event_log:
  backend: redis
  addr: localhost:6379
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Game.Width != 320 || cfg.Game.Height != 480 || cfg.Game.FPS != 30 {
		t.Errorf("game = %+v", cfg.Game)
	}
	if cfg.EventLog.Backend != "redis" || cfg.EventLog.Addr != "localhost:6379" {
		t.Errorf("event log = %+v", cfg.EventLog)
	}
	if cfg.Assets != "." {
		t.Errorf("assets = %q, want the default", cfg.Assets)
	}
}

func TestParseConfigBadVersion(t *testing.T) {
	if _, err := parseConfig([]byte("game:\n  version: 2\n")); err == nil {
		t.Error("expected an error for an unsupported game version")
	}
	if _, err := parseConfig([]byte("game: [")); err == nil {
		t.Error("expected an error for malformed yaml")
	}
}

// recordDemo plays the demo up to its first trial and returns the
// recorded events after a JSON round trip.
func recordDemo(t *testing.T) []m2c2.Event {
	t.Helper()
	cfg := defaultConfig()
	cfg.Game.TimeStepping = true
	cfg.Game.EventStore = m2c2.EventStoreRecord
	g := m2c2.NewGame(cfg.Game, headlessServices("."))
	d := demo.Build(g, demo.Options{Seed: 3})
	c := ggcanvas.New(demo.Width, demo.Height)
	if err := g.Tick(c); err != nil {
		t.Fatal(err)
	}
	g.InjectTap(demo.Width/2, 600)
	for i := 0; i < 120 && !d.Ready(); i++ {
		if err := g.Tick(c); err != nil {
			t.Fatal(err)
		}
	}
	if !d.Ready() {
		t.Fatal("demo never reached its first trial")
	}
	data, err := m2c2.MarshalEvents(g.EventStore().Events())
	if err != nil {
		t.Fatal(err)
	}
	events, err := m2c2.UnmarshalEvents(data)
	if err != nil {
		t.Fatal(err)
	}
	return events
}

func TestReplayHeadless(t *testing.T) {
	events := recordDemo(t)
	_, g, err := replayHeadless(defaultConfig().Game, ".", events, 0, 60)
	if err != nil {
		t.Fatal(err)
	}
	if g.EventStore().Pending() != 0 {
		t.Errorf("%d events still pending", g.EventStore().Pending())
	}
	if got := g.CurrentScene().Name(); got != "trial" {
		t.Errorf("current scene = %q, want trial", got)
	}
	if g.Materializer().Len() == 0 {
		t.Error("replay materialized no nodes")
	}
}

func TestReplayHeadlessEmpty(t *testing.T) {
	if _, _, err := replayHeadless(defaultConfig().Game, ".", nil, 0, 0); err != m2c2.ErrReplayEmpty {
		t.Errorf("err = %v, want ErrReplayEmpty", err)
	}
}

func TestSummarize(t *testing.T) {
	s := summarize(recordDemo(t))
	if s.Events == 0 || s.FirstSequence > s.LastSequence {
		t.Fatalf("summary = %+v", s)
	}
	if s.Taps != 1 {
		t.Errorf("taps = %d, want 1", s.Taps)
	}
	if s.Nodes[m2c2.NodeTypeScene] < 3 {
		t.Errorf("scenes created = %d, want at least 3", s.Nodes[m2c2.NodeTypeScene])
	}
	if len(s.Scenes) != 2 || s.Scenes[0] != "instructions" || s.Scenes[1] != "trial" {
		t.Errorf("scenes presented = %v", s.Scenes)
	}

	var buf bytes.Buffer
	s.print(&buf)
	for _, want := range []string{"taps:      1", string(m2c2.EventScenePresent), "instructions"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := summarize(nil)
	if s.Events != 0 || len(s.Scenes) != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestSnapshot(t *testing.T) {
	c, err := runSnapshot(defaultConfig(), demo.Options{Seed: 1}, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if b := c.Image().Bounds(); b.Dx() != demo.Width || b.Dy() != demo.Height {
		t.Errorf("snapshot bounds = %v", b)
	}
}
