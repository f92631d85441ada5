package demo

import (
	"testing"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/ggcanvas"
)

func newGame(t *testing.T) (*m2c2.Game, *ggcanvas.Canvas) {
	t.Helper()
	g := m2c2.NewGame(m2c2.GameOptions{
		Width:        Width,
		Height:       Height,
		TimeStepping: true,
		EventStore:   m2c2.EventStoreRecord,
	}, m2c2.Services{
		Fonts:      m2c2.NewDefaultFonts(),
		Images:     m2c2.NewMemoryImages(),
		Typesetter: ggcanvas.NewTypesetter(),
	})
	return g, ggcanvas.New(Width, Height)
}

func tickUntil(t *testing.T, g *m2c2.Game, c m2c2.Canvas, limit int, cond func() bool) {
	t.Helper()
	for range limit {
		if cond() {
			return
		}
		if err := g.Tick(c); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if !cond() {
		t.Fatalf("condition not met after %d frames", limit)
	}
}

func TestPlayThrough(t *testing.T) {
	g, c := newGame(t)
	d := Build(g, Options{Seed: 1})
	if got := g.CurrentScene().Name(); got != "instructions" {
		t.Fatalf("current scene = %q", got)
	}
	if err := g.Tick(c); err != nil {
		t.Fatal(err)
	}

	g.InjectTap(Width/2, 600)
	tickUntil(t, g, c, 120, d.Ready)
	if got := g.CurrentScene().Name(); got != "trial" {
		t.Fatalf("current scene = %q, want trial", got)
	}

	for i := range Trials {
		tickUntil(t, g, c, 120, d.Ready)
		if err := g.Tick(c); err != nil {
			t.Fatal(err)
		}
		p := d.Target().AbsolutePosition()
		g.InjectTap(p.X, p.Y)
		tickUntil(t, g, c, 10, func() bool { return len(d.Results()) == i+1 })
	}

	if got := g.CurrentScene().Name(); got != "done" {
		t.Errorf("current scene = %q, want done", got)
	}
	for _, r := range d.Results() {
		if r.ReactionTime <= 0 {
			t.Errorf("trial %d reaction time = %v", r.Trial, r.ReactionTime)
		}
	}
	if d.MeanReactionTime() <= 0 {
		t.Error("mean reaction time should be positive")
	}
}

func TestTranslationsFallBack(t *testing.T) {
	i := m2c2.NewI18n(Translations("fr-FR"))
	if got := i.T("start", nil); got != "Start" {
		t.Errorf("T(start) = %q, want the en-US fallback", got)
	}
	i = m2c2.NewI18n(Translations("es-MX"))
	if got := i.T("start", nil); got != "Comenzar" {
		t.Errorf("T(start) = %q", got)
	}
}

func TestSeedFixesPositions(t *testing.T) {
	positions := func() []m2c2.Point {
		g, c := newGame(t)
		d := Build(g, Options{Seed: 42})
		g.PresentSceneByName("trial", m2c2.TransitionNone())
		var out []m2c2.Point
		for range 3 {
			tickUntil(t, g, c, 60, d.Ready)
			if err := g.Tick(c); err != nil {
				t.Fatal(err)
			}
			p := d.Target().AbsolutePosition()
			out = append(out, p)
			g.InjectTap(p.X, p.Y)
			n := len(d.Results())
			tickUntil(t, g, c, 10, func() bool { return len(d.Results()) == n+1 })
		}
		return out
	}
	a, b := positions(), positions()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("position %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}
