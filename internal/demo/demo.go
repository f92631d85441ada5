// Package demo builds a small tap-the-dot reaction time assessment. The
// CLI plays, snapshots and replays it, and the example program runs it in a
// window.
package demo

import (
	"fmt"
	"math/rand/v2"

	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/m2c2kit/m2c2"
)

// Canvas size of the assessment.
const (
	Width  = 400
	Height = 800
)

// Trials is the number of targets shown.
const Trials = 5

const targetRadius = 30

var (
	background = m2c2.Color{R: 240, G: 240, B: 240, A: 1}
	buttonFill = m2c2.Color{R: 0, G: 96, B: 200, A: 1}
	targetFill = m2c2.Color{R: 230, G: 60, B: 60, A: 1}
)

// Translations returns the assessment text for locale, falling back to
// en-US.
func Translations(locale string) m2c2.I18nData {
	return m2c2.I18nData{
		Locale:         locale,
		FallbackLocale: "en-US",
		Translation: map[string]map[string]string{
			"en-US": {
				"instructions": "Tap the red dot as quickly as you can.",
				"start":        "Start",
				"done":         "Done! Mean reaction time: {{rt}} ms",
			},
			"es-MX": {
				"instructions": "Toca el punto rojo lo más rápido que puedas.",
				"start":        "Comenzar",
				"done":         "¡Listo! Tiempo de reacción promedio: {{rt}} ms",
			},
		},
	}
}

// Result is one trial's outcome.
type Result struct {
	Trial int
	// ReactionTime is in milliseconds.
	ReactionTime float64
	X, Y         float64
}

// Demo is a built assessment.
type Demo struct {
	game    *m2c2.Game
	rng     *rand.Rand
	target  *m2c2.Node
	summary *m2c2.Node

	ready   bool
	shownAt float64
	results []Result
}

// Options configure Build.
type Options struct {
	// Seed fixes the target positions.
	Seed   uint64
	Locale string
}

// Build adds the instructions, trial and done scenes to g and presents
// the instructions.
func Build(g *m2c2.Game, opts Options) *Demo {
	if opts.Locale == "" {
		opts.Locale = "en-US"
	}
	d := &Demo{game: g, rng: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))}
	g.SetI18n(Translations(opts.Locale))

	instructions := m2c2.NewScene(m2c2.SceneOptions{
		NodeOptions:     m2c2.NodeOptions{Name: "instructions"},
		BackgroundColor: &background,
	})
	trial := m2c2.NewScene(m2c2.SceneOptions{
		NodeOptions:     m2c2.NodeOptions{Name: "trial"},
		BackgroundColor: &background,
	})
	done := m2c2.NewScene(m2c2.SceneOptions{
		NodeOptions:     m2c2.NodeOptions{Name: "done"},
		BackgroundColor: &background,
	})
	g.AddScene(instructions)
	g.AddScene(trial)
	g.AddScene(done)

	instructions.AddChild(m2c2.NewLabel(m2c2.LabelOptions{
		NodeOptions:             m2c2.NodeOptions{Name: "instructionsText", Position: &m2c2.Point{X: Width / 2, Y: 300}},
		Text:                    "instructions",
		FontSize:                m2c2.Ptr(24.0),
		PreferredMaxLayoutWidth: m2c2.Ptr(320.0),
	}))
	start := button("start", m2c2.Point{X: Width / 2, Y: 600})
	start.OnTapUp(func(*m2c2.PointerEvent) {
		g.PresentScene(trial, m2c2.TransitionSlide(m2c2.SlideOptions{
			Direction: m2c2.SlideLeft,
			Duration:  500,
			Easing:    ease.OutQuad,
		}))
	})
	instructions.AddChild(start)

	d.target = m2c2.NewShape(m2c2.ShapeOptions{
		NodeOptions: m2c2.NodeOptions{
			Name:                     "target",
			Position:                 &m2c2.Point{X: Width / 2, Y: Height / 2},
			IsUserInteractionEnabled: true,
		},
		CircleOfRadius: m2c2.Ptr(float64(targetRadius)),
		FillColor:      &targetFill,
	})
	d.target.OnTapDown(func(*m2c2.PointerEvent) { d.hit(done) })
	trial.AddChild(d.target)
	trial.OnAppear(d.show)

	d.summary = m2c2.NewLabel(m2c2.LabelOptions{
		NodeOptions: m2c2.NodeOptions{Name: "summary", Position: &m2c2.Point{X: Width / 2, Y: Height / 2}},
		Text:        "done",
		FontSize:    m2c2.Ptr(24.0),
	})
	done.AddChild(d.summary)
	done.OnSetup(func() {
		d.summary.SetInterpolation(map[string]string{"rt": fmt.Sprintf("%.0f", d.MeanReactionTime())})
	})

	g.PresentScene(instructions, m2c2.TransitionNone())
	return d
}

func button(text string, at m2c2.Point) *m2c2.Node {
	b := m2c2.NewShape(m2c2.ShapeOptions{
		NodeOptions: m2c2.NodeOptions{
			Name:                     text + "Button",
			Position:                 &at,
			IsUserInteractionEnabled: true,
		},
		Rect:         &m2c2.Size{Width: 200, Height: 60},
		CornerRadius: 12,
		FillColor:    &buttonFill,
	})
	b.AddChild(m2c2.NewLabel(m2c2.LabelOptions{
		Text:      text,
		FontColor: m2c2.Ptr(m2c2.ColorWhite),
		FontSize:  m2c2.Ptr(22.0),
	}))
	return b
}

func (d *Demo) show() {
	d.ready = true
	d.shownAt = d.game.Now()
}

func (d *Demo) hit(done *m2c2.Node) {
	if !d.ready {
		return
	}
	d.ready = false
	p := d.target.Position()
	r := Result{Trial: len(d.results) + 1, ReactionTime: d.game.Now() - d.shownAt, X: p.X, Y: p.Y}
	d.results = append(d.results, r)
	m2c2.Logger().Info("trial complete",
		zap.Int("trial", r.Trial),
		zap.Float64("reactionTime", r.ReactionTime),
	)
	if len(d.results) == Trials {
		d.game.PresentScene(done, m2c2.TransitionNone())
		return
	}
	next := m2c2.Point{
		X: targetRadius + d.rng.Float64()*(Width-2*targetRadius),
		Y: 120 + d.rng.Float64()*(Height-240),
	}
	d.target.Run(m2c2.Sequence(
		m2c2.Move(m2c2.MoveOptions{Point: next, Duration: 200, Easing: ease.InOutQuad}),
		m2c2.Custom(m2c2.CustomOptions{Callback: d.show}),
	), "next")
}

// Ready reports whether the target is waiting for a tap.
func (d *Demo) Ready() bool { return d.ready }

// Target returns the dot node.
func (d *Demo) Target() *m2c2.Node { return d.target }

// Results returns the completed trials.
func (d *Demo) Results() []Result { return d.results }

// MeanReactionTime returns the mean reaction time of the completed trials,
// or 0 before any.
func (d *Demo) MeanReactionTime() float64 {
	if len(d.results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range d.results {
		sum += r.ReactionTime
	}
	return sum / float64(len(d.results))
}
