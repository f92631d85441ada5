package ebitenkit

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/m2c2kit/m2c2"
)

// RunConfig configures the window Run opens.
type RunConfig struct {
	Title string
	// WindowScale multiplies the game size to get the window size.
	// Zero means 1.
	WindowScale float64
	// ShowFPS draws the actual FPS and TPS in the top-left corner.
	ShowFPS bool
}

// Run opens a window and drives game until the window closes or Update
// fails. The loop runs at the game's FPS.
func Run(game *m2c2.Game, cfg RunConfig) error {
	scale := cfg.WindowScale
	if scale <= 0 {
		scale = 1
	}
	title := cfg.Title
	if title == "" {
		title = game.Options().Name
	}
	ebiten.SetWindowSize(int(game.Width()*scale), int(game.Height()*scale))
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(game.Options().FPS)
	return ebiten.RunGame(newLoop(game, cfg.ShowFPS))
}

// AudioContext returns the process-wide audio context, creating it at
// DefaultSampleRate on first use.
func AudioContext() *audio.Context {
	if ctx := audio.CurrentContext(); ctx != nil {
		return ctx
	}
	return audio.NewContext(DefaultSampleRate)
}

// loop adapts a Game to ebiten.Game.
type loop struct {
	game   *m2c2.Game
	canvas *Canvas
	poller pointerPoller
	fps    *fpsOverlay

	updateTime time.Duration
}

func newLoop(game *m2c2.Game, showFPS bool) *loop {
	l := &loop{game: game, canvas: &Canvas{}}
	if showFPS {
		l.fps = newFPSOverlay()
	}
	return l
}

func (l *loop) Update() error {
	start := time.Now()
	if !l.game.InjectionPending() {
		l.poller.poll(l.game)
	}
	err := l.game.Update()
	l.updateTime = time.Since(start)
	if l.fps != nil {
		l.fps.update(1.0 / float64(max(ebiten.TPS(), 1)))
	}
	return err
}

func (l *loop) Draw(screen *ebiten.Image) {
	start := time.Now()
	l.canvas.Reset(screen)
	l.game.Draw(l.canvas)
	l.game.ReportFrame(l.updateTime, time.Since(start))
	if l.fps != nil {
		screen.DrawImage(l.fps.img, nil)
	}
}

func (l *loop) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(l.game.Width()), int(l.game.Height())
}

// fpsOverlay is a small panel showing the actual FPS and TPS, redrawn
// about twice a second.
type fpsOverlay struct {
	img     *ebiten.Image
	elapsed float64
}

func newFPSOverlay() *fpsOverlay {
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	return &fpsOverlay{img: ebiten.NewImage(100, 32), elapsed: fpsRefresh}
}

const fpsRefresh = 0.5 // seconds

func (o *fpsOverlay) update(dt float64) {
	o.elapsed += dt
	if o.elapsed < fpsRefresh {
		return
	}
	o.elapsed = 0
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}
