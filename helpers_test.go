package m2c2

import (
	"fmt"
	"image"
	"math"
	"testing"
)

// --- Fakes ---

type fakeImage struct{ w, h int }

func (i fakeImage) Width() int  { return i.w }
func (i fakeImage) Height() int { return i.h }
func (i fakeImage) ToImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, i.w, i.h))
}

// fakeCanvas records draw calls as short strings.
type fakeCanvas struct {
	w, h      float64
	ops       []string
	snapshots int
}

func newFakeCanvas(w, h float64) *fakeCanvas { return &fakeCanvas{w: w, h: h} }

func (c *fakeCanvas) Width() float64         { return c.w }
func (c *fakeCanvas) Height() float64        { return c.h }
func (c *fakeCanvas) Save()                  {}
func (c *fakeCanvas) Restore()               {}
func (c *fakeCanvas) Translate(x, y float64) {}
func (c *fakeCanvas) Scale(sx, sy float64)   {}
func (c *fakeCanvas) Rotate(radians float64) {}
func (c *fakeCanvas) ClipRect(r Rect)        {}
func (c *fakeCanvas) Clear(col Color)        { c.ops = append(c.ops, "clear") }
func (c *fakeCanvas) DrawRect(r Rect, p Paint) {
	c.ops = append(c.ops, fmt.Sprintf("rect %v,%v %vx%v", r.X, r.Y, r.Width, r.Height))
}
func (c *fakeCanvas) DrawRoundedRect(r Rect, radius float64, p Paint) {
	c.ops = append(c.ops, "roundrect")
}
func (c *fakeCanvas) DrawCircle(cx, cy, radius float64, p Paint) {
	c.ops = append(c.ops, fmt.Sprintf("circle %v,%v r%v", cx, cy, radius))
}
func (c *fakeCanvas) DrawLine(x1, y1, x2, y2 float64, p Paint) { c.ops = append(c.ops, "line") }
func (c *fakeCanvas) DrawPath(points []Point, p Paint)         { c.ops = append(c.ops, "path") }
func (c *fakeCanvas) DrawImage(img Image, dst Rect, alpha float64) {
	c.ops = append(c.ops, "image")
}
func (c *fakeCanvas) DrawParagraph(p Paragraph, x, y, scale, alpha float64) {
	c.ops = append(c.ops, "text "+p.(*fakeParagraph).text)
}
func (c *fakeCanvas) Snapshot() Image {
	c.snapshots++
	return fakeImage{w: int(c.w), h: int(c.h)}
}

type fakeParagraph struct {
	text     string
	w, h     float64
	disposed bool
}

func (p *fakeParagraph) Width() float64  { return p.w }
func (p *fakeParagraph) Height() float64 { return p.h }
func (p *fakeParagraph) Dispose()        { p.disposed = true }

// fakeTypesetter lays out text as one line, each rune half the font size
// wide.
type fakeTypesetter struct{ layouts int }

func (t *fakeTypesetter) LayoutParagraph(text string, style TextStyle, maxWidth float64) (Paragraph, error) {
	t.layouts++
	w := float64(len([]rune(text))) * style.FontSize / 2
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
	}
	return &fakeParagraph{text: text, w: w, h: style.FontSize}, nil
}

type fakeSource struct{ done, stopped bool }

func (s *fakeSource) Done() bool { return s.done || s.stopped }
func (s *fakeSource) Stop()      { s.stopped = true }

type fakeBuffer struct{ sources []*fakeSource }

func (b *fakeBuffer) Play() (AudioSource, error) {
	s := &fakeSource{}
	b.sources = append(b.sources, s)
	return s, nil
}

type fakeRecorder struct{ started, stopped int }

func (r *fakeRecorder) Start() error { r.started++; return nil }
func (r *fakeRecorder) Stop() (Recording, error) {
	r.stopped++
	return Recording{Data: []byte{1, 2, 3}, MimeType: "audio/wav", Duration: 100}, nil
}

// --- Game helpers ---

// newTestGame returns a 400x800 game stepping 10ms per frame, with fonts,
// a typesetter, in-memory images and sounds.
func newTestGame(t *testing.T, mode EventStoreMode) (*Game, *SteppingClock) {
	t.Helper()
	clock := NewSteppingClock()
	fonts := NewMemoryFonts()
	fonts.Add("default", []byte("font"))
	g := NewGame(GameOptions{
		Width:        400,
		Height:       800,
		FPS:          100,
		TimeStepping: true,
		EventStore:   mode,
	}, Services{
		Clock:      clock,
		Images:     NewMemoryImages(),
		Fonts:      fonts,
		Sounds:     NewMemorySounds(),
		Typesetter: &fakeTypesetter{},
		Recorder:   &fakeRecorder{},
	})
	return g, clock
}

// presentNewScene adds and presents an empty scene.
func presentNewScene(g *Game, name string) *Node {
	s := NewScene(SceneOptions{NodeOptions: NodeOptions{Name: name}})
	g.AddScene(s)
	g.PresentScene(s, TransitionNone())
	return s
}

// tick runs n frames on a fresh fake canvas.
func tick(t *testing.T, g *Game, n int) {
	t.Helper()
	c := newFakeCanvas(g.Width(), g.Height())
	for range n {
		if err := g.Tick(c); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
}

// --- Assertions ---

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if !approxEqual(got, want, 1e-6) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertPoint(t *testing.T, name string, got, want Point) {
	t.Helper()
	if !approxEqual(got.X, want.X, 1e-6) || !approxEqual(got.Y, want.Y, 1e-6) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
