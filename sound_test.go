package m2c2

import (
	"errors"
	"slices"
	"testing"
)

func TestSpriteDrawsManagedImage(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	g.Images().(*MemoryImages).Set("cat", fakeImage{w: 32, h: 16})
	s := presentNewScene(g, "s")
	cat := NewSprite(SpriteOptions{ImageName: "cat"})
	dog := NewSprite(SpriteOptions{ImageName: "dog"})
	s.AddChild(cat)
	s.AddChild(dog)

	c := newFakeCanvas(400, 800)
	if err := g.Tick(c); err != nil {
		t.Fatal(err)
	}
	if cat.Size() != (Size{Width: 32, Height: 16}) {
		t.Errorf("size = %v, want the image size", cat.Size())
	}
	if n := len(slices.DeleteFunc(slices.Clone(c.ops), func(op string) bool { return op != "image" })); n != 1 {
		t.Errorf("drew %d images, want only the loaded one", n)
	}
	if !dog.NeedsInitialization() {
		t.Error("sprite with a missing image should retry")
	}
}

func TestLoadImageIsRecorded(t *testing.T) {
	g, _ := newTestGame(t, EventStoreRecord)
	images := g.Images().(*MemoryImages)
	images.Loader = func(desc ImageDescriptor) (Image, error) {
		return fakeImage{w: int(desc.Width), h: int(desc.Height)}, nil
	}
	if err := g.LoadImage(ImageDescriptor{ImageName: "star", Width: 8, Height: 8}); err != nil {
		t.Fatal(err)
	}
	if images.Image("star").Status != AssetReady {
		t.Error("image should be ready after loading")
	}
	events := g.EventStore().Events()
	last := events[len(events)-1]
	if last.Type != EventBrowserImageDataReady || last.ImageDescriptor.ImageName != "star" {
		t.Errorf("last event = %s", last.Type)
	}
	if last.TargetID() != TargetImageManager {
		t.Errorf("target = %q", last.TargetID())
	}
}

func TestSoundRecorderStopsAtMaximumDuration(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	s := presentNewScene(g, "s")
	rec := NewSoundRecorder(SoundRecorderOptions{MaximumDuration: Ptr(50.0)})
	s.AddChild(rec)
	var completed []Recording
	rec.OnRecordingComplete(func(r Recording) { completed = append(completed, r) })

	if err := rec.StartRecording(); err != nil {
		t.Fatal(err)
	}
	tick(t, g, 3)
	if !rec.IsRecording() {
		t.Fatal("recording stopped early")
	}
	tick(t, g, 5)
	if rec.IsRecording() {
		t.Fatal("recording should stop at its maximum duration")
	}
	if len(completed) != 1 || completed[0].MimeType != "audio/wav" {
		t.Errorf("completed = %v", completed)
	}
	if last, ok := rec.LastRecording(); !ok || len(last.Data) != 3 {
		t.Errorf("last recording = %v, %v", last, ok)
	}
}

func TestSoundRecorderWithoutGame(t *testing.T) {
	rec := NewSoundRecorder(SoundRecorderOptions{})
	if err := rec.StartRecording(); !errors.Is(err, ErrNoRecorder) {
		t.Errorf("err = %v, want ErrNoRecorder", err)
	}
	if _, err := rec.StopRecording(); err == nil {
		t.Error("stopping an idle recorder should fail")
	}
}

func TestSpriteWithFailedImagePanics(t *testing.T) {
	g, _ := newTestGame(t, EventStoreDisabled)
	images := g.Images().(*MemoryImages)
	missing := errors.New("no such file")
	images.Loader = func(ImageDescriptor) (Image, error) { return nil, missing }
	if err := images.Load(ImageDescriptor{ImageName: "broken"}); err == nil {
		t.Fatal("load should fail")
	}
	if images.Image("broken").Status != AssetError {
		t.Fatalf("status = %v, want error", images.Image("broken").Status)
	}
	s := presentNewScene(g, "s")
	s.AddChild(NewSprite(SpriteOptions{ImageName: "broken"}))

	defer func() {
		err, ok := recover().(error)
		var loadErr *AssetLoadError
		if !ok || !errors.As(err, &loadErr) {
			t.Fatalf("panic = %v, want *AssetLoadError", err)
		}
		if loadErr.Kind != "image" || loadErr.Name != "broken" || !errors.Is(err, missing) {
			t.Errorf("error = %v", loadErr)
		}
	}()
	tick(t, g, 1)
}
