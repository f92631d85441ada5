package m2c2

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
)

// AssetStatus is the loading state of an image, font or sound.
type AssetStatus uint8

const (
	AssetDeferred AssetStatus = iota // known but not requested
	AssetLoading
	AssetReady
	AssetError
)

func (s AssetStatus) String() string {
	switch s {
	case AssetDeferred:
		return "deferred"
	case AssetLoading:
		return "loading"
	case AssetReady:
		return "ready"
	case AssetError:
		return "error"
	}
	return fmt.Sprintf("AssetStatus(%d)", s)
}

// AssetLoadError is raised when a node needs an asset whose loading failed.
type AssetLoadError struct {
	Kind string // "image", "font" or "sound"
	Name string
	Err  error
}

func (e *AssetLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("m2c2: %s %q failed to load", e.Kind, e.Name)
	}
	return fmt.Sprintf("m2c2: %s %q failed to load: %v", e.Kind, e.Name, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// ImageDescriptor describes an image to load.
type ImageDescriptor struct {
	ImageName string  `json:"imageName" mapstructure:"imageName"`
	URL       string  `json:"url,omitempty" mapstructure:"url"`
	Width     float64 `json:"width,omitempty" mapstructure:"width"`
	Height    float64 `json:"height,omitempty" mapstructure:"height"`
	Localize  bool    `json:"localize,omitempty" mapstructure:"localize"`
}

// ImageResource is a named image and its status.
type ImageResource struct {
	Name   string
	Status AssetStatus
	Image  Image
	Err    error
}

// ImageManager resolves images by name.
type ImageManager interface {
	Image(name string) ImageResource
	// Load begins loading desc. It may finish before returning.
	Load(desc ImageDescriptor) error
}

// FontResource is a named font and its status. Data holds the raw font
// file, parsed by the backend Typesetter.
type FontResource struct {
	Name   string
	Status AssetStatus
	Data   []byte
	Err    error
}

// FontManager resolves fonts by name.
type FontManager interface {
	Font(name string) FontResource
	DefaultFont() FontResource
}

// AudioSource is one playback of a sound.
type AudioSource interface {
	// Done reports whether playback has reached its end or was stopped.
	Done() bool
	Stop()
}

// SoundBuffer is decoded sound data that can be played any number of times.
type SoundBuffer interface {
	Play() (AudioSource, error)
}

// SoundResource is a named sound and its status.
type SoundResource struct {
	Name   string
	Status AssetStatus
	Buffer SoundBuffer
	Err    error
}

// SoundManager resolves sounds by name.
type SoundManager interface {
	Sound(name string) SoundResource
}

// --- In-memory managers ---

// MemoryImages is an ImageManager backed by a map. Load calls Loader, when
// set, and stores the result.
type MemoryImages struct {
	mu     sync.RWMutex
	images map[string]ImageResource
	Loader func(desc ImageDescriptor) (Image, error)
}

// NewMemoryImages returns an empty image manager.
func NewMemoryImages() *MemoryImages {
	return &MemoryImages{images: make(map[string]ImageResource)}
}

// Set registers img as ready under name.
func (m *MemoryImages) Set(name string, img Image) {
	m.mu.Lock()
	m.images[name] = ImageResource{Name: name, Status: AssetReady, Image: img}
	m.mu.Unlock()
}

// Image returns the resource for name, or a deferred resource if unknown.
func (m *MemoryImages) Image(name string) ImageResource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.images[name]; ok {
		return r
	}
	return ImageResource{Name: name, Status: AssetDeferred}
}

// Load runs Loader for desc. Without a Loader the image stays loading.
func (m *MemoryImages) Load(desc ImageDescriptor) error {
	m.mu.Lock()
	m.images[desc.ImageName] = ImageResource{Name: desc.ImageName, Status: AssetLoading}
	m.mu.Unlock()
	if m.Loader == nil {
		return nil
	}
	img, err := m.Loader(desc)
	r := ImageResource{Name: desc.ImageName, Status: AssetReady, Image: img}
	if err != nil {
		r = ImageResource{Name: desc.ImageName, Status: AssetError, Err: err}
	}
	m.mu.Lock()
	m.images[desc.ImageName] = r
	m.mu.Unlock()
	return err
}

// MemoryFonts is a FontManager backed by a map. The first font added is the
// default.
type MemoryFonts struct {
	mu          sync.RWMutex
	fonts       map[string]FontResource
	defaultName string
}

// NewMemoryFonts returns an empty font manager.
func NewMemoryFonts() *MemoryFonts {
	return &MemoryFonts{fonts: make(map[string]FontResource)}
}

// Add registers font data as ready under name.
func (m *MemoryFonts) Add(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fonts[name] = FontResource{Name: name, Status: AssetReady, Data: data}
	if m.defaultName == "" {
		m.defaultName = name
	}
}

// Font returns the resource for name, or a deferred resource if unknown.
func (m *MemoryFonts) Font(name string) FontResource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.fonts[name]; ok {
		return f
	}
	return FontResource{Name: name, Status: AssetDeferred}
}

// DefaultFontName is the name NewDefaultFonts registers the bundled font
// under.
const DefaultFontName = "Go Regular"

// NewDefaultFonts returns a font manager holding the Go Regular font as its
// default.
func NewDefaultFonts() *MemoryFonts {
	m := NewMemoryFonts()
	m.Add(DefaultFontName, goregular.TTF)
	return m
}

// DefaultFont returns the first font added.
func (m *MemoryFonts) DefaultFont() FontResource {
	m.mu.RLock()
	name := m.defaultName
	m.mu.RUnlock()
	return m.Font(name)
}

// MemorySounds is a SoundManager backed by a map.
type MemorySounds struct {
	mu     sync.RWMutex
	sounds map[string]SoundResource
}

// NewMemorySounds returns an empty sound manager.
func NewMemorySounds() *MemorySounds {
	return &MemorySounds{sounds: make(map[string]SoundResource)}
}

// Set stores r under r.Name.
func (m *MemorySounds) Set(r SoundResource) {
	m.mu.Lock()
	m.sounds[r.Name] = r
	m.mu.Unlock()
}

// Sound returns the resource for name, or a deferred resource if unknown.
func (m *MemorySounds) Sound(name string) SoundResource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.sounds[name]; ok {
		return r
	}
	return SoundResource{Name: name, Status: AssetDeferred}
}

// --- Readiness warnings ---

const assetWarnInterval = time.Second

var (
	assetWarnMu   sync.Mutex
	assetWarnedAt = map[string]time.Time{}
)

// warnAssetNotReady logs that a node is waiting for an asset, at most once
// per asset per assetWarnInterval.
func warnAssetNotReady(kind, name string, status AssetStatus, node *Node) {
	key := kind + "\x00" + name
	assetWarnMu.Lock()
	last, seen := assetWarnedAt[key]
	t := time.Now()
	if seen && t.Sub(last) < assetWarnInterval {
		assetWarnMu.Unlock()
		return
	}
	assetWarnedAt[key] = t
	assetWarnMu.Unlock()
	logger().Warn("asset not ready",
		zap.String("kind", kind),
		zap.String("name", name),
		zap.Stringer("status", status),
		zap.Stringer("node", node),
	)
}

// --- Filesystem images ---

// LocalizedPaths returns the paths tried for a localized asset, most
// specific first: "name.<locale>.ext", "name.<fallback>.ext", then path.
// Empty locales are skipped.
func LocalizedPaths(p, locale, fallback string) []string {
	ext := path.Ext(p)
	base := strings.TrimSuffix(p, ext)
	var out []string
	for _, l := range []string{locale, fallback} {
		if l == "" {
			continue
		}
		candidate := base + "." + l + ext
		if !slices.Contains(out, candidate) {
			out = append(out, candidate)
		}
	}
	return append(out, p)
}

// ImageLoader returns a MemoryImages.Loader that decodes PNG and JPEG files
// from fsys and hands them to convert. A descriptor's URL is the path,
// defaulting to its ImageName. Images are scaled to the descriptor's Width
// and Height when set. Localized descriptors try LocalizedPaths first, with
// locales reporting the current and fallback locales; it may be nil.
func ImageLoader(fsys fs.FS, convert func(image.Image) (Image, error), locales func() (string, string)) func(ImageDescriptor) (Image, error) {
	return func(desc ImageDescriptor) (Image, error) {
		p := desc.URL
		if p == "" {
			p = desc.ImageName
		}
		candidates := []string{p}
		if desc.Localize && locales != nil {
			locale, fallback := locales()
			candidates = LocalizedPaths(p, locale, fallback)
		}
		var lastErr error
		for _, c := range candidates {
			img, err := decodeImageFile(fsys, c)
			if err != nil {
				lastErr = err
				continue
			}
			return convert(scaleImage(img, desc.Width, desc.Height))
		}
		return nil, fmt.Errorf("m2c2: load image %q: %w", desc.ImageName, lastErr)
	}
}

func decodeImageFile(fsys fs.FS, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// scaleImage resamples img to w x h. A zero dimension keeps the source
// size on that axis.
func scaleImage(img image.Image, w, h float64) image.Image {
	b := img.Bounds()
	tw, th := int(w+0.5), int(h+0.5)
	if tw <= 0 {
		tw = b.Dx()
	}
	if th <= 0 {
		th = b.Dy()
	}
	if tw == b.Dx() && th == b.Dy() {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
