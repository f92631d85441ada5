package ebitenkit

import (
	"image"
	"io/fs"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/m2c2kit/m2c2"
)

// NewImages returns an image manager that reads PNG and JPEG files from
// fsys and uploads them as ebiten images. locales resolves localized
// images and may be nil.
func NewImages(fsys fs.FS, locales func() (string, string)) *m2c2.MemoryImages {
	images := m2c2.NewMemoryImages()
	images.Loader = m2c2.ImageLoader(fsys, func(img image.Image) (m2c2.Image, error) {
		return NewImage(ebiten.NewImageFromImage(img)), nil
	}, locales)
	return images
}
