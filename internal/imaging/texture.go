package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
)

// Solid returns a w×h RGBA image filled with c.
func Solid(c color.Color, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return dst
}

// Crop copies the pixels of r out of src.
func Crop(src image.Image, r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, ErrInvalidSize
	}
	if !r.In(src.Bounds()) {
		return nil, ErrOutOfBounds
	}
	return transform.Crop(src, r), nil
}

// CenterSquare crops the centred square whose side is the shorter edge of
// src. Square images are returned unchanged.
func CenterSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	switch {
	case w > h:
		off := (w - h) / 2
		return transform.Crop(src, image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y))
	case h > w:
		off := (h - w) / 2
		return transform.Crop(src, image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w))
	default:
		return src
	}
}

// Scale resamples src to w×h with bilinear filtering.
func Scale(src image.Image, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidSize
	}
	return transform.Resize(src, w, h, transform.Linear), nil
}

// Blit stretches src over the whole of dst, sampling the nearest pixel.
func Blit(src image.Image, dst draw.Image) {
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// ChangeResolution returns src when it is already w×h and a nearest
// neighbour resample otherwise.
func ChangeResolution(src image.Image, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidSize
	}
	if b := src.Bounds(); b.Dx() == w && b.Dy() == h {
		return src, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	Blit(src, dst)
	return dst, nil
}

// Grow places src in the bottom-left corner of a transparent w×h canvas.
// src is returned as is when the size does not change.
func Grow(src image.Image, w, h int) (image.Image, error) {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src, nil
	}
	if w < b.Dx() || h < b.Dy() {
		return nil, ErrShrink
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	at := image.Rect(0, h-b.Dy(), b.Dx(), h)
	draw.Draw(dst, at, src, b.Min, draw.Src)
	return dst, nil
}
