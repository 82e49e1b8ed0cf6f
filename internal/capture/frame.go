package capture

import (
	"image"
	"time"
)

// Frame is one captured screen image. Every backend returns the same
// normalized pixel format: an *image.RGBA with zero-origin bounds, a
// contiguous row-major buffer and opaque alpha, so downstream code never
// branches on backend identity. The backend keeps no reference to the
// frame after returning it; ownership passes to the caller and the buffer
// is never mutated by the capture layer afterwards.
type Frame struct {
	Image      *image.RGBA
	Region     Region
	CapturedAt time.Time
}

// Width returns the frame width in pixels
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// normalizeRGBA rewrites img into the fixed frame format: bounds anchored
// at (0,0), stride equal to 4*width, alpha forced opaque. The common case
// (already zero-origin and contiguous) is adjusted in place.
func normalizeRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if b.Min.X != 0 || b.Min.Y != 0 || img.Stride != w*4 {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			srcOff := img.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], img.Pix[srcOff:srcOff+w*4])
		}
		img = dst
	}

	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}
