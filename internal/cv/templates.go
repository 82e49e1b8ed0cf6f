package cv

import (
	"image"
	"math"
)

// Template is one reference sprite image held as grayscale intensity data,
// with the summary statistics normalized cross-correlation needs
// precomputed once at load time. Immutable after construction.
type Template struct {
	Filename string
	Gray     *image.Gray

	width  int
	height int
	pix    []float64 // gray values as floats, row-major, no stride padding
	sum    float64
	sumSq  float64
	mean   float64
	std    float64
}

// newTemplate builds a Template and its matching statistics from a
// grayscale buffer
func newTemplate(gray *image.Gray, filename string) *Template {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	t := &Template{
		Filename: filename,
		Gray:     gray,
		width:    w,
		height:   h,
		pix:      make([]float64, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := float64(gray.Pix[(b.Min.Y+y)*gray.Stride+b.Min.X+x])
			t.pix[y*w+x] = g
			t.sum += g
			t.sumSq += g * g
		}
	}
	n := float64(w * h)
	if n > 0 {
		t.mean = t.sum / n
		variance := (t.sumSq - t.sum*t.sum/n) / n
		if variance > 0 {
			t.std = math.Sqrt(variance)
		}
	}
	return t
}

// Width returns the template width in pixels
func (t *Template) Width() int { return t.width }

// Height returns the template height in pixels
func (t *Template) Height() int { return t.height }

// degenerate reports a zero-sized template, which can never match
func (t *Template) degenerate() bool {
	return t.width == 0 || t.height == 0
}

// flat reports a template with no intensity variation. Such a template
// has no defined correlation score and is matched by exact intensity
// comparison instead.
func (t *Template) flat() bool {
	return t.std <= flatEpsilon
}
