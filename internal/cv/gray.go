package cv

import (
	"image"
)

// luma converts one RGB pixel to its grayscale intensity. Every image in
// the system (templates at load time, frames at detection time) goes
// through this same function, so a sprite pasted into a frame correlates
// exactly with its template.
func luma(r, g, b uint8) uint8 {
	return uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)
}

// toGray converts any decoded image into a zero-origin grayscale buffer
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			gray.Pix[y*gray.Stride+x] = luma(uint8(r>>8), uint8(g>>8), uint8(bb>>8))
		}
	}
	return gray
}

// grayPlane is the per-call intensity representation of a frame: grayscale
// values plus summed-area tables (integral images) of the values and their
// squares, giving O(1) window sum and variance queries during matching.
type grayPlane struct {
	pix        []float64
	integral   []float64
	integralSq []float64
	w, h       int
}

// newGrayPlane converts a frame to grayscale once and builds its integral
// images. Runs once per Detect call, not once per template.
func newGrayPlane(frame *image.RGBA) *grayPlane {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	p := &grayPlane{
		pix:        make([]float64, w*h),
		integral:   make([]float64, w*h),
		integralSq: make([]float64, w*h),
		w:          w,
		h:          h,
	}
	for y := 0; y < h; y++ {
		var rowSum, rowSumSq float64
		srcOff := frame.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			i := srcOff + x*4
			g := float64(luma(frame.Pix[i], frame.Pix[i+1], frame.Pix[i+2]))
			off := y*w + x
			p.pix[off] = g
			rowSum += g
			rowSumSq += g * g
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSumSq
			} else {
				p.integral[off] = p.integral[off-w] + rowSum
				p.integralSq[off] = p.integralSq[off-w] + rowSumSq
			}
		}
	}
	return p
}

// windowSum returns the inclusive sum over [x0..x1] x [y0..y1] from an
// integral image stored row-major with width w.
func windowSum(integral []float64, w, x0, y0, x1, y1 int) float64 {
	at := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return integral[y*w+x]
	}
	return at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
}
