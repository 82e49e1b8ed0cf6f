package cv

import "math"

// Normalized cross-correlation of a template against a frame's gray plane.
// The score surface has one cell per possible top-left alignment of the
// template; scores fall in [-1, 1] and a self-match scores 1.

const flatEpsilon = 1e-9

// scoreSurface is the 2-D grid of match-quality values for one template
// against one frame. Cell (row, col) holds the score of the template's
// top-left corner aligned at that frame position.
type scoreSurface struct {
	scores []float64
	w, h   int
}

func (s *scoreSurface) at(col, row int) float64 {
	return s.scores[row*s.w+col]
}

// matchSurface correlates tmpl against the plane and returns the full
// score surface of size (frameW-tmplW+1) x (frameH-tmplH+1). The caller
// has already rejected templates larger than the frame. Cells whose score
// is undefined (zero-variance window under a non-flat template) are left
// at -1, below any non-negative threshold.
func matchSurface(plane *grayPlane, tmpl *Template) *scoreSurface {
	outW := plane.w - tmpl.width + 1
	outH := plane.h - tmpl.height + 1
	surface := &scoreSurface{
		scores: make([]float64, outW*outH),
		w:      outW,
		h:      outH,
	}
	for i := range surface.scores {
		surface.scores[i] = -1
	}

	if tmpl.flat() {
		matchFlat(plane, tmpl, surface)
		return surface
	}

	w, h := tmpl.width, tmpl.height
	n := float64(w * h)
	for row := 0; row < outH; row++ {
		for col := 0; col < outW; col++ {
			sumF := windowSum(plane.integral, plane.w, col, row, col+w-1, row+h-1)
			sumFSq := windowSum(plane.integralSq, plane.w, col, row, col+w-1, row+h-1)
			meanF := sumF / n
			varF := (sumFSq - sumF*sumF/n) / n
			if varF <= flatEpsilon {
				continue
			}
			stdF := math.Sqrt(varF)

			var sumFT float64
			for ty := 0; ty < h; ty++ {
				frameRow := (row + ty) * plane.w
				tmplRow := ty * w
				for tx := 0; tx < w; tx++ {
					sumFT += plane.pix[frameRow+col+tx] * tmpl.pix[tmplRow+tx]
				}
			}

			numer := sumFT - n*meanF*tmpl.mean
			denom := n * stdF * tmpl.std
			if denom <= 0 {
				continue
			}
			surface.scores[row*outW+col] = numer / denom
		}
	}
	return surface
}

// matchFlat scores a zero-variance template: a window matches with score 1
// exactly when all of its pixels equal the template's constant intensity,
// which the integral images decide in O(1) per cell (matching sum and
// matching sum of squares imply a constant window).
func matchFlat(plane *grayPlane, tmpl *Template, surface *scoreSurface) {
	w, h := tmpl.width, tmpl.height
	n := float64(w * h)
	ref := tmpl.pix[0]
	wantSum := ref * n
	wantSumSq := ref * ref * n

	for row := 0; row < surface.h; row++ {
		for col := 0; col < surface.w; col++ {
			sumF := windowSum(plane.integral, plane.w, col, row, col+w-1, row+h-1)
			sumFSq := windowSum(plane.integralSq, plane.w, col, row, col+w-1, row+h-1)
			if diff := sumF - wantSum; diff > 1e-6 || diff < -1e-6 {
				continue
			}
			if diff := sumFSq - wantSumSq; diff > 1e-6 || diff < -1e-6 {
				continue
			}
			surface.scores[row*surface.w+col] = 1
		}
	}
}

