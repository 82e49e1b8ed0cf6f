package capture

import (
	"fmt"
	"image"
)

// Region describes a rectangular screen area in pixel units.
// The origin is the top-left corner of the screen.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// NewRegion creates a region from an origin and size
func NewRegion(x, y, width, height int) Region {
	return Region{X: x, Y: y, Width: width, Height: height}
}

// Valid reports whether the region has a positive size
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Rect converts the region to an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", r.Width, r.Height, r.X, r.Y)
}
