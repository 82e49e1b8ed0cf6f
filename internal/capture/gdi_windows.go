//go:build windows

package capture

import (
	"fmt"
	"image"
	"syscall"
	"time"
	"unsafe"

	"github.com/rafabr7/prototiposiargk/internal/logging"
)

var (
	user32                 = syscall.NewLazyDLL("user32.dll")
	gdi32                  = syscall.NewLazyDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

const (
	srcCopy      = 0x00CC0020
	dibRGBColors = 0
	biRGB        = 0
	smCMonitors  = 80
)

// BITMAPINFOHEADER structure (Win32 layout)
type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// BITMAPINFO structure
type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// gdiSource is the Windows-native backend. It keeps a screen DC and a
// compatible memory DC for its whole lifetime and reuses one DIB section
// per region size, so steady-state captures allocate only the Go-side
// frame buffer.
type gdiSource struct {
	baseSource
	deviceIndex int
	outputIndex int

	screenDC uintptr
	memDC    uintptr

	dib     uintptr
	dibBits unsafe.Pointer
	dibW    int
	dibH    int
}

func newGDISource(opts Options, logger *logging.Logger) (FrameSource, error) {
	if opts.DeviceIndex < 0 || opts.OutputIndex < 0 {
		return nil, fmt.Errorf("capture: gdi backend: negative device/output index (%d/%d)", opts.DeviceIndex, opts.OutputIndex)
	}
	return &gdiSource{
		baseSource:  baseSource{targetFPS: opts.TargetFPS, logger: logger},
		deviceIndex: opts.DeviceIndex,
		outputIndex: opts.OutputIndex,
	}, nil
}

// Start acquires the screen and memory device contexts. Any handle taken
// before a failing step is released before the error is returned.
func (g *gdiSource) Start() error {
	if g.running {
		return nil
	}

	monitors := int(getSystemMetric(smCMonitors))
	if monitors > 0 && g.outputIndex >= monitors {
		return fmt.Errorf("capture: gdi backend: output index %d out of range (%d monitors)", g.outputIndex, monitors)
	}

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return fmt.Errorf("capture: gdi backend: GetDC failed")
	}

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		procReleaseDC.Call(0, screenDC)
		return fmt.Errorf("capture: gdi backend: CreateCompatibleDC failed")
	}

	g.screenDC = screenDC
	g.memDC = memDC
	g.running = true
	g.logger.InfoWithContext("gdi backend started", map[string]interface{}{
		"device": g.deviceIndex,
		"output": g.outputIndex,
	})
	return nil
}

// Stop releases the DIB section and both device contexts. Idempotent.
func (g *gdiSource) Stop() {
	g.releaseDIB()
	if g.memDC != 0 {
		procDeleteDC.Call(g.memDC)
		g.memDC = 0
	}
	if g.screenDC != 0 {
		procReleaseDC.Call(0, g.screenDC)
		g.screenDC = 0
	}
	if g.running {
		g.logger.Info("gdi backend stopped")
	}
	g.running = false
}

// CaptureFrame BitBlts the region into the reused DIB section and converts
// the BGRA bits into a fresh RGBA frame owned by the caller. A BitBlt
// failure is transient (secure desktop, display switch); failing to create
// a DIB section is a fatal device fault.
func (g *gdiSource) CaptureFrame(override *Region) (*Frame, error) {
	if !g.running {
		return nil, ErrFrameUnavailable
	}
	region, ok := g.resolveRegion(override)
	if !ok {
		return nil, ErrFrameUnavailable
	}

	w, h := region.Width, region.Height
	if err := g.ensureDIB(w, h); err != nil {
		return nil, err
	}

	prev, _, _ := procSelectObject.Call(g.memDC, g.dib)
	if prev == 0 || prev == ^uintptr(0) {
		return nil, fmt.Errorf("capture: gdi backend: SelectObject failed")
	}

	ret, _, _ := procBitBlt.Call(g.memDC, 0, 0, uintptr(w), uintptr(h),
		g.screenDC, uintptr(region.X), uintptr(region.Y), srcCopy)
	if ret == 0 {
		g.logger.DebugWithContext("BitBlt failed", map[string]interface{}{"region": region.String()})
		return nil, ErrFrameUnavailable
	}

	// Copy and convert BGRA bits into a Go-owned RGBA buffer.
	pixLen := w * h * 4
	src := unsafe.Slice((*byte)(g.dibBits), pixLen)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < pixLen; i += 4 {
		dst.Pix[i+0] = src[i+2]
		dst.Pix[i+1] = src[i+1]
		dst.Pix[i+2] = src[i+0]
		dst.Pix[i+3] = 0xFF
	}

	return &Frame{Image: dst, Region: region, CapturedAt: time.Now()}, nil
}

// ensureDIB creates or resizes the reusable DIB section to w x h.
func (g *gdiSource) ensureDIB(w, h int) error {
	if g.dib != 0 && g.dibW == w && g.dibH == h {
		return nil
	}
	g.releaseDIB()

	var bi bitmapInfo
	bi.Header.Size = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.Width = int32(w)
	bi.Header.Height = -int32(h) // top-down
	bi.Header.Planes = 1
	bi.Header.BitCount = 32
	bi.Header.Compression = biRGB
	bi.Header.SizeImage = uint32(w * h * 4)

	var bits unsafe.Pointer
	dib, _, _ := procCreateDIBSection.Call(g.memDC, uintptr(unsafe.Pointer(&bi)),
		dibRGBColors, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if dib == 0 {
		return fmt.Errorf("capture: gdi backend: CreateDIBSection %dx%d failed", w, h)
	}

	g.dib = dib
	g.dibBits = bits
	g.dibW = w
	g.dibH = h
	return nil
}

func (g *gdiSource) releaseDIB() {
	if g.dib != 0 {
		procDeleteObject.Call(g.dib)
		g.dib = 0
		g.dibBits = nil
		g.dibW, g.dibH = 0, 0
	}
}

func getSystemMetric(idx int) int32 {
	v, _, _ := procGetSystemMetrics.Call(uintptr(idx))
	return int32(v)
}
