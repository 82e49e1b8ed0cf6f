// Package capture acquires screen pixels through interchangeable backends
// and hands them to the rest of the system as normalized frames.
package capture

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// ErrFrameUnavailable signals that no frame could be produced this call:
// the backend is not running, no region is set, the target surface is gone
// or the grab transiently failed. It is an expected, retryable outcome.
// Any other non-nil error from CaptureFrame is a fatal backend fault and
// the caller should tear the source down and reconfigure.
var ErrFrameUnavailable = errors.New("capture: no frame available")

// BackendKind identifies a capture backend implementation
type BackendKind string

const (
	// BackendScreenshot is the universally compatible backend built on the
	// cross-platform screenshot library. Moderate throughput.
	BackendScreenshot BackendKind = "screenshot"
	// BackendGDI is the Windows-native backend that BitBlts the screen
	// into a reused DIB section. Higher throughput, Windows only.
	BackendGDI BackendKind = "gdi"
)

// ParseBackendKind converts a configuration string into a BackendKind
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "screenshot":
		return BackendScreenshot, nil
	case "gdi":
		return BackendGDI, nil
	default:
		return "", fmt.Errorf("capture: unknown backend kind %q", s)
	}
}

// Options holds backend construction parameters. TargetFPS only governs
// the pacing the caller should apply between captures; no backend runs an
// internal loop. DeviceIndex and OutputIndex select the GPU and monitor
// for the native backend and are ignored by the screenshot backend.
type Options struct {
	TargetFPS   int
	DeviceIndex int
	OutputIndex int
}

// FrameSource is the contract every capture backend implements.
//
// Start acquires backend resources and never leaks a partially acquired
// handle on failure. Stop releases everything and is idempotent.
// SetRegion ignores invalid regions (reported, not fatal); a valid region
// takes effect for the next CaptureFrame at the latest. CaptureFrame
// returns ErrFrameUnavailable for transient misses and any other error
// for fatal faults.
type FrameSource interface {
	Start() error
	Stop()
	SetRegion(r Region)
	CaptureFrame(override *Region) (*Frame, error)
	Running() bool
	FrameInterval() time.Duration
}

// New constructs a backend of the given kind. The source is returned
// stopped; callers start it explicitly (the Session does both).
func New(kind BackendKind, opts Options, logger *logging.Logger) (FrameSource, error) {
	if logger == nil {
		logger = logging.NewLogger("Capture")
	}
	switch kind {
	case BackendScreenshot:
		return newScreenshotSource(opts, logger), nil
	case BackendGDI:
		return newGDISource(opts, logger)
	default:
		return nil, fmt.Errorf("capture: unknown backend kind %q", kind)
	}
}

// baseSource carries the state and behavior shared by every backend:
// running flag, stored capture region and target-FPS pacing hint.
type baseSource struct {
	running   bool
	region    Region
	hasRegion bool
	targetFPS int
	logger    *logging.Logger
}

// Running reports whether the source has been started and not stopped
func (b *baseSource) Running() bool {
	return b.running
}

// SetRegion stores the capture region for subsequent CaptureFrame calls.
// An invalid region leaves the stored region unchanged.
func (b *baseSource) SetRegion(r Region) {
	if !r.Valid() {
		b.logger.WarnWithContext("ignoring invalid capture region", map[string]interface{}{
			"width":  r.Width,
			"height": r.Height,
		})
		return
	}
	b.region = r
	b.hasRegion = true
}

// FrameInterval returns the pacing interval implied by the target FPS,
// or zero when no target is set.
func (b *baseSource) FrameInterval() time.Duration {
	if b.targetFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(b.targetFPS)
}

// resolveRegion picks the override region when given, otherwise the stored
// one. The second result is false when no usable region exists.
func (b *baseSource) resolveRegion(override *Region) (Region, bool) {
	if override != nil {
		if !override.Valid() {
			return Region{}, false
		}
		return *override, true
	}
	if !b.hasRegion {
		return Region{}, false
	}
	return b.region, true
}
