package capture

import (
	"fmt"
	"image"
	"time"

	"github.com/vova616/screenshot"

	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// grabFunc matches screenshot.CaptureRect. Held as a field so tests can
// substitute a synthetic screen.
type grabFunc func(rect image.Rectangle) (*image.RGBA, error)

// probeFunc matches screenshot.ScreenRect, used at start to verify the
// display is reachable before declaring the backend running.
type probeFunc func() (image.Rectangle, error)

// screenshotSource captures through the cross-platform screenshot library.
// It works everywhere the library does and holds no persistent OS handles;
// each grab opens and closes what it needs.
type screenshotSource struct {
	baseSource
	grab  grabFunc
	probe probeFunc
}

func newScreenshotSource(opts Options, logger *logging.Logger) *screenshotSource {
	return &screenshotSource{
		baseSource: baseSource{targetFPS: opts.TargetFPS, logger: logger},
		grab:       screenshot.CaptureRect,
		probe:      screenshot.ScreenRect,
	}
}

// Start verifies the display is reachable. Nothing is held on failure.
func (s *screenshotSource) Start() error {
	if s.running {
		return nil
	}
	if _, err := s.probe(); err != nil {
		return fmt.Errorf("capture: screenshot backend start: %w", err)
	}
	s.running = true
	s.logger.Info("screenshot backend started")
	return nil
}

// Stop marks the source stopped. Safe to call repeatedly.
func (s *screenshotSource) Stop() {
	if s.running {
		s.logger.Info("screenshot backend stopped")
	}
	s.running = false
}

// CaptureFrame grabs one frame of the given or previously set region.
// Grab failures are transient for this backend (the screen or window may
// be momentarily ungrabbable) and surface as ErrFrameUnavailable.
func (s *screenshotSource) CaptureFrame(override *Region) (*Frame, error) {
	if !s.running {
		return nil, ErrFrameUnavailable
	}
	region, ok := s.resolveRegion(override)
	if !ok {
		return nil, ErrFrameUnavailable
	}

	img, err := s.grab(region.Rect())
	if err != nil {
		s.logger.DebugWithContext("grab failed", map[string]interface{}{
			"region": region.String(),
			"error":  err,
		})
		return nil, ErrFrameUnavailable
	}
	if img == nil {
		return nil, ErrFrameUnavailable
	}

	return &Frame{
		Image:      normalizeRGBA(img),
		Region:     region,
		CapturedAt: time.Now(),
	}, nil
}
