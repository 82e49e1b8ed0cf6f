//go:build !windows

package capture

import (
	"fmt"

	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// The GDI backend needs Win32 device contexts; on other platforms its
// construction fails cleanly so configuration falls back to the
// screenshot backend.
func newGDISource(opts Options, logger *logging.Logger) (FrameSource, error) {
	return nil, fmt.Errorf("capture: gdi backend is only available on windows")
}
