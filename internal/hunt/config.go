// Package hunt wires capture and detection into the scanning loop that
// drives them: configuration, hunt profiles and the paced runner.
package hunt

import (
	"github.com/rafabr7/prototiposiargk/internal/capture"
)

// Config holds runtime configuration for a scan run. Values come from
// Settings.ini (internal/config), optionally overlaid by a hunt profile
// and command-line flags.
type Config struct {
	// Capture
	Backend     string
	TargetFPS   int
	DeviceIndex int
	OutputIndex int
	RegionX     int
	RegionY     int
	RegionW     int
	RegionH     int

	// Detection
	SpritesDir string
	Threshold  float64
	Targets    []string

	// Loop behavior
	MaxMisses int // consecutive unavailable frames before giving up
	MaxFrames int // 0 = run until cancelled

	// Persistence; empty path disables recording
	DatabasePath string

	// Logging
	LogLevel       string
	LoggingEnabled bool
}

// Region returns the configured capture region
func (c *Config) Region() capture.Region {
	return capture.NewRegion(c.RegionX, c.RegionY, c.RegionW, c.RegionH)
}

// BackendKind parses the configured backend name
func (c *Config) BackendKind() (capture.BackendKind, error) {
	return capture.ParseBackendKind(c.Backend)
}

// CaptureOptions returns the backend construction options
func (c *Config) CaptureOptions() capture.Options {
	return capture.Options{
		TargetFPS:   c.TargetFPS,
		DeviceIndex: c.DeviceIndex,
		OutputIndex: c.OutputIndex,
	}
}
