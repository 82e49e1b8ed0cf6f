package capture

import (
	"fmt"

	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// Session owns the process's single active FrameSource: it constructs a
// backend on Configure, stops the previous one before the new one starts,
// and guarantees nothing is left active after a failed configuration.
//
// A Session is meant to be held by one driving loop. It does no internal
// locking; callers sharing it across goroutines must synchronize
// externally.
type Session struct {
	active    FrameSource
	newSource func(BackendKind, Options, *logging.Logger) (FrameSource, error)
	logger    *logging.Logger
}

// NewSession creates a session with no active frame source
func NewSession(logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewLogger("Capture")
	}
	return &Session{newSource: New, logger: logger}
}

// Configure replaces the active frame source with a freshly started
// backend of the given kind. The previous source, if any, is fully
// stopped first, so two sources are never active at once. On any failure
// no source is left active and the error is returned.
func (s *Session) Configure(kind BackendKind, opts Options) (FrameSource, error) {
	if s.active != nil {
		s.logger.Info("stopping previously active frame source")
		s.active.Stop()
		s.active = nil
	}

	s.logger.InfoWithContext("configuring capture backend", map[string]interface{}{
		"backend":    string(kind),
		"target_fps": opts.TargetFPS,
	})

	src, err := s.newSource(kind, opts, s.logger)
	if err != nil {
		return nil, fmt.Errorf("capture: configure: %w", err)
	}
	if err := src.Start(); err != nil {
		return nil, fmt.Errorf("capture: configure: start %q: %w", kind, err)
	}

	s.active = src
	return src, nil
}

// Active returns the currently active frame source, or nil
func (s *Session) Active() FrameSource {
	return s.active
}

// StopActive stops and drops the active frame source. Safe to call when
// nothing is active.
func (s *Session) StopActive() {
	if s.active == nil {
		return
	}
	s.active.Stop()
	s.active = nil
}
