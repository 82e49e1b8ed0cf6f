package hunt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rafabr7/prototiposiargk/internal/capture"
	"github.com/rafabr7/prototiposiargk/internal/cv"
	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// Recorder persists scan activity. Implemented by the database package;
// a nil Recorder disables persistence.
type Recorder interface {
	StartScanSession(backend, region string, targets []string, threshold float64) (int64, error)
	RecordDetections(sessionID int64, frameSeq uint64, detections []cv.Detection) error
	CompleteScanSession(sessionID int64, frames, misses uint64, detections int) error
}

// Stats accumulates loop instrumentation for one run
type Stats struct {
	Frames       uint64
	Misses       uint64
	Detections   int
	CaptureTotal time.Duration
}

// AvgCapture returns the mean capture latency over the run
func (s Stats) AvgCapture() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.CaptureTotal / time.Duration(s.Frames)
}

// Runner is the driving loop: capture a frame, detect, record, pace to
// the backend's frame interval, repeat. Capture and detection stay
// synchronous; each iteration's capture fully completes (or is declared
// unavailable) before detection reads the frame.
type Runner struct {
	source   capture.FrameSource
	engine   *cv.DetectionEngine
	recorder Recorder
	cfg      *Config
	logger   *logging.Logger
	stats    Stats
}

// NewRunner builds a runner over an already started frame source
func NewRunner(source capture.FrameSource, engine *cv.DetectionEngine, recorder Recorder, cfg *Config, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewLogger("Runner")
	}
	return &Runner{
		source:   source,
		engine:   engine,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Stats returns the accumulated run statistics
func (r *Runner) Stats() Stats {
	return r.stats
}

// Run executes the scan loop until the context is cancelled, MaxFrames is
// reached, MaxMisses consecutive unavailable frames occur, or the backend
// reports a fatal fault. Transient misses are retried; only fatal capture
// errors are returned.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.source.FrameInterval()

	var sessionID int64
	if r.recorder != nil {
		id, err := r.recorder.StartScanSession(r.cfg.Backend, r.cfg.Region().String(), r.cfg.Targets, r.cfg.Threshold)
		if err != nil {
			return fmt.Errorf("hunt: start scan session: %w", err)
		}
		sessionID = id
	}

	runErr := r.loop(ctx, interval, sessionID)

	if r.recorder != nil {
		if err := r.recorder.CompleteScanSession(sessionID, r.stats.Frames, r.stats.Misses, r.stats.Detections); err != nil {
			r.logger.Error("failed to complete scan session", err)
		}
	}
	return runErr
}

func (r *Runner) loop(ctx context.Context, interval time.Duration, sessionID int64) error {
	consecutiveMisses := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		frame, err := r.source.CaptureFrame(nil)
		if err != nil {
			if !errors.Is(err, capture.ErrFrameUnavailable) {
				return fmt.Errorf("hunt: capture fault: %w", err)
			}
			r.stats.Misses++
			consecutiveMisses++
			if r.cfg.MaxMisses > 0 && consecutiveMisses >= r.cfg.MaxMisses {
				return fmt.Errorf("hunt: no frame for %d consecutive attempts, target window likely gone", consecutiveMisses)
			}
			r.pace(start, interval)
			continue
		}
		consecutiveMisses = 0
		r.stats.CaptureTotal += time.Since(start)
		r.stats.Frames++

		detections := r.engine.Detect(frame.Image, r.cfg.Threshold, r.cfg.Targets...)
		r.stats.Detections += len(detections)

		if len(detections) > 0 {
			r.logger.InfoWithContext("detections", map[string]interface{}{
				"frame": r.stats.Frames,
				"count": len(detections),
				"best":  fmt.Sprintf("%s@%v conf=%.2f", detections[0].Name, detections[0].Bounds.Min, detections[0].Confidence),
			})
			if r.recorder != nil {
				if err := r.recorder.RecordDetections(sessionID, r.stats.Frames, detections); err != nil {
					r.logger.Error("failed to record detections", err)
				}
			}
		}

		if r.cfg.MaxFrames > 0 && r.stats.Frames >= uint64(r.cfg.MaxFrames) {
			return nil
		}
		r.pace(start, interval)
	}
}

// pace sleeps out the remainder of the frame interval
func (r *Runner) pace(start time.Time, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if remaining := interval - time.Since(start); remaining > 0 {
		time.Sleep(remaining)
	}
}
