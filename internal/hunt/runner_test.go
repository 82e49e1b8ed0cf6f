package hunt

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/rafabr7/prototiposiargk/internal/capture"
	"github.com/rafabr7/prototiposiargk/internal/cv"
	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// scriptedSource replays a fixed sequence of capture outcomes, then keeps
// repeating the last one
type scriptedSource struct {
	outcomes []scriptedOutcome
	idx      int
	running  bool
}

type scriptedOutcome struct {
	frame *capture.Frame
	err   error
}

func (s *scriptedSource) Start() error { s.running = true; return nil }
func (s *scriptedSource) Stop() { s.running = false }
func (s *scriptedSource) SetRegion(r capture.Region) {}
func (s *scriptedSource) Running() bool { return s.running }
func (s *scriptedSource) FrameInterval() time.Duration { return 0 }

func (s *scriptedSource) CaptureFrame(override *capture.Region) (*capture.Frame, error) {
	out := s.outcomes[s.idx]
	if s.idx < len(s.outcomes)-1 {
		s.idx++
	}
	return out.frame, out.err
}

// recorderStub records every persistence call the runner makes
type recorderStub struct {
	startErr   error
	started    int
	records    int
	recorded   int
	completed  int
	lastFrames uint64
	lastMisses uint64
}

func (r *recorderStub) StartScanSession(backend, region string, targets []string, threshold float64) (int64, error) {
	if r.startErr != nil {
		return 0, r.startErr
	}
	r.started++
	return 42, nil
}

func (r *recorderStub) RecordDetections(sessionID int64, frameSeq uint64, detections []cv.Detection) error {
	if sessionID != 42 {
		return errors.New("unexpected session id")
	}
	r.records++
	r.recorded += len(detections)
	return nil
}

func (r *recorderStub) CompleteScanSession(sessionID int64, frames, misses uint64, detections int) error {
	r.completed++
	r.lastFrames = frames
	r.lastMisses = misses
	return nil
}

// spriteEngine builds a detection engine around one 16x16 textured sprite
// named Zombie, and returns a frame with that sprite pasted at (20, 12)
func spriteEngine(t *testing.T) (*cv.DetectionEngine, *capture.Frame) {
	t.Helper()

	sprite := image.NewRGBA(image.Rect(0, 0, 16, 16))
	state := uint32(42)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			state = state*1664525 + 1013904223
			v := uint8(state >> 24)
			sprite.SetRGBA(x, y, color.RGBA{R: v, G: 255 - v, B: v ^ 0x33, A: 255})
		}
	}

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Zombie"), 0755); err != nil {
		t.Fatalf("Failed to create entity dir: %v", err)
	}
	if err := imaging.Save(sprite, filepath.Join(root, "Zombie", "front.png")); err != nil {
		t.Fatalf("Failed to save sprite: %v", err)
	}
	library := cv.NewTemplateLibrary(root, quietLogger())
	if err := library.Load(false); err != nil {
		t.Fatalf("Failed to load library: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{R: 20, G: 90, B: 150, A: 255}}, image.Point{}, draw.Src)
	draw.Draw(img, sprite.Bounds().Add(image.Pt(20, 12)), sprite, image.Point{}, draw.Src)

	frame := &capture.Frame{Image: img, Region: capture.NewRegion(0, 0, 64, 48), CapturedAt: time.Now()}
	return cv.NewDetectionEngine(library, quietLogger()), frame
}

func quietLogger() *logging.Logger {
	return logging.NewLogger("test").SetMinLevel(logging.LogLevelError)
}

func testConfig() *Config {
	return &Config{
		Backend:   "screenshot",
		Threshold: 0.9,
		Targets:   []string{"Zombie"},
		MaxMisses: 5,
	}
}

func TestRunnerStopsAtMaxFrames(t *testing.T) {
	engine, frame := spriteEngine(t)
	source := &scriptedSource{outcomes: []scriptedOutcome{{frame: frame}}}
	recorder := &recorderStub{}
	cfg := testConfig()
	cfg.MaxFrames = 3

	runner := NewRunner(source, engine, recorder, cfg, quietLogger())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stats := runner.Stats()
	if stats.Frames != 3 {
		t.Errorf("Frames = %d, want 3", stats.Frames)
	}
	if stats.Detections < 3 {
		t.Errorf("Detections = %d, want at least one per frame", stats.Detections)
	}
	if recorder.started != 1 || recorder.completed != 1 {
		t.Errorf("recorder started=%d completed=%d, want 1/1", recorder.started, recorder.completed)
	}
	if recorder.records != 3 || recorder.recorded != stats.Detections {
		t.Errorf("recorder records=%d recorded=%d, stats.Detections=%d", recorder.records, recorder.recorded, stats.Detections)
	}
	if recorder.lastFrames != 3 {
		t.Errorf("completed with frames=%d, want 3", recorder.lastFrames)
	}
}

func TestRunnerToleratesTransientMisses(t *testing.T) {
	engine, frame := spriteEngine(t)
	source := &scriptedSource{outcomes: []scriptedOutcome{
 {err: capture.ErrFrameUnavailable},
 {err: capture.ErrFrameUnavailable},
 {frame: frame},
	}}
	cfg := testConfig()
	cfg.MaxFrames = 1

	runner := NewRunner(source, engine, nil, cfg, quietLogger())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stats := runner.Stats()
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2", stats.Misses)
	}
	if stats.Frames != 1 {
		t.Errorf("Frames = %d, want 1", stats.Frames)
	}
}

func TestRunnerGivesUpAfterConsecutiveMisses(t *testing.T) {
	engine, _ := spriteEngine(t)
	source := &scriptedSource{outcomes: []scriptedOutcome{{err: capture.ErrFrameUnavailable}}}
	recorder := &recorderStub{}
	cfg := testConfig()
	cfg.MaxMisses = 3

	runner := NewRunner(source, engine, recorder, cfg, quietLogger())
	err := runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "consecutive") {
		t.Fatalf("Run = %v, want consecutive-miss error", err)
	}
	if runner.Stats().Misses != 3 {
		t.Errorf("Misses = %d, want 3", runner.Stats().Misses)
	}
	// The session is still finalized on abnormal exit
	if recorder.completed != 1 {
		t.Errorf("recorder completed = %d, want 1", recorder.completed)
	}
	if recorder.lastMisses != 3 {
		t.Errorf("completed with misses=%d, want 3", recorder.lastMisses)
	}
}

func TestRunnerFatalCaptureError(t *testing.T) {
	engine, _ := spriteEngine(t)
	fatal := errors.New("device lost")
	source := &scriptedSource{outcomes: []scriptedOutcome{{err: fatal}}}
	cfg := testConfig()

	runner := NewRunner(source, engine, nil, cfg, quietLogger())
	err := runner.Run(context.Background())
	if !errors.Is(err, fatal) {
		t.Fatalf("Run = %v, want wrapped fatal error", err)
	}
}

func TestRunnerContextCancellation(t *testing.T) {
	engine, frame := spriteEngine(t)
	source := &scriptedSource{outcomes: []scriptedOutcome{{frame: frame}}}
	cfg := testConfig() // no MaxFrames: only the context stops it

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(source, engine, nil, cfg, quietLogger())
	if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
}

func TestRunnerRecorderStartFailure(t *testing.T) {
	engine, frame := spriteEngine(t)
	source := &scriptedSource{outcomes: []scriptedOutcome{{frame: frame}}}
	recorder := &recorderStub{startErr: errors.New("disk full")}
	cfg := testConfig()
	cfg.MaxFrames = 1

	runner := NewRunner(source, engine, recorder, cfg, quietLogger())
	if err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected error when session recording cannot start")
	}
	if runner.Stats().Frames != 0 {
		t.Errorf("runner captured %d frames despite start failure", runner.Stats().Frames)
	}
}
