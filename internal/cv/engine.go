// Package cv locates known sprites in captured frames by normalized
// cross-correlation template matching against a directory-backed library
// of reference images.
package cv

import (
	"fmt"
	"image"
	"sort"

	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// Detection is one located, scored match of a template within a frame.
// Bounds is in frame-local coordinates. Detections are produced fresh per
// Detect call; no identity persists across calls.
type Detection struct {
	Name       string
	Bounds     image.Rectangle
	Confidence float64
	Template   string
}

// DetectionEngine runs template matching over frames using a
// TemplateLibrary. It is stateless between calls apart from the library
// reference.
type DetectionEngine struct {
	library *TemplateLibrary
	logger  *logging.Logger
}

// NewDetectionEngine creates an engine bound to a template library
func NewDetectionEngine(library *TemplateLibrary, logger *logging.Logger) *DetectionEngine {
	if logger == nil {
		logger = logging.NewLogger("DetectionEngine")
	}
	return &DetectionEngine{library: library, logger: logger}
}

// Detect finds every occurrence of the target entities' templates in the
// frame scoring at or above threshold, across all alignments. No
// deduplication or non-maximum suppression is applied: adjacent
// high-scoring alignments and multiple sprite variants of one entity all
// emit their own Detection. The result is sorted by confidence,
// descending.
//
// With no targetNames, every entity in the library is searched. Unknown
// names are skipped with a warning; if nothing remains to search the
// result is empty. Templates larger than the frame are silently skipped.
func (e *DetectionEngine) Detect(frame *image.RGBA, threshold float64, targetNames ...string) []Detection {
	if frame == nil || frame.Bounds().Empty() {
		return nil
	}
	if threshold < 0 || threshold > 1 {
		e.logger.WarnWithContext("threshold outside expected [0,1] range", map[string]interface{}{
			"threshold": threshold,
		})
	}

	targets := e.resolveTargets(targetNames)
	if len(targets) == 0 {
		return nil
	}

	plane := newGrayPlane(frame)

	var detections []Detection
	for _, name := range targets {
		templates, _ := e.library.Templates(name)
		for _, tmpl := range templates {
			if tmpl.degenerate() || tmpl.Width() > plane.w || tmpl.Height() > plane.h {
				continue
			}
			surface, err := e.matchOne(plane, tmpl)
			if err != nil {
				e.logger.ErrorWithContext("template match failed, skipping", err, map[string]interface{}{
					"entity":   name,
					"template": tmpl.Filename,
				})
				continue
			}
			detections = collectDetections(detections, surface, name, tmpl, threshold)
		}
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	return detections
}

// resolveTargets maps the requested names onto library entities. Nil or
// empty input means every loaded entity.
func (e *DetectionEngine) resolveTargets(targetNames []string) []string {
	if len(targetNames) == 0 {
		return e.library.Names()
	}
	targets := make([]string, 0, len(targetNames))
	for _, name := range targetNames {
		if _, ok := e.library.Templates(name); !ok {
			e.logger.WarnWithContext("target entity not in template library", map[string]interface{}{
				"entity": name,
			})
			continue
		}
		targets = append(targets, name)
	}
	return targets
}

// matchOne isolates a single template/frame correlation so a fault in one
// template never aborts the whole detection call.
func (e *DetectionEngine) matchOne(plane *grayPlane, tmpl *Template) (surface *scoreSurface, err error) {
	defer func() {
		if r := recover(); r != nil {
			surface = nil
			err = fmt.Errorf("cv: match %q: %v", tmpl.Filename, r)
		}
	}()
	return matchSurface(plane, tmpl), nil
}

// collectDetections appends one Detection per surface cell scoring at or
// above threshold
func collectDetections(dst []Detection, surface *scoreSurface, name string, tmpl *Template, threshold float64) []Detection {
	for row := 0; row < surface.h; row++ {
		for col := 0; col < surface.w; col++ {
			score := surface.at(col, row)
			if score < threshold {
				continue
			}
			dst = append(dst, Detection{
				Name:       name,
				Bounds:     image.Rect(col, row, col+tmpl.Width(), row+tmpl.Height()),
				Confidence: score,
				Template:   tmpl.Filename,
			})
		}
	}
	return dst
}
