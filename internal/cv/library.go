package cv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/rafabr7/prototiposiargk/internal/logging"
)

// ErrNotLoaded indicates the sprite root directory was missing or
// unreadable; the library stays empty and a later Load retries.
var ErrNotLoaded = errors.New("cv: template library not loaded")

// imageExtensions is the fixed set of raster formats accepted as sprite
// files, matched case-insensitively.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// TemplateLibrary loads and holds reference sprite images grouped by
// entity name. The on-disk layout is one subdirectory per entity under a
// root directory, with arbitrarily many sprite images per entity:
//
//	sprites/Zombie/front.png
//	sprites/Zombie/walk_1.png
//	sprites/Poring/normal.png
//
// Templates are decoded into their grayscale matching representation once
// at load time and are immutable afterwards; a successful forced reload
// replaces the whole mapping, it never mutates templates in place.
type TemplateLibrary struct {
	root      string
	templates map[string][]*Template
	loaded    bool
	logger    *logging.Logger
}

// NewTemplateLibrary creates an unloaded library rooted at the given
// sprite directory
func NewTemplateLibrary(root string, logger *logging.Logger) *TemplateLibrary {
	if logger == nil {
		logger = logging.NewLogger("TemplateLibrary")
	}
	return &TemplateLibrary{
		root:      root,
		templates: make(map[string][]*Template),
		logger:    logger,
	}
}

// Load populates the library from the sprite root. When the library is
// already loaded and forceReload is false this is a cache hit and no disk
// I/O happens. A missing or non-directory root leaves the library in the
// not-loaded state and returns ErrNotLoaded.
func (l *TemplateLibrary) Load(forceReload bool) error {
	if l.loaded && !forceReload {
		l.logger.Debug("templates already loaded, cache hit")
		return nil
	}

	info, err := os.Stat(l.root)
	if err != nil || !info.IsDir() {
		l.templates = make(map[string][]*Template)
		l.loaded = false
		l.logger.WarnWithContext("sprite root directory not found", map[string]interface{}{
			"root": l.root,
		})
		return fmt.Errorf("%w: sprite root %q", ErrNotLoaded, l.root)
	}

	l.logger.InfoWithContext("loading sprite templates", map[string]interface{}{
		"root": l.root,
	})

	entries, err := os.ReadDir(l.root)
	if err != nil {
		l.templates = make(map[string][]*Template)
		l.loaded = false
		return fmt.Errorf("%w: reading sprite root %q: %v", ErrNotLoaded, l.root, err)
	}

	loaded := make(map[string][]*Template)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		entityName := entry.Name()
		templates := l.loadEntity(entityName)
		if len(templates) == 0 {
			l.logger.WarnWithContext("entity directory has no decodable sprites", map[string]interface{}{
				"entity": entityName,
			})
			continue
		}
		loaded[entityName] = templates
	}

	l.templates = loaded
	l.loaded = true

	total := 0
	for _, ts := range loaded {
		total += len(ts)
	}
	l.logger.InfoWithContext("templates loaded", map[string]interface{}{
		"entities":  len(loaded),
		"templates": total,
	})
	return nil
}

// loadEntity decodes every recognized image file in one entity directory,
// in directory traversal order. Files that fail to decode are skipped
// with a warning.
func (l *TemplateLibrary) loadEntity(entityName string) []*Template {
	dir := filepath.Join(l.root, entityName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		l.logger.WarnWithContext("cannot read entity directory", map[string]interface{}{
			"entity": entityName,
			"error":  err,
		})
		return nil
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			l.logger.WarnWithContext("skipping undecodable sprite", map[string]interface{}{
				"entity": entityName,
				"file":   name,
				"error":  err,
			})
			continue
		}

		templates = append(templates, newTemplate(toGray(img), name))
		l.logger.DebugWithContext("template loaded", map[string]interface{}{
			"entity": entityName,
			"file":   name,
		})
	}
	return templates
}

// Loaded reports whether the library holds a valid template set
func (l *TemplateLibrary) Loaded() bool {
	return l.loaded
}

// Templates returns the template sequence for one entity
func (l *TemplateLibrary) Templates(entityName string) ([]*Template, bool) {
	ts, ok := l.templates[entityName]
	return ts, ok
}

// Names returns all entity names in the library, sorted
func (l *TemplateLibrary) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of loaded templates
func (l *TemplateLibrary) Count() int {
	total := 0
	for _, ts := range l.templates {
		total += len(ts)
	}
	return total
}
