package hunt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is a YAML-defined hunt: which entities to look for and how
// strictly. Profiles overlay the base configuration so one installation
// can keep several hunts side by side.
//
//	name: zombie-farm
//	targets: [Zombie, Poring]
//	threshold: 0.85
//	target_fps: 15
type Profile struct {
	Name      string   `yaml:"name"`
	Targets   []string `yaml:"targets"`
	Threshold float64  `yaml:"threshold"`
	TargetFPS int      `yaml:"target_fps"`
}

// ParseProfile decodes and validates a profile document
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("hunt: parse profile: %w", err)
	}
	if len(p.Targets) == 0 {
		return nil, fmt.Errorf("hunt: profile %q has no targets", p.Name)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return nil, fmt.Errorf("hunt: profile %q threshold %v outside [0,1]", p.Name, p.Threshold)
	}
	return &p, nil
}

// LoadProfile reads a profile from a YAML file. A missing name defaults
// to the file's base name.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hunt: read profile: %w", err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return p, nil
}

// ApplyTo overlays the profile onto a configuration. Zero values leave
// the existing setting untouched.
func (p *Profile) ApplyTo(cfg *Config) {
	if len(p.Targets) > 0 {
		cfg.Targets = append([]string(nil), p.Targets...)
	}
	if p.Threshold > 0 {
		cfg.Threshold = p.Threshold
	}
	if p.TargetFPS > 0 {
		cfg.TargetFPS = p.TargetFPS
	}
}
