// Package config reads and writes the Settings.ini file that configures
// scan runs.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/rafabr7/prototiposiargk/internal/hunt"
)

// LoadFromINI loads configuration from a Settings.ini file
func LoadFromINI(path string) (*hunt.Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := NewDefaultConfig()

	// Capture backend and pacing
	capSection := cfg.Section("Capture")
	config.Backend = capSection.Key("backend").MustString(config.Backend)
	config.TargetFPS = capSection.Key("targetFPS").MustInt(config.TargetFPS)
	config.DeviceIndex = capSection.Key("deviceIndex").MustInt(0)
	config.OutputIndex = capSection.Key("outputIndex").MustInt(0)
	config.RegionX = capSection.Key("regionX").MustInt(0)
	config.RegionY = capSection.Key("regionY").MustInt(0)
	config.RegionW = capSection.Key("regionWidth").MustInt(0)
	config.RegionH = capSection.Key("regionHeight").MustInt(0)

	// Detection
	detSection := cfg.Section("Detection")
	config.SpritesDir = detSection.Key("spritesDir").MustString(config.SpritesDir)
	config.Threshold = detSection.Key("threshold").MustFloat64(config.Threshold)
	config.MaxMisses = detSection.Key("maxMisses").MustInt(config.MaxMisses)
	config.MaxFrames = detSection.Key("maxFrames").MustInt(0)

	// Targets (comma-separated list; empty means every loaded sprite)
	targetsStr := detSection.Key("targets").MustString("")
	if targetsStr != "" {
		config.Targets = strings.Split(targetsStr, ",")
		for i := range config.Targets {
			config.Targets[i] = strings.TrimSpace(config.Targets[i])
		}
	}

	// Persistence
	config.DatabasePath = cfg.Section("Database").Key("path").MustString("")

	// Logging
	logSection := cfg.Section("Logging")
	config.LogLevel = logSection.Key("logLevel").MustString("INFO")
	config.LoggingEnabled = logSection.Key("loggingEnabled").MustBool(true)

	return config, nil
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *hunt.Config {
	return &hunt.Config{
		Backend:        "screenshot",
		TargetFPS:      30,
		SpritesDir:     "sprites",
		Threshold:      0.8,
		MaxMisses:      60,
		LogLevel:       "INFO",
		LoggingEnabled: true,
	}
}

// SaveToINI saves configuration to an INI file
func SaveToINI(config *hunt.Config, path string) error {
	cfg := ini.Empty()

	capSection := cfg.Section("Capture")
	capSection.Key("backend").SetValue(config.Backend)
	capSection.Key("targetFPS").SetValue(fmt.Sprintf("%d", config.TargetFPS))
	capSection.Key("deviceIndex").SetValue(fmt.Sprintf("%d", config.DeviceIndex))
	capSection.Key("outputIndex").SetValue(fmt.Sprintf("%d", config.OutputIndex))
	capSection.Key("regionX").SetValue(fmt.Sprintf("%d", config.RegionX))
	capSection.Key("regionY").SetValue(fmt.Sprintf("%d", config.RegionY))
	capSection.Key("regionWidth").SetValue(fmt.Sprintf("%d", config.RegionW))
	capSection.Key("regionHeight").SetValue(fmt.Sprintf("%d", config.RegionH))

	detSection := cfg.Section("Detection")
	detSection.Key("spritesDir").SetValue(config.SpritesDir)
	detSection.Key("threshold").SetValue(fmt.Sprintf("%g", config.Threshold))
	detSection.Key("maxMisses").SetValue(fmt.Sprintf("%d", config.MaxMisses))
	detSection.Key("maxFrames").SetValue(fmt.Sprintf("%d", config.MaxFrames))
	if len(config.Targets) > 0 {
		detSection.Key("targets").SetValue(strings.Join(config.Targets, ","))
	}

	cfg.Section("Database").Key("path").SetValue(config.DatabasePath)

	logSection := cfg.Section("Logging")
	logSection.Key("logLevel").SetValue(config.LogLevel)
	logSection.Key("loggingEnabled").SetValue(fmt.Sprintf("%t", config.LoggingEnabled))

	return cfg.SaveTo(path)
}
