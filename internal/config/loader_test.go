package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromINI(t *testing.T) {
	content := `[Capture]
backend = gdi
targetFPS = 60
outputIndex = 1
regionX = 100
regionY = 200
regionWidth = 800
regionHeight = 600

[Detection]
spritesDir = assets/sprites
threshold = 0.92
targets = Zombie, Skeleton
maxMisses = 10
maxFrames = 500

[Database]
path = scans.db

[Logging]
logLevel = DEBUG
loggingEnabled = false
`
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}

	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	if cfg.Backend != "gdi" {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.TargetFPS != 60 {
		t.Errorf("TargetFPS = %d", cfg.TargetFPS)
	}
	if cfg.OutputIndex != 1 {
		t.Errorf("OutputIndex = %d", cfg.OutputIndex)
	}

	region := cfg.Region()
	if region.X != 100 || region.Y != 200 || region.Width != 800 || region.Height != 600 {
		t.Errorf("Region = %v", region)
	}

	if cfg.SpritesDir != "assets/sprites" {
		t.Errorf("SpritesDir = %q", cfg.SpritesDir)
	}
	if cfg.Threshold != 0.92 {
		t.Errorf("Threshold = %v", cfg.Threshold)
	}
	if len(cfg.Targets) != 2 || cfg.Targets[0] != "Zombie" || cfg.Targets[1] != "Skeleton" {
		t.Errorf("Targets = %v", cfg.Targets)
	}
	if cfg.MaxMisses != 10 || cfg.MaxFrames != 500 {
		t.Errorf("MaxMisses=%d MaxFrames=%d", cfg.MaxMisses, cfg.MaxFrames)
	}
	if cfg.DatabasePath != "scans.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.LogLevel != "DEBUG" || cfg.LoggingEnabled {
		t.Errorf("LogLevel=%q LoggingEnabled=%v", cfg.LogLevel, cfg.LoggingEnabled)
	}
}

func TestLoadFromINIDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}

	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	defaults := NewDefaultConfig()
	if cfg.Backend != defaults.Backend {
		t.Errorf("Backend = %q, want default %q", cfg.Backend, defaults.Backend)
	}
	if cfg.TargetFPS != defaults.TargetFPS {
		t.Errorf("TargetFPS = %d, want default %d", cfg.TargetFPS, defaults.TargetFPS)
	}
	if cfg.Threshold != defaults.Threshold {
		t.Errorf("Threshold = %v, want default %v", cfg.Threshold, defaults.Threshold)
	}
	if len(cfg.Targets) != 0 {
		t.Errorf("Targets = %v, want empty", cfg.Targets)
	}
	if cfg.DatabasePath != "" {
		t.Errorf("DatabasePath = %q, want empty", cfg.DatabasePath)
	}
}

func TestLoadFromINIMissingFile(t *testing.T) {
	if _, err := LoadFromINI(filepath.Join(t.TempDir(), "nope.ini")); err == nil {
		t.Error("expected error for missing settings file")
	}
}

func TestSaveAndReload(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Backend = "gdi"
	cfg.TargetFPS = 24
	cfg.RegionX, cfg.RegionY, cfg.RegionW, cfg.RegionH = 10, 20, 300, 400
	cfg.Threshold = 0.75
	cfg.Targets = []string{"Slime"}
	cfg.DatabasePath = "out.db"

	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := SaveToINI(cfg, path); err != nil {
		t.Fatalf("SaveToINI failed: %v", err)
	}

	reloaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	if reloaded.Backend != cfg.Backend ||
		reloaded.TargetFPS != cfg.TargetFPS ||
		reloaded.RegionW != cfg.RegionW ||
		reloaded.Threshold != cfg.Threshold ||
		reloaded.DatabasePath != cfg.DatabasePath {
		t.Errorf("reloaded config differs: %+v vs %+v", reloaded, cfg)
	}
	if len(reloaded.Targets) != 1 || reloaded.Targets[0] != "Slime" {
		t.Errorf("reloaded Targets = %v", reloaded.Targets)
	}
}
